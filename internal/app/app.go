// Package app wires all voxmenu subsystems into a running application.
//
// The App struct owns the full lifecycle: New loads the catalog, builds the
// matching pipeline and dialog manager from config, and connects the order
// sink; Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithSink,
// WithDelegate, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/voxmenu/voxmenu/internal/catalog"
	"github.com/voxmenu/voxmenu/internal/config"
	"github.com/voxmenu/voxmenu/internal/dialog"
	"github.com/voxmenu/voxmenu/internal/nlu"
	"github.com/voxmenu/voxmenu/internal/observe"
	"github.com/voxmenu/voxmenu/internal/orderstore"
	"github.com/voxmenu/voxmenu/internal/orderstore/jsonfile"
	"github.com/voxmenu/voxmenu/internal/orderstore/postgres"
	"github.com/voxmenu/voxmenu/internal/policy"
	"github.com/voxmenu/voxmenu/pkg/provider/llm"
)

// App owns all subsystem lifetimes for the ordering engine.
type App struct {
	cfg *config.Config

	catalog  *catalog.Catalog
	manager  *dialog.Manager
	sessions *SessionManager
	sink     orderstore.Sink
	delegate llm.Provider
	metrics  *observe.Metrics
	clock    policy.Clock

	// closers are called in reverse order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithCatalog injects a catalog instead of loading the menu file from config.
func WithCatalog(c *catalog.Catalog) Option {
	return func(a *App) { a.catalog = c }
}

// WithSink injects an order sink instead of creating one from config.
func WithSink(s orderstore.Sink) Option {
	return func(a *App) { a.sink = s }
}

// WithDelegate injects the free-text delegate instead of building one from
// the provider registry.
func WithDelegate(p llm.Provider) Option {
	return func(a *App) { a.delegate = p }
}

// WithMetrics injects a metrics instance instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithClock injects the policy clock. Used in tests to pin opening hours.
func WithClock(c policy.Clock) Option {
	return func(a *App) { a.clock = c }
}

// New creates an App by wiring all subsystems together. The delegate comes
// from main (populated via the config registry); everything else is built
// from cfg unless overridden by an Option.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if a.catalog == nil {
		cat, err := catalog.LoadMenuFile(cfg.Restaurant.MenuPath)
		if err != nil {
			return nil, fmt.Errorf("app: load menu: %w", err)
		}
		a.catalog = cat
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.clock == nil {
		a.clock = policy.SystemClock{}
	}

	if a.sink == nil {
		sink, err := a.buildSink(ctx)
		if err != nil {
			return nil, err
		}
		a.sink = sink
	}

	normalizer := nlu.NewNormalizer(cfg.Matching.PhoneticCorrections)
	matcher := nlu.NewMatcher(
		nlu.WithThreshold(cfg.Matching.FuzzyThreshold),
		nlu.WithPhoneticAssist(cfg.Matching.PhoneticAssistEnabled()),
	)
	extractor := nlu.NewExtractor(a.catalog, matcher,
		nlu.WithVariantThreshold(cfg.Matching.VariantThreshold),
		nlu.WithAddonThreshold(cfg.Matching.AddonThreshold),
		nlu.WithAmbiguityMargin(cfg.Matching.AmbiguityMargin),
	)
	gate := policy.NewGate(policy.Config{
		OpenHour:        cfg.Restaurant.OpenHour,
		CloseHour:       cfg.Restaurant.CloseHour,
		BlockedKeywords: cfg.Policy.BlockedKeywords,
	}, a.catalog, a.clock)

	manager, err := dialog.NewManager(dialog.ManagerConfig{
		Catalog:                a.catalog,
		Normalizer:             normalizer,
		Matcher:                matcher,
		Extractor:              extractor,
		Gate:                   gate,
		Delegate:               a.delegate,
		Sink:                   a.sink,
		Metrics:                a.metrics,
		RequireAddConfirmation: cfg.Dialog.RequireAddConfirmation,
		DelegateTimeout:        cfg.Dialog.DelegateTimeout,
		SinkTimeout:            cfg.Dialog.SinkTimeout,
		HistoryLimit:           cfg.Dialog.HistoryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("app: build dialog manager: %w", err)
	}
	a.manager = manager
	a.sessions = NewSessionManager(a.catalog, manager, a.metrics)

	return a, nil
}

// buildSink constructs the configured order sink and registers its closer.
func (a *App) buildSink(ctx context.Context) (orderstore.Sink, error) {
	switch a.cfg.Orders.Sink {
	case config.SinkPostgres:
		store, err := postgres.NewStore(ctx, a.cfg.Orders.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("app: connect order store: %w", err)
		}
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		return store, nil
	case config.SinkNone:
		return orderstore.Discard{}, nil
	default:
		store, err := jsonfile.New(a.cfg.Orders.Dir)
		if err != nil {
			return nil, fmt.Errorf("app: open order history: %w", err)
		}
		return store, nil
	}
}

// Catalog returns the loaded menu catalog.
func (a *App) Catalog() *catalog.Catalog { return a.catalog }

// Manager returns the dialog manager.
func (a *App) Manager() *dialog.Manager { return a.manager }

// Sessions returns the session manager.
func (a *App) Sessions() *SessionManager { return a.sessions }

// Sink returns the active order sink.
func (a *App) Sink() orderstore.Sink { return a.sink }

// Shutdown tears down subsystems in reverse construction order. Safe to
// call more than once.
func (a *App) Shutdown() error {
	var err error
	a.stopOnce.Do(func() {
		var errs []error
		for i := len(a.closers) - 1; i >= 0; i-- {
			if e := a.closers[i](); e != nil {
				errs = append(errs, e)
			}
		}
		err = errors.Join(errs...)
	})
	return err
}
