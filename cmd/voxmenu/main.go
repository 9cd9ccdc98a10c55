// Command voxmenu runs the restaurant ordering engine with a console call
// simulator and an ops HTTP listener for metrics and health probes.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/voxmenu/voxmenu/internal/app"
	"github.com/voxmenu/voxmenu/internal/config"
	"github.com/voxmenu/voxmenu/internal/health"
	"github.com/voxmenu/voxmenu/internal/observe"
	"github.com/voxmenu/voxmenu/internal/resilience"
	"github.com/voxmenu/voxmenu/pkg/provider/llm"
	"github.com/voxmenu/voxmenu/pkg/provider/llm/anyllm"
	"github.com/voxmenu/voxmenu/pkg/provider/llm/mock"
	"github.com/voxmenu/voxmenu/pkg/provider/llm/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	callerID := flag.String("caller", "console", "caller ID for the console session")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxmenu: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxmenu: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxmenu starting",
		"config", *configPath,
		"menu", cfg.Restaurant.MenuPath,
		"ops_addr", cfg.Server.OpsAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "voxmenu",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	var delegate llm.Provider
	if cfg.Providers.LLM.Name != "" {
		backend, err := reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			slog.Error("failed to build delegate provider", "err", err)
			return 1
		}
		// Wrap the backend in a circuit breaker so a hung or failing model
		// endpoint cannot stall every live call.
		delegate = resilience.NewDelegateFallback(backend, cfg.Providers.LLM.Name, resilience.FallbackConfig{})
		slog.Info("delegate provider ready", "provider", backend.Name())
	}

	application, err := app.New(ctx, cfg, app.WithDelegate(delegate))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			slog.Warn("shutdown error", "err", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runOps(ctx, cfg.Server.OpsAddr, application) })
	g.Go(func() error { return runConsole(ctx, application, *callerID) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// runOps serves /metrics, /healthz, and /readyz until ctx is cancelled.
func runOps(ctx context.Context, addr string, application *app.App) error {
	checkers := []health.Checker{health.CatalogChecker(application.Catalog())}
	if p, ok := application.Sink().(health.Pinger); ok {
		checkers = append(checkers, health.SinkChecker(p))
	}

	mux := http.NewServeMux()
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	slog.Info("ops listener ready", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("ops listener: %w", err)
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return ctx.Err()
	}
}

// runConsole simulates a call on stdin: each line is one caller utterance.
func runConsole(ctx context.Context, application *app.App, callerID string) error {
	sessions := application.Sessions()
	if _, err := sessions.StartSession(ctx, callerID); err != nil {
		return err
	}
	defer sessions.EndSession(context.WithoutCancel(ctx), callerID)

	fmt.Println("voxmenu console — type an utterance, Ctrl+D or Ctrl+C to hang up")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			d, err := sessions.HandleUtterance(ctx, callerID, line)
			if err != nil {
				slog.Error("turn failed", "err", err)
				continue
			}
			fmt.Printf("agent> %s\n", d.Reply)
			if d.Order != nil {
				slog.Info("order committed", "order_id", d.Order.ID, "total", d.Order.Total)
			}
		}
	}
}

// registerBuiltinProviders wires the delegate factories that ship with
// voxmenu into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// The any-llm backends share one pattern: optional APIKey + BaseURL.
	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; BaseURL is the address, no API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewOllama(entry.Model, opts...)
	})

	// openai uses the official client directly.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// mock echoes a fixed reply; handy for demos without credentials.
	reg.RegisterLLM("mock", func(entry config.ProviderEntry) (llm.Provider, error) {
		reply := optString(entry.Options, "reply")
		if reply == "" {
			reply = "I'm sorry, could you rephrase that?"
		}
		return &mock.Provider{Reply: reply}, nil
	})
}

// newLogger builds the default text logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// optString extracts a string value from a provider Options map.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}
