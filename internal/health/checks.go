package health

import (
	"context"
	"errors"

	"github.com/voxmenu/voxmenu/internal/catalog"
)

// CatalogChecker reports ready when the menu catalog is loaded and holds at
// least one item. An empty catalog means every utterance would dead-end in
// clarification, so the service refuses traffic until the menu is present.
func CatalogChecker(cat catalog.Provider) Checker {
	return Checker{
		Name: "catalog",
		Check: func(context.Context) error {
			if cat == nil {
				return errors.New("catalog not loaded")
			}
			if len(cat.Items()) == 0 {
				return errors.New("catalog is empty")
			}
			return nil
		},
	}
}

// Pinger is the subset of an order sink that can be probed for liveness.
// The postgres sink implements it; the JSON file sink does not need to.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SinkChecker reports ready when the order sink answers a ping.
func SinkChecker(p Pinger) Checker {
	return Checker{
		Name: "order_sink",
		Check: func(ctx context.Context) error {
			if p == nil {
				return errors.New("order sink not configured")
			}
			return p.Ping(ctx)
		},
	}
}
