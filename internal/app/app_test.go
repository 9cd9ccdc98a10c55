package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxmenu/voxmenu/internal/app"
	"github.com/voxmenu/voxmenu/internal/config"
	"github.com/voxmenu/voxmenu/internal/order"
	"github.com/voxmenu/voxmenu/internal/orderstore"
)

const sampleMenu = `
restaurant:
  name: "Infocall Dine"
  address: "MG Road, Mumbai"
  phone: "+91 98765 43210"
categories:
  - name: "Starters"
    items:
      - name: "Paneer Tikka"
        price: 250
        available: true
  - name: "Beverages"
    items:
      - name: "Masala Tea"
        price: 50
        available: true
`

type noonClock struct{}

func (noonClock) Now() time.Time {
	return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
}

type discardingSink struct{ calls int }

func (s *discardingSink) AppendOrder(context.Context, order.Snapshot) error {
	s.calls++
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "menu.yaml")
	if err := os.WriteFile(path, []byte(sampleMenu), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg := &config.Config{}
	cfg.Restaurant.MenuPath = path
	cfg.Restaurant.OpenHour = 10
	cfg.Restaurant.CloseHour = 23
	cfg.Orders.Sink = config.SinkNone
	config.SetDefaults(cfg)
	return cfg
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("wires all subsystems from config", func(t *testing.T) {
		t.Parallel()
		a, err := app.New(context.Background(), testConfig(t), app.WithClock(noonClock{}))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer a.Shutdown()

		if a.Catalog() == nil || a.Manager() == nil || a.Sessions() == nil || a.Sink() == nil {
			t.Fatal("New: expected catalog, manager, sessions, and sink to be wired")
		}
		if _, ok := a.Catalog().ByName("Paneer Tikka"); !ok {
			t.Fatal("Catalog: menu file was not loaded")
		}
	})

	t.Run("missing menu file fails", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t)
		cfg.Restaurant.MenuPath = filepath.Join(t.TempDir(), "nope.yaml")
		if _, err := app.New(context.Background(), cfg); err == nil {
			t.Fatal("New: expected an error for a missing menu file")
		}
	})

	t.Run("none sink discards orders", func(t *testing.T) {
		t.Parallel()
		a, err := app.New(context.Background(), testConfig(t), app.WithClock(noonClock{}))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer a.Shutdown()

		if _, ok := a.Sink().(orderstore.Discard); !ok {
			t.Fatalf("Sink: got %T, want orderstore.Discard", a.Sink())
		}
	})

	t.Run("jsonfile sink creates the orders directory", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t)
		cfg.Orders.Sink = config.SinkJSONFile
		cfg.Orders.Dir = filepath.Join(t.TempDir(), "orders")

		a, err := app.New(context.Background(), cfg, app.WithClock(noonClock{}))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer a.Shutdown()

		info, err := os.Stat(cfg.Orders.Dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("Stat %q: %v, want the orders directory", cfg.Orders.Dir, err)
		}
	})

	t.Run("injected sink overrides config", func(t *testing.T) {
		t.Parallel()
		sink := &discardingSink{}
		a, err := app.New(context.Background(), testConfig(t), app.WithSink(sink), app.WithClock(noonClock{}))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer a.Shutdown()

		if a.Sink() != orderstore.Sink(sink) {
			t.Fatalf("Sink: got %T, want the injected sink", a.Sink())
		}
	})
}

func TestShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(t), app.WithClock(noonClock{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := a.Shutdown(); err != nil {
		t.Fatalf("Shutdown (second call): %v", err)
	}
}

func TestEndToEndTurn(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(t), app.WithClock(noonClock{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown()

	d, err := a.Sessions().HandleUtterance(context.Background(), "caller-1", "i want two paneer tikka")
	if err != nil {
		t.Fatalf("HandleUtterance: %v", err)
	}
	sess, ok := a.Sessions().Session("caller-1")
	if !ok {
		t.Fatal("Session: caller-1 not found after first utterance")
	}
	if got := sess.Ledger().Total(); got != 500 {
		t.Fatalf("Ledger: total %.0f, want 500 (reply %q)", got, d.Reply)
	}
}
