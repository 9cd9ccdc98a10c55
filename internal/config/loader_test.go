package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voxmenu/voxmenu/internal/config"
)

const minimalConfig = `
restaurant:
  menu_path: configs/menu.yaml
  open_hour: 10
  close_hour: 23
`

func TestLoadFromReaderDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(minimalConfig))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.OpsAddr != ":9090" {
		t.Fatalf("OpsAddr: got %q, want %q", cfg.Server.OpsAddr, ":9090")
	}
	if cfg.Matching.FuzzyThreshold != 0.72 {
		t.Fatalf("FuzzyThreshold: got %v, want 0.72", cfg.Matching.FuzzyThreshold)
	}
	if cfg.Matching.VariantThreshold != 0.80 || cfg.Matching.AddonThreshold != 0.80 {
		t.Fatalf("modifier thresholds: got %v / %v, want 0.80 each",
			cfg.Matching.VariantThreshold, cfg.Matching.AddonThreshold)
	}
	if cfg.Matching.AmbiguityMargin != 0.05 {
		t.Fatalf("AmbiguityMargin: got %v, want 0.05", cfg.Matching.AmbiguityMargin)
	}
	if !cfg.Matching.PhoneticAssistEnabled() {
		t.Fatal("PhoneticAssistEnabled: unset flag must default to enabled")
	}
	if cfg.Orders.Sink != config.SinkJSONFile {
		t.Fatalf("Orders.Sink: got %q, want %q", cfg.Orders.Sink, config.SinkJSONFile)
	}
	if cfg.Orders.Dir != "orders" {
		t.Fatalf("Orders.Dir: got %q, want %q", cfg.Orders.Dir, "orders")
	}
}

func TestLoadFromReaderExplicitValues(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(`
server:
  ops_addr: ":8088"
  log_level: debug
restaurant:
  menu_path: menu.yaml
  open_hour: 0
  close_hour: 0
matching:
  fuzzy_match_threshold: 0.65
  phonetic_assist: false
  phonetic_corrections:
    panir: paneer
dialog:
  require_add_confirmation: true
  delegate_timeout: 2s
  sink_timeout: 500ms
  history_limit: 6
providers:
  llm:
    name: ollama
    model: llama3.2
    base_url: http://localhost:11434
orders:
  sink: none
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.LogLevel != config.LogDebug {
		t.Fatalf("LogLevel: got %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Matching.FuzzyThreshold != 0.65 {
		t.Fatalf("FuzzyThreshold: got %v, want 0.65", cfg.Matching.FuzzyThreshold)
	}
	if cfg.Matching.PhoneticAssistEnabled() {
		t.Fatal("PhoneticAssistEnabled: explicit false must stick")
	}
	if got := cfg.Matching.PhoneticCorrections["panir"]; got != "paneer" {
		t.Fatalf("PhoneticCorrections: got %q, want %q", got, "paneer")
	}
	if cfg.Dialog.DelegateTimeout != 2*time.Second {
		t.Fatalf("DelegateTimeout: got %v, want 2s", cfg.Dialog.DelegateTimeout)
	}
	if cfg.Dialog.SinkTimeout != 500*time.Millisecond {
		t.Fatalf("SinkTimeout: got %v, want 500ms", cfg.Dialog.SinkTimeout)
	}
	if !cfg.Dialog.RequireAddConfirmation {
		t.Fatal("RequireAddConfirmation: expected true")
	}
	if cfg.Providers.LLM.Name != "ollama" || cfg.Providers.LLM.Model != "llama3.2" {
		t.Fatalf("Providers.LLM: got %+v, want ollama / llama3.2", cfg.Providers.LLM)
	}
	if cfg.Orders.Sink != config.SinkNone {
		t.Fatalf("Orders.Sink: got %q, want none", cfg.Orders.Sink)
	}
}

func TestLoadFromReaderValidationErrors(t *testing.T) {
	t.Parallel()

	t.Run("all failures are reported together", func(t *testing.T) {
		t.Parallel()
		_, err := config.LoadFromReader(strings.NewReader(`
server:
  log_level: loud
restaurant:
  open_hour: 25
  close_hour: 23
matching:
  fuzzy_match_threshold: 1.5
orders:
  sink: carrier-pigeon
`))
		if err == nil {
			t.Fatal("LoadFromReader: expected validation errors")
		}
		for _, want := range []string{
			"server.log_level",
			"restaurant.menu_path is required",
			"restaurant.open_hour 25",
			"matching.fuzzy_match_threshold 1.50",
			"orders.sink",
		} {
			if !strings.Contains(err.Error(), want) {
				t.Fatalf("error %q missing %q", err, want)
			}
		}
	})

	t.Run("postgres sink requires a dsn", func(t *testing.T) {
		t.Parallel()
		_, err := config.LoadFromReader(strings.NewReader(`
restaurant:
  menu_path: menu.yaml
orders:
  sink: postgres
`))
		if err == nil || !strings.Contains(err.Error(), "orders.postgres_dsn is required") {
			t.Fatalf("LoadFromReader: got %v, want a postgres_dsn error", err)
		}
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		t.Parallel()
		_, err := config.LoadFromReader(strings.NewReader(`
restarant:
  menu_path: menu.yaml
`))
		if err == nil {
			t.Fatal("LoadFromReader: expected an error for a misspelled section")
		}
	})

	t.Run("negative timeout is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := config.LoadFromReader(strings.NewReader(`
restaurant:
  menu_path: menu.yaml
dialog:
  delegate_timeout: -1s
`))
		if err == nil || !strings.Contains(err.Error(), "dialog.delegate_timeout") {
			t.Fatalf("LoadFromReader: got %v, want a delegate_timeout error", err)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("reads a config file from disk", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "voxmenu.yaml")
		if err := os.WriteFile(path, []byte(minimalConfig), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Restaurant.MenuPath != "configs/menu.yaml" {
			t.Fatalf("MenuPath: got %q, want %q", cfg.Restaurant.MenuPath, "configs/menu.yaml")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("Load: expected an error for a missing file")
		}
	})
}
