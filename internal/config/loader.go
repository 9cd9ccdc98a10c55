package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidLLMProviders lists known delegate backend names. Used by [Validate]
// to warn about likely typos; unknown names are not fatal because any-llm
// accepts third-party endpoints.
var ValidLLMProviders = []string{
	"openai", "anthropic", "ollama", "gemini", "deepseek",
	"mistral", "groq", "llamacpp", "llamafile", "mock", "echo",
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	SetDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults fills zero-valued tuning fields with their documented defaults.
func SetDefaults(cfg *Config) {
	if cfg.Server.OpsAddr == "" {
		cfg.Server.OpsAddr = ":9090"
	}
	if cfg.Matching.FuzzyThreshold == 0 {
		cfg.Matching.FuzzyThreshold = 0.72
	}
	if cfg.Matching.VariantThreshold == 0 {
		cfg.Matching.VariantThreshold = 0.80
	}
	if cfg.Matching.AddonThreshold == 0 {
		cfg.Matching.AddonThreshold = 0.80
	}
	if cfg.Matching.AmbiguityMargin == 0 {
		cfg.Matching.AmbiguityMargin = 0.05
	}
	if cfg.Orders.Sink == "" {
		cfg.Orders.Sink = SinkJSONFile
	}
	if cfg.Orders.Dir == "" {
		cfg.Orders.Dir = "orders"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Restaurant.MenuPath == "" {
		errs = append(errs, errors.New("restaurant.menu_path is required"))
	}
	if cfg.Restaurant.OpenHour < 0 || cfg.Restaurant.OpenHour > 23 {
		errs = append(errs, fmt.Errorf("restaurant.open_hour %d is out of range [0, 23]", cfg.Restaurant.OpenHour))
	}
	if cfg.Restaurant.CloseHour < 0 || cfg.Restaurant.CloseHour > 23 {
		errs = append(errs, fmt.Errorf("restaurant.close_hour %d is out of range [0, 23]", cfg.Restaurant.CloseHour))
	}

	for name, v := range map[string]float64{
		"matching.fuzzy_match_threshold": cfg.Matching.FuzzyThreshold,
		"matching.variant_threshold":     cfg.Matching.VariantThreshold,
		"matching.addon_threshold":       cfg.Matching.AddonThreshold,
	} {
		if v <= 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s %.2f is out of range (0, 1]", name, v))
		}
	}
	if cfg.Matching.AmbiguityMargin < 0 || cfg.Matching.AmbiguityMargin > 0.5 {
		errs = append(errs, fmt.Errorf("matching.ambiguity_margin %.2f is out of range [0, 0.5]", cfg.Matching.AmbiguityMargin))
	}

	if cfg.Dialog.DelegateTimeout < 0 {
		errs = append(errs, errors.New("dialog.delegate_timeout must not be negative"))
	}
	if cfg.Dialog.SinkTimeout < 0 {
		errs = append(errs, errors.New("dialog.sink_timeout must not be negative"))
	}

	if !cfg.Orders.Sink.IsValid() {
		errs = append(errs, fmt.Errorf("orders.sink %q is invalid; valid values: jsonfile, postgres, none", cfg.Orders.Sink))
	}
	if cfg.Orders.Sink == SinkPostgres && cfg.Orders.PostgresDSN == "" {
		errs = append(errs, errors.New("orders.postgres_dsn is required when orders.sink is postgres"))
	}

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("providers.llm is not configured; unrecognised utterances will get a clarification template instead of a generated reply")
	} else if !slices.Contains(ValidLLMProviders, cfg.Providers.LLM.Name) {
		slog.Warn("unknown provider name — may be a typo or third-party provider",
			"kind", "llm",
			"name", cfg.Providers.LLM.Name,
			"known", ValidLLMProviders,
		)
	}

	return errors.Join(errs...)
}
