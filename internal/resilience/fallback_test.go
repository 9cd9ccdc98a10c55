package resilience

import (
	"errors"
	"testing"
	"time"
)

func newGroup(t *testing.T, cfg CircuitBreakerConfig) *FallbackGroup[string] {
	t.Helper()
	fg := NewFallbackGroup("primary", "primary", FallbackConfig{CircuitBreaker: cfg})
	fg.AddFallback("secondary", "secondary")
	return fg
}

func TestFallbackGroupExecute(t *testing.T) {
	t.Parallel()

	t.Run("healthy primary serves the call", func(t *testing.T) {
		t.Parallel()
		fg := newGroup(t, CircuitBreakerConfig{MaxFailures: 3})

		var served string
		if err := fg.Execute(func(v string) error { served = v; return nil }); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if served != "primary" {
			t.Fatalf("Execute: served by %q, want primary", served)
		}
	})

	t.Run("failing primary falls over to the secondary", func(t *testing.T) {
		t.Parallel()
		fg := newGroup(t, CircuitBreakerConfig{MaxFailures: 3})

		var served string
		err := fg.Execute(func(v string) error {
			if v == "primary" {
				return errBackendDown
			}
			served = v
			return nil
		})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if served != "secondary" {
			t.Fatalf("Execute: served by %q, want secondary", served)
		}
	})

	t.Run("every backend failing reports ErrAllFailed", func(t *testing.T) {
		t.Parallel()
		fg := newGroup(t, CircuitBreakerConfig{MaxFailures: 3})

		err := fg.Execute(func(string) error { return errBackendDown })
		if !errors.Is(err, ErrAllFailed) {
			t.Fatalf("Execute: got %v, want ErrAllFailed", err)
		}
	})

	t.Run("an open breaker bypasses the primary entirely", func(t *testing.T) {
		t.Parallel()
		fg := newGroup(t, CircuitBreakerConfig{
			MaxFailures:  2,
			ResetTimeout: time.Hour,
		})

		// Trip the primary's breaker.
		for range 2 {
			_ = fg.Execute(func(v string) error {
				if v == "primary" {
					return errBackendDown
				}
				return nil
			})
		}

		var served string
		if err := fg.Execute(func(v string) error { served = v; return nil }); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if served != "secondary" {
			t.Fatalf("Execute: served by %q, want secondary while the primary circuit is open", served)
		}
	})
}

func TestExecuteWithResult(t *testing.T) {
	t.Parallel()

	t.Run("returns the primary's value", func(t *testing.T) {
		t.Parallel()
		fg := newGroup(t, CircuitBreakerConfig{MaxFailures: 3})

		got, err := ExecuteWithResult(fg, func(v string) (string, error) {
			return "reply from " + v, nil
		})
		if err != nil {
			t.Fatalf("ExecuteWithResult: %v", err)
		}
		if got != "reply from primary" {
			t.Fatalf("ExecuteWithResult: got %q, want the primary's reply", got)
		}
	})

	t.Run("falls over and returns the secondary's value", func(t *testing.T) {
		t.Parallel()
		fg := newGroup(t, CircuitBreakerConfig{MaxFailures: 3})

		got, err := ExecuteWithResult(fg, func(v string) (string, error) {
			if v == "primary" {
				return "", errBackendDown
			}
			return "reply from " + v, nil
		})
		if err != nil {
			t.Fatalf("ExecuteWithResult: %v", err)
		}
		if got != "reply from secondary" {
			t.Fatalf("ExecuteWithResult: got %q, want the secondary's reply", got)
		}
	})

	t.Run("every backend failing reports ErrAllFailed", func(t *testing.T) {
		t.Parallel()
		fg := NewFallbackGroup("only", "only", FallbackConfig{
			CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
		})

		_, err := ExecuteWithResult(fg, func(string) (string, error) {
			return "", errBackendDown
		})
		if !errors.Is(err, ErrAllFailed) {
			t.Fatalf("ExecuteWithResult: got %v, want ErrAllFailed", err)
		}
	})
}
