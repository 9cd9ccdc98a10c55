package policy_test

import (
	"testing"
	"time"

	"github.com/voxmenu/voxmenu/internal/catalog"
	"github.com/voxmenu/voxmenu/internal/policy"
)

type clockAt struct{ hour int }

func (c clockAt) Now() time.Time {
	return time.Date(2026, 8, 31, c.hour, 30, 0, 0, time.UTC)
}

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(catalog.RestaurantInfo{Name: "Infocall Dine"}, []catalog.MenuItem{
		{Name: "Paneer Tikka", BasePrice: 250, Available: true},
		{Name: "Gulab Jamun", BasePrice: 80, Available: false},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func TestHoursRule(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t)
	add := policy.Operation{Kind: policy.OpAddItem, ItemID: "paneer-tikka"}

	tests := []struct {
		name      string
		open      int
		close     int
		hour      int
		wantAllow bool
	}{
		{"inside window", 10, 23, 12, true},
		{"before opening", 10, 23, 8, false},
		{"after closing", 10, 23, 23, false},
		{"at opening hour", 10, 23, 10, true},
		{"overnight window late evening", 18, 2, 23, true},
		{"overnight window after midnight", 18, 2, 1, true},
		{"overnight window daytime", 18, 2, 10, false},
		{"equal hours means always open", 0, 0, 3, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := policy.NewGate(policy.Config{OpenHour: tc.open, CloseHour: tc.close}, cat, clockAt{tc.hour})
			dec := g.Authorize(add)
			if dec.Allowed != tc.wantAllow {
				t.Fatalf("Authorize: allowed=%v reason=%q, want allowed=%v", dec.Allowed, dec.Reason, tc.wantAllow)
			}
			if !tc.wantAllow && dec.Reason != policy.ReasonClosed {
				t.Fatalf("Authorize: reason %q, want %q", dec.Reason, policy.ReasonClosed)
			}
		})
	}
}

func TestAvailabilityRule(t *testing.T) {
	t.Parallel()

	g := policy.NewGate(policy.Config{}, newCatalog(t), clockAt{12})

	if dec := g.Authorize(policy.Operation{Kind: policy.OpAddItem, ItemID: "paneer-tikka"}); !dec.Allowed {
		t.Fatalf("Authorize available item: denied with %q", dec.Reason)
	}
	if dec := g.Authorize(policy.Operation{Kind: policy.OpAddItem, ItemID: "gulab-jamun"}); dec.Allowed || dec.Reason != policy.ReasonUnavailable {
		t.Fatalf("Authorize unavailable item: %+v, want denial with %q", dec, policy.ReasonUnavailable)
	}
	if dec := g.Authorize(policy.Operation{Kind: policy.OpAddItem, ItemID: "no-such-item"}); dec.Allowed {
		t.Fatal("Authorize unknown item: expected denial")
	}
}

func TestBlocklistRule(t *testing.T) {
	t.Parallel()

	g := policy.NewGate(policy.Config{
		BlockedKeywords: []string{"discount code", "refund"},
	}, newCatalog(t), clockAt{12})

	t.Run("blocked topic in free text", func(t *testing.T) {
		t.Parallel()
		dec := g.Authorize(policy.Operation{Kind: policy.OpFreeText, Utterance: "give me a Discount Code"})
		if dec.Allowed || dec.Reason != policy.ReasonBlocked {
			t.Fatalf("Authorize: %+v, want denial with %q", dec, policy.ReasonBlocked)
		}
	})

	t.Run("benign free text passes", func(t *testing.T) {
		t.Parallel()
		dec := g.Authorize(policy.Operation{Kind: policy.OpFreeText, Utterance: "do you have parking"})
		if !dec.Allowed {
			t.Fatalf("Authorize: denied with %q", dec.Reason)
		}
	})

	t.Run("blocklist does not apply to order operations", func(t *testing.T) {
		t.Parallel()
		dec := g.Authorize(policy.Operation{Kind: policy.OpAddItem, ItemID: "paneer-tikka", Utterance: "refund me a paneer tikka"})
		if !dec.Allowed {
			t.Fatalf("Authorize: denied with %q", dec.Reason)
		}
	})
}

func TestFreeTextIgnoresHours(t *testing.T) {
	t.Parallel()

	// Menu questions keep working while the kitchen is closed; only ledger
	// mutations are bounded by opening hours.
	g := policy.NewGate(policy.Config{OpenHour: 10, CloseHour: 23}, newCatalog(t), clockAt{3})

	if dec := g.Authorize(policy.Operation{Kind: policy.OpFreeText, Utterance: "what time do you open"}); !dec.Allowed {
		t.Fatalf("Authorize free text while closed: denied with %q", dec.Reason)
	}
	if dec := g.Authorize(policy.Operation{Kind: policy.OpFinalize}); dec.Allowed {
		t.Fatal("Authorize finalize while closed: expected denial")
	}
}

func TestHours(t *testing.T) {
	t.Parallel()

	g := policy.NewGate(policy.Config{OpenHour: 10, CloseHour: 23}, newCatalog(t), nil)
	open, close := g.Hours()
	if open != 10 || close != 23 {
		t.Fatalf("Hours: (%d, %d), want (10, 23)", open, close)
	}
}
