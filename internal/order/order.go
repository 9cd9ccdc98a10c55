// Package order maintains the authoritative order ledger for one active
// voice session: the list of order lines, the customer details, and the
// order lifecycle state machine.
//
// Lines with identical (item, variant, addons) never coexist — they merge
// by summing quantities, keyed by an explicit lookup rather than linear
// re-scans. Totals are recomputed from the lines on every read, never
// cached across mutations.
//
// A Ledger belongs to exactly one session and is driven synchronously by
// that session's dialog manager; it needs no internal locking.
package order

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the order lifecycle state.
type Status int

const (
	// StatusEmpty — session started, nothing ordered yet.
	StatusEmpty Status = iota

	// StatusBuilding — at least one line present.
	StatusBuilding

	// StatusAwaitingConfirmation — checkout requested, hand-off to the
	// persistence sink pending.
	StatusAwaitingConfirmation

	// StatusFinalized — order handed off; immutable from here on.
	StatusFinalized

	// StatusCancelled — order discarded; terminal.
	StatusCancelled
)

// String returns the status's human-readable name.
func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusBuilding:
		return "building"
	case StatusAwaitingConfirmation:
		return "awaiting_confirmation"
	case StatusFinalized:
		return "finalized"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// terminal reports whether no further transitions are possible.
func (s Status) terminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

// CustomerInfo identifies the caller for order hand-off.
type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// complete reports whether both fields are present, the precondition for
// finalizing.
func (c CustomerInfo) complete() bool {
	return c.Name != "" && c.Phone != ""
}

// Line is one order line. UnitPrice is derived from the catalog base price
// plus the variant delta and addon prices at the time the line was created.
type Line struct {
	ItemID    string   `json:"item_id"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	Variant   string   `json:"variant,omitempty"`
	Addons    []string `json:"addons,omitempty"`
	UnitPrice float64  `json:"unit_price"`
}

// Total returns quantity × unit price.
func (l Line) Total() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// key identifies the mergeable identity of a line. Addons are sorted so
// "cheese, olives" and "olives, cheese" produce the same key.
func lineKey(itemID, variant string, addons []string) string {
	sorted := make([]string, len(addons))
	copy(sorted, addons)
	sort.Strings(sorted)
	return itemID + "\x00" + variant + "\x00" + strings.Join(sorted, "\x00")
}

// Snapshot is the immutable view of an order handed to the persistence sink
// and embedded in response directives. All slices are deep copies.
type Snapshot struct {
	ID        string       `json:"order_id"`
	CreatedAt time.Time    `json:"created_at"`
	Lines     []Line       `json:"items"`
	Customer  CustomerInfo `json:"customer"`
	Status    string       `json:"status"`
	Total     float64      `json:"total"`
}

// Describe renders the recap sentence for the snapshot, matching the
// spoken recap format: "2 Paneer Tikka (440 rupees); …. Total: 720 rupees."
func (s Snapshot) Describe() string {
	if len(s.Lines) == 0 {
		return "You don't have any items in your order yet."
	}
	parts := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		name := l.Name
		if l.Variant != "" {
			name = l.Variant + " " + name
		}
		if len(l.Addons) > 0 {
			name += " with " + strings.Join(l.Addons, ", ")
		}
		parts[i] = fmt.Sprintf("%d %s (%.0f rupees)", l.Quantity, name, l.Total())
	}
	return fmt.Sprintf("Your current order: %s. Total: %.0f rupees.", strings.Join(parts, "; "), s.Total)
}
