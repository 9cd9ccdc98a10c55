// Package policy implements the rule gate that authorizes proposed order
// operations against business rules: restaurant hours, item availability,
// and the free-text topic blocklist.
//
// The gate is a pure decision function — no side effects, no I/O. Rules are
// evaluated in a fixed order and the first failing rule determines the
// denial reason, so decisions are deterministic for a given clock reading.
package policy

import (
	"strings"
	"time"

	"github.com/voxmenu/voxmenu/internal/catalog"
)

// Clock supplies the current time. Injected so the hours rule is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production [Clock] backed by [time.Now].
type SystemClock struct{}

// Now implements [Clock].
func (SystemClock) Now() time.Time { return time.Now() }

// OpKind classifies a proposed operation for rule selection.
type OpKind int

const (
	// OpAddItem adds or increments an order line.
	OpAddItem OpKind = iota

	// OpRemoveItem decrements or removes an order line.
	OpRemoveItem

	// OpSetQuantity sets an order line's quantity to an absolute value.
	OpSetQuantity

	// OpFinalize places the order.
	OpFinalize

	// OpFreeText is a non-order query headed for the free-text delegate.
	OpFreeText
)

// String returns the kind's human-readable name.
func (k OpKind) String() string {
	switch k {
	case OpAddItem:
		return "add_item"
	case OpRemoveItem:
		return "remove_item"
	case OpSetQuantity:
		return "set_quantity"
	case OpFinalize:
		return "finalize"
	case OpFreeText:
		return "free_text"
	default:
		return "unknown"
	}
}

// Operation is a proposed mutation or query submitted for authorization.
type Operation struct {
	// Kind selects which rules apply.
	Kind OpKind

	// ItemID is the catalog item the operation touches. Empty for
	// finalize and free-text operations.
	ItemID string

	// Utterance is the normalized caller text, consulted by the topic
	// blocklist for free-text operations.
	Utterance string
}

// DenyReason is the machine-readable code for a denied operation.
type DenyReason string

const (
	// ReasonClosed — the restaurant is outside configured opening hours.
	ReasonClosed DenyReason = "closed"

	// ReasonUnavailable — the referenced item is not currently orderable.
	ReasonUnavailable DenyReason = "unavailable"

	// ReasonBlocked — the utterance matches the topic blocklist.
	ReasonBlocked DenyReason = "blocked"
)

// Decision is the outcome of [Gate.Authorize].
type Decision struct {
	// Allowed reports whether the operation may proceed.
	Allowed bool

	// Reason is the first failing rule's code. Empty when Allowed.
	Reason DenyReason
}

// Allow is the decision for an authorized operation.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denial carrying reason.
func Deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// Config holds the gate's rule inputs.
type Config struct {
	// OpenHour and CloseHour bound the ordering window in local hours
	// [0, 24). Orders are accepted when OpenHour <= hour < CloseHour;
	// CloseHour below OpenHour describes an overnight window.
	OpenHour  int
	CloseHour int

	// BlockedKeywords is the free-text topic blocklist. Matching is
	// whole-substring on the normalized utterance.
	BlockedKeywords []string
}

// Gate evaluates business rules against proposed operations. It is
// read-only after construction and safe for concurrent use.
type Gate struct {
	cfg     Config
	catalog catalog.Provider
	clock   Clock
}

// NewGate builds a Gate over the given catalog. A nil clock defaults to
// [SystemClock].
func NewGate(cfg Config, cat catalog.Provider, clock Clock) *Gate {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Gate{cfg: cfg, catalog: cat, clock: clock}
}

// Authorize evaluates the rules in fixed order — hours, availability,
// blocklist — and returns the first failure, or Allow.
func (g *Gate) Authorize(op Operation) Decision {
	if mutatesOrder(op.Kind) && !g.isOpen() {
		return Deny(ReasonClosed)
	}
	if op.ItemID != "" && !g.catalog.IsAvailable(op.ItemID) {
		return Deny(ReasonUnavailable)
	}
	if op.Kind == OpFreeText && g.isBlockedTopic(op.Utterance) {
		return Deny(ReasonBlocked)
	}
	return Allow()
}

// Hours returns the configured opening window for user-facing messages.
func (g *Gate) Hours() (open, close int) {
	return g.cfg.OpenHour, g.cfg.CloseHour
}

// mutatesOrder reports whether the kind changes ledger state and is
// therefore subject to the hours rule.
func mutatesOrder(kind OpKind) bool {
	switch kind {
	case OpAddItem, OpRemoveItem, OpSetQuantity, OpFinalize:
		return true
	}
	return false
}

// isOpen evaluates the hours window against the injected clock, handling
// overnight windows (close < open).
func (g *Gate) isOpen() bool {
	if g.cfg.OpenHour == g.cfg.CloseHour {
		// Degenerate window means always open (24h operation).
		return true
	}
	hour := g.clock.Now().Hour()
	if g.cfg.OpenHour < g.cfg.CloseHour {
		return hour >= g.cfg.OpenHour && hour < g.cfg.CloseHour
	}
	return hour >= g.cfg.OpenHour || hour < g.cfg.CloseHour
}

// isBlockedTopic reports whether the normalized utterance contains any
// blocklisted keyword.
func (g *Gate) isBlockedTopic(utterance string) bool {
	text := strings.ToLower(utterance)
	for _, kw := range g.cfg.BlockedKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
