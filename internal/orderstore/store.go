// Package orderstore defines the persistence sink contract for finalized
// orders and its implementations.
//
// The ledger hands an immutable [order.Snapshot] to a [Sink] exactly once
// per successful finalize. A sink failure leaves the order awaiting
// confirmation so the caller's next turn can retry; order IDs are minted
// before the first hand-off attempt, so retries are idempotent on the
// sink side when the backend deduplicates by ID.
package orderstore

import (
	"context"
	"errors"

	"github.com/voxmenu/voxmenu/internal/order"
)

// ErrDuplicateOrder is returned by sinks that detect an already-recorded
// order ID. Callers treat it as success — the order made it on a previous
// attempt.
var ErrDuplicateOrder = errors.New("order already recorded")

// Sink receives finalized order snapshots. Implementations must be safe
// for concurrent use across sessions and must respect ctx cancellation —
// the dialog layer calls AppendOrder under a bounded timeout.
type Sink interface {
	// AppendOrder durably records the snapshot.
	AppendOrder(ctx context.Context, snapshot order.Snapshot) error
}

// Discard is a [Sink] that drops every order. Used when no persistence
// backend is configured (demo/development mode).
type Discard struct{}

// AppendOrder implements [Sink].
func (Discard) AppendOrder(context.Context, order.Snapshot) error { return nil }
