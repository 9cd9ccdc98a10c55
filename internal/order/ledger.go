package order

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/voxmenu/voxmenu/internal/catalog"
)

// ErrInvalidTransition is returned when an operation is not legal in the
// order's current state, e.g. finalizing an empty order or mutating a
// finalized one. The ledger state is unchanged when this is returned.
var ErrInvalidTransition = errors.New("invalid order state transition")

// ErrCustomerRequired is returned by Finalize when customer details are
// missing or incomplete. It wraps [ErrInvalidTransition].
var ErrCustomerRequired = fmt.Errorf("%w: customer name and phone required", ErrInvalidTransition)

// ErrNoSuchLine is returned when a remove or quantity update references a
// line that does not exist. Reported, never silently ignored, so the dialog
// layer can tell the caller.
var ErrNoSuchLine = errors.New("no matching order line")

// ErrInvalidQuantity is returned for non-positive quantities on AddItem.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// ErrUnknownVariant is returned when the variant label is not defined for
// the item.
var ErrUnknownVariant = errors.New("unknown variant for item")

// ErrUnknownAddon is returned when an addon label is not defined for the item.
var ErrUnknownAddon = errors.New("unknown addon for item")

// LedgerOption configures a [Ledger].
type LedgerOption func(*Ledger)

// WithNow overrides the ledger's time source. Used in tests and by callers
// that already hold an injected clock.
func WithNow(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger is the per-session order state machine. It owns one Order at a
// time; a session holds exactly one Ledger and drives it synchronously.
type Ledger struct {
	catalog catalog.Provider
	now     func() time.Time

	id        string
	createdAt time.Time
	status    Status
	lines     []Line
	index     map[string]int // lineKey → index into lines
	customer  CustomerInfo
}

// NewLedger creates an empty ledger over the given catalog.
func NewLedger(cat catalog.Provider, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		catalog: cat,
		now:     time.Now,
		status:  StatusEmpty,
		index:   make(map[string]int),
	}
	for _, o := range opts {
		o(l)
	}
	l.createdAt = l.now()
	return l
}

// Status returns the current lifecycle state.
func (l *Ledger) Status() Status { return l.status }

// IsEmpty reports whether the order has no lines.
func (l *Ledger) IsEmpty() bool { return len(l.lines) == 0 }

// Total returns Σ line totals, recomputed on every call.
func (l *Ledger) Total() float64 {
	total := 0.0
	for _, line := range l.lines {
		total += line.Total()
	}
	return total
}

// Lines returns a copy of the order lines in insertion order.
func (l *Ledger) Lines() []Line {
	lines := make([]Line, len(l.lines))
	copy(lines, l.lines)
	for i := range lines {
		lines[i].Addons = append([]string(nil), lines[i].Addons...)
	}
	return lines
}

// SetCustomer records caller details gathered during checkout. Partial
// updates are fine; empty fields leave the existing value untouched.
func (l *Ledger) SetCustomer(info CustomerInfo) {
	if info.Name != "" {
		l.customer.Name = info.Name
	}
	if info.Phone != "" {
		l.customer.Phone = info.Phone
	}
}

// Customer returns the recorded caller details.
func (l *Ledger) Customer() CustomerInfo { return l.customer }

// AddItem adds quantity of the item (with the given variant and addons) to
// the order. A line with an identical (item, variant, addons) key absorbs
// the quantity; otherwise a new line is appended. The unit price is
// recomputed from the catalog: base + variant delta + addon sum.
// Transitions Empty → Building on the first add.
func (l *Ledger) AddItem(itemID string, quantity int, variant string, addons []string) (Line, error) {
	if l.status.terminal() {
		return Line{}, fmt.Errorf("order: add to %s order: %w", l.status, ErrInvalidTransition)
	}
	if quantity <= 0 {
		return Line{}, fmt.Errorf("order: add %d: %w", quantity, ErrInvalidQuantity)
	}

	item, err := l.catalog.Item(itemID)
	if err != nil {
		return Line{}, fmt.Errorf("order: add item: %w", err)
	}

	unitPrice := item.BasePrice
	if variant != "" {
		v, ok := item.Variant(variant)
		if !ok {
			return Line{}, fmt.Errorf("order: %q on %q: %w", variant, item.Name, ErrUnknownVariant)
		}
		unitPrice += v.PriceDelta
	}
	for _, label := range addons {
		a, ok := item.Addon(label)
		if !ok {
			return Line{}, fmt.Errorf("order: %q on %q: %w", label, item.Name, ErrUnknownAddon)
		}
		unitPrice += a.Price
	}

	key := lineKey(itemID, variant, addons)
	if idx, ok := l.index[key]; ok {
		l.lines[idx].Quantity += quantity
		l.lines[idx].UnitPrice = unitPrice
		l.afterMutation()
		return l.lines[idx], nil
	}

	sorted := make([]string, len(addons))
	copy(sorted, addons)
	sort.Strings(sorted)

	line := Line{
		ItemID:    itemID,
		Name:      item.Name,
		Quantity:  quantity,
		Variant:   variant,
		Addons:    sorted,
		UnitPrice: unitPrice,
	}
	l.index[key] = len(l.lines)
	l.lines = append(l.lines, line)
	l.afterMutation()
	return line, nil
}

// RemoveItem decrements the matching line by quantity, removing the line
// entirely when its quantity reaches zero. quantity <= 0 removes the whole
// line. Returns [ErrNoSuchLine] when no line matches — reported, not
// silently ignored.
func (l *Ledger) RemoveItem(itemID string, quantity int, variant string, addons []string) (Line, error) {
	if l.status.terminal() {
		return Line{}, fmt.Errorf("order: remove from %s order: %w", l.status, ErrInvalidTransition)
	}

	key := lineKey(itemID, variant, addons)
	idx, ok := l.index[key]
	if !ok {
		return Line{}, fmt.Errorf("order: remove %q: %w", itemID, ErrNoSuchLine)
	}

	line := l.lines[idx]
	if quantity <= 0 || quantity >= line.Quantity {
		l.deleteLine(key, idx)
		l.afterMutation()
		line.Quantity = 0
		return line, nil
	}

	l.lines[idx].Quantity -= quantity
	l.afterMutation()
	return l.lines[idx], nil
}

// SetQuantity sets the matching line's quantity to an absolute value.
// Zero or below removes the line. Returns [ErrNoSuchLine] when no line
// matches.
func (l *Ledger) SetQuantity(itemID string, quantity int, variant string, addons []string) (Line, error) {
	if l.status.terminal() {
		return Line{}, fmt.Errorf("order: update %s order: %w", l.status, ErrInvalidTransition)
	}

	key := lineKey(itemID, variant, addons)
	idx, ok := l.index[key]
	if !ok {
		return Line{}, fmt.Errorf("order: update %q: %w", itemID, ErrNoSuchLine)
	}

	if quantity <= 0 {
		line := l.lines[idx]
		l.deleteLine(key, idx)
		l.afterMutation()
		line.Quantity = 0
		return line, nil
	}

	l.lines[idx].Quantity = quantity
	l.afterMutation()
	return l.lines[idx], nil
}

// Clear discards all lines and returns the order to Empty. Unlike Cancel,
// the session keeps ordering afterwards ("clear my order, start over").
func (l *Ledger) Clear() error {
	if l.status.terminal() {
		return fmt.Errorf("order: clear %s order: %w", l.status, ErrInvalidTransition)
	}
	l.lines = nil
	l.index = make(map[string]int)
	l.customer = CustomerInfo{}
	l.status = StatusEmpty
	return nil
}

// Cancel transitions to Cancelled from any non-terminal state, discarding
// lines. Terminal.
func (l *Ledger) Cancel() error {
	if l.status.terminal() {
		return fmt.Errorf("order: cancel %s order: %w", l.status, ErrInvalidTransition)
	}
	l.lines = nil
	l.index = make(map[string]int)
	l.status = StatusCancelled
	return nil
}

// Finalize validates the order for hand-off: lines must be non-empty and
// customer details complete. On success the order moves to
// AwaitingConfirmation and an immutable snapshot for the persistence sink
// is returned. The order ID is minted once and stays stable across sink
// retries, so a retried hand-off cannot double-record under a new ID.
//
// The caller marks the order [StatusFinalized] via [Ledger.Commit] only
// after the sink accepts the snapshot.
func (l *Ledger) Finalize(customer CustomerInfo) (Snapshot, error) {
	if l.status.terminal() {
		return Snapshot{}, fmt.Errorf("order: finalize %s order: %w", l.status, ErrInvalidTransition)
	}
	if len(l.lines) == 0 {
		return Snapshot{}, fmt.Errorf("order: finalize empty order: %w", ErrInvalidTransition)
	}
	l.SetCustomer(customer)
	if !l.customer.complete() {
		return Snapshot{}, ErrCustomerRequired
	}

	if l.id == "" {
		l.id = fmt.Sprintf("ORD%d", l.now().Unix())
	}
	l.status = StatusAwaitingConfirmation
	return l.Snapshot(), nil
}

// Commit marks the order Finalized after a successful persistence hand-off.
// Only legal from AwaitingConfirmation; the order is immutable afterwards.
func (l *Ledger) Commit() error {
	if l.status != StatusAwaitingConfirmation {
		return fmt.Errorf("order: commit %s order: %w", l.status, ErrInvalidTransition)
	}
	l.status = StatusFinalized
	return nil
}

// Reopen returns an order awaiting confirmation to Building so the caller
// can keep editing it ("no wait, add one more naan"). The minted ID is kept.
func (l *Ledger) Reopen() error {
	if l.status != StatusAwaitingConfirmation {
		return fmt.Errorf("order: reopen %s order: %w", l.status, ErrInvalidTransition)
	}
	l.status = StatusBuilding
	return nil
}

// Snapshot returns a deep-copied view of the current order.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		ID:        l.id,
		CreatedAt: l.createdAt,
		Lines:     l.Lines(),
		Customer:  l.customer,
		Status:    l.status.String(),
		Total:     l.Total(),
	}
}

// afterMutation keeps the status consistent with the line set.
func (l *Ledger) afterMutation() {
	switch {
	case len(l.lines) == 0 && l.status == StatusBuilding:
		l.status = StatusEmpty
	case len(l.lines) > 0 && l.status == StatusEmpty:
		l.status = StatusBuilding
	}
}

// deleteLine removes lines[idx] and repairs the key index.
func (l *Ledger) deleteLine(key string, idx int) {
	delete(l.index, key)
	l.lines = append(l.lines[:idx], l.lines[idx+1:]...)
	for k, i := range l.index {
		if i > idx {
			l.index[k] = i - 1
		}
	}
}
