package dialog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/voxmenu/voxmenu/internal/catalog"
	"github.com/voxmenu/voxmenu/internal/nlu"
	"github.com/voxmenu/voxmenu/internal/observe"
	"github.com/voxmenu/voxmenu/internal/order"
	"github.com/voxmenu/voxmenu/internal/orderstore"
	"github.com/voxmenu/voxmenu/internal/policy"
	"github.com/voxmenu/voxmenu/internal/resilience"
	"github.com/voxmenu/voxmenu/pkg/provider/llm"
)

const (
	defaultDelegateTimeout = 10 * time.Second
	defaultSinkTimeout     = 5 * time.Second
	defaultHistoryLimit    = 20
)

// Directive is the outcome of one turn: the reply to speak, the intent that
// produced it, and whether the reply came from the LLM delegate instead of a
// template. Order is set on the turn that commits an order.
type Directive struct {
	Reply     string
	Intent    Intent
	Delegated bool
	Order     *order.Snapshot
}

// Session is the per-caller conversation state: the order ledger, the
// pending-confirmation slot, the entities of the last turn (for anaphora),
// and the transcript window handed to the delegate.
type Session struct {
	ID string

	catalog          catalog.Provider
	ledgerOpts       []order.LedgerOption
	ledger           *order.Ledger
	pendingAdds      []nlu.ExtractedEntity
	awaitingCustomer bool
	lastEntities     []nlu.ExtractedEntity
	history          []llm.Message
}

// NewSession creates a session with an empty ledger over the catalog.
func NewSession(id string, cat catalog.Provider, opts ...order.LedgerOption) *Session {
	return &Session{
		ID:         id,
		catalog:    cat,
		ledgerOpts: opts,
		ledger:     order.NewLedger(cat, opts...),
	}
}

// Ledger exposes the session's order ledger, mainly for tests and the ops
// surface.
func (s *Session) Ledger() *order.Ledger { return s.ledger }

// ManagerConfig wires a [Manager]. Catalog, Normalizer, Matcher, Extractor,
// and Gate are required; the rest default sensibly.
type ManagerConfig struct {
	Catalog    *catalog.Catalog
	Normalizer *nlu.Normalizer
	Matcher    *nlu.Matcher
	Extractor  *nlu.Extractor
	Gate       *policy.Gate

	// Delegate answers turns the deterministic pipeline cannot. Nil means
	// such turns get a clarification template instead.
	Delegate llm.Provider

	// Sink receives committed orders. Nil defaults to [orderstore.Discard].
	Sink orderstore.Sink

	// Metrics defaults to [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// RequireAddConfirmation makes every add propose first and apply on the
	// next affirmative turn. Off by default: adds apply directly.
	RequireAddConfirmation bool

	DelegateTimeout time.Duration
	SinkTimeout     time.Duration
	HistoryLimit    int
}

// Manager runs the per-turn pipeline: normalize, detect intent, extract
// entities, authorize, mutate the ledger, pick a reply. It holds no session
// state and is safe for concurrent use across sessions; a single session's
// turns must be serialized by the caller.
type Manager struct {
	catalog    *catalog.Catalog
	normalizer *nlu.Normalizer
	matcher    *nlu.Matcher
	extractor  *nlu.Extractor
	gate       *policy.Gate
	delegate   llm.Provider
	sink       orderstore.Sink
	metrics    *observe.Metrics

	requireAddConfirmation bool
	delegateTimeout        time.Duration
	sinkTimeout            time.Duration
	historyLimit           int
}

// NewManager builds a Manager from cfg, filling in defaults.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Catalog == nil || cfg.Normalizer == nil || cfg.Matcher == nil ||
		cfg.Extractor == nil || cfg.Gate == nil {
		return nil, errors.New("dialog: catalog, normalizer, matcher, extractor, and gate are required")
	}
	m := &Manager{
		catalog:                cfg.Catalog,
		normalizer:             cfg.Normalizer,
		matcher:                cfg.Matcher,
		extractor:              cfg.Extractor,
		gate:                   cfg.Gate,
		delegate:               cfg.Delegate,
		sink:                   cfg.Sink,
		metrics:                cfg.Metrics,
		requireAddConfirmation: cfg.RequireAddConfirmation,
		delegateTimeout:        cfg.DelegateTimeout,
		sinkTimeout:            cfg.SinkTimeout,
		historyLimit:           cfg.HistoryLimit,
	}
	if m.sink == nil {
		m.sink = orderstore.Discard{}
	}
	if m.metrics == nil {
		m.metrics = observe.DefaultMetrics()
	}
	if m.delegateTimeout <= 0 {
		m.delegateTimeout = defaultDelegateTimeout
	}
	if m.sinkTimeout <= 0 {
		m.sinkTimeout = defaultSinkTimeout
	}
	if m.historyLimit <= 0 {
		m.historyLimit = defaultHistoryLimit
	}
	return m, nil
}

// Turn processes one caller utterance against the session and returns the
// reply directive. The ledger is only mutated when the corresponding policy
// and state checks pass; a denied or failed turn leaves it untouched.
func (m *Manager) Turn(ctx context.Context, sess *Session, utterance string) Directive {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "dialog.turn")
	defer span.End()

	d := m.route(ctx, sess, utterance)

	m.metrics.RecordTurn(ctx, d.Intent.String())
	m.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
	observe.Logger(ctx).Debug("turn processed",
		"session", sess.ID,
		"intent", d.Intent.String(),
		"delegated", d.Delegated,
	)

	sess.remember(utterance, d.Reply, m.historyLimit)
	return d
}

func (m *Manager) route(ctx context.Context, sess *Session, utterance string) Directive {
	if !mostlyEnglish(utterance) {
		return Directive{Reply: replyNonEnglish(), Intent: IntentUnknown}
	}

	canonical := m.normalizer.Normalize(utterance)
	pending := len(sess.pendingAdds) > 0 || sess.ledger.Status() == order.StatusAwaitingConfirmation
	intent := Detect(canonical, pending)

	// A checkout that stalled on missing details resumes as soon as the
	// caller supplies them, whatever the keyword router says: "my number is
	// 9876543210" carries the restaurant-info keyword "number".
	if sess.awaitingCustomer {
		if info, ok := extractCustomer(utterance); ok {
			sess.ledger.SetCustomer(info)
			return m.handleFinalize(ctx, sess, utterance)
		}
	}

	switch intent {
	case IntentGreeting:
		return Directive{Reply: replyGreeting(), Intent: intent}
	case IntentAudibility:
		return Directive{Reply: replyAudibility(), Intent: intent}
	case IntentThanks:
		return Directive{Reply: replyThanks(), Intent: intent}
	case IntentGoodbye:
		return Directive{Reply: replyGoodbye(), Intent: intent}
	case IntentConfirmYes:
		return m.handleConfirm(ctx, sess, true)
	case IntentConfirmNo:
		return m.handleConfirm(ctx, sess, false)
	case IntentFinalize:
		return m.handleFinalize(ctx, sess, utterance)
	case IntentCancel:
		return m.handleCancel(sess)
	case IntentClear:
		return m.handleClear(sess)
	case IntentUpdate:
		return m.handleUpdate(ctx, sess, canonical)
	case IntentRemove:
		return m.handleRemove(ctx, sess, canonical)
	case IntentSummary, IntentBilling:
		return m.handleSummary(sess, intent)
	case IntentPrice:
		return m.handlePrice(canonical)
	case IntentMenu:
		return m.handleMenu(canonical)
	case IntentDescription:
		return m.handleDescription(canonical)
	case IntentAdd:
		return m.handleAdd(ctx, sess, canonical)
	case IntentRestaurantInfo:
		return m.handleRestaurantInfo(canonical)
	default:
		if d, ok := m.handleShortQuery(ctx, sess, canonical); ok {
			return d
		}
		return m.handleDelegate(ctx, sess, utterance, canonical)
	}
}

// handleConfirm resolves a pending yes/no: either the add proposed last turn
// or the order recap awaiting placement.
func (m *Manager) handleConfirm(ctx context.Context, sess *Session, yes bool) Directive {
	if len(sess.pendingAdds) > 0 {
		pending := sess.pendingAdds
		sess.pendingAdds = nil
		if !yes {
			return Directive{Reply: replyDiscarded(), Intent: IntentConfirmNo}
		}
		return m.applyAdds(ctx, sess, pending, IntentConfirmYes)
	}

	if sess.ledger.Status() == order.StatusAwaitingConfirmation {
		if !yes {
			if err := sess.ledger.Reopen(); err != nil {
				return Directive{Reply: replyActionIncomplete(), Intent: IntentConfirmNo}
			}
			return Directive{Reply: replyDiscarded(), Intent: IntentConfirmNo}
		}
		return m.commitOrder(ctx, sess)
	}

	return Directive{Reply: replyClarification(), Intent: IntentConfirmYes}
}

func (m *Manager) handleFinalize(ctx context.Context, sess *Session, utterance string) Directive {
	if d, denied := m.denyCheck(ctx, policy.Operation{Kind: policy.OpFinalize}, IntentFinalize); denied {
		return d
	}
	if sess.ledger.IsEmpty() {
		return Directive{Reply: replyEmptyOrder(), Intent: IntentFinalize}
	}

	if info, ok := extractCustomer(utterance); ok {
		sess.ledger.SetCustomer(info)
	}

	customer := sess.ledger.Customer()
	snap, err := sess.ledger.Finalize(customer)
	if err != nil {
		if errors.Is(err, order.ErrCustomerRequired) {
			sess.awaitingCustomer = true
			return Directive{
				Reply:  replyNeedCustomer(customer.Name == "", customer.Phone == ""),
				Intent: IntentFinalize,
			}
		}
		return Directive{Reply: replyActionIncomplete(), Intent: IntentFinalize}
	}

	sess.awaitingCustomer = false
	return Directive{Reply: replyConfirmOrder(snap), Intent: IntentFinalize}
}

// commitOrder hands the snapshot to the sink and, only on success, marks the
// ledger Finalized. A duplicate-ID response from the sink counts as success:
// it means a retry of an append that already landed.
func (m *Manager) commitOrder(ctx context.Context, sess *Session) Directive {
	snap := sess.ledger.Snapshot()

	start := time.Now()
	err := resilience.WithTimeout(ctx, m.sinkTimeout, func(ctx context.Context) error {
		return m.sink.AppendOrder(ctx, snap)
	})
	m.metrics.SinkDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil && !errors.Is(err, orderstore.ErrDuplicateOrder) {
		m.metrics.SinkErrors.Add(ctx, 1)
		observe.Logger(ctx).Error("order sink append failed",
			"session", sess.ID, "order_id", snap.ID, "error", err)
		return Directive{Reply: replyActionIncomplete(), Intent: IntentConfirmYes}
	}

	if err := sess.ledger.Commit(); err != nil {
		return Directive{Reply: replyActionIncomplete(), Intent: IntentConfirmYes}
	}
	m.metrics.OrdersFinalized.Add(ctx, 1)

	snap = sess.ledger.Snapshot()
	return Directive{Reply: replyFinalized(snap), Intent: IntentConfirmYes, Order: &snap}
}

// handleCancel abandons the current order. The ledger moves to its terminal
// Cancelled state and a fresh one takes its place, so the caller can start a
// new order on the same call. Unlike Clear, the cancelled order is gone for
// good, minted ID included.
func (m *Manager) handleCancel(sess *Session) Directive {
	if sess.ledger.IsEmpty() && len(sess.pendingAdds) == 0 {
		return Directive{Reply: replyEmptyOrder(), Intent: IntentCancel}
	}
	if err := sess.ledger.Cancel(); err != nil {
		return Directive{Reply: replyActionIncomplete(), Intent: IntentCancel}
	}
	sess.ledger = order.NewLedger(sess.catalog, sess.ledgerOpts...)
	sess.pendingAdds = nil
	sess.awaitingCustomer = false
	sess.lastEntities = nil
	return Directive{Reply: replyCancelled(), Intent: IntentCancel}
}

func (m *Manager) handleClear(sess *Session) Directive {
	if err := sess.ledger.Clear(); err != nil {
		return Directive{Reply: replyActionIncomplete(), Intent: IntentClear}
	}
	sess.pendingAdds = nil
	sess.awaitingCustomer = false
	return Directive{Reply: replyCleared(), Intent: IntentClear}
}

func (m *Manager) handleAdd(ctx context.Context, sess *Session, canonical string) Directive {
	if d, denied := m.denyCheck(ctx, policy.Operation{Kind: policy.OpAddItem}, IntentAdd); denied {
		return d
	}

	entities := m.extract(ctx, canonical)
	resolved := keepResolved(entities)
	if len(resolved) > 0 {
		sess.lastEntities = resolved
	}

	if m.requireAddConfirmation && len(resolved) > 0 {
		// Every pending item goes into the proposal; a "yes" must never
		// apply something the caller was not told about.
		var (
			parts []string
			total float64
		)
		for _, ent := range resolved {
			unit, err := m.unitPrice(ent)
			if err != nil {
				return Directive{Reply: replyItemNotFound(), Intent: IntentAdd}
			}
			total += unit * float64(ent.Quantity)
			parts = append(parts, describeEntity(ent.Item.Name, ent.Quantity, ent.Variant, ent.Addons))
		}
		sess.pendingAdds = resolved
		return Directive{Reply: replyConfirmAdd(parts, total), Intent: IntentAdd}
	}

	return m.applyAdds(ctx, sess, entities, IntentAdd)
}

// applyAdds runs the resolved entities through availability checks and the
// ledger. Ambiguous and unmatched spans surface in the reply instead of
// being dropped.
func (m *Manager) applyAdds(ctx context.Context, sess *Session, entities []nlu.ExtractedEntity, intent Intent) Directive {
	var added []string
	for _, ent := range entities {
		switch ent.Flag {
		case nlu.FlagAmbiguous:
			var names []string
			for _, c := range ent.Candidates {
				names = append(names, c.Name)
			}
			return Directive{Reply: replyAmbiguous(names), Intent: intent}
		case nlu.FlagNoMatch:
			m.metrics.UnmatchedSpans.Add(ctx, 1)
			continue
		}

		dec := m.gate.Authorize(policy.Operation{Kind: policy.OpAddItem, ItemID: ent.Item.ID})
		if !dec.Allowed {
			m.metrics.RecordPolicyDenial(ctx, string(dec.Reason))
			if dec.Reason == policy.ReasonUnavailable {
				return Directive{Reply: replyUnavailable(ent.Item.Name), Intent: intent}
			}
			return m.denyReply(dec, intent)
		}

		if _, err := sess.ledger.AddItem(ent.Item.ID, ent.Quantity, ent.Variant, ent.Addons); err != nil {
			observe.Logger(ctx).Warn("add rejected", "item", ent.Item.ID, "error", err)
			continue
		}
		added = append(added, describeEntity(ent.Item.Name, ent.Quantity, ent.Variant, ent.Addons))
	}

	if len(added) == 0 {
		return Directive{Reply: replyItemNotFound(), Intent: intent}
	}
	return Directive{Reply: replyAdded(added, sess.ledger.Snapshot().Describe()), Intent: intent}
}

func (m *Manager) handleRemove(ctx context.Context, sess *Session, canonical string) Directive {
	if d, denied := m.denyCheck(ctx, policy.Operation{Kind: policy.OpRemoveItem}, IntentRemove); denied {
		return d
	}

	entities := keepResolved(m.extract(ctx, canonical))
	if len(entities) == 0 {
		// "remove it" — fall back to the entities of the previous turn.
		entities = sess.lastEntities
	}

	var removed []string
	for _, ent := range entities {
		line, ok := findLine(sess.ledger, ent)
		if !ok {
			continue
		}
		qty := 0 // no explicit count removes the whole line
		if spanHasQuantity(ent.Span) {
			qty = ent.Quantity
		}
		if _, err := sess.ledger.RemoveItem(line.ItemID, qty, line.Variant, line.Addons); err != nil {
			continue
		}
		removed = append(removed, line.Name)
	}

	if len(removed) == 0 {
		return Directive{Reply: replyNotInOrder(), Intent: IntentRemove}
	}
	recap := ""
	if !sess.ledger.IsEmpty() {
		recap = sess.ledger.Snapshot().Describe()
	}
	return Directive{Reply: replyRemoved(removed, recap), Intent: IntentRemove}
}

func (m *Manager) handleUpdate(ctx context.Context, sess *Session, canonical string) Directive {
	if d, denied := m.denyCheck(ctx, policy.Operation{Kind: policy.OpSetQuantity}, IntentUpdate); denied {
		return d
	}

	entities := keepResolved(m.extract(ctx, canonical))
	if len(entities) == 0 {
		entities = sess.lastEntities
	}
	if len(entities) == 0 {
		return Directive{Reply: replyClarification(), Intent: IntentUpdate}
	}

	ent := entities[0]
	line, ok := findLine(sess.ledger, ent)
	if !ok {
		return Directive{Reply: replyUpdateMissing(ent.Item.Name), Intent: IntentUpdate}
	}
	if _, err := sess.ledger.SetQuantity(line.ItemID, ent.Quantity, line.Variant, line.Addons); err != nil {
		return Directive{Reply: replyUpdateMissing(ent.Item.Name), Intent: IntentUpdate}
	}
	recap := ""
	if !sess.ledger.IsEmpty() {
		recap = sess.ledger.Snapshot().Describe()
	}
	return Directive{Reply: replyUpdated(line.Name, ent.Quantity, recap), Intent: IntentUpdate}
}

func (m *Manager) handleSummary(sess *Session, intent Intent) Directive {
	if sess.ledger.IsEmpty() {
		return Directive{Reply: replyEmptyOrder(), Intent: intent}
	}
	return Directive{Reply: sess.ledger.Snapshot().Describe(), Intent: intent}
}

func (m *Manager) handlePrice(canonical string) Directive {
	var lines []string
	for _, ent := range keepResolved(m.extractor.Extract(canonical)) {
		unit, err := m.unitPrice(ent)
		if err != nil {
			continue
		}
		lines = append(lines, replyPriceSingle(ent.Item.Name, unit))
	}
	if len(lines) == 0 {
		if item, ok := m.bestDish(canonical); ok {
			lines = append(lines, replyPriceSingle(item.Name, item.BasePrice))
		}
	}
	if len(lines) == 0 {
		return Directive{Reply: replyItemNotFound(), Intent: IntentPrice}
	}
	return Directive{Reply: replyPriceMulti(lines), Intent: IntentPrice}
}

func (m *Manager) handleMenu(canonical string) Directive {
	for _, category := range m.catalog.Categories() {
		if strings.Contains(canonical, strings.ToLower(category)) {
			var names []string
			for _, item := range m.catalog.ItemsInCategory(category) {
				names = append(names, item.Name)
			}
			return Directive{Reply: replyMenuCategory(category, names), Intent: IntentMenu}
		}
	}
	return Directive{Reply: replyMenu(m.menuSuggestions(2)), Intent: IntentMenu}
}

func (m *Manager) handleDescription(canonical string) Directive {
	item, ok := m.bestDish(canonical)
	if !ok {
		return Directive{Reply: replyDishUnknown(), Intent: IntentDescription}
	}
	return Directive{Reply: replyDescription(item), Intent: IntentDescription}
}

func (m *Manager) handleRestaurantInfo(canonical string) Directive {
	info := m.catalog.Restaurant()
	switch {
	case strings.Contains(canonical, "address") || strings.Contains(canonical, "location") ||
		strings.Contains(canonical, "where"):
		return Directive{Reply: replyRestaurantAddress(info), Intent: IntentRestaurantInfo}
	case strings.Contains(canonical, "phone") || strings.Contains(canonical, "contact") ||
		strings.Contains(canonical, "number"):
		return Directive{Reply: replyRestaurantPhone(info), Intent: IntentRestaurantInfo}
	default:
		return Directive{Reply: replyRestaurantName(info), Intent: IntentRestaurantInfo}
	}
}

// handleShortQuery answers bare dish utterances deterministically before
// anything reaches the delegate: "cold coffee 2" proposes the add and waits
// for a yes/no, bare "cold coffee" answers with the price. Longer or
// unresolvable text falls through to the delegate.
func (m *Manager) handleShortQuery(ctx context.Context, sess *Session, canonical string) (Directive, bool) {
	words := strings.Fields(canonical)
	if len(words) == 0 || len(words) > 4 {
		return Directive{}, false
	}
	entities := keepResolved(m.extract(ctx, canonical))
	if len(entities) == 0 {
		return Directive{}, false
	}

	ent := entities[0]
	unit, err := m.unitPrice(ent)
	if err != nil {
		return Directive{}, false
	}
	sess.lastEntities = entities[:1]

	if !spanHasQuantity(ent.Span) {
		return Directive{Reply: replyPriceSingle(ent.Item.Name, unit), Intent: IntentPrice}, true
	}

	dec := m.gate.Authorize(policy.Operation{Kind: policy.OpAddItem, ItemID: ent.Item.ID})
	if !dec.Allowed {
		m.metrics.RecordPolicyDenial(ctx, string(dec.Reason))
		if dec.Reason == policy.ReasonUnavailable {
			return Directive{Reply: replyUnavailable(ent.Item.Name), Intent: IntentAdd}, true
		}
		return m.denyReply(dec, IntentAdd), true
	}
	sess.pendingAdds = entities[:1]
	return Directive{
		Reply: replyConfirmAdd(
			[]string{describeEntity(ent.Item.Name, ent.Quantity, ent.Variant, ent.Addons)},
			unit*float64(ent.Quantity),
		),
		Intent: IntentAdd,
	}, true
}

// handleDelegate routes a turn the pipeline cannot answer to the LLM. The
// blocklist applies to free text before anything leaves the process.
func (m *Manager) handleDelegate(ctx context.Context, sess *Session, utterance, canonical string) Directive {
	dec := m.gate.Authorize(policy.Operation{Kind: policy.OpFreeText, Utterance: canonical})
	if !dec.Allowed {
		m.metrics.RecordPolicyDenial(ctx, string(dec.Reason))
		return Directive{Reply: replyBlocked(), Intent: IntentUnknown}
	}
	if m.delegate == nil {
		return Directive{Reply: replyClarification(), Intent: IntentUnknown}
	}

	req := llm.Request{
		Utterance:      utterance,
		MenuSummary:    m.menuSuggestions(3),
		OrderSummary:   sess.ledger.Snapshot().Describe(),
		RestaurantInfo: m.restaurantLine(),
		History:        sess.history,
	}

	start := time.Now()
	reply, err := resilience.WithTimeoutResult(ctx, m.delegateTimeout, func(ctx context.Context) (string, error) {
		return m.delegate.Generate(ctx, req)
	})
	m.metrics.DelegateDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		m.metrics.RecordDelegateError(ctx, m.delegate.Name())
		observe.Logger(ctx).Warn("delegate failed",
			"session", sess.ID, "provider", m.delegate.Name(), "error", err)
		return Directive{Reply: replyActionIncomplete(), Intent: IntentUnknown}
	}
	return Directive{Reply: reply, Intent: IntentUnknown, Delegated: true}
}

// denyCheck authorizes the session-level part of an operation (hours for
// mutating kinds) before any extraction work happens.
func (m *Manager) denyCheck(ctx context.Context, op policy.Operation, intent Intent) (Directive, bool) {
	dec := m.gate.Authorize(op)
	if dec.Allowed {
		return Directive{}, false
	}
	m.metrics.RecordPolicyDenial(ctx, string(dec.Reason))
	return m.denyReply(dec, intent), true
}

func (m *Manager) denyReply(dec policy.Decision, intent Intent) Directive {
	switch dec.Reason {
	case policy.ReasonClosed:
		open, close := m.gate.Hours()
		return Directive{Reply: replyClosed(open, close), Intent: intent}
	case policy.ReasonBlocked:
		return Directive{Reply: replyBlocked(), Intent: intent}
	default:
		return Directive{Reply: replyActionIncomplete(), Intent: intent}
	}
}

func (m *Manager) extract(ctx context.Context, canonical string) []nlu.ExtractedEntity {
	start := time.Now()
	entities := m.extractor.Extract(canonical)
	m.metrics.ExtractDuration.Record(ctx, time.Since(start).Seconds())
	return entities
}

// unitPrice recomputes the per-unit price of an extracted entity from the
// catalog: base + variant delta + addon sum.
func (m *Manager) unitPrice(ent nlu.ExtractedEntity) (float64, error) {
	price := ent.Item.BasePrice
	if ent.Variant != "" {
		v, ok := ent.Item.Variant(ent.Variant)
		if !ok {
			return 0, fmt.Errorf("dialog: variant %q: %w", ent.Variant, order.ErrUnknownVariant)
		}
		price += v.PriceDelta
	}
	for _, label := range ent.Addons {
		a, ok := ent.Item.Addon(label)
		if !ok {
			return 0, fmt.Errorf("dialog: addon %q: %w", label, order.ErrUnknownAddon)
		}
		price += a.Price
	}
	return price, nil
}

// bestDish resolves the whole utterance to one menu item, used by price,
// description, and short-query paths.
func (m *Manager) bestDish(canonical string) (catalog.MenuItem, bool) {
	tokens := strings.Fields(canonical)
	ranked := m.matcher.RankWindows(tokens, m.catalog.Names())
	if len(ranked) == 0 {
		return catalog.MenuItem{}, false
	}
	item, ok := m.catalog.ByName(ranked[0].Name)
	return item, ok
}

// menuSuggestions renders "Category: a, b | Category2: c, d" with at most
// limit items per category.
func (m *Manager) menuSuggestions(limit int) string {
	var parts []string
	for _, category := range m.catalog.Categories() {
		items := m.catalog.ItemsInCategory(category)
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		var names []string
		for _, item := range items {
			names = append(names, item.Name)
		}
		if len(names) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", category, strings.Join(names, ", ")))
		}
	}
	if len(parts) == 0 {
		return "our current menu items"
	}
	return strings.Join(parts, " | ")
}

func (m *Manager) restaurantLine() string {
	info := m.catalog.Restaurant()
	return fmt.Sprintf("%s, %s, %s", info.Name, info.Address, info.Phone)
}

// remember appends the turn to the session transcript, trimming to limit
// messages so delegate prompts stay bounded.
func (s *Session) remember(utterance, reply string, limit int) {
	s.history = append(s.history,
		llm.Message{Role: llm.RoleCaller, Content: utterance},
		llm.Message{Role: llm.RoleAgent, Content: reply},
	)
	if len(s.history) > limit {
		s.history = s.history[len(s.history)-limit:]
	}
}

// keepResolved filters extraction output down to entities that resolved to a
// single item.
func keepResolved(entities []nlu.ExtractedEntity) []nlu.ExtractedEntity {
	var out []nlu.ExtractedEntity
	for _, ent := range entities {
		if ent.Flag == nlu.FlagResolved {
			out = append(out, ent)
		}
	}
	return out
}

// findLine locates the ledger line for an extracted entity. An entity with a
// variant must match it exactly; without one, the first line for the item
// wins.
func findLine(l *order.Ledger, ent nlu.ExtractedEntity) (order.Line, bool) {
	for _, line := range l.Lines() {
		if line.ItemID != ent.Item.ID {
			continue
		}
		if ent.Variant != "" && line.Variant != ent.Variant {
			continue
		}
		return line, true
	}
	return order.Line{}, false
}

// spanHasQuantity reports whether the original span carried an explicit
// count, distinguishing "remove one naan" from "remove the naan".
func spanHasQuantity(span string) bool {
	for _, tok := range strings.Fields(span) {
		if isQuantityWord(tok) {
			return true
		}
	}
	return false
}

var (
	namePattern  = regexp.MustCompile(`(?i)\b(?:my name is|i am|i'm)\s+([a-zA-Z]+)`)
	phonePattern = regexp.MustCompile(`\b\d{10}\b`)
)

// extractCustomer pulls "my name is X" / "i am X" and a 10-digit phone
// number out of the raw utterance. Either field alone is a useful partial.
func extractCustomer(utterance string) (order.CustomerInfo, bool) {
	var info order.CustomerInfo
	if m := namePattern.FindStringSubmatch(utterance); m != nil {
		info.Name = titleCase(m[1])
	}
	if m := phonePattern.FindString(utterance); m != "" {
		info.Phone = m
	}
	return info, info.Name != "" || info.Phone != ""
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// mostlyEnglish reports whether the utterance is predominantly Latin script.
// Short strings pass; the guard only trips when most letters are non-Latin.
func mostlyEnglish(text string) bool {
	var letters, latin int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r < 128 || unicode.In(r, unicode.Latin) {
			latin++
		}
	}
	if letters < 4 {
		return true
	}
	return float64(latin)/float64(letters) >= 0.5
}
