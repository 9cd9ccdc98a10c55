package nlu

import (
	"strconv"
	"strings"

	"github.com/voxmenu/voxmenu/internal/catalog"
)

// Flag classifies how a span resolved.
type Flag int

const (
	// FlagResolved means the span resolved to exactly one menu item.
	FlagResolved Flag = iota

	// FlagNoMatch means no catalog item cleared the fuzzy threshold. The
	// dialog manager turns these into clarification questions rather than
	// dropping the span.
	FlagNoMatch

	// FlagAmbiguous means two candidates scored within the ambiguity margin
	// of each other; both are attached in Candidates for disambiguation.
	FlagAmbiguous
)

// String returns the flag's human-readable name.
func (f Flag) String() string {
	switch f {
	case FlagResolved:
		return "resolved"
	case FlagNoMatch:
		return "no_match"
	case FlagAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// ExtractedEntity is one resolved (dish, quantity, variant, addons) tuple
// from an utterance.
type ExtractedEntity struct {
	// Item is the resolved menu item. Zero-valued unless Flag is FlagResolved.
	Item catalog.MenuItem

	// Quantity is the extracted count, never below 1 — quantity parsing
	// fails closed to 1 rather than erroring.
	Quantity int

	// Variant is the resolved variant label, empty when none attached.
	Variant string

	// Addons are the resolved addon labels in menu order, deduplicated.
	Addons []string

	// Confidence is the dish match score in [0, 1]. Zero for FlagNoMatch.
	Confidence float64

	// Span is the utterance fragment this entity was extracted from.
	Span string

	// Flag classifies the resolution outcome.
	Flag Flag

	// Candidates holds the near-equal alternatives when Flag is
	// FlagAmbiguous, best first.
	Candidates []Match
}

// spanSeparators delimit multiple dishes in one utterance. "with" is
// deliberately absent: it attaches addons to the preceding dish.
var spanSeparators = [][]string{
	{"along", "with"},
	{"and"},
	{"plus"},
	{"also"},
}

// numberWords maps spoken quantities to integers.
var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"another": 1, "additional": 1,
}

const (
	defaultVariantThreshold = 0.80
	defaultAddonThreshold   = 0.80
	defaultAmbiguityMargin  = 0.05
)

// ExtractorOption configures an [Extractor].
type ExtractorOption func(*Extractor)

// WithVariantThreshold sets the minimum score for a variant label to attach.
// Default: 0.80.
func WithVariantThreshold(threshold float64) ExtractorOption {
	return func(e *Extractor) {
		e.variantThreshold = threshold
	}
}

// WithAddonThreshold sets the minimum score for an addon label to attach.
// Default: 0.80.
func WithAddonThreshold(threshold float64) ExtractorOption {
	return func(e *Extractor) {
		e.addonThreshold = threshold
	}
}

// WithAmbiguityMargin sets how close the top two dish scores must be for a
// span to be flagged ambiguous. Default: 0.05.
func WithAmbiguityMargin(margin float64) ExtractorOption {
	return func(e *Extractor) {
		e.ambiguityMargin = margin
	}
}

// Extractor segments a normalized utterance into dish spans and resolves
// each to a menu item with quantity, variant, and addon modifiers. It
// precomputes the catalog name index at construction and is safe for
// concurrent use afterwards.
type Extractor struct {
	matcher *Matcher
	names   []string
	byName  map[string]catalog.MenuItem

	variantThreshold float64
	addonThreshold   float64
	ambiguityMargin  float64
}

// NewExtractor builds an Extractor over the given catalog using matcher for
// dish, variant, and addon resolution.
func NewExtractor(cat catalog.Provider, matcher *Matcher, opts ...ExtractorOption) *Extractor {
	items := cat.Items()
	e := &Extractor{
		matcher:          matcher,
		names:            make([]string, 0, len(items)),
		byName:           make(map[string]catalog.MenuItem, len(items)),
		variantThreshold: defaultVariantThreshold,
		addonThreshold:   defaultAddonThreshold,
		ambiguityMargin:  defaultAmbiguityMargin,
	}
	for _, item := range items {
		e.names = append(e.names, item.Name)
		e.byName[item.Name] = item
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract resolves canonical (already normalized) text into an ordered
// sequence of entities, one per dish span. Spans that resolve to nothing
// are flagged rather than silently dropped. Duplicate mentions of the same
// (item, variant, addons) within one utterance merge by summing quantities.
func (e *Extractor) Extract(canonical string) []ExtractedEntity {
	spans := splitSpans(canonical)

	var (
		entities []ExtractedEntity
		byKey    = make(map[string]int, len(spans))
	)
	for _, span := range spans {
		entity := e.resolveSpan(span)
		if entity.Flag != FlagResolved {
			entities = append(entities, entity)
			continue
		}
		key := entity.Item.ID + "\x00" + entity.Variant + "\x00" + strings.Join(entity.Addons, "\x00")
		if idx, ok := byKey[key]; ok {
			entities[idx].Quantity += entity.Quantity
			continue
		}
		byKey[key] = len(entities)
		entities = append(entities, entity)
	}
	return entities
}

// resolveSpan extracts quantity, dish, variant, and addons from one span.
func (e *Extractor) resolveSpan(span string) ExtractedEntity {
	tokens := strings.Fields(span)
	qty, tokens := stripLeadingQuantity(tokens)

	// "x without y": the clause after "without" names things to leave off;
	// it must never feed variant or addon matching.
	tokens, _ = splitAtWord(tokens, "without")

	// "x with y": everything after "with" only carries modifiers.
	dishTokens, tailTokens := splitAtWord(tokens, "with")

	entity := ExtractedEntity{Quantity: qty, Span: span}
	if len(dishTokens) == 0 {
		entity.Flag = FlagNoMatch
		return entity
	}

	ranked := e.matcher.RankWindows(dishTokens, e.names)
	if len(ranked) == 0 {
		entity.Flag = FlagNoMatch
		return entity
	}
	if len(ranked) >= 2 && ranked[0].Score-ranked[1].Score < e.ambiguityMargin {
		entity.Flag = FlagAmbiguous
		entity.Candidates = []Match{ranked[0].Match, ranked[1].Match}
		return entity
	}

	best := ranked[0]
	entity.Item = e.byName[best.Name]
	entity.Confidence = best.Score

	// Tokens the dish window did not consume may carry variant/addon labels
	// or a trailing quantity ("cold coffee 2").
	leftover := make([]string, 0, len(dishTokens)+len(tailTokens))
	leftover = append(leftover, dishTokens[:best.Start]...)
	leftover = append(leftover, dishTokens[best.End:]...)
	leftover = append(leftover, tailTokens...)

	if qty == 1 {
		if n, rest, ok := takeTrailingNumber(leftover); ok {
			entity.Quantity = n
			leftover = rest
		}
	}

	entity.Variant = e.resolveVariant(entity.Item, leftover)
	entity.Addons = e.resolveAddons(entity.Item, leftover)
	return entity
}

// resolveVariant returns the best-scoring variant label of item found in
// tokens, or "" when none clears the variant threshold.
func (e *Extractor) resolveVariant(item catalog.MenuItem, tokens []string) string {
	bestLabel := ""
	bestScore := e.variantThreshold
	for _, label := range item.VariantLabels() {
		if score := bestLabelScore(e.matcher, label, tokens); score >= bestScore {
			bestLabel, bestScore = label, score
		}
	}
	return bestLabel
}

// resolveAddons returns every addon label of item that clears the addon
// threshold against tokens, in menu order.
func (e *Extractor) resolveAddons(item catalog.MenuItem, tokens []string) []string {
	var addons []string
	for _, label := range item.AddonLabels() {
		if bestLabelScore(e.matcher, label, tokens) >= e.addonThreshold {
			addons = append(addons, label)
		}
	}
	return addons
}

// bestLabelScore scores label against every token window of the label's
// width and returns the best score. A label only attaches if its own match
// clears its own threshold; it never rides on the dish's score.
func bestLabelScore(m *Matcher, label string, tokens []string) float64 {
	width := len(strings.Fields(label))
	if width == 0 || len(tokens) == 0 {
		return 0
	}
	best := 0.0
	if width >= len(tokens) {
		return m.Score(strings.Join(tokens, " "), label)
	}
	for start := 0; start+width <= len(tokens); start++ {
		window := strings.Join(tokens[start:start+width], " ")
		if score := m.Score(window, label); score > best {
			best = score
		}
	}
	return best
}

// splitSpans breaks a normalized utterance into candidate dish spans.
// Primary delimiters are the conjunction words (commas are already gone
// after normalization); when an un-delimited span still contains interior
// quantity words ("two paneer tikka one butter chicken"), it is split again
// before each interior quantity token.
func splitSpans(canonical string) []string {
	tokens := strings.Fields(canonical)
	if len(tokens) == 0 {
		return nil
	}

	var spans []string
	current := make([]string, 0, len(tokens))
	flush := func() {
		if len(current) > 0 {
			spans = append(spans, strings.Join(current, " "))
			current = current[:0]
		}
	}

	i := 0
	for i < len(tokens) {
		if width, ok := separatorAt(tokens, i); ok {
			flush()
			i += width
			continue
		}
		current = append(current, tokens[i])
		i++
	}
	flush()

	var out []string
	for _, span := range spans {
		out = append(out, splitOnInteriorQuantities(span)...)
	}
	return out
}

// separatorAt reports whether a span separator starts at tokens[i] and how
// many tokens it spans.
func separatorAt(tokens []string, i int) (int, bool) {
	for _, sep := range spanSeparators {
		if i+len(sep) > len(tokens) {
			continue
		}
		match := true
		for j, w := range sep {
			if tokens[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return len(sep), true
		}
	}
	return 0, false
}

// splitOnInteriorQuantities splits "two paneer tikka one butter chicken"
// into one span per leading quantity. A quantity token only opens a new
// span when the current span already holds a non-quantity token.
func splitOnInteriorQuantities(span string) []string {
	tokens := strings.Fields(span)

	var spans []string
	var current []string
	hasDishToken := false
	for _, tok := range tokens {
		if isQuantityToken(tok) && hasDishToken {
			spans = append(spans, strings.Join(current, " "))
			current = current[:0]
			hasDishToken = false
		}
		current = append(current, tok)
		if !isQuantityToken(tok) {
			hasDishToken = true
		}
	}
	if len(current) > 0 {
		spans = append(spans, strings.Join(current, " "))
	}
	return spans
}

// isQuantityToken reports whether tok is a digit string or a number word.
func isQuantityToken(tok string) bool {
	if _, err := strconv.Atoi(tok); err == nil {
		return true
	}
	_, ok := numberWords[tok]
	return ok
}

// stripLeadingQuantity consumes a leading quantity expression and returns
// the quantity plus the remaining tokens. Defaults to 1 — extraction fails
// closed rather than erroring on malformed numbers.
func stripLeadingQuantity(tokens []string) (int, []string) {
	if len(tokens) == 0 {
		return 1, tokens
	}
	tok := tokens[0]
	if n, err := strconv.Atoi(tok); err == nil {
		if n < 1 {
			return 1, tokens[1:]
		}
		return n, tokens[1:]
	}
	if n, ok := numberWords[tok]; ok && len(tokens) > 1 {
		return n, tokens[1:]
	}
	return 1, tokens
}

// splitAtWord splits tokens at the first standalone occurrence of word,
// dropping the word itself.
func splitAtWord(tokens []string, word string) (head, tail []string) {
	for i, tok := range tokens {
		if tok == word {
			return tokens[:i], tokens[i+1:]
		}
	}
	return tokens, nil
}

// takeTrailingNumber pops a trailing digit token ("cold coffee 2") and
// returns it as a quantity.
func takeTrailingNumber(tokens []string) (int, []string, bool) {
	if len(tokens) == 0 {
		return 0, tokens, false
	}
	last := tokens[len(tokens)-1]
	n, err := strconv.Atoi(last)
	if err != nil || n < 1 {
		return 0, tokens, false
	}
	return n, tokens[:len(tokens)-1], true
}
