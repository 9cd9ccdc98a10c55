package nlu

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	// defaultThreshold is the minimum combined score for BestMatch to accept
	// a candidate.
	defaultThreshold = 0.72

	// tokenSimThreshold is the per-token Levenshtein similarity above which
	// two tokens are considered the same word for overlap counting.
	tokenSimThreshold = 0.85

	// phoneticSlack is how far below the threshold a candidate may score and
	// still be accepted when its Double Metaphone codes overlap the query's.
	phoneticSlack = 0.08

	// shortNameWeightEdit is the edit-distance weight for single-token
	// comparisons; multi-word names shift weight onto token overlap.
	shortNameWeightEdit = 0.7
	longNameWeightEdit  = 0.4
)

// Match is one scored candidate produced by [Matcher.BestMatch]. It is
// transient: produced and consumed within a single extraction call.
type Match struct {
	// Name is the candidate string as supplied (catalog casing preserved).
	Name string

	// Score is the combined similarity in [0, 1].
	Score float64

	// Distance is the Levenshtein distance between the canonicalized query
	// and candidate, kept for deterministic tie-breaking.
	Distance int
}

// MatcherOption configures a [Matcher].
type MatcherOption func(*Matcher)

// WithThreshold sets the minimum combined score for [Matcher.BestMatch] to
// accept a candidate. Default: 0.72.
func WithThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// WithPhoneticAssist toggles the Double Metaphone assist that accepts
// borderline candidates whose phonetic codes overlap the query's.
// Enabled by default.
func WithPhoneticAssist(enabled bool) MatcherOption {
	return func(m *Matcher) {
		m.phoneticAssist = enabled
	}
}

// Matcher scores query strings against catalog vocabulary. The combined
// score blends normalized Levenshtein similarity with token-set overlap;
// weights favour edit distance for short strings and token overlap for
// multi-word names. Matcher is read-only after construction and safe for
// concurrent use.
type Matcher struct {
	threshold      float64
	phoneticAssist bool
}

// NewMatcher returns a Matcher configured with the supplied options.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		threshold:      defaultThreshold,
		phoneticAssist: true,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Threshold returns the configured acceptance threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Score returns the combined similarity of a and b in [0, 1]. It is
// symmetric in argument order.
func (m *Matcher) Score(a, b string) float64 {
	score, _ := scoreWithDistance(a, b)
	return score
}

// scoreWithDistance computes the combined score and the raw Levenshtein
// distance between the canonicalized forms of a and b.
func scoreWithDistance(a, b string) (float64, int) {
	ca := canonicalize(a)
	cb := canonicalize(b)
	if ca == "" || cb == "" {
		return 0, max(len(ca), len(cb))
	}

	// Edit-distance similarity on the space-stripped strings so that word
	// boundaries do not count as edits ("coldcoffee" vs "cold coffee").
	flatA := strings.ReplaceAll(ca, " ", "")
	flatB := strings.ReplaceAll(cb, " ", "")
	dist := matchr.Levenshtein(flatA, flatB)
	editSim := 1.0 - float64(dist)/float64(max(len(flatA), len(flatB)))

	overlap := tokenOverlap(strings.Fields(ca), strings.Fields(cb))

	wEdit := shortNameWeightEdit
	if strings.ContainsRune(ca, ' ') || strings.ContainsRune(cb, ' ') {
		wEdit = longNameWeightEdit
	}
	return wEdit*editSim + (1-wEdit)*overlap, dist
}

// BestMatch returns the highest-scoring candidate whose score clears the
// matcher's threshold, and whether one was found.
//
// Ties are broken deterministically: lowest edit distance first, then
// shortest candidate name, then lexical order. The ordering is total, so
// BestMatch is stable regardless of candidate order.
func (m *Matcher) BestMatch(query string, candidates []string) (Match, bool) {
	ranked := m.Rank(query, candidates)
	if len(ranked) == 0 {
		return Match{}, false
	}
	return ranked[0], true
}

// Rank scores every candidate against query and returns those clearing the
// threshold (or the phonetic-assist band), best first. The extractor uses
// the top two entries to detect ambiguous spans.
func (m *Matcher) Rank(query string, candidates []string) []Match {
	queryCodes := metaphoneCodes(canonicalize(query))

	var ranked []Match
	for _, cand := range candidates {
		score, dist := scoreWithDistance(query, cand)
		if score < m.threshold {
			if !m.phoneticAssist || score < m.threshold-phoneticSlack {
				continue
			}
			if !codesOverlap(queryCodes, metaphoneCodes(canonicalize(cand))) {
				continue
			}
		}
		ranked = append(ranked, Match{Name: cand, Score: score, Distance: dist})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if len(a.Name) != len(b.Name) {
			return len(a.Name) < len(b.Name)
		}
		return a.Name < b.Name
	})
	return ranked
}

// WindowMatch is a [Match] aligned to the token window [Start, End) of the
// span it was scored against.
type WindowMatch struct {
	Match
	Start int
	End   int
}

// RankWindows scores every candidate against its best-aligned window of
// span tokens and returns those clearing the threshold (or the phonetic-
// assist band), best first under the same total ordering as [Matcher.Rank].
//
// For each candidate the windows tried are every contiguous token run whose
// length equals the candidate's word count, plus the full span. This lets a
// two-word dish name match inside "large paneer tikka with extra cheese"
// without the surrounding modifier tokens dragging its score down.
func (m *Matcher) RankWindows(tokens []string, candidates []string) []WindowMatch {
	if len(tokens) == 0 {
		return nil
	}
	span := strings.Join(tokens, " ")
	spanCodes := metaphoneCodes(span)

	var ranked []WindowMatch
	for _, cand := range candidates {
		width := len(strings.Fields(canonicalize(cand)))
		if width == 0 {
			continue
		}

		best := WindowMatch{Start: 0, End: len(tokens)}
		best.Score, best.Distance = scoreWithDistance(span, cand)

		if width < len(tokens) {
			for start := 0; start+width <= len(tokens); start++ {
				window := strings.Join(tokens[start:start+width], " ")
				score, dist := scoreWithDistance(window, cand)
				if score > best.Score {
					best = WindowMatch{Start: start, End: start + width}
					best.Score, best.Distance = score, dist
				}
			}
		}

		if best.Score < m.threshold {
			if !m.phoneticAssist || best.Score < m.threshold-phoneticSlack {
				continue
			}
			if !codesOverlap(spanCodes, metaphoneCodes(canonicalize(cand))) {
				continue
			}
		}
		best.Name = cand
		ranked = append(ranked, best)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if len(a.Name) != len(b.Name) {
			return len(a.Name) < len(b.Name)
		}
		return a.Name < b.Name
	})
	return ranked
}

// tokenOverlap returns the ratio of fuzzily-matched token pairs to the
// size of the larger token set. Two tokens count as matched when their
// Levenshtein similarity reaches tokenSimThreshold. Each token matches at
// most once, and the greedy pairing is order-independent because the
// per-pair predicate is symmetric.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	used := make([]bool, len(b))
	matched := 0
	for _, ta := range a {
		for j, tb := range b {
			if used[j] {
				continue
			}
			if tokenSimilar(ta, tb) {
				used[j] = true
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(b))
}

// tokenSimilar reports whether two single tokens are the same word up to
// transcription noise.
func tokenSimilar(a, b string) bool {
	if a == b {
		return true
	}
	dist := matchr.Levenshtein(a, b)
	sim := 1.0 - float64(dist)/float64(max(len(a), len(b)))
	return sim >= tokenSimThreshold
}

// metaphoneCodes returns the union of Double Metaphone codes for every
// token in text. Empty codes are excluded.
func metaphoneCodes(text string) map[string]struct{} {
	codes := make(map[string]struct{}, 4)
	for _, tok := range strings.Fields(text) {
		p, s := matchr.DoubleMetaphone(tok)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
