// Package nlu implements the language-understanding stages of the voxmenu
// ordering pipeline: utterance normalization, fuzzy/phonetic menu-entity
// matching, and multi-dish entity extraction.
//
// Raw speech-to-text output is rarely perfect for dish names — "panir tika",
// "button nan", and "cole coffee" are everyday inputs. The pipeline corrects
// them in three stages:
//
//  1. [Normalizer] canonicalizes the text (case, punctuation, whitespace) and
//     applies a configurable phonetic-substitution table for known
//     mis-transcriptions.
//  2. [Matcher] scores candidate strings against catalog vocabulary using
//     normalized Levenshtein similarity blended with token overlap, with a
//     Double Metaphone assist for borderline candidates.
//  3. [Extractor] segments the utterance into dish spans and resolves each
//     span to a menu item with quantity, variant, and addon modifiers.
//
// All types are read-only after construction and safe for concurrent use
// across sessions sharing one catalog.
package nlu

import (
	"strings"
)

// maxCorrectionPasses bounds the substitution fixpoint loop. Chains are
// resolved at construction, so a second pass only ever fires when a
// correction value overlaps a different multi-word key.
const maxCorrectionPasses = 4

// Normalizer canonicalizes raw utterance text. It is a pure function
// wrapper: Normalize has no side effects and is idempotent —
// Normalize(Normalize(x)) == Normalize(x).
type Normalizer struct {
	corrections map[string]string // canonical-form key → canonical-form value
	maxKeyWords int
}

// NewNormalizer builds a Normalizer with the given phonetic-substitution
// table (mis-heard phrase → canonical phrase). Keys and values are themselves
// canonicalized, and chains (a→b, b→c) are resolved to their final form so
// that a single substitution pass converges.
//
// A nil or empty table yields a normalizer that only does case, punctuation,
// and whitespace canonicalization.
func NewNormalizer(corrections map[string]string) *Normalizer {
	n := &Normalizer{
		corrections: make(map[string]string, len(corrections)),
	}
	for k, v := range corrections {
		key := canonicalize(k)
		val := canonicalize(v)
		if key == "" || key == val {
			continue
		}
		n.corrections[key] = val
	}
	// Resolve chains: follow values that are themselves keys.
	for key, val := range n.corrections {
		seen := 0
		for {
			next, ok := n.corrections[val]
			if !ok || next == val || seen > len(n.corrections) {
				break
			}
			val = next
			seen++
		}
		n.corrections[key] = val
	}
	for key := range n.corrections {
		if words := len(strings.Fields(key)); words > n.maxKeyWords {
			n.maxKeyWords = words
		}
	}
	return n
}

// Normalize returns the canonical form of text: lowercased, punctuation
// stripped (digits, letters, and spaces survive), repeated whitespace
// collapsed, and the phonetic-substitution table applied as a final pass.
func (n *Normalizer) Normalize(text string) string {
	out := canonicalize(text)
	if len(n.corrections) == 0 || out == "" {
		return out
	}
	for range maxCorrectionPasses {
		next := n.substitute(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// substitute walks the token stream and replaces the longest matching
// correction-table phrase at each position, mirroring the n-gram window walk
// used for entity alignment.
func (n *Normalizer) substitute(text string) string {
	tokens := strings.Fields(text)
	var out []string

	i := 0
	for i < len(tokens) {
		maxN := n.maxKeyWords
		if i+maxN > len(tokens) {
			maxN = len(tokens) - i
		}

		matched := false
		for w := maxN; w >= 1; w-- {
			window := strings.Join(tokens[i:i+w], " ")
			if replacement, ok := n.corrections[window]; ok {
				out = append(out, strings.Fields(replacement)...)
				i += w
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, tokens[i])
			i++
		}
	}
	return strings.Join(out, " ")
}

// canonicalize lowercases text, strips every rune that is not a letter,
// digit, or space, and collapses whitespace runs to single spaces.
func canonicalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case r == '\'' || r == '’':
			// Apostrophes contract rather than separate: "don't" → "dont".
		default:
			// Punctuation separates words rather than gluing them together:
			// "tikka,naan" → "tikka naan".
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
