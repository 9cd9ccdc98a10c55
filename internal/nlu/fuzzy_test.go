package nlu_test

import (
	"testing"

	"github.com/voxmenu/voxmenu/internal/nlu"
)

var menuNames = []string{
	"Paneer Tikka", "Spring Roll", "Gulab Jamun",
	"Butter Chicken", "Dal Makhani", "Garlic Naan",
	"Cold Coffee", "Masala Tea",
}

func TestScore(t *testing.T) {
	t.Parallel()

	m := nlu.NewMatcher()

	t.Run("identical strings score one", func(t *testing.T) {
		t.Parallel()
		if got := m.Score("cold coffee", "Cold Coffee"); got < 0.999 {
			t.Fatalf("Score = %f, want ~1.0", got)
		}
	})

	t.Run("symmetric in argument order", func(t *testing.T) {
		t.Parallel()
		a, b := "butter chiken", "Butter Chicken"
		if m.Score(a, b) != m.Score(b, a) {
			t.Fatalf("Score(%q, %q) = %f, Score(%q, %q) = %f",
				a, b, m.Score(a, b), b, a, m.Score(b, a))
		}
	})

	t.Run("bounded in unit interval", func(t *testing.T) {
		t.Parallel()
		pairs := [][2]string{
			{"paneer tikka", "masala tea"},
			{"x", "butter chicken"},
			{"", "garlic naan"},
			{"cold coffee", "cold coffee"},
		}
		for _, p := range pairs {
			got := m.Score(p[0], p[1])
			if got < 0 || got > 1 {
				t.Fatalf("Score(%q, %q) = %f, out of [0, 1]", p[0], p[1], got)
			}
		}
	})
}

func TestBestMatch(t *testing.T) {
	t.Parallel()

	m := nlu.NewMatcher()

	t.Run("tolerates single-letter typos", func(t *testing.T) {
		t.Parallel()
		got, ok := m.BestMatch("butter chiken", menuNames)
		if !ok {
			t.Fatal("BestMatch: expected a match, got none")
		}
		if got.Name != "Butter Chicken" {
			t.Fatalf("BestMatch: got %q, want %q", got.Name, "Butter Chicken")
		}
	})

	t.Run("tolerates a dropped vowel in a long word", func(t *testing.T) {
		t.Parallel()
		got, ok := m.BestMatch("dal makhni", menuNames)
		if !ok {
			t.Fatal("BestMatch: expected a match, got none")
		}
		if got.Name != "Dal Makhani" {
			t.Fatalf("BestMatch: got %q, want %q", got.Name, "Dal Makhani")
		}
	})

	t.Run("rejects unrelated queries", func(t *testing.T) {
		t.Parallel()
		if got, ok := m.BestMatch("quantum physics", menuNames); ok {
			t.Fatalf("BestMatch: expected no match, got %q (%.2f)", got.Name, got.Score)
		}
	})
}

func TestPhoneticAssist(t *testing.T) {
	t.Parallel()

	// "paneer tika" lands just below the threshold on edit distance alone;
	// the shared metaphone code rescues it.
	query := "paneer tika"

	t.Run("rescues borderline candidates", func(t *testing.T) {
		t.Parallel()
		m := nlu.NewMatcher()
		got, ok := m.BestMatch(query, menuNames)
		if !ok {
			t.Fatal("BestMatch: expected a phonetic-assisted match, got none")
		}
		if got.Name != "Paneer Tikka" {
			t.Fatalf("BestMatch: got %q, want %q", got.Name, "Paneer Tikka")
		}
		if got.Score >= m.Threshold() {
			t.Fatalf("BestMatch: score %f should be below threshold %f for this case",
				got.Score, m.Threshold())
		}
	})

	t.Run("disabled assist rejects the same query", func(t *testing.T) {
		t.Parallel()
		m := nlu.NewMatcher(nlu.WithPhoneticAssist(false))
		if got, ok := m.BestMatch(query, menuNames); ok {
			t.Fatalf("BestMatch: expected no match with assist off, got %q", got.Name)
		}
	})
}

func TestRank(t *testing.T) {
	t.Parallel()

	m := nlu.NewMatcher()
	ranked := m.Rank("cold coffee", menuNames)
	if len(ranked) == 0 {
		t.Fatal("Rank: expected at least one candidate")
	}
	if ranked[0].Name != "Cold Coffee" {
		t.Fatalf("Rank: best candidate %q, want %q", ranked[0].Name, "Cold Coffee")
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Fatalf("Rank: not sorted best-first at index %d: %f > %f",
				i, ranked[i].Score, ranked[i-1].Score)
		}
	}
}

func TestRankWindows(t *testing.T) {
	t.Parallel()

	m := nlu.NewMatcher()

	t.Run("aligns a dish name inside modifier tokens", func(t *testing.T) {
		t.Parallel()
		tokens := []string{"large", "paneer", "tikka"}
		ranked := m.RankWindows(tokens, menuNames)
		if len(ranked) == 0 {
			t.Fatal("RankWindows: expected a match")
		}
		best := ranked[0]
		if best.Name != "Paneer Tikka" {
			t.Fatalf("RankWindows: best %q, want %q", best.Name, "Paneer Tikka")
		}
		if best.Start != 1 || best.End != 3 {
			t.Fatalf("RankWindows: window [%d, %d), want [1, 3)", best.Start, best.End)
		}
		if best.Score < 0.99 {
			t.Fatalf("RankWindows: score %f, want ~1.0 for exact window", best.Score)
		}
	})

	t.Run("empty token list matches nothing", func(t *testing.T) {
		t.Parallel()
		if got := m.RankWindows(nil, menuNames); got != nil {
			t.Fatalf("RankWindows(nil) = %v, want nil", got)
		}
	})

	t.Run("stable under candidate order", func(t *testing.T) {
		t.Parallel()
		tokens := []string{"one", "garlic", "naan"}
		reversed := make([]string, len(menuNames))
		for i, n := range menuNames {
			reversed[len(menuNames)-1-i] = n
		}
		a := m.RankWindows(tokens, menuNames)
		b := m.RankWindows(tokens, reversed)
		if len(a) == 0 || len(b) == 0 {
			t.Fatal("RankWindows: expected matches in both orders")
		}
		if a[0].Name != b[0].Name {
			t.Fatalf("RankWindows: best differs by candidate order: %q vs %q", a[0].Name, b[0].Name)
		}
	})
}
