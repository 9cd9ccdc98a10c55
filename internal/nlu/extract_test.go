package nlu_test

import (
	"testing"

	"github.com/voxmenu/voxmenu/internal/catalog"
	"github.com/voxmenu/voxmenu/internal/nlu"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		catalog.RestaurantInfo{Name: "Infocall Dine", Address: "MG Road, Mumbai", Phone: "+91 98765 43210"},
		[]catalog.MenuItem{
			{
				Name: "Paneer Tikka", Category: "Starters", BasePrice: 250, Available: true,
				Description: "Grilled cottage cheese marinated in spices",
				Variants: []catalog.Variant{
					{Label: "Regular", PriceDelta: 0},
					{Label: "Large", PriceDelta: 80},
				},
				Addons: []catalog.Addon{
					{Label: "Extra Cheese", Price: 40},
					{Label: "Mint Chutney", Price: 20},
				},
			},
			{Name: "Spring Roll", Category: "Starters", BasePrice: 180, Available: true},
			{Name: "Gulab Jamun", Category: "Starters", BasePrice: 80, Available: false},
			{Name: "Butter Chicken", Category: "Main Course", BasePrice: 350, Available: true},
			{Name: "Dal Makhani", Category: "Main Course", BasePrice: 220, Available: true},
			{Name: "Garlic Naan", Category: "Main Course", BasePrice: 60, Available: true},
			{Name: "Butter Naan", Category: "Main Course", BasePrice: 50, Available: true},
			{
				Name: "Cold Coffee", Category: "Beverages", BasePrice: 150, Available: true,
				Variants: []catalog.Variant{
					{Label: "Regular", PriceDelta: 0},
					{Label: "Large", PriceDelta: 50},
				},
			},
			{Name: "Masala Tea", Category: "Beverages", BasePrice: 50, Available: true},
		},
	)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func newExtractor(t *testing.T, opts ...nlu.ExtractorOption) *nlu.Extractor {
	t.Helper()
	return nlu.NewExtractor(testCatalog(t), nlu.NewMatcher(), opts...)
}

func resolvedOnly(entities []nlu.ExtractedEntity) []nlu.ExtractedEntity {
	var out []nlu.ExtractedEntity
	for _, e := range entities {
		if e.Flag == nlu.FlagResolved {
			out = append(out, e)
		}
	}
	return out
}

func TestExtractSingleDish(t *testing.T) {
	t.Parallel()

	e := newExtractor(t)
	got := resolvedOnly(e.Extract("two paneer tikka"))
	if len(got) != 1 {
		t.Fatalf("Extract: got %d resolved entities, want 1", len(got))
	}
	if got[0].Item.Name != "Paneer Tikka" {
		t.Fatalf("Extract: item %q, want %q", got[0].Item.Name, "Paneer Tikka")
	}
	if got[0].Quantity != 2 {
		t.Fatalf("Extract: quantity %d, want 2", got[0].Quantity)
	}
}

func TestExtractMultipleDishes(t *testing.T) {
	t.Parallel()

	e := newExtractor(t)

	t.Run("conjunction-separated spans", func(t *testing.T) {
		t.Parallel()
		got := resolvedOnly(e.Extract("two paneer tikka and one butter chicken"))
		if len(got) != 2 {
			t.Fatalf("Extract: got %d resolved entities, want 2", len(got))
		}
		if got[0].Item.Name != "Paneer Tikka" || got[0].Quantity != 2 {
			t.Fatalf("Extract: first entity %q x%d, want Paneer Tikka x2", got[0].Item.Name, got[0].Quantity)
		}
		if got[1].Item.Name != "Butter Chicken" || got[1].Quantity != 1 {
			t.Fatalf("Extract: second entity %q x%d, want Butter Chicken x1", got[1].Item.Name, got[1].Quantity)
		}
	})

	t.Run("interior quantities split an undelimited span", func(t *testing.T) {
		t.Parallel()
		got := resolvedOnly(e.Extract("two garlic naan one masala tea"))
		if len(got) != 2 {
			t.Fatalf("Extract: got %d resolved entities, want 2", len(got))
		}
		if got[0].Item.Name != "Garlic Naan" || got[0].Quantity != 2 {
			t.Fatalf("Extract: first entity %q x%d, want Garlic Naan x2", got[0].Item.Name, got[0].Quantity)
		}
		if got[1].Item.Name != "Masala Tea" || got[1].Quantity != 1 {
			t.Fatalf("Extract: second entity %q x%d, want Masala Tea x1", got[1].Item.Name, got[1].Quantity)
		}
	})

	t.Run("duplicate mentions merge by summing quantities", func(t *testing.T) {
		t.Parallel()
		got := resolvedOnly(e.Extract("one spring roll and two spring roll"))
		if len(got) != 1 {
			t.Fatalf("Extract: got %d resolved entities, want 1 merged line", len(got))
		}
		if got[0].Quantity != 3 {
			t.Fatalf("Extract: merged quantity %d, want 3", got[0].Quantity)
		}
	})
}

func TestExtractModifiers(t *testing.T) {
	t.Parallel()

	e := newExtractor(t)

	t.Run("variant and addon attach", func(t *testing.T) {
		t.Parallel()
		got := resolvedOnly(e.Extract("one large paneer tikka with extra cheese"))
		if len(got) != 1 {
			t.Fatalf("Extract: got %d resolved entities, want 1", len(got))
		}
		ent := got[0]
		if ent.Item.Name != "Paneer Tikka" {
			t.Fatalf("Extract: item %q, want Paneer Tikka", ent.Item.Name)
		}
		if ent.Variant != "Large" {
			t.Fatalf("Extract: variant %q, want %q", ent.Variant, "Large")
		}
		if len(ent.Addons) != 1 || ent.Addons[0] != "Extra Cheese" {
			t.Fatalf("Extract: addons %v, want [Extra Cheese]", ent.Addons)
		}
	})

	t.Run("variant never attaches to an item without it", func(t *testing.T) {
		t.Parallel()
		got := resolvedOnly(e.Extract("one large garlic naan"))
		if len(got) != 1 {
			t.Fatalf("Extract: got %d resolved entities, want 1", len(got))
		}
		if got[0].Variant != "" {
			t.Fatalf("Extract: variant %q, want empty", got[0].Variant)
		}
	})

	t.Run("without clause keeps the addon off", func(t *testing.T) {
		t.Parallel()
		got := resolvedOnly(e.Extract("one paneer tikka without extra cheese"))
		if len(got) != 1 {
			t.Fatalf("Extract: got %d resolved entities, want 1", len(got))
		}
		if got[0].Item.Name != "Paneer Tikka" {
			t.Fatalf("Extract: item %q, want Paneer Tikka", got[0].Item.Name)
		}
		if len(got[0].Addons) != 0 {
			t.Fatalf("Extract: addons %v, want none for an excluded addon", got[0].Addons)
		}
	})

	t.Run("without clause leaves earlier addons intact", func(t *testing.T) {
		t.Parallel()
		got := resolvedOnly(e.Extract("paneer tikka with extra cheese without mint chutney"))
		if len(got) != 1 {
			t.Fatalf("Extract: got %d resolved entities, want 1", len(got))
		}
		if len(got[0].Addons) != 1 || got[0].Addons[0] != "Extra Cheese" {
			t.Fatalf("Extract: addons %v, want [Extra Cheese]", got[0].Addons)
		}
	})

	t.Run("trailing digit becomes the quantity", func(t *testing.T) {
		t.Parallel()
		got := resolvedOnly(e.Extract("cold coffee 2"))
		if len(got) != 1 {
			t.Fatalf("Extract: got %d resolved entities, want 1", len(got))
		}
		if got[0].Quantity != 2 {
			t.Fatalf("Extract: quantity %d, want 2", got[0].Quantity)
		}
	})
}

func TestExtractFlags(t *testing.T) {
	t.Parallel()

	t.Run("unknown dish is flagged not dropped", func(t *testing.T) {
		t.Parallel()
		e := newExtractor(t)
		got := e.Extract("one uranium sandwich")
		if len(got) != 1 {
			t.Fatalf("Extract: got %d entities, want 1 flagged span", len(got))
		}
		if got[0].Flag != nlu.FlagNoMatch {
			t.Fatalf("Extract: flag %v, want FlagNoMatch", got[0].Flag)
		}
		if got[0].Span == "" {
			t.Fatal("Extract: flagged entity should keep its span text")
		}
	})

	t.Run("near-equal candidates are flagged ambiguous", func(t *testing.T) {
		t.Parallel()
		// "butter garlic naan" ranks both naan items; a widened margin puts
		// them inside the ambiguity band so the disambiguation path fires
		// deterministically.
		e := newExtractor(t, nlu.WithAmbiguityMargin(0.45))
		got := e.Extract("butter garlic naan")
		if len(got) != 1 {
			t.Fatalf("Extract: got %d entities, want 1", len(got))
		}
		if got[0].Flag != nlu.FlagAmbiguous {
			t.Fatalf("Extract: flag %v, want FlagAmbiguous", got[0].Flag)
		}
		if len(got[0].Candidates) != 2 {
			t.Fatalf("Extract: %d candidates, want 2", len(got[0].Candidates))
		}
		if got[0].Candidates[0].Name != "Garlic Naan" {
			t.Fatalf("Extract: best candidate %q, want Garlic Naan", got[0].Candidates[0].Name)
		}
	})

	t.Run("empty utterance extracts nothing", func(t *testing.T) {
		t.Parallel()
		e := newExtractor(t)
		if got := e.Extract(""); len(got) != 0 {
			t.Fatalf("Extract(\"\") = %d entities, want 0", len(got))
		}
	})
}

func TestExtractQuantityFailsClosed(t *testing.T) {
	t.Parallel()

	e := newExtractor(t)
	got := resolvedOnly(e.Extract("0 masala tea"))
	if len(got) != 1 {
		t.Fatalf("Extract: got %d resolved entities, want 1", len(got))
	}
	if got[0].Quantity != 1 {
		t.Fatalf("Extract: quantity %d, want 1 (fails closed)", got[0].Quantity)
	}
}
