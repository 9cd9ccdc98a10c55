package catalog_test

import (
	"errors"
	"testing"

	"github.com/voxmenu/voxmenu/internal/catalog"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		catalog.RestaurantInfo{Name: "Infocall Dine", Address: "MG Road, Mumbai", Phone: "+91 98765 43210"},
		[]catalog.MenuItem{
			{Name: "Paneer Tikka", Category: "Starters", BasePrice: 250, Available: true},
			{Name: "Spring Roll", Category: "Starters", BasePrice: 180, Available: true},
			{Name: "Butter Chicken", Category: "Main Course", BasePrice: 350, Available: true},
			{Name: "Gulab Jamun", Category: "Starters", BasePrice: 80, Available: false},
		},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cat
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("generates slug IDs from names", func(t *testing.T) {
		t.Parallel()
		cat := newCatalog(t)
		item, err := cat.Item("paneer-tikka")
		if err != nil {
			t.Fatalf("Item: %v", err)
		}
		if item.Name != "Paneer Tikka" {
			t.Fatalf("Item: name %q, want %q", item.Name, "Paneer Tikka")
		}
	})

	t.Run("explicit IDs are preserved", func(t *testing.T) {
		t.Parallel()
		cat, err := catalog.New(catalog.RestaurantInfo{}, []catalog.MenuItem{
			{ID: "pt-01", Name: "Paneer Tikka", Available: true},
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := cat.Item("pt-01"); err != nil {
			t.Fatalf("Item: %v", err)
		}
	})

	t.Run("duplicate IDs are rejected", func(t *testing.T) {
		t.Parallel()
		_, err := catalog.New(catalog.RestaurantInfo{}, []catalog.MenuItem{
			{Name: "Masala Tea"},
			{Name: "Masala, Tea"}, // slugs collide
		})
		if err == nil {
			t.Fatal("New: expected duplicate-ID error, got nil")
		}
	})

	t.Run("item without a name is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := catalog.New(catalog.RestaurantInfo{}, []catalog.MenuItem{{BasePrice: 100}})
		if err == nil {
			t.Fatal("New: expected error for unnamed item, got nil")
		}
	})
}

func TestLookups(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t)

	t.Run("unknown ID returns ErrNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := cat.Item("no-such-item")
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("Item: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("availability follows the item flag", func(t *testing.T) {
		t.Parallel()
		if !cat.IsAvailable("paneer-tikka") {
			t.Fatal("IsAvailable: expected paneer-tikka to be available")
		}
		if cat.IsAvailable("gulab-jamun") {
			t.Fatal("IsAvailable: expected gulab-jamun to be unavailable")
		}
		if cat.IsAvailable("no-such-item") {
			t.Fatal("IsAvailable: unknown IDs must not be available")
		}
	})

	t.Run("ByName is case-insensitive", func(t *testing.T) {
		t.Parallel()
		item, ok := cat.ByName("bUtTeR cHiCkEn")
		if !ok {
			t.Fatal("ByName: expected a match")
		}
		if item.ID != "butter-chicken" {
			t.Fatalf("ByName: ID %q, want %q", item.ID, "butter-chicken")
		}
		if _, ok := cat.ByName("nonexistent"); ok {
			t.Fatal("ByName: expected no match for unknown name")
		}
	})

	t.Run("categories keep first-appearance order", func(t *testing.T) {
		t.Parallel()
		got := cat.Categories()
		want := []string{"Starters", "Main Course"}
		if len(got) != len(want) {
			t.Fatalf("Categories: %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Categories: %v, want %v", got, want)
			}
		}
	})

	t.Run("items in category", func(t *testing.T) {
		t.Parallel()
		got := cat.ItemsInCategory("starters")
		if len(got) != 3 {
			t.Fatalf("ItemsInCategory: %d items, want 3", len(got))
		}
	})
}

func TestImmutability(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t)
	items := cat.Items()
	items[0].Name = "Mutated"
	fresh, err := cat.Item(items[0].ID)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if fresh.Name == "Mutated" {
		t.Fatal("Items: returned slice must be a copy")
	}
}

func TestMenuItemModifiers(t *testing.T) {
	t.Parallel()

	item := catalog.MenuItem{
		Name:      "Paneer Tikka",
		BasePrice: 250,
		Variants:  []catalog.Variant{{Label: "Large", PriceDelta: 80}},
		Addons:    []catalog.Addon{{Label: "Extra Cheese", Price: 40}},
	}

	if v, ok := item.Variant("Large"); !ok || v.PriceDelta != 80 {
		t.Fatalf("Variant: got %+v ok=%v", v, ok)
	}
	if _, ok := item.Variant("Medium"); ok {
		t.Fatal("Variant: expected no match for unknown label")
	}
	if a, ok := item.Addon("Extra Cheese"); !ok || a.Price != 40 {
		t.Fatalf("Addon: got %+v ok=%v", a, ok)
	}
	if got := item.VariantLabels(); len(got) != 1 || got[0] != "Large" {
		t.Fatalf("VariantLabels: %v", got)
	}
}
