package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Item when no item with the requested ID exists.
var ErrNotFound = errors.New("menu item not found")

// Provider is the read-only menu catalog contract consumed by the ordering
// core. Implementations must be safe for concurrent use.
type Provider interface {
	// Items returns all menu items in menu order.
	Items() []MenuItem

	// Item retrieves a menu item by ID.
	// Returns [ErrNotFound] when no item with that ID exists.
	Item(id string) (MenuItem, error)

	// IsAvailable reports whether the item with the given ID can currently
	// be ordered. Unknown IDs are not available.
	IsAvailable(id string) bool
}

// Compile-time interface check.
var _ Provider = (*Catalog)(nil)

// Catalog is the immutable in-memory [Provider] implementation. Construct
// one with [New] or [LoadMenuFile]; it must not be modified afterwards.
type Catalog struct {
	restaurant RestaurantInfo
	items      []MenuItem
	byID       map[string]int // id → index into items
	names      []string       // item names in menu order
}

// New builds a Catalog from the given items. Items without an ID get one
// derived from their name. Duplicate IDs are rejected.
func New(restaurant RestaurantInfo, items []MenuItem) (*Catalog, error) {
	c := &Catalog{
		restaurant: restaurant,
		items:      make([]MenuItem, 0, len(items)),
		byID:       make(map[string]int, len(items)),
		names:      make([]string, 0, len(items)),
	}
	for _, item := range items {
		if item.Name == "" {
			return nil, fmt.Errorf("catalog: item without a name")
		}
		if item.ID == "" {
			item.ID = slugify(item.Name)
		}
		if _, exists := c.byID[item.ID]; exists {
			return nil, fmt.Errorf("catalog: duplicate item id %q", item.ID)
		}
		c.byID[item.ID] = len(c.items)
		c.items = append(c.items, item)
		c.names = append(c.names, item.Name)
	}
	return c, nil
}

// Restaurant returns the restaurant metadata.
func (c *Catalog) Restaurant() RestaurantInfo { return c.restaurant }

// Items implements [Provider]. The returned slice is a copy; mutating it
// does not affect the catalog.
func (c *Catalog) Items() []MenuItem {
	items := make([]MenuItem, len(c.items))
	copy(items, c.items)
	return items
}

// Item implements [Provider].
func (c *Catalog) Item(id string) (MenuItem, error) {
	idx, ok := c.byID[id]
	if !ok {
		return MenuItem{}, fmt.Errorf("catalog: item %q: %w", id, ErrNotFound)
	}
	return c.items[idx], nil
}

// IsAvailable implements [Provider].
func (c *Catalog) IsAvailable(id string) bool {
	idx, ok := c.byID[id]
	if !ok {
		return false
	}
	return c.items[idx].Available
}

// Names returns all item display names in menu order. The returned slice is
// a copy.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}

// ByName returns the item whose name equals name case-insensitively.
// Fuzzy resolution happens upstream in the extractor; this is the exact
// lookup used once a name has been resolved.
func (c *Catalog) ByName(name string) (MenuItem, bool) {
	for _, item := range c.items {
		if strings.EqualFold(item.Name, name) {
			return item, true
		}
	}
	return MenuItem{}, false
}

// Categories returns the distinct category names in first-appearance order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{}, 8)
	var categories []string
	for _, item := range c.items {
		if item.Category == "" {
			continue
		}
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		categories = append(categories, item.Category)
	}
	return categories
}

// ItemsInCategory returns the items belonging to category, in menu order.
func (c *Catalog) ItemsInCategory(category string) []MenuItem {
	var items []MenuItem
	for _, item := range c.items {
		if strings.EqualFold(item.Category, category) {
			items = append(items, item)
		}
	}
	return items
}

// slugify derives a stable item ID from a display name:
// "Paneer Tikka" → "paneer-tikka".
func slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
