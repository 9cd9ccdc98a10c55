// Package catalog provides the read-only menu catalog for voxmenu.
//
// The catalog is loaded once at process start (from a YAML menu file or a
// literal item slice in tests) and is never mutated afterwards. Every
// component that needs menu knowledge — the entity extractor, the policy
// gate, the order ledger — receives a [Provider] by reference; there is no
// package-level singleton.
//
// All operations are safe for concurrent use: the catalog is immutable after
// construction.
package catalog

// Variant is a mutually-exclusive size/option modifier of a menu item
// (e.g. Regular vs Large). PriceDelta is added to the item's base price
// when the variant is selected.
type Variant struct {
	Label      string  `yaml:"label" json:"label"`
	PriceDelta float64 `yaml:"price_delta" json:"price_delta"`
}

// Addon is an additive, stackable modifier to a menu item (e.g. extra
// cheese). Price is added to the unit price for each selected addon.
type Addon struct {
	Label string  `yaml:"label" json:"label"`
	Price float64 `yaml:"price" json:"price"`
}

// MenuItem is an immutable catalog record. Prices are in whole currency
// units (rupees in the default menu).
type MenuItem struct {
	// ID is a unique identifier. Auto-generated from the name if empty
	// during menu loading.
	ID string `yaml:"id" json:"id"`

	// Name is the item's display name as spoken by callers.
	Name string `yaml:"name" json:"name"`

	// Category is the menu section the item belongs to (e.g. "Starters").
	Category string `yaml:"category" json:"category"`

	// BasePrice is the price of the item without variants or addons.
	BasePrice float64 `yaml:"price" json:"price"`

	// Description is a short free-text description used for "what is X" answers.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Variants lists the mutually-exclusive options for this item, in menu order.
	Variants []Variant `yaml:"variants,omitempty" json:"variants,omitempty"`

	// Addons lists the stackable extras for this item, in menu order.
	Addons []Addon `yaml:"addons,omitempty" json:"addons,omitempty"`

	// Allergens lists allergen labels (e.g. "dairy", "nuts").
	Allergens []string `yaml:"allergens,omitempty" json:"allergens,omitempty"`

	// Available reports whether the item can currently be ordered.
	Available bool `yaml:"available" json:"available"`

	// PrepTimeMinutes is the kitchen preparation time estimate.
	PrepTimeMinutes int `yaml:"prep_time_minutes,omitempty" json:"prep_time_minutes,omitempty"`

	// SpiceLevel grades heat from 0 (none) to 5.
	SpiceLevel int `yaml:"spice_level,omitempty" json:"spice_level,omitempty"`
}

// Variant returns the variant with the given label and whether it exists.
// Matching is exact; callers resolve fuzzy labels before lookup.
func (m MenuItem) Variant(label string) (Variant, bool) {
	for _, v := range m.Variants {
		if v.Label == label {
			return v, true
		}
	}
	return Variant{}, false
}

// Addon returns the addon with the given label and whether it exists.
func (m MenuItem) Addon(label string) (Addon, bool) {
	for _, a := range m.Addons {
		if a.Label == label {
			return a, true
		}
	}
	return Addon{}, false
}

// VariantLabels returns the variant labels in menu order.
func (m MenuItem) VariantLabels() []string {
	labels := make([]string, len(m.Variants))
	for i, v := range m.Variants {
		labels[i] = v.Label
	}
	return labels
}

// AddonLabels returns the addon labels in menu order.
func (m MenuItem) AddonLabels() []string {
	labels := make([]string, len(m.Addons))
	for i, a := range m.Addons {
		labels[i] = a.Label
	}
	return labels
}

// RestaurantInfo holds the restaurant metadata used for info answers.
type RestaurantInfo struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
}
