package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// MenuFile is the top-level structure of a voxmenu menu YAML file.
//
// Example:
//
//	restaurant:
//	  name: "Infocall Dine"
//	  address: "MG Road, Mumbai"
//	  phone: "+91 98765 43210"
//	categories:
//	  - name: "Starters"
//	    items:
//	      - name: "Paneer Tikka"
//	        price: 250
//	        available: true
type MenuFile struct {
	Restaurant RestaurantInfo `yaml:"restaurant"`
	Categories []CategoryDef  `yaml:"categories"`
}

// CategoryDef is one menu section in a menu file. The category name is
// stamped onto each contained item during catalog construction.
type CategoryDef struct {
	Name  string     `yaml:"name"`
	Items []MenuItem `yaml:"items"`
}

// LoadMenuFile reads and parses a menu YAML file from disk and builds the
// catalog. Returns a descriptive error if the file cannot be opened or parsed.
func LoadMenuFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open menu file %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadMenuFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse menu file %q: %w", path, err)
	}
	return c, nil
}

// LoadMenuFromReader parses menu YAML from an [io.Reader] and builds the
// catalog. The reader is consumed entirely; the caller is responsible for
// closing it.
func LoadMenuFromReader(r io.Reader) (*Catalog, error) {
	var mf MenuFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("catalog: decode menu yaml: %w", err)
	}

	var items []MenuItem
	for _, cat := range mf.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("catalog: category without a name")
		}
		for _, item := range cat.Items {
			item.Category = cat.Name
			items = append(items, item)
		}
	}
	return New(mf.Restaurant, items)
}
