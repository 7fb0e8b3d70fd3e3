// Package catalog serves the product list bundled with the server.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var bundled []byte

// ErrProductNotFound is returned by Get for unknown ids.
var ErrProductNotFound = errors.New("product not found")

// Product is a catalog entry. Price is in VND.
type Product struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Price       int64  `yaml:"price"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image_url"`
}

// Catalog is an immutable product list.
type Catalog struct {
	products []Product
	byID     map[string]int
}

// Load returns the bundled catalog.
func Load() (*Catalog, error) {
	return Parse(bundled)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Products []Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{products: doc.Products, byID: make(map[string]int, len(doc.Products))}
	for i, p := range doc.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// All returns the products in catalog order.
func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get looks up a product by id.
func (c *Catalog) Get(id string) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return c.products[i], nil
}
