package classify

import (
	"path/filepath"
	"strings"

	"github.com/angelmondragon/catalogsync/internal/catalog"
	"github.com/angelmondragon/catalogsync/internal/reconcile"
)

const unnamedProduct = "no-name"

// Seed is the reconciler input derived from a merged catalog.
type Seed struct {
	Categories []reconcile.CategoryInput
	Products   []reconcile.ProductInput
	// Packaged counts products routed through the packaged branch.
	Packaged int
}

// BuildSeed classifies every entry. Every taxonomy category is emitted even
// when no product lands in it.
func BuildSeed(entries []catalog.Entry, c *Classifier) Seed {
	var seed Seed
	for _, cat := range c.Categories() {
		active := true
		seed.Categories = append(seed.Categories, reconcile.CategoryInput{
			ID:       cat.ID,
			Slug:     cat.Slug,
			Name:     cat.Name,
			IsActive: &active,
		})
	}

	seed.Products = make([]reconcile.ProductInput, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = strings.TrimSpace(e.SeoName)
		}
		if c.Packaged(name) {
			seed.Packaged++
		}
		cat := c.Classify(name)
		if name == "" {
			name = unnamedProduct
		}

		active := true
		seed.Products = append(seed.Products, reconcile.ProductInput{
			SKU:           productSKU(e, name),
			Name:          name,
			CategoryID:    cat.ID,
			CategorySlug:  cat.Slug,
			Price:         productPrice(e),
			StockQuantity: 0,
			IsActive:      &active,
			Description:   e.SubName,
			Images:        productImages(e),
		})
	}
	return seed
}

// WriteSeed writes categories.json and products.json into dir.
func WriteSeed(dir string, seed Seed) error {
	if err := reconcile.WriteJSON(filepath.Join(dir, string(reconcile.EntityCategories)+".json"), seed.Categories); err != nil {
		return err
	}
	return reconcile.WriteJSON(filepath.Join(dir, string(reconcile.EntityProducts)+".json"), seed.Products)
}

// Batch converts the seed into a reconciler batch without a file round trip.
func (s Seed) Batch() reconcile.Batch {
	return reconcile.Batch{
		Categories: s.Categories,
		Products:   s.Products,
		Malformed:  map[reconcile.Entity]int{},
	}
}

func productSKU(e catalog.Entry, name string) string {
	if sku := strings.TrimSpace(e.ItemNo); sku != "" {
		return sku
	}
	if sku := strings.TrimSpace(e.ID); sku != "" {
		return sku
	}
	return reconcile.DerivedSKU(name)
}

func productPrice(e catalog.Entry) float64 {
	switch {
	case e.SalePrice != nil:
		return *e.SalePrice
	case e.Price != nil:
		return *e.Price
	}
	return 0
}

func productImages(e catalog.Entry) []string {
	images := make([]string, 0, len(e.MediaItems))
	for _, u := range e.MediaItems {
		if u != "" {
			images = append(images, u)
		}
	}
	if len(images) == 0 && e.MediaURL != "" {
		images = append(images, e.MediaURL)
	}
	return images
}
