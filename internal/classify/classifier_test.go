package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/catalogsync/internal/catalog"
	"github.com/angelmondragon/catalogsync/internal/reconcile"
	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(DefaultRules())
	require.NoError(t, err)
	return c
}

func TestClassifyDefaultRules(t *testing.T) {
	c := defaultClassifier(t)
	cases := []struct {
		name string
		want string
	}{
		{"Trà Túi Lọc Ô Long 500g", CategoryPackagedTea},
		{"Cà Phê Rang Xay 250 ml", CategoryPackagedCoffee},
		{"Hạt Điều Rang Muối 15-500g", CategoryPackagedOther},
		{"Cookie Bơ 200 Gram", CategoryPackagedOther},
		{"Bánh Mì Que Pate", CategoryBakery},
		{"Chocolate Muffin", CategoryBakery},
		{"Trà Sữa Trân Châu", CategoryBeverage},
		{"Cà Phê Sữa Đá", CategoryBeverage},
		{"Nước Ép Cam", CategoryBeverage},
		{"Sữa Chua Dẻo", CategoryBeverage},
		{"", CategoryBeverage},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Classify(tc.name).Name, "name %q", tc.name)
	}
}

func TestPackagedPattern(t *testing.T) {
	c := defaultClassifier(t)
	for _, name := range []string{"500g", "Gạo 5 kg", "Sữa 1l", "Nước 330ML", "Hạt 15 - 500 g"} {
		assert.True(t, c.Packaged(name), name)
	}
	for _, name := range []string{"Trà Vải", "Combo 2 ly", "Bánh 12345g", "Ly lớn (L)", "Bánh Mì 2 lát", "Bánh 3 lớp", "Trà500g"} {
		assert.False(t, c.Packaged(name), name)
	}
	assert.Equal(t, CategoryBakery, c.Classify("Bánh Mì 2 lát").Name)
	assert.Equal(t, CategoryBakery, c.Classify("Bánh 3 lớp").Name)
	assert.True(t, c.Packaged("Trà (500g)"))
}

func TestCategoriesCarrySlugAndTransientID(t *testing.T) {
	cats := defaultClassifier(t).Categories()
	require.Len(t, cats, 5)

	slugs := make([]string, 0, len(cats))
	for _, cat := range cats {
		slugs = append(slugs, cat.Slug)
		assert.Equal(t, reconcile.TransientCategoryID(cat.Slug), cat.ID)
	}
	assert.Equal(t, []string{
		"banh",
		"thuc-uong",
		"san-pham-dong-goi-tra",
		"san-pham-dong-goi-ca-phe",
		"san-pham-dong-goi-khac",
	}, slugs)
}

func TestNewRejectsInvalidRules(t *testing.T) {
	cases := map[string]Rules{
		"no categories":   {Default: "A"},
		"unknown rule":    {Categories: []string{"A"}, Rules: []Rule{{Category: "B"}}, Default: "A"},
		"unknown default": {Categories: []string{"A"}, Default: "B"},
		"duplicate slug":  {Categories: []string{"Bánh", "Banh"}, Default: "Bánh"},
		"bad pattern":     {Categories: []string{"A"}, Default: "A", PackagedPattern: "("},
		"empty name":      {Categories: []string{"  "}, Default: "  "},
	}
	for name, rules := range cases {
		_, err := New(rules)
		require.Error(t, err, name)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfig), name)
	}
}

func TestLoadRulesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  - Fruit
  - Packaged
  - Other
rules:
  - category: Packaged
    packaged: true
  - category: Fruit
    keywords: [Apple, mango]
default: Other
`), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPackagedPattern, rules.PackagedPattern)
	require.Len(t, rules.Rules, 2)
	require.NotNil(t, rules.Rules[0].Packaged)
	assert.True(t, *rules.Rules[0].Packaged)

	c, err := New(rules)
	require.NoError(t, err)
	assert.Equal(t, "Fruit", c.Classify("Green apple").Name)
	assert.Equal(t, "Packaged", c.Classify("Dried mango 200g").Name)
	assert.Equal(t, "Other", c.Classify("Bread").Name)
}

func TestLoadRulesErrors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfig))

	_, err = ParseRules([]byte("categories: [unterminated"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfig))
}

func ptr(v float64) *float64 { return &v }

func TestBuildSeed(t *testing.T) {
	c := defaultClassifier(t)
	entries := []catalog.Entry{
		{ItemNo: "X1", ID: "1", Name: "Trà Vải", SubName: "Ly lớn", Price: ptr(50000), SalePrice: ptr(45000),
			MediaURL: "u1", MediaItems: []string{"u1", "u2"}},
		{ID: "99", SeoName: "Bánh Quy Bơ 200g", Price: ptr(30000), MediaURL: "u3"},
		{},
	}

	seed := BuildSeed(entries, c)
	require.Len(t, seed.Categories, 5, "unused categories are still seeded")
	for _, cat := range seed.Categories {
		require.NotNil(t, cat.IsActive)
		assert.True(t, *cat.IsActive)
	}
	require.Len(t, seed.Products, 3)
	assert.Equal(t, 1, seed.Packaged)

	beverage := c.Classify("Trà Vải")
	first := seed.Products[0]
	assert.Equal(t, "X1", first.SKU)
	assert.Equal(t, "Trà Vải", first.Name)
	assert.Equal(t, 45000.0, first.Price, "sale price wins")
	assert.Equal(t, []string{"u1", "u2"}, first.Images)
	assert.Equal(t, "Ly lớn", first.Description)
	assert.Equal(t, beverage.ID, first.CategoryID)
	assert.Equal(t, beverage.Slug, first.CategorySlug)
	assert.Equal(t, 0, first.StockQuantity)
	require.NotNil(t, first.IsActive)
	assert.True(t, *first.IsActive)

	second := seed.Products[1]
	assert.Equal(t, "99", second.SKU)
	assert.Equal(t, "Bánh Quy Bơ 200g", second.Name, "seo name stands in for a missing name")
	assert.Equal(t, 30000.0, second.Price)
	assert.Equal(t, []string{"u3"}, second.Images)
	assert.Equal(t, c.Classify("Bánh Quy Bơ 200g").ID, second.CategoryID)
	assert.Equal(t, CategoryPackagedOther, c.Classify("Bánh Quy Bơ 200g").Name)

	third := seed.Products[2]
	assert.Equal(t, unnamedProduct, third.Name)
	assert.Equal(t, reconcile.DerivedSKU(unnamedProduct), third.SKU)
	assert.Zero(t, third.Price)
	assert.NotNil(t, third.Images)
	assert.Empty(t, third.Images)
}

func TestWriteSeedLoadsBackAsBatch(t *testing.T) {
	c := defaultClassifier(t)
	seed := BuildSeed([]catalog.Entry{{ItemNo: "A1", Name: "Nước Ép Cam", Price: ptr(20000), MediaURL: "m"}}, c)

	dir := t.TempDir()
	require.NoError(t, WriteSeed(dir, seed))

	batch, err := reconcile.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, seed.Categories, batch.Categories)
	assert.Equal(t, seed.Products, batch.Products)
	assert.Empty(t, batch.Users)
	assert.Equal(t, seed.Batch().Products, batch.Products)
}

func TestNewFromFile(t *testing.T) {
	c, err := NewFromFile("")
	require.NoError(t, err)
	assert.Len(t, c.Categories(), len(DefaultRules().Categories))

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfig))
}
