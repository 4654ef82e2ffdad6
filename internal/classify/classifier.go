package classify

import (
	"regexp"
	"strings"

	"github.com/angelmondragon/catalogsync/internal/reconcile"
	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/angelmondragon/catalogsync/pkg/slug"
)

// Category is one taxonomy node ready for seeding. ID is the transient id
// product seeds reference before reconciliation.
type Category struct {
	Name string
	Slug string
	ID   string
}

type compiledRule struct {
	category int
	packaged *bool
	keywords []string
}

// Classifier evaluates a validated rule set.
type Classifier struct {
	categories []Category
	packaged   *regexp.Regexp
	rules      []compiledRule
	fallback   int
}

// New validates rules: categories must be unique, and every rule and the
// default must name one of them.
func New(rules Rules) (*Classifier, error) {
	if len(rules.Categories) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "rule set has no categories")
	}
	pattern := rules.PackagedPattern
	if pattern == "" {
		pattern = DefaultPackagedPattern
	}
	packaged, err := regexp.Compile(pattern)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "compile packaged pattern")
	}

	c := &Classifier{packaged: packaged}
	index := make(map[string]int, len(rules.Categories))
	slugs := make(map[string]bool, len(rules.Categories))
	for _, name := range rules.Categories {
		name = strings.TrimSpace(name)
		s := slug.Make(name)
		if name == "" || s == "" {
			return nil, pkgerrors.New(pkgerrors.CodeConfig, "category name must produce a slug")
		}
		if _, dup := index[name]; dup || slugs[s] {
			return nil, pkgerrors.New(pkgerrors.CodeConfig, "duplicate category "+name)
		}
		index[name] = len(c.categories)
		slugs[s] = true
		c.categories = append(c.categories, Category{Name: name, Slug: s, ID: reconcile.TransientCategoryID(s)})
	}

	lookup := func(name string) (int, error) {
		i, ok := index[strings.TrimSpace(name)]
		if !ok {
			return 0, pkgerrors.New(pkgerrors.CodeConfig, "unknown category "+name).
				WithDetails(map[string]any{"category": name})
		}
		return i, nil
	}
	for _, r := range rules.Rules {
		i, err := lookup(r.Category)
		if err != nil {
			return nil, err
		}
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		c.rules = append(c.rules, compiledRule{category: i, packaged: r.Packaged, keywords: keywords})
	}
	if c.fallback, err = lookup(rules.Default); err != nil {
		return nil, err
	}
	return c, nil
}

// Categories returns the taxonomy in rule-set order.
func (c *Classifier) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Packaged reports whether name carries a weight or volume marker.
func (c *Classifier) Packaged(name string) bool {
	return c.packaged.MatchString(name)
}

// Classify returns the category of the first rule matching name.
func (c *Classifier) Classify(name string) Category {
	packaged := c.Packaged(name)
	lower := strings.ToLower(name)
	for _, r := range c.rules {
		if r.packaged != nil && *r.packaged != packaged {
			continue
		}
		if len(r.keywords) > 0 && !containsAny(lower, r.keywords) {
			continue
		}
		return c.categories[r.category]
	}
	return c.categories[c.fallback]
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
