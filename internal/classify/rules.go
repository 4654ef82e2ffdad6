// Package classify assigns catalog entries to the fixed storefront taxonomy
// and turns merged catalogs into reconciler seed files.
package classify

import (
	"os"

	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/goccy/go-yaml"
)

// Rule routes a name to Category. Packaged restricts the rule to names with
// (true) or without (false) a weight/volume marker; Keywords restrict it to
// names containing any of them. A rule with neither matches every name.
type Rule struct {
	Category string   `yaml:"category"`
	Packaged *bool    `yaml:"packaged,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// Rules is an ordered rule cascade over a closed category list. The first
// matching rule wins; Default applies when none does.
type Rules struct {
	Categories      []string `yaml:"categories"`
	PackagedPattern string   `yaml:"packaged_pattern"`
	Rules           []Rule   `yaml:"rules"`
	Default         string   `yaml:"default"`
}

const (
	CategoryBakery         = "Bánh"
	CategoryBeverage       = "Thức uống"
	CategoryPackagedTea    = "Sản phẩm đóng gói - Trà"
	CategoryPackagedCoffee = "Sản phẩm đóng gói - Cà phê"
	CategoryPackagedOther  = "Sản phẩm đóng gói - Khác"
)

// DefaultPackagedPattern matches quantities such as "500g", "250 ml" or
// "15-500g". RE2's \b only knows ASCII letters, so the guards treat every
// Unicode letter as part of a word.
const DefaultPackagedPattern = `(?i)(?:^|[^\p{L}\p{N}_])\d{1,4}(?:\s*[-–]\s*\d{1,4})?\s*(?:g|gram|grams|kg|ml|l)(?:[^\p{L}\p{N}_]|$)`

var (
	teaKeywords    = []string{"trà", "tra", "tea"}
	coffeeKeywords = []string{"cà phê", "ca phe", "cafe", "coffee"}
	cakeKeywords   = []string{"bánh", "cake", "cookie", "biscuit", "muffin", "pastry"}
	drinkKeywords  = []string{"nước", "juice", "soda", "pepsi", "coca", "nước ép", "drink", "nước hoa quả", "nước tăng lực"}
)

// DefaultRules returns the built-in storefront rule set. Unpackaged tea and
// coffee are beverages.
func DefaultRules() Rules {
	packaged, loose := true, false
	beverage := make([]string, 0, len(drinkKeywords)+len(teaKeywords)+len(coffeeKeywords))
	beverage = append(beverage, drinkKeywords...)
	beverage = append(beverage, teaKeywords...)
	beverage = append(beverage, coffeeKeywords...)

	return Rules{
		Categories: []string{
			CategoryBakery,
			CategoryBeverage,
			CategoryPackagedTea,
			CategoryPackagedCoffee,
			CategoryPackagedOther,
		},
		PackagedPattern: DefaultPackagedPattern,
		Rules: []Rule{
			{Category: CategoryPackagedTea, Packaged: &packaged, Keywords: teaKeywords},
			{Category: CategoryPackagedCoffee, Packaged: &packaged, Keywords: coffeeKeywords},
			{Category: CategoryPackagedOther, Packaged: &packaged},
			{Category: CategoryBakery, Packaged: &loose, Keywords: cakeKeywords},
			{Category: CategoryBeverage, Packaged: &loose, Keywords: beverage},
		},
		Default: CategoryBeverage,
	}
}

// LoadRules reads a YAML rule set from path.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "read rules file")
	}
	return ParseRules(data)
}

// ParseRules decodes a YAML rule set. An empty packaged_pattern takes the
// built-in pattern.
func ParseRules(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "decode rules file")
	}
	if rules.PackagedPattern == "" {
		rules.PackagedPattern = DefaultPackagedPattern
	}
	return rules, nil
}

// NewFromFile builds a classifier from the YAML rule set at path, or from
// DefaultRules when path is empty.
func NewFromFile(path string) (*Classifier, error) {
	rules := DefaultRules()
	if path != "" {
		loaded, err := LoadRules(path)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	return New(rules)
}
