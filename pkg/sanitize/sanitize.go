// Package sanitize cleans untrusted HTML before it is stored.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var allowedTags = []string{
	"p", "div", "span", "br", "h1", "h2", "h3", "h4", "h5", "img",
	"ul", "ol", "li", "strong", "em", "a", "blockquote", "pre", "code",
	"b", "i", "abbr", "acronym",
}

var (
	once   sync.Once
	policy *bluemonday.Policy
)

// Policy returns the shared allow-list policy for blog content.
func Policy() *bluemonday.Policy {
	once.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(allowedTags...)
		p.AllowAttrs("class", "style").Globally()
		p.AllowAttrs("href", "title", "target", "rel").OnElements("a")
		p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
		p.AllowStandardURLs()
		p.AllowURLSchemes("http", "https", "mailto")
		p.AllowStyling()
		policy = p
	})
	return policy
}

// HTML returns content with every tag and attribute outside the allow-list
// removed.
func HTML(content string) string {
	if content == "" {
		return ""
	}
	return Policy().Sanitize(content)
}
