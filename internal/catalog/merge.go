// Package catalog collapses duplicate scraped storefront records into
// canonical catalog entries.
package catalog

import (
	"regexp"
	"sort"
	"time"
)

const (
	unknownKey = "__unknown__"
	noSizeKey  = "__none__"
)

// DefaultSizeMarkers are the trailing "(X)" markers stripped from names.
var DefaultSizeMarkers = []string{"S", "M", "L", "H"}

// Option customises a Merger.
type Option func(*Merger)

// WithClock overrides the time source used for generatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Merger) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSizeMarkers replaces the set of trailing size markers.
func WithSizeMarkers(markers ...string) Option {
	return func(m *Merger) {
		if len(markers) > 0 {
			m.markers = markers
		}
	}
}

// Merger is a pure function over one crawl batch.
type Merger struct {
	now     func() time.Time
	markers []string
	suffix  *regexp.Regexp
}

func NewMerger(opts ...Option) *Merger {
	m := &Merger{now: time.Now, markers: DefaultSizeMarkers}
	for _, opt := range opts {
		opt(m)
	}
	m.suffix = suffixPattern(m.markers)
	return m
}

func suffixPattern(markers []string) *regexp.Regexp {
	alt := ""
	for i, marker := range markers {
		if i > 0 {
			alt += "|"
		}
		alt += regexp.QuoteMeta(marker)
	}
	return regexp.MustCompile(`\s*\((?:` + alt + `)\)\s*$`)
}

// NormalizeName strips a trailing size marker such as " (M)".
func (m *Merger) NormalizeName(name string) string {
	return m.suffix.ReplaceAllString(name, "")
}

type group struct {
	entry Entry
	media *mediaSet
	items []RawItem
}

// Merge groups batch items by itemNo (else id, else one shared bucket),
// consolidates scalars, media and sizes, and drops entries with no media.
func (m *Merger) Merge(batch Batch) Document {
	groups := make(map[string]*group)
	order := make([]string, 0)

	for _, item := range batch.Items {
		key := groupKey(item.ItemNo, item.ID)
		candidates := mediaCandidates(item)

		g, ok := groups[key]
		if !ok {
			g = &group{
				entry: Entry{
					ID:          item.ID,
					ItemNo:      item.ItemNo,
					Name:        m.NormalizeName(item.Name),
					SubName:     m.NormalizeName(item.SubName),
					Price:       item.Price,
					SalePrice:   item.SalePrice,
					SeoName:     item.SeoName,
					MediaURL:    item.MediaURL,
					UpdatedDate: item.UpdatedDate,
					MCH:         item.MCH,
				},
				media: newMediaSet(candidates...),
			}
			groups[key] = g
			order = append(order, key)
		} else {
			m.mergeScalars(&g.entry, item)
			g.media.add(candidates...)
			if g.entry.MediaURL == "" {
				g.entry.MediaURL = g.media.first()
			}
		}
		g.items = append(g.items, item)
		g.entry.Provenance.Occurrences++
	}

	entries := make([]Entry, 0, len(order))
	removed := 0
	for _, key := range order {
		g := groups[key]
		entry := g.entry
		entry.Sizes, entry.Provenance.SizeRecords = consolidateSizes(g.items)

		for _, size := range entry.Sizes {
			g.media.add(size.MediaURL)
		}
		entry.MediaItems = g.media.list()
		if entry.MediaURL == "" {
			entry.MediaURL = g.media.first()
		}

		if entry.MediaURL == "" && len(entry.MediaItems) == 0 {
			removed++
			continue
		}
		entries = append(entries, entry)
	}

	return Document{
		Meta: Meta{
			Upstream:       batch.Meta,
			Merged:         true,
			TotalItems:     len(entries),
			OriginalItems:  batch.Total,
			GroupedItems:   len(order),
			RemovedNoMedia: removed,
			Normalizations: Normalizations{
				NameSuffixRemoved:    markerLabels(m.markers),
				PricePerSizeComputed: true,
				MediaDeduplicated:    true,
			},
			GeneratedAt: m.now().UTC(),
		},
		Items: entries,
	}
}

// Earliest non-empty scalar wins; prices keep the minimum seen.
func (m *Merger) mergeScalars(entry *Entry, item RawItem) {
	if entry.Name == "" {
		entry.Name = m.NormalizeName(item.Name)
	}
	if entry.SubName == "" {
		entry.SubName = m.NormalizeName(item.SubName)
	}
	if entry.SeoName == "" {
		entry.SeoName = item.SeoName
	}
	if entry.UpdatedDate == "" {
		entry.UpdatedDate = item.UpdatedDate
	}
	entry.Price = minPrice(entry.Price, item.Price)
	entry.SalePrice = minPrice(entry.SalePrice, item.SalePrice)
}

func consolidateSizes(items []RawItem) ([]Size, int) {
	buckets := make(map[string]*Size)
	order := make([]string, 0)
	records := 0

	for _, item := range items {
		basePrice := item.Price
		baseSale := item.SalePrice
		if baseSale == nil {
			baseSale = item.Price
		}
		for _, raw := range item.Sizes {
			records++
			key := noSizeKey
			if raw.HasSize {
				key = raw.Size
			}
			add := 0.0
			if raw.AddSalePrice != nil {
				add = *raw.AddSalePrice
			}
			price := plus(basePrice, add)
			sale := plus(baseSale, add)

			b, ok := buckets[key]
			if !ok {
				size := Size{
					ID:           raw.ID,
					ItemNo:       raw.ItemNo,
					Name:         raw.Name,
					BaseSize:     raw.BaseSize,
					AddSalePrice: raw.AddSalePrice,
					MediaURL:     raw.MediaURL,
					Price:        price,
					SalePrice:    sale,
				}
				if raw.HasSize {
					label := raw.Size
					size.Size = &label
				}
				buckets[key] = &size
				order = append(order, key)
				continue
			}

			if raw.BaseSize {
				b.BaseSize = true
			}
			if b.MediaURL == "" && raw.MediaURL != "" {
				b.MediaURL = raw.MediaURL
			}
			b.Price = minComputed(b.Price, price)
			b.SalePrice = minComputed(b.SalePrice, sale)
		}
	}

	sizes := make([]Size, 0, len(order))
	for _, key := range order {
		sizes = append(sizes, *buckets[key])
	}
	sort.SliceStable(sizes, func(i, j int) bool {
		a, b := sizes[i], sizes[j]
		if a.BaseSize != b.BaseSize {
			return a.BaseSize
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return sizeLabel(a) < sizeLabel(b)
	})
	return sizes, records
}

func groupKey(itemNo, id string) string {
	if itemNo != "" {
		return itemNo
	}
	if id != "" {
		return id
	}
	return unknownKey
}

func mediaCandidates(item RawItem) []string {
	out := make([]string, 0, 1+len(item.MediaItems)+len(item.Sizes))
	out = append(out, item.MediaURL)
	out = append(out, item.MediaItems...)
	for _, size := range item.Sizes {
		out = append(out, size.MediaURL)
	}
	return out
}

func sizeLabel(s Size) string {
	if s.Size == nil {
		return ""
	}
	return *s.Size
}

// minPrice keeps curr unless it is unset, in which case next replaces it.
func minPrice(curr, next *float64) *float64 {
	if curr == nil {
		return next
	}
	if next != nil && *next < *curr {
		return next
	}
	return curr
}

// minComputed only ever replaces with a computed candidate.
func minComputed(curr, candidate *float64) *float64 {
	if candidate == nil {
		return curr
	}
	if curr == nil || *candidate < *curr {
		return candidate
	}
	return curr
}

func plus(base *float64, add float64) *float64 {
	if base == nil {
		return nil
	}
	v := *base + add
	return &v
}

func markerLabels(markers []string) []string {
	out := make([]string, len(markers))
	for i, marker := range markers {
		out[i] = "(" + marker + ")"
	}
	return out
}
