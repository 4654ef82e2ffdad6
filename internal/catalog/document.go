package catalog

import (
	"encoding/json"
	"io"
	"time"

	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
)

// Entry is a canonical catalog record, unique by grouping key.
type Entry struct {
	ID          string          `json:"id,omitempty"`
	ItemNo      string          `json:"itemNo,omitempty"`
	Name        string          `json:"name"`
	SubName     string          `json:"subName"`
	Price       *float64        `json:"price"`
	SalePrice   *float64        `json:"salePrice"`
	SeoName     string          `json:"seoName"`
	MediaURL    string          `json:"mediaUrl"`
	MediaItems  []string        `json:"mediaItems"`
	UpdatedDate string          `json:"updatedDate"`
	MCH         json.RawMessage `json:"mch,omitempty"`
	Sizes       []Size          `json:"sizes"`
	Provenance  Provenance      `json:"provenance"`
}

// Key returns the grouping key the entry was built under.
func (e Entry) Key() string {
	return groupKey(e.ItemNo, e.ID)
}

// Size is a consolidated size variant, unique by size label within an entry.
type Size struct {
	ID           string   `json:"id,omitempty"`
	ItemNo       string   `json:"itemNo,omitempty"`
	Name         string   `json:"name"`
	Size         *string  `json:"size"`
	BaseSize     bool     `json:"baseSize"`
	AddSalePrice *float64 `json:"addSalePrice"`
	MediaURL     string   `json:"mediaUrl"`
	Price        *float64 `json:"price"`
	SalePrice    *float64 `json:"salePrice"`
}

// Provenance records how many raw records were folded into an entry.
type Provenance struct {
	Occurrences int `json:"occurrences"`
	SizeRecords int `json:"sizeRecords"`
}

// Normalizations documents the rewrites applied during a merge.
type Normalizations struct {
	NameSuffixRemoved    []string `json:"nameSuffixRemoved"`
	PricePerSizeComputed bool     `json:"pricePerSizeComputed"`
	MediaDeduplicated    bool     `json:"mediaDeduplicated"`
}

// Meta is the merge provenance block. Keys of the crawl document's meta are
// carried through Upstream and flattened next to the merge fields on output.
type Meta struct {
	Upstream       map[string]any
	Merged         bool
	TotalItems     int
	OriginalItems  int
	GroupedItems   int
	RemovedNoMedia int
	Normalizations Normalizations
	GeneratedAt    time.Time
}

var metaKeys = []string{"merged", "totalItems", "originalItems", "groupedItems", "removedNoMedia", "normalizations", "generatedAt"}

func (m Meta) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Upstream)+len(metaKeys))
	for k, v := range m.Upstream {
		out[k] = v
	}
	out["merged"] = m.Merged
	out["totalItems"] = m.TotalItems
	out["originalItems"] = m.OriginalItems
	out["groupedItems"] = m.GroupedItems
	out["removedNoMedia"] = m.RemovedNoMedia
	out["normalizations"] = m.Normalizations
	out["generatedAt"] = m.GeneratedAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

func (m *Meta) UnmarshalJSON(b []byte) error {
	var known struct {
		Merged         bool           `json:"merged"`
		TotalItems     int            `json:"totalItems"`
		OriginalItems  int            `json:"originalItems"`
		GroupedItems   int            `json:"groupedItems"`
		RemovedNoMedia int            `json:"removedNoMedia"`
		Normalizations Normalizations `json:"normalizations"`
		GeneratedAt    time.Time      `json:"generatedAt"`
	}
	if err := json.Unmarshal(b, &known); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range metaKeys {
		delete(all, k)
	}
	*m = Meta{
		Upstream:       all,
		Merged:         known.Merged,
		TotalItems:     known.TotalItems,
		OriginalItems:  known.OriginalItems,
		GroupedItems:   known.GroupedItems,
		RemovedNoMedia: known.RemovedNoMedia,
		Normalizations: known.Normalizations,
		GeneratedAt:    known.GeneratedAt,
	}
	return nil
}

// Document is the merge output.
type Document struct {
	Meta  Meta    `json:"meta"`
	Items []Entry `json:"items"`
}

// WriteDocument encodes doc as indented JSON without HTML escaping.
func WriteDocument(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode merged document")
	}
	return nil
}

// ReadDocument decodes a merged document.
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "decode merged document")
	}
	return doc, nil
}
