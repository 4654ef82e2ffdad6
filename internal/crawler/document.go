package crawler

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
)

// Meta describes one crawl.
type Meta struct {
	Source       string    `json:"source"`
	PageSize     int       `json:"pageSize"`
	PagesFetched int       `json:"pagesFetched"`
	TotalItems   int       `json:"totalItems"`
	FetchedAt    time.Time `json:"fetchedAt"`
	GeneratedBy  string    `json:"generatedBy"`
}

// Document is the raw crawl output.
type Document struct {
	Meta  Meta   `json:"meta"`
	Items []Item `json:"items"`
}

// Item is the projection of an upstream item the merger reads. Scalar
// values are passed through untouched, so numbers stay numbers and absent
// fields become null.
type Item struct {
	ID          json.RawMessage `json:"id"`
	ItemNo      json.RawMessage `json:"itemNo"`
	Name        json.RawMessage `json:"name"`
	SubName     json.RawMessage `json:"subName"`
	Price       json.RawMessage `json:"price"`
	SalePrice   json.RawMessage `json:"salePrice"`
	SeoName     json.RawMessage `json:"seoName"`
	MediaURL    json.RawMessage `json:"mediaUrl"`
	MediaItems  []string        `json:"mediaItems"`
	UpdatedDate json.RawMessage `json:"updatedDate"`
	MCH         MCH             `json:"mch"`
	Sizes       []Size          `json:"sizes"`
}

// MCH carries the merchandise hierarchy levels.
type MCH struct {
	MCH2 json.RawMessage `json:"mch2"`
	MCH3 json.RawMessage `json:"mch3"`
	MCH4 json.RawMessage `json:"mch4"`
	MCH5 json.RawMessage `json:"mch5"`
	MCH6 json.RawMessage `json:"mch6"`
}

type Size struct {
	ID           json.RawMessage `json:"id"`
	ItemNo       json.RawMessage `json:"itemNo"`
	Name         json.RawMessage `json:"name"`
	Size         json.RawMessage `json:"size"`
	BaseSize     json.RawMessage `json:"baseSize"`
	AddSalePrice json.RawMessage `json:"addSalePrice"`
	MediaURL     json.RawMessage `json:"mediaUrl"`
}

type upstreamItem struct {
	ID          json.RawMessage `json:"id"`
	ItemNo      json.RawMessage `json:"itemNo"`
	Name        json.RawMessage `json:"name"`
	SubName     json.RawMessage `json:"subName"`
	Price       json.RawMessage `json:"price"`
	SalePrice   json.RawMessage `json:"salePrice"`
	SeoName     json.RawMessage `json:"seoName"`
	MediaURL    json.RawMessage `json:"mediaUrl"`
	MediaItems  json.RawMessage `json:"mediaItems"`
	UpdatedDate json.RawMessage `json:"updatedDate"`
	MCH2        json.RawMessage `json:"mch2"`
	MCH3        json.RawMessage `json:"mch3"`
	MCH4        json.RawMessage `json:"mch4"`
	MCH5        json.RawMessage `json:"mch5"`
	MCH6        json.RawMessage `json:"mch6"`
	Sizes       json.RawMessage `json:"sizes"`
}

// Simplify projects an upstream item. Non-object items report false; size
// and media entries that are not objects are dropped.
func Simplify(raw json.RawMessage) (Item, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Item{}, false
	}
	var up upstreamItem
	if err := json.Unmarshal(raw, &up); err != nil {
		return Item{}, false
	}

	item := Item{
		ID:          orNull(up.ID),
		ItemNo:      orNull(up.ItemNo),
		Name:        orNull(up.Name),
		SubName:     orNull(up.SubName),
		Price:       orNull(up.Price),
		SalePrice:   orNull(up.SalePrice),
		SeoName:     orNull(up.SeoName),
		MediaURL:    orNull(up.MediaURL),
		MediaItems:  []string{},
		UpdatedDate: orNull(up.UpdatedDate),
		MCH: MCH{
			MCH2: orNull(up.MCH2),
			MCH3: orNull(up.MCH3),
			MCH4: orNull(up.MCH4),
			MCH5: orNull(up.MCH5),
			MCH6: orNull(up.MCH6),
		},
		Sizes: []Size{},
	}
	for _, m := range elements(up.MediaItems) {
		var media struct {
			MediaURL string `json:"mediaUrl"`
		}
		if !isObject(m) || json.Unmarshal(m, &media) != nil || media.MediaURL == "" {
			continue
		}
		item.MediaItems = append(item.MediaItems, media.MediaURL)
	}
	for _, s := range elements(up.Sizes) {
		var size Size
		if !isObject(s) || json.Unmarshal(s, &size) != nil {
			continue
		}
		item.Sizes = append(item.Sizes, Size{
			ID:           orNull(size.ID),
			ItemNo:       orNull(size.ItemNo),
			Name:         orNull(size.Name),
			Size:         orNull(size.Size),
			BaseSize:     orNull(size.BaseSize),
			AddSalePrice: orNull(size.AddSalePrice),
			MediaURL:     orNull(size.MediaURL),
		})
	}
	return item, true
}

// WriteBatch encodes doc as indented JSON without HTML escaping.
func WriteBatch(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode crawl document")
	}
	return nil
}

var null = json.RawMessage("null")

func orNull(v json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(v)) == 0 {
		return null
	}
	return v
}

// elements splits a JSON array; anything else yields no elements.
func elements(v json.RawMessage) []json.RawMessage {
	var out []json.RawMessage
	if err := json.Unmarshal(v, &out); err != nil {
		return nil
	}
	return out
}

func isObject(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '{'
}
