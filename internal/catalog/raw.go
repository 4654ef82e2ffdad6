package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
)

// RawItem is one scraped catalog record after the parse boundary.
type RawItem struct {
	ID          string
	ItemNo      string
	Name        string
	SubName     string
	Price       *float64
	SalePrice   *float64
	SeoName     string
	MediaURL    string
	MediaItems  []string
	UpdatedDate string
	MCH         json.RawMessage
	Sizes       []RawSize
}

// RawSize is a size variant attached to a RawItem.
type RawSize struct {
	ID           string
	ItemNo       string
	Name         string
	Size         string
	HasSize      bool
	BaseSize     bool
	AddSalePrice *float64
	MediaURL     string
}

// Batch is a parsed crawl document.
type Batch struct {
	Meta  map[string]any
	Items []RawItem
	// Total counts every element of the items array, including the ones that
	// were not objects and therefore never reached Items.
	Total int
}

type batchDoc struct {
	Meta  json.RawMessage `json:"meta"`
	Items json.RawMessage `json:"items"`
	Data  *struct {
		Items json.RawMessage `json:"items"`
	} `json:"data"`
}

type rawItemDoc struct {
	ID          text            `json:"id"`
	ItemNo      text            `json:"itemNo"`
	Name        text            `json:"name"`
	SubName     text            `json:"subName"`
	Price       number          `json:"price"`
	SalePrice   number          `json:"salePrice"`
	SeoName     text            `json:"seoName"`
	MediaURL    text            `json:"mediaUrl"`
	MediaItems  mediaList       `json:"mediaItems"`
	UpdatedDate text            `json:"updatedDate"`
	MCH         json.RawMessage `json:"mch"`
	Sizes       json.RawMessage `json:"sizes"`
}

type rawSizeDoc struct {
	ID           text    `json:"id"`
	ItemNo       text    `json:"itemNo"`
	Name         text    `json:"name"`
	Size         optText `json:"size"`
	BaseSize     flag    `json:"baseSize"`
	AddSalePrice number  `json:"addSalePrice"`
	MediaURL     text    `json:"mediaUrl"`
}

// ReadBatch decodes a crawl document from r. Only an unreadable or non-JSON
// document is an error; individual records that are not objects are dropped.
func ReadBatch(r io.Reader) (Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Batch{}, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "read crawl document")
	}
	return ParseBatch(data)
}

// ParseBatch decodes a crawl document. Items may sit at the top level or
// under data.items as returned by the storefront API.
func ParseBatch(data []byte) (Batch, error) {
	var doc batchDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Batch{}, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "decode crawl document")
	}
	rawItems := doc.Items
	if len(bytes.TrimSpace(rawItems)) == 0 && doc.Data != nil {
		rawItems = doc.Data.Items
	}

	elems, total := objects(rawItems)
	batch := Batch{Total: total, Items: make([]RawItem, 0, len(elems))}
	if len(doc.Meta) > 0 {
		var meta map[string]any
		if err := json.Unmarshal(doc.Meta, &meta); err == nil {
			batch.Meta = meta
		}
	}
	for _, elem := range elems {
		item, err := parseItem(elem)
		if err != nil {
			continue
		}
		batch.Items = append(batch.Items, item)
	}
	return batch, nil
}

func parseItem(elem json.RawMessage) (RawItem, error) {
	var doc rawItemDoc
	if err := json.Unmarshal(elem, &doc); err != nil {
		return RawItem{}, fmt.Errorf("decode item: %w", err)
	}
	item := RawItem{
		ID:          string(doc.ID),
		ItemNo:      string(doc.ItemNo),
		Name:        string(doc.Name),
		SubName:     string(doc.SubName),
		Price:       doc.Price.Value,
		SalePrice:   doc.SalePrice.Value,
		SeoName:     string(doc.SeoName),
		MediaURL:    string(doc.MediaURL),
		MediaItems:  []string(doc.MediaItems),
		UpdatedDate: string(doc.UpdatedDate),
	}
	if mch := bytes.TrimSpace(doc.MCH); len(mch) > 0 && !bytes.Equal(mch, []byte("null")) {
		item.MCH = mch
	}

	sizeElems, _ := objects(doc.Sizes)
	for _, se := range sizeElems {
		var sd rawSizeDoc
		if err := json.Unmarshal(se, &sd); err != nil {
			continue
		}
		item.Sizes = append(item.Sizes, RawSize{
			ID:           string(sd.ID),
			ItemNo:       string(sd.ItemNo),
			Name:         string(sd.Name),
			Size:         sd.Size.Value,
			HasSize:      sd.Size.Set,
			BaseSize:     bool(sd.BaseSize),
			AddSalePrice: sd.AddSalePrice.Value,
			MediaURL:     string(sd.MediaURL),
		})
	}
	return item, nil
}
