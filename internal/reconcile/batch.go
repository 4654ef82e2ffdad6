package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
)

// Batch holds one run's typed inputs. Malformed counts array elements per
// entity that were not objects or failed to decode; they are reported as
// attempted and skipped.
type Batch struct {
	Categories []CategoryInput
	Products   []ProductInput
	Users      []UserInput
	Orders     []OrderInput
	Blogs      []BlogInput
	Malformed  map[Entity]int
}

// Has reports whether the batch carries any record, malformed or not, for e.
func (b Batch) Has(e Entity) bool {
	if b.Malformed[e] > 0 {
		return true
	}
	switch e {
	case EntityCategories:
		return len(b.Categories) > 0
	case EntityProducts:
		return len(b.Products) > 0
	case EntityUsers:
		return len(b.Users) > 0
	case EntityOrders:
		return len(b.Orders) > 0
	case EntityBlogs:
		return len(b.Blogs) > 0
	}
	return false
}

// decodeArray decodes every object element of a JSON array into T and counts
// the elements it had to drop. Anything but an array decodes empty.
func decodeArray[T any](data []byte) ([]T, int) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0
	}
	out := make([]T, 0, len(raw))
	malformed := 0
	for _, elem := range raw {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			malformed++
			continue
		}
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			malformed++
			continue
		}
		out = append(out, v)
	}
	return out, malformed
}

// ParseArray decodes an entity input file.
func ParseArray[T any](data []byte) ([]T, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' || !json.Valid(trimmed) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeConfig, "input document is not a JSON array")
	}
	out, malformed := decodeArray[T](trimmed)
	return out, malformed, nil
}

// LoadDir reads <entity>.json files from dir. Missing files are treated as
// empty; an unreadable or non-array file aborts the load. When only is
// non-empty, other entities are not read.
func LoadDir(dir string, only ...Entity) (Batch, error) {
	batch := Batch{Malformed: make(map[Entity]int)}
	wanted := make(map[Entity]bool, len(only))
	for _, e := range only {
		wanted[e] = true
	}

	for _, e := range Entities {
		if len(wanted) > 0 && !wanted[e] {
			continue
		}
		path := filepath.Join(dir, string(e)+".json")
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Batch{}, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "read "+path)
		}
		if err := batch.decode(e, data); err != nil {
			return Batch{}, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "decode "+path)
		}
	}
	return batch, nil
}

func (b *Batch) decode(e Entity, data []byte) error {
	if b.Malformed == nil {
		b.Malformed = make(map[Entity]int)
	}
	var (
		malformed int
		err       error
	)
	switch e {
	case EntityCategories:
		b.Categories, malformed, err = ParseArray[CategoryInput](data)
	case EntityProducts:
		b.Products, malformed, err = ParseArray[ProductInput](data)
	case EntityUsers:
		b.Users, malformed, err = ParseArray[UserInput](data)
	case EntityOrders:
		b.Orders, malformed, err = ParseArray[OrderInput](data)
	case EntityBlogs:
		b.Blogs, malformed, err = ParseArray[BlogInput](data)
	}
	if err != nil {
		return err
	}
	b.Malformed[e] = malformed
	return nil
}

// WriteJSON writes v as an indented, non HTML-escaped JSON file.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode "+path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfig, err, "create output directory")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfig, err, "write "+path)
	}
	return nil
}
