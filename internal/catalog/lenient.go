package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// The upstream feed is loosely typed: ids arrive as strings or numbers, prices
// as numbers or null, nested lists may be missing. These field types decode
// whatever shows up without failing the enclosing record.

// text holds a string or the literal form of a number; other values decode empty.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	*t = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch {
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*t = text(s)
		}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*t = text(b)
	}
	return nil
}

// optText is text that remembers whether a non-null value was present.
type optText struct {
	Value string
	Set   bool
}

func (o *optText) UnmarshalJSON(b []byte) error {
	*o = optText{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	o.Set = true
	switch b[0] {
	case 't':
		o.Value = "True"
	case 'f':
		o.Value = "False"
	default:
		var t text
		_ = t.UnmarshalJSON(b)
		o.Value = string(t)
	}
	return nil
}

// number is a JSON number; anything else leaves it nil.
type number struct {
	Value *float64
}

func (n *number) UnmarshalJSON(b []byte) error {
	n.Value = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || !(b[0] == '-' || (b[0] >= '0' && b[0] <= '9')) {
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil
	}
	n.Value = &v
	return nil
}

// flag follows truthiness: true, non-zero numbers, non-empty strings and
// non-empty containers are set.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	*f = false
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case 't':
		*f = true
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*f = s != ""
		}
	case '[':
		var v []json.RawMessage
		if err := json.Unmarshal(b, &v); err == nil {
			*f = len(v) > 0
		}
	case '{':
		var v map[string]json.RawMessage
		if err := json.Unmarshal(b, &v); err == nil {
			*f = len(v) > 0
		}
	default:
		if v, err := strconv.ParseFloat(string(b), 64); err == nil {
			*f = v != 0
		}
	}
	return nil
}

// mediaList accepts a list of URL strings or of objects carrying mediaUrl.
type mediaList []string

func (m *mediaList) UnmarshalJSON(b []byte) error {
	*m = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, elem := range raw {
		var url text
		if err := json.Unmarshal(elem, &url); err == nil && url != "" {
			out = append(out, string(url))
			continue
		}
		var obj struct {
			MediaURL text `json:"mediaUrl"`
		}
		if err := json.Unmarshal(elem, &obj); err == nil && obj.MediaURL != "" {
			out = append(out, string(obj.MediaURL))
		}
	}
	*m = out
	return nil
}

// objects splits a JSON array into its object elements, dropping the rest.
// It reports how many elements the array held in total.
func objects(b []byte) ([]json.RawMessage, int) {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, 0
	}
	out := make([]json.RawMessage, 0, len(raw))
	for _, elem := range raw {
		trimmed := bytes.TrimSpace(elem)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			out = append(out, trimmed)
		}
	}
	return out, len(raw)
}
