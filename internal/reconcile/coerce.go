package reconcile

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Input files are hand-edited exports; every field may arrive as a string, a
// number, null, or a Mongo extended-JSON wrapper. These decoders never fail
// the enclosing record and report absence with ok=false.

func isNull(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

// decodeText returns strings verbatim, numbers and booleans in literal form,
// and "" for anything else.
func decodeText(b []byte) string {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		return ""
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return s
		}
	case '{', '[':
		return ""
	default:
		return string(b)
	}
	return ""
}

// decodeRef accepts "id", 42 or {"$oid": "id"}.
func decodeRef(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var wrapped struct {
			OID json.RawMessage `json:"$oid"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return ""
		}
		return strings.TrimSpace(decodeText(wrapped.OID))
	}
	return strings.TrimSpace(decodeText(b))
}

// decodeNumber accepts JSON numbers and numeric strings.
func decodeNumber(b []byte) (float64, bool) {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		return 0, false
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, false
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// decodeInt truncates numeric values toward zero.
func decodeInt(b []byte) (int, bool) {
	v, ok := decodeNumber(b)
	if !ok || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(v), true
}

// decodeBool follows truthiness for numbers and strings.
func decodeBool(b []byte) (bool, bool) {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		return false, false
	}
	switch b[0] {
	case 't':
		return true, true
	case 'f':
		return false, true
	case '"':
		s := strings.ToLower(strings.TrimSpace(decodeText(b)))
		switch s {
		case "", "0", "false", "no", "off":
			return false, true
		}
		return true, true
	}
	if v, ok := decodeNumber(b); ok {
		return v != 0, true
	}
	return false, false
}

// decodeStrings keeps the non-empty string elements of an array.
func decodeStrings(b []byte) []string {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, elem := range raw {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '"' {
			continue
		}
		if s := decodeText(elem); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// decodeDate accepts ISO-8601 strings, epoch seconds (number or numeric
// string) and {"$date": iso|millis}. Values are normalized to UTC at
// microsecond precision.
func decodeDate(b []byte) (time.Time, bool) {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		return time.Time{}, false
	}
	switch b[0] {
	case '{':
		var wrapped struct {
			Date json.RawMessage `json:"$date"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil || isNull(wrapped.Date) {
			return time.Time{}, false
		}
		inner := bytes.TrimSpace(wrapped.Date)
		if inner[0] == '"' {
			return parseDateString(decodeText(inner))
		}
		if inner[0] == '{' {
			var long struct {
				Long string `json:"$numberLong"`
			}
			if err := json.Unmarshal(inner, &long); err != nil {
				return time.Time{}, false
			}
			inner = []byte(long.Long)
		}
		millis, ok := decodeNumber(inner)
		if !ok {
			return time.Time{}, false
		}
		return normalizeTime(time.UnixMilli(int64(millis))), true
	case '"':
		return parseDateString(decodeText(b))
	}
	secs, ok := decodeNumber(b)
	if !ok {
		return time.Time{}, false
	}
	return normalizeTime(time.Unix(int64(secs), 0)), true
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return normalizeTime(t), true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return normalizeTime(time.Unix(secs, 0)), true
	}
	return time.Time{}, false
}

func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
