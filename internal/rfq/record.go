package rfq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// GrandTotalField is the one field with a non-default display rule.
const GrandTotalField = "grand_total"

// GrandTotalPrefix is prepended to the grand total when it is displayed.
const GrandTotalPrefix = "Grand total:"

// Value is a scalar field value as decoded from the service: string,
// json.Number, bool or nil.
type Value = any

// Record maps field names to scalar values.
type Record map[string]Value

// DecodeRecord decodes a JSON object into a Record, keeping numbers as
// json.Number so their literal text survives.
func DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("decode record: not a JSON object")
	}
	return rec, nil
}

// Has reports whether the record carries the field at all.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Text returns the cached value as a string and whether it was stored as
// a string. Numbers, booleans and null report false.
func (r Record) Text(field string) (string, bool) {
	s, ok := r[field].(string)
	return s, ok
}

// Clean reports whether text matches the cached value under strict
// equality: the cached value must be a string equal to text. A missing
// field or a non-string value is never clean.
func (r Record) Clean(field, text string) bool {
	cached, ok := r.Text(field)
	return ok && cached == text
}

// Normalize trims surrounding whitespace from displayed text.
func Normalize(text string) string {
	return strings.TrimSpace(text)
}

// Stringify renders a scalar value the way it is shown in a plain slot.
func Stringify(v Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}

// FormatField applies the display rule for field. It returns false when
// the value must not be rendered (nil).
func FormatField(field string, v Value) (string, bool) {
	if v == nil {
		return "", false
	}
	if field == GrandTotalField {
		s := strings.TrimSpace(Stringify(v))
		if strings.HasPrefix(s, GrandTotalPrefix) {
			return s, true
		}
		return GrandTotalPrefix + " " + s, true
	}
	return Stringify(v), true
}
