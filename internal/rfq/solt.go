package rfq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Line fields addressed by cells and patches.
const (
	FieldLineNo       = "line_no"
	FieldItem         = "item"
	FieldMDFCode      = "mdf_code"
	FieldDataTemplate = "data_template"
	FieldQty          = "qty"
	FieldUOM          = "uom"
	FieldUnitPrice    = "unit_price"
	FieldLineTotal    = "line_total"
)

// NoLinesMessage is shown in place of rows when the active tab is empty.
const NoLinesMessage = "No lines in this tab."

// Column describes one column of the line table.
type Column struct {
	Field    string
	Title    string
	Numeric  bool
	ReadOnly bool
	Default  string // shown when the value is absent
}

// Columns is the fixed column layout of the line table.
var Columns = []Column{
	{Field: FieldLineNo, Title: "#", ReadOnly: true},
	{Field: FieldItem, Title: "Item"},
	{Field: FieldMDFCode, Title: "MDF Code", Default: "3FC"},
	{Field: FieldDataTemplate, Title: "Data Template", Default: "None"},
	{Field: FieldQty, Title: "Qty", Numeric: true},
	{Field: FieldUOM, Title: "UoM", Default: "ea"},
	{Field: FieldUnitPrice, Title: "Unit Price", Numeric: true},
	{Field: FieldLineTotal, Title: "Line Total", Numeric: true},
}

// IsNumericField reports whether a line field holds a number.
func IsNumericField(field string) bool {
	for _, c := range Columns {
		if c.Field == field {
			return c.Numeric
		}
	}
	return false
}

// Tab is a named partition of lines. Index is its stable identity.
type Tab struct {
	Index int    `json:"tab_index"`
	Name  string `json:"name"`
}

// UnmarshalJSON accepts both "tab_index" and "index" for the identity.
func (t *Tab) UnmarshalJSON(data []byte) error {
	var raw struct {
		TabIndex json.RawMessage `json:"tab_index"`
		Index    json.RawMessage `json:"index"`
		Name     OptText         `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if n, ok := parseIndex(raw.TabIndex); ok {
		t.Index = n
	} else if n, ok := parseIndex(raw.Index); ok {
		t.Index = n
	}
	t.Name = raw.Name.Value
	return nil
}

// parseIndex reads an integer sent either as a JSON number or as a string
// holding one.
func parseIndex(data json.RawMessage) (int, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// LineID is the opaque identifier of a line. The service may send it as a
// number or a string; it is kept verbatim.
type LineID string

// UnmarshalJSON accepts a JSON number or string.
func (id *LineID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = LineID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("line id: %w", err)
	}
	*id = LineID(s)
	return nil
}

// OptText is a scalar text cell that may be absent. Numbers and booleans
// are kept as their JSON literal.
type OptText struct {
	Value string
	Valid bool
}

// UnmarshalJSON accepts null, strings, numbers and booleans.
func (t *OptText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = OptText{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = OptText{Value: s, Valid: true}
		return nil
	}
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return fmt.Errorf("text cell: unexpected %s", data)
	}
	*t = OptText{Value: string(data), Valid: true}
	return nil
}

// Text returns the value or def when absent.
func (t OptText) Text(def string) string {
	if !t.Valid {
		return def
	}
	return t.Value
}

// OptNumber is a numeric cell that may be absent. A value that is not a
// decimal keeps its text, so one odd cell never fails the whole table.
type OptNumber struct {
	Decimal decimal.NullDecimal
	Raw     string
}

// UnmarshalJSON accepts null, numbers and numeric strings as decimals. Any
// other value is kept verbatim in Raw.
func (n *OptNumber) UnmarshalJSON(data []byte) error {
	*n = OptNumber{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := n.Decimal.UnmarshalJSON(data); err == nil {
		return nil
	}
	n.Decimal = decimal.NullDecimal{}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n.Raw = s
		return nil
	}
	n.Raw = string(data)
	return nil
}

// Text returns the decimal in canonical form, or the raw text.
func (n OptNumber) Text() string {
	if n.Decimal.Valid {
		return n.Decimal.Decimal.String()
	}
	return n.Raw
}

// Line is one row of a tab. Its tab is the key it was listed under.
type Line struct {
	ID           LineID    `json:"id"`
	LineNo       Value     `json:"line_no"`
	Item         OptText   `json:"item"`
	MDFCode      OptText   `json:"mdf_code"`
	DataTemplate OptText   `json:"data_template"`
	Qty          OptNumber `json:"qty"`
	UOM          OptText   `json:"uom"`
	UnitPrice    OptNumber `json:"unit_price"`
	LineTotal    OptNumber `json:"line_total"`
}

// CellText returns the displayed text of a column for this line, with the
// column default applied to absent values.
func (l Line) CellText(c Column) string {
	switch c.Field {
	case FieldLineNo:
		return Stringify(l.LineNo)
	case FieldItem:
		return l.Item.Text(c.Default)
	case FieldMDFCode:
		return l.MDFCode.Text(c.Default)
	case FieldDataTemplate:
		return l.DataTemplate.Text(c.Default)
	case FieldQty:
		return l.Qty.Text()
	case FieldUOM:
		return l.UOM.Text(c.Default)
	case FieldUnitPrice:
		return l.UnitPrice.Text()
	case FieldLineTotal:
		return l.LineTotal.Text()
	}
	return ""
}

// Snapshot is the tabbed line collection of one record.
type Snapshot struct {
	Tabs  []Tab
	Lines map[int][]Line
}

// UnmarshalJSON ingests the service payload and canonicalizes tab keys to
// ints. "lines" may be an object keyed by tab index or an array indexed by
// position. Keys that are not integers are dropped.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Tabs  []Tab           `json:"tabs"`
		Lines json.RawMessage `json:"lines"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	lines := make(map[int][]Line)
	trimmed := bytes.TrimSpace(raw.Lines)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
	case trimmed[0] == '[':
		var list [][]Line
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("lines: %w", err)
		}
		for i, rows := range list {
			if len(rows) > 0 {
				lines[i] = rows
			}
		}
	default:
		var byKey map[string][]Line
		if err := json.Unmarshal(trimmed, &byKey); err != nil {
			return fmt.Errorf("lines: %w", err)
		}
		for key, rows := range byKey {
			idx, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				continue
			}
			lines[idx] = rows
		}
	}

	s.Tabs = raw.Tabs
	s.Lines = lines
	return nil
}

// Rows returns the lines of a tab in server order, or nil.
func (s *Snapshot) Rows(tab int) []Line {
	if s == nil || s.Lines == nil {
		return nil
	}
	return s.Lines[tab]
}

// FirstTab returns the index of the first tab.
func (s *Snapshot) FirstTab() (int, bool) {
	if s == nil || len(s.Tabs) == 0 {
		return 0, false
	}
	return s.Tabs[0].Index, true
}

// Tab returns the tab with the given index.
func (s *Snapshot) Tab(index int) (Tab, bool) {
	if s == nil {
		return Tab{}, false
	}
	for _, t := range s.Tabs {
		if t.Index == index {
			return t, true
		}
	}
	return Tab{}, false
}

// SetTabName renames a tab in place. It reports false if no tab has that
// index.
func (s *Snapshot) SetTabName(index int, name string) bool {
	if s == nil {
		return false
	}
	for i := range s.Tabs {
		if s.Tabs[i].Index == index {
			s.Tabs[i].Name = name
			return true
		}
	}
	return false
}

// LineEdit is a single-field change to one line.
type LineEdit struct {
	ID    LineID
	Field string
	Value Value
}

// Payload returns the partial field map sent to the service.
func (e LineEdit) Payload() map[string]any {
	return map[string]any{e.Field: e.Value}
}

// CoerceCell converts normalized cell text into the value sent for field.
// Numeric fields become a JSON number, or an explicit null when the text is
// empty or not a number.
func CoerceCell(field, text string) Value {
	if !IsNumericField(field) {
		return text
	}
	return numberOrNull(text)
}

func numberOrNull(text string) Value {
	if text == "" {
		return nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil
	}
	return json.Number(d.String())
}

// NewLine is the payload for adding a line to a tab.
type NewLine struct {
	TabIndex  int    `json:"tab_index"`
	Item      string `json:"item"`
	Qty       Value  `json:"qty"`
	UOM       string `json:"uom,omitempty"`
	UnitPrice Value  `json:"unit_price"`
	Currency  string `json:"currency,omitempty"`
	Note      string `json:"note,omitempty"`
}

// NewLineFromText builds a NewLine from user-entered text, coercing the
// numeric fields the same way cell edits are coerced.
func NewLineFromText(tab int, item, qty, uom, unitPrice string) NewLine {
	return NewLine{
		TabIndex:  tab,
		Item:      Normalize(item),
		Qty:       numberOrNull(Normalize(qty)),
		UOM:       Normalize(uom),
		UnitPrice: numberOrNull(Normalize(unitPrice)),
	}
}
