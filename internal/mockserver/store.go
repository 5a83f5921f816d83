package mockserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// AllowedFields are the record fields a PATCH may write.
var AllowedFields = []string{
	"commodity_mdf", "contact_email", "contact_first_name", "contact_last_name",
	"created_date", "creator", "currency", "deviations_comments",
	"first_accepted_date", "grand_total", "offer_date", "offer_reference",
	"offer_submitted", "project_country", "project_cx", "project_name",
	"purchaser", "rfq_due_date", "rfq_number", "status", "status_changed_date",
	"status_updater", "supplier", "supplier_comment", "supplier_gtc_comment",
	"supplier_submitted_date", "supplier_submitter_email",
	"supplier_submitter_name", "title", "updated_date", "valid_until", "wbs",
}

// lineFields are the line fields a PATCH may write.
var lineFields = map[string]bool{
	"item": true, "qty": true, "uom": true, "unit_price": true, "currency": true,
	"note": true, "line_total": true, "line_no": true, "tab_index": true,
}

var (
	// ErrNotFound is returned for an unknown record or line.
	ErrNotFound = errors.New("not found")
	// ErrNoValidFields is returned when a patch names no writable field.
	ErrNoValidFields = errors.New("no valid fields")
	// ErrNameRequired is returned for a tab rename without a name.
	ErrNameRequired = errors.New("name required")
)

// Tab is a stored tab.
type Tab struct {
	TabIndex int    `yaml:"tab_index" json:"tab_index"`
	Name     string `yaml:"name" json:"name"`
}

// Fields is a free-form stored object (record or line).
type Fields map[string]any

// Table is the stored line table of one record.
type Table struct {
	Tabs       []Tab    `yaml:"tabs" json:"tabs"`
	Lines      []Fields `yaml:"lines" json:"lines"`
	NextLineID int      `yaml:"next_line_id" json:"next_line_id"`
}

type storeFile struct {
	Records map[int]Fields `yaml:"records"`
	Tables  map[int]*Table `yaml:"tables"`
}

// Store holds records and line tables in memory. When path is set every
// write is persisted to it atomically.
type Store struct {
	mu   sync.Mutex
	path string
	data storeFile
}

// NewStore creates a store seeded with record 1.
func NewStore() *Store {
	s := &Store{data: storeFile{Records: map[int]Fields{}, Tables: map[int]*Table{}}}
	s.seed()
	return s
}

// OpenStore loads path if it exists, otherwise seeds and writes it.
func OpenStore(path string) (*Store, error) {
	s := NewStore()
	s.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, s.persist()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var file storeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	for id, rec := range file.Records {
		s.data.Records[id] = rec
	}
	for id, table := range file.Tables {
		s.data.Tables[id] = table
	}
	return s, nil
}

func (s *Store) seed() {
	rec := Fields{"id": 1}
	for _, f := range AllowedFields {
		rec[f] = ""
	}
	rec["rfq_number"] = "RFQ-0000-0"
	rec["title"] = "RFQ - Demo Screen - Revision 0"
	rec["status"] = "Received"
	s.data.Records[1] = rec

	s.data.Tables[1] = &Table{
		Tabs: []Tab{{TabIndex: 0, Name: "Section 1"}, {TabIndex: 1, Name: "Section 2"}},
		Lines: []Fields{
			seedLine(1, 0, 1, "Line item A", 1, 100, 100),
			seedLine(2, 0, 2, "Line item B", 2, 250, 500),
			seedLine(3, 1, 1, "Line item C", 5, 50, 250),
		},
		NextLineID: 4,
	}
}

func seedLine(id, tab, no int, item string, qty, price, total float64) Fields {
	return Fields{
		"id": id, "rfq_id": 1, "tab_index": tab, "line_no": no, "item": item,
		"qty": qty, "uom": "EA", "unit_price": price, "currency": "USD",
		"line_total": total, "note": "",
	}
}

// Record returns a copy of a record.
func (s *Store) Record(id int) (Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data.Records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(rec), nil
}

// PatchRecord writes the allowed subset of updates, creating the record if
// needed, and returns the full result.
func (s *Store) PatchRecord(id int, updates Fields) (Fields, error) {
	allowed := make(Fields)
	for _, f := range AllowedFields {
		if v, ok := updates[f]; ok {
			allowed[f] = plain(v)
		}
	}
	if len(allowed) == 0 {
		return nil, ErrNoValidFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data.Records[id]
	if !ok {
		rec = Fields{"id": id}
		s.data.Records[id] = rec
	}
	for k, v := range allowed {
		rec[k] = v
	}
	return clone(rec), s.persist()
}

// Grouped is the wire form of a line table.
type Grouped struct {
	RFQID int              `json:"rfq_id"`
	Tabs  []Tab            `json:"tabs"`
	Lines map[int][]Fields `json:"lines"`
}

// Table returns tabs sorted by index and lines grouped by tab, each group
// sorted by line number then id.
func (s *Store) Table(id int) Grouped {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Grouped{RFQID: id, Tabs: []Tab{}, Lines: map[int][]Fields{}}
	table, ok := s.data.Tables[id]
	if !ok {
		return out
	}

	out.Tabs = append(out.Tabs, table.Tabs...)
	sort.SliceStable(out.Tabs, func(i, j int) bool { return out.Tabs[i].TabIndex < out.Tabs[j].TabIndex })

	for _, line := range table.Lines {
		tab := toInt(line["tab_index"])
		out.Lines[tab] = append(out.Lines[tab], clone(line))
	}
	for _, group := range out.Lines {
		sort.SliceStable(group, func(i, j int) bool {
			a, b := toInt(group[i]["line_no"]), toInt(group[j]["line_no"])
			if a != b {
				return a < b
			}
			return toInt(group[i]["id"]) < toInt(group[j]["id"])
		})
	}
	return out
}

// RenameTab sets a tab name, creating the tab when it does not exist.
func (s *Store) RenameTab(id, index int, name string) (Tab, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tab{}, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.table(id)
	for i := range table.Tabs {
		if table.Tabs[i].TabIndex == index {
			table.Tabs[i].Name = name
			return table.Tabs[i], s.persist()
		}
	}
	tab := Tab{TabIndex: index, Name: name}
	table.Tabs = append(table.Tabs, tab)
	return tab, s.persist()
}

// AddLine appends a line to a tab with the next line number of that tab.
// Missing or invalid quantities and prices count as zero.
func (s *Store) AddLine(id int, payload Fields) (Fields, error) {
	tab := toInt(payload["tab_index"])
	qty := toDecimal(payload["qty"])
	price := toDecimal(payload["unit_price"])
	note, ok := payload["note"]
	if !ok {
		note = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.table(id)
	lineNo := 0
	for _, l := range table.Lines {
		if toInt(l["tab_index"]) == tab && toInt(l["line_no"]) > lineNo {
			lineNo = toInt(l["line_no"])
		}
	}
	if table.NextLineID < 1 {
		table.NextLineID = 1
	}
	lineID := table.NextLineID
	table.NextLineID++

	line := Fields{
		"id":         lineID,
		"rfq_id":     id,
		"tab_index":  tab,
		"line_no":    lineNo + 1,
		"item":       plain(payload["item"]),
		"qty":        qty.InexactFloat64(),
		"uom":        plain(payload["uom"]),
		"unit_price": price.InexactFloat64(),
		"currency":   plain(payload["currency"]),
		"line_total": qty.Mul(price).InexactFloat64(),
		"note":       plain(note),
	}
	table.Lines = append(table.Lines, line)
	return clone(line), s.persist()
}

// PatchLine writes the allowed subset of updates to a line. The line total
// is recomputed from qty and unit_price when either changes and the total
// was not given explicitly.
func (s *Store) PatchLine(id int, lineID int, updates Fields) (Fields, error) {
	allowed := make(Fields)
	for k, v := range updates {
		if lineFields[k] {
			allowed[k] = plain(v)
		}
	}
	if len(allowed) == 0 {
		return nil, ErrNoValidFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.table(id)
	var line Fields
	for _, l := range table.Lines {
		if toInt(l["id"]) == lineID {
			line = l
			break
		}
	}
	if line == nil {
		return nil, ErrNotFound
	}

	for k, v := range allowed {
		line[k] = v
	}
	_, total := allowed["line_total"]
	_, qty := allowed["qty"]
	_, price := allowed["unit_price"]
	if !total && (qty || price) {
		line["line_total"] = toDecimal(line["qty"]).Mul(toDecimal(line["unit_price"])).InexactFloat64()
	}
	return clone(line), s.persist()
}

// DeleteLine removes a line. Unknown ids are not an error.
func (s *Store) DeleteLine(id int, lineID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.table(id)
	kept := table.Lines[:0]
	for _, l := range table.Lines {
		if toInt(l["id"]) != lineID {
			kept = append(kept, l)
		}
	}
	table.Lines = kept
	return s.persist()
}

func (s *Store) table(id int) *Table {
	table, ok := s.data.Tables[id]
	if !ok {
		table = &Table{NextLineID: 1}
		s.data.Tables[id] = table
	}
	return table
}

// persist writes the store to path via a temporary file. Callers hold mu.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("failed to marshal data file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary data file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save data file: %w", err)
	}
	return nil
}

// decodeFields decodes a JSON object body, keeping numbers exact. An empty
// or invalid body yields an empty map.
func decodeFields(body []byte) Fields {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var f Fields
	if err := dec.Decode(&f); err != nil || f == nil {
		return Fields{}
	}
	return f
}

// plain converts json.Number into int or float64 so values survive a
// round trip through the YAML data file.
func plain(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err == nil {
			return d
		}
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

func toInt(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case json.Number:
		return int(toDecimal(val).IntPart())
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(val))
		return i
	}
	return 0
}

func clone(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
