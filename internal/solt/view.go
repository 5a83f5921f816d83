package solt

import "github.com/muurk/rfqedit/internal/rfq"

// TabButton is one entry of the tab strip.
type TabButton struct {
	Index  int
	Label  string // "Tab N." where N is the 1-based position
	Name   string
	Active bool
}

// Title returns the full button caption.
func (b TabButton) Title() string {
	return b.Label + " " + b.Name
}

// CellRef identifies one cell instance of one render. Refs from an older
// render are dead.
type CellRef struct {
	Gen    uint64
	LineID rfq.LineID
	Field  string
}

// Cell is one rendered table cell.
type Cell struct {
	Ref      CellRef
	Text     string
	Editable bool
	Numeric  bool
}

// Row is one rendered table row. A placeholder row has no cells and spans
// Span columns.
type Row struct {
	LineID      rfq.LineID
	Cells       []Cell
	Placeholder string
	Span        int
}

// IsPlaceholder reports whether the row stands in for an empty tab.
func (r Row) IsPlaceholder() bool {
	return r.Placeholder != ""
}

// View is the output of one render.
type View struct {
	Generation uint64
	Tabs       []TabButton
	Rows       []Row
}
