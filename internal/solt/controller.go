// Package solt manages the tabbed line table: tab selection, row
// rendering, single-shot cell commits and the local tab-rename merge.
package solt

import (
	"errors"
	"fmt"

	"github.com/muurk/rfqedit/internal/rfq"
)

// ErrNotLoaded is returned by Render before the first snapshot arrives.
var ErrNotLoaded = errors.New("line table not loaded")

// Controller holds the last snapshot and the active tab.
type Controller struct {
	editing func() bool

	snapshot  *rfq.Snapshot
	activeTab int
	seeded    bool

	view     View
	consumed map[CellRef]bool
}

// New creates a controller. editing reports whether edit mode is on at
// render time.
func New(editing func() bool) *Controller {
	return &Controller{editing: editing, consumed: make(map[CellRef]bool)}
}

// Loaded reports whether a snapshot has been applied.
func (c *Controller) Loaded() bool {
	return c.snapshot != nil
}

// Snapshot returns the current snapshot, or nil.
func (c *Controller) Snapshot() *rfq.Snapshot {
	return c.snapshot
}

// ActiveTab returns the index of the selected tab.
func (c *Controller) ActiveTab() int {
	return c.activeTab
}

// View returns the most recent render.
func (c *Controller) View() View {
	return c.view
}

// Apply replaces the snapshot wholesale and re-renders. The first snapshot
// selects its first tab; later ones keep the selection.
func (c *Controller) Apply(snap *rfq.Snapshot) {
	if snap == nil {
		return
	}
	c.snapshot = snap
	if !c.seeded {
		c.seeded = true
		if first, ok := snap.FirstTab(); ok {
			c.activeTab = first
		}
	}
	_ = c.Render()
}

// SelectTab activates a tab and re-renders. No fetch is involved and the
// index need not exist.
func (c *Controller) SelectTab(index int) error {
	c.activeTab = index
	return c.Render()
}

// Render rebuilds the view from the snapshot. Every call starts a new
// generation of cells.
func (c *Controller) Render() error {
	if c.snapshot == nil {
		return ErrNotLoaded
	}

	editable := c.editing != nil && c.editing()
	gen := c.view.Generation + 1
	view := View{Generation: gen}

	for pos, t := range c.snapshot.Tabs {
		view.Tabs = append(view.Tabs, TabButton{
			Index:  t.Index,
			Label:  fmt.Sprintf("Tab %d.", pos+1),
			Name:   t.Name,
			Active: t.Index == c.activeTab,
		})
	}

	lines := c.snapshot.Rows(c.activeTab)
	if len(lines) == 0 {
		view.Rows = []Row{{Placeholder: rfq.NoLinesMessage, Span: len(rfq.Columns)}}
	}
	for _, line := range lines {
		row := Row{LineID: line.ID, Cells: make([]Cell, 0, len(rfq.Columns))}
		for _, col := range rfq.Columns {
			row.Cells = append(row.Cells, Cell{
				Ref:      CellRef{Gen: gen, LineID: line.ID, Field: col.Field},
				Text:     line.CellText(col),
				Editable: editable && !col.ReadOnly,
				Numeric:  col.Numeric,
			})
		}
		view.Rows = append(view.Rows, row)
	}

	c.view = view
	c.consumed = make(map[CellRef]bool)
	return nil
}

// Cell looks up a cell of the current render.
func (c *Controller) Cell(ref CellRef) (Cell, bool) {
	if ref.Gen != c.view.Generation {
		return Cell{}, false
	}
	for _, row := range c.view.Rows {
		if row.LineID != ref.LineID {
			continue
		}
		for _, cell := range row.Cells {
			if cell.Ref == ref {
				return cell, true
			}
		}
	}
	return Cell{}, false
}

// Commit turns the blur of a cell into a line edit. Each cell instance
// commits at most once; cells of an older render, read-only cells and
// already committed cells yield false.
func (c *Controller) Commit(ref CellRef, text string) (rfq.LineEdit, bool) {
	cell, ok := c.Cell(ref)
	if !ok || !cell.Editable || c.consumed[ref] {
		return rfq.LineEdit{}, false
	}
	c.consumed[ref] = true

	normalized := rfq.Normalize(text)
	return rfq.LineEdit{
		ID:    ref.LineID,
		Field: ref.Field,
		Value: rfq.CoerceCell(ref.Field, normalized),
	}, true
}

// BeginRename returns the current name of a tab when it may be renamed,
// which requires edit mode.
func (c *Controller) BeginRename(index int) (string, bool) {
	if c.editing == nil || !c.editing() {
		return "", false
	}
	t, ok := c.snapshot.Tab(index)
	if !ok {
		return "", false
	}
	return t.Name, true
}

// ApplyRename merges a confirmed tab name into the loaded snapshot and
// re-renders. Only that tab changes.
func (c *Controller) ApplyRename(index int, name string) bool {
	if !c.snapshot.SetTabName(index, name) {
		return false
	}
	_ = c.Render()
	return true
}
