package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/rfqedit/internal/binding"
	"github.com/muurk/rfqedit/internal/config"
	"github.com/muurk/rfqedit/internal/editmode"
	"github.com/muurk/rfqedit/internal/logging"
	"github.com/muurk/rfqedit/internal/rfq"
	"github.com/muurk/rfqedit/internal/session"
	"github.com/muurk/rfqedit/internal/solt"
)

// Area is the part of the screen that owns the cursor.
type Area int

const (
	// AreaFields is the record field list.
	AreaFields Area = iota
	// AreaTabs is the tab strip of the line table.
	AreaTabs
	// AreaTable is the rows of the active tab.
	AreaTable
)

const areaCount = 3

func (a Area) String() string {
	switch a {
	case AreaFields:
		return "fields"
	case AreaTabs:
		return "tabs"
	case AreaTable:
		return "lines"
	default:
		return fmt.Sprintf("Area(%d)", int(a))
	}
}

// EditTarget is what the inline editor is bound to.
type EditTarget int

const (
	// EditNone means no editor is open.
	EditNone EditTarget = iota
	// EditField edits a record field slot.
	EditField
	// EditCell edits one cell of a line.
	EditCell
	// EditTabName renames the active tab.
	EditTabName
)

// Add-line form inputs, in focus order.
const (
	addItem = iota
	addQty
	addUOM
	addUnitPrice
	addInputCount
)

// SectionView is a layout section bound to registry slots.
type SectionView struct {
	Title string
	Slots []*binding.Slot
}

// AppModel is the record view: the field panel, the tab strip and the line
// table of one RFQ.
type AppModel struct {
	sess     *session.Session
	Sections []SectionView
	slots    []*binding.Slot // flattened Sections, cursor order

	RFQID  int
	Server string

	// UI state
	Width  int
	Height int

	// Navigation
	Area        Area
	FieldCursor int
	RowCursor   int
	ColCursor   int
	ShowingHelp bool

	// Inline editor
	Editing    EditTarget
	Editor     textinput.Model
	editSlot   *binding.Slot
	editRef    solt.CellRef
	editTabIdx int

	// Add-line form
	Adding    bool
	AddInputs []textinput.Model
	AddFocus  int

	// Line awaiting a second delete keystroke
	PendingDelete rfq.LineID

	Spinner spinner.Model
	Help    help.Model
	Keys    keyMap
}

// NewAppModel binds the layout to the session's registry and returns the
// view for record rfqID at server.
func NewAppModel(sess *session.Session, layout *config.Layout, rfqID int, server string) AppModel {
	m := AppModel{
		sess:   sess,
		RFQID:  rfqID,
		Server: server,
		Width:  MinTerminalWidth,
		Height: 24,
		Editor: newInput("", 0),
		Help:   help.New(),
		Keys:   newKeyMap(),
	}

	for _, sec := range layout.Sections {
		sv := SectionView{Title: sec.Title}
		for _, f := range sec.Fields {
			slot := sess.Fields.Bind(f.Field, f.Label)
			sv.Slots = append(sv.Slots, slot)
			m.slots = append(m.slots, slot)
		}
		m.Sections = append(m.Sections, sv)
	}

	m.AddInputs = []textinput.Model{
		newInput("Item", 40),
		newInput("Qty", 10),
		newInput("UoM", 6),
		newInput("Unit price", 12),
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	m.Spinner = s

	return m
}

// newInput returns a text input with a static cursor. Focus on a static
// cursor schedules no blink.
func newInput(placeholder string, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 256
	if width > 0 {
		ti.Width = width
	}
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// Session returns the session behind the view.
func (m AppModel) Session() *session.Session {
	return m.sess
}

// Init loads the record and the line table.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.sess.Init(), m.Spinner.Tick)
}

// Loading reports whether the record has not arrived yet.
func (m AppModel) Loading() bool {
	return !m.sess.Fields.Loaded() && m.sess.Status == ""
}

// Update handles all messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case session.RecordLoadedMsg, session.RecordPatchedMsg, session.SoltLoadedMsg,
		session.TabRenamedMsg, session.LinePatchedMsg, session.LineAddedMsg, session.LineDeletedMsg:
		cmd := m.sess.Update(msg)
		m.clamp()
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m, nil
}

// Focus reports the kind of control holding keyboard focus.
func (m AppModel) Focus() editmode.Focus {
	if m.Editing != EditNone || m.Adding {
		return editmode.FocusInput
	}
	if m.Area == AreaFields && m.currentSlot() != nil {
		return editmode.FocusField
	}
	return editmode.FocusNone
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Editing != EditNone {
		return m.handleEditorKey(msg)
	}
	if m.Adding {
		return m.handleAddKey(msg)
	}

	if m.ShowingHelp {
		switch msg.String() {
		case "?", "esc", "q", "enter":
			m.ShowingHelp = false
		}
		return m, nil
	}

	if msg.String() != "x" {
		m.PendingDelete = ""
	}

	if editmode.IsShortcut(msg.String(), editmode.Modifiers{Alt: msg.Alt}, m.Focus()) {
		on := m.sess.ToggleEdit()
		m.clamp()
		logging.Debug("Edit mode toggled", zap.Bool("edit_on", on))
		return m, nil
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.ShowingHelp = true

	case key.Matches(msg, m.Keys.Reload):
		m.sess.Status = "Reloading..."
		return m, m.sess.Init()

	case msg.String() == "tab":
		m.Area = (m.Area + 1) % areaCount
		m.clamp()

	case msg.String() == "shift+tab":
		m.Area = (m.Area + areaCount - 1) % areaCount
		m.clamp()

	case key.Matches(msg, m.Keys.Up):
		m.move(-1)

	case key.Matches(msg, m.Keys.Down):
		m.move(1)

	case key.Matches(msg, m.Keys.Left):
		if m.Area == AreaTable {
			m.ColCursor--
			m.clamp()
		} else {
			m.stepTab(-1)
		}

	case key.Matches(msg, m.Keys.Right):
		if m.Area == AreaTable {
			m.ColCursor++
			m.clamp()
		} else {
			m.stepTab(1)
		}

	case key.Matches(msg, m.Keys.PrevTab):
		m.stepTab(-1)

	case key.Matches(msg, m.Keys.NextTab):
		m.stepTab(1)

	case key.Matches(msg, m.Keys.Enter):
		switch m.Area {
		case AreaFields:
			m.openFieldEditor()
		case AreaTabs:
			m.openRename()
		case AreaTable:
			m.openCellEditor()
		}

	case key.Matches(msg, m.Keys.Rename):
		m.openRename()

	case key.Matches(msg, m.Keys.Add):
		m.openAddForm()

	case key.Matches(msg, m.Keys.Delete):
		return m, m.deleteLine()
	}

	return m, nil
}

// handleEditorKey routes keys to the inline editor. enter, tab and
// shift+tab blur it and commit; esc closes it without a blur.
func (m AppModel) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeEditor()
		return m, nil
	case "enter":
		return m, m.commitEditor(0)
	case "tab":
		return m, m.commitEditor(1)
	case "shift+tab":
		return m, m.commitEditor(-1)
	}

	var cmd tea.Cmd
	m.Editor, cmd = m.Editor.Update(msg)
	return m, cmd
}

func (m AppModel) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeAddForm()
		return m, nil
	case "tab", "down":
		m.focusAddInput((m.AddFocus + 1) % addInputCount)
		return m, nil
	case "shift+tab", "up":
		m.focusAddInput((m.AddFocus + addInputCount - 1) % addInputCount)
		return m, nil
	case "enter":
		line := rfq.NewLineFromText(m.sess.Solt.ActiveTab(),
			m.AddInputs[addItem].Value(),
			m.AddInputs[addQty].Value(),
			m.AddInputs[addUOM].Value(),
			m.AddInputs[addUnitPrice].Value(),
		)
		m.closeAddForm()
		m.sess.Status = "Adding line..."
		return m, m.sess.AddLine(line)
	}

	var cmd tea.Cmd
	m.AddInputs[m.AddFocus], cmd = m.AddInputs[m.AddFocus].Update(msg)
	return m, cmd
}

func (m *AppModel) openFieldEditor() {
	slot := m.currentSlot()
	if slot == nil {
		return
	}
	if !slot.Editable {
		m.sess.Status = "Read only - press e to edit"
		return
	}
	m.editSlot = slot
	m.openEditor(EditField, slot.Text)
}

func (m *AppModel) openCellEditor() {
	cell, ok := m.currentCell()
	if !ok {
		return
	}
	if !cell.Editable {
		if !m.sess.Edit.Enabled() {
			m.sess.Status = "Read only - press e to edit"
		}
		return
	}
	m.editRef = cell.Ref
	m.openEditor(EditCell, cell.Text)
}

func (m *AppModel) openRename() {
	index := m.sess.Solt.ActiveTab()
	name, ok := m.sess.Solt.BeginRename(index)
	if !ok {
		if m.sess.Solt.Loaded() && !m.sess.Edit.Enabled() {
			m.sess.Status = "Read only - press e to edit"
		}
		return
	}
	m.editTabIdx = index
	m.openEditor(EditTabName, name)
}

func (m *AppModel) openEditor(target EditTarget, text string) {
	m.Editing = target
	m.Editor.SetValue(text)
	m.Editor.CursorEnd()
	m.Editor.Focus()
}

func (m *AppModel) closeEditor() {
	m.Editing = EditNone
	m.Editor.Blur()
	m.Editor.Reset()
	m.editSlot = nil
	m.editRef = solt.CellRef{}
}

// commitEditor blurs the editor and returns the write it triggers, if any.
// step moves the cursor afterwards, the way tab moves focus.
func (m *AppModel) commitEditor(step int) tea.Cmd {
	text := m.Editor.Value()
	var cmd tea.Cmd

	switch m.Editing {
	case EditField:
		cmd = m.sess.BlurField(m.editSlot, text)
	case EditCell:
		if _, live := m.sess.Solt.Cell(m.editRef); !live {
			m.sess.Status = "Lines reloaded while editing - edit dropped"
		}
		cmd = m.sess.CommitCell(m.editRef, text)
	case EditTabName:
		cmd = m.sess.RenameTab(m.editTabIdx, text)
		if cmd == nil && text == "" {
			m.sess.Status = "Rename cancelled"
		}
	}
	target := m.Editing
	m.closeEditor()

	if step != 0 {
		switch target {
		case EditField:
			m.move(step)
		case EditCell:
			m.ColCursor += step
			m.clamp()
		}
	}
	return cmd
}

func (m *AppModel) openAddForm() {
	if !m.sess.Solt.Loaded() {
		return
	}
	if !m.sess.Edit.Enabled() {
		m.sess.Status = "Read only - press e to edit"
		return
	}
	for i := range m.AddInputs {
		m.AddInputs[i].Reset()
	}
	m.Adding = true
	m.focusAddInput(addItem)
}

func (m *AppModel) focusAddInput(i int) {
	for j := range m.AddInputs {
		if j == i {
			m.AddInputs[j].Focus()
		} else {
			m.AddInputs[j].Blur()
		}
	}
	m.AddFocus = i
}

func (m *AppModel) closeAddForm() {
	m.Adding = false
	for i := range m.AddInputs {
		m.AddInputs[i].Blur()
	}
}

// deleteLine asks for a second keystroke before deleting the focused line.
func (m *AppModel) deleteLine() tea.Cmd {
	if m.Area != AreaTable {
		return nil
	}
	if !m.sess.Edit.Enabled() {
		m.sess.Status = "Read only - press e to edit"
		return nil
	}
	row, ok := m.currentRow()
	if !ok {
		return nil
	}
	if m.PendingDelete != row.LineID {
		m.PendingDelete = row.LineID
		m.sess.Status = fmt.Sprintf("Press x again to delete line %s", row.LineID)
		return nil
	}
	m.PendingDelete = ""
	return m.sess.DeleteLine(row.LineID)
}

func (m *AppModel) move(delta int) {
	switch m.Area {
	case AreaFields:
		m.FieldCursor += delta
	case AreaTable:
		m.RowCursor += delta
	case AreaTabs:
		m.stepTab(delta)
	}
	m.clamp()
}

// stepTab selects the tab delta positions away from the active one.
func (m *AppModel) stepTab(delta int) {
	tabs := m.sess.Solt.View().Tabs
	if len(tabs) == 0 {
		return
	}
	pos := 0
	for i, t := range tabs {
		if t.Active {
			pos = i
			break
		}
	}
	pos += delta
	if pos < 0 || pos >= len(tabs) {
		return
	}
	if err := m.sess.Solt.SelectTab(tabs[pos].Index); err != nil {
		logging.Debug("Tab selection skipped", zap.Int("tab_index", tabs[pos].Index), zap.Error(err))
		return
	}
	m.RowCursor = 0
	m.clamp()
}

// clamp keeps the cursors inside the current render.
func (m *AppModel) clamp() {
	m.FieldCursor = clampInt(m.FieldCursor, len(m.slots)-1)

	rows := m.dataRows()
	m.RowCursor = clampInt(m.RowCursor, len(rows)-1)
	m.ColCursor = clampInt(m.ColCursor, len(rfq.Columns)-1)
}

func clampInt(v, hi int) int {
	if v > hi {
		v = hi
	}
	if v < 0 {
		v = 0
	}
	return v
}

func (m AppModel) currentSlot() *binding.Slot {
	if m.FieldCursor < 0 || m.FieldCursor >= len(m.slots) {
		return nil
	}
	return m.slots[m.FieldCursor]
}

func (m AppModel) dataRows() []solt.Row {
	var rows []solt.Row
	for _, r := range m.sess.Solt.View().Rows {
		if !r.IsPlaceholder() {
			rows = append(rows, r)
		}
	}
	return rows
}

func (m AppModel) currentRow() (solt.Row, bool) {
	rows := m.dataRows()
	if m.RowCursor < 0 || m.RowCursor >= len(rows) {
		return solt.Row{}, false
	}
	return rows[m.RowCursor], true
}

func (m AppModel) currentCell() (solt.Cell, bool) {
	row, ok := m.currentRow()
	if !ok || m.ColCursor < 0 || m.ColCursor >= len(row.Cells) {
		return solt.Cell{}, false
	}
	return row.Cells[m.ColCursor], true
}
