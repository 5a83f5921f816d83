package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/rfqedit/internal/rfq"
	"github.com/muurk/rfqedit/internal/solt"
)

// columnWidths are the display widths of rfq.Columns.
var columnWidths = []int{4, 22, 9, 14, 8, 5, 11, 11}

// View renders the application
func (m AppModel) View() string {
	if m.ShowingHelp {
		return RenderModal(m.renderHelp(), m.Width, m.Height)
	}

	header := BuildHeaderContent(
		fmt.Sprintf("RFQ %d @ %s", m.RFQID, m.Server),
		RenderEditBadge(m.sess.Edit.Marker()),
	)

	var b strings.Builder
	b.WriteString(m.renderFields())
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderTable())
	if m.Adding {
		b.WriteString("\n\n")
		b.WriteString(m.renderAddForm())
	}

	footer := m.renderStatus() + "\n" + m.Help.View(m.Keys)
	return RenderApplicationContainer(header, b.String(), footer, m.Width, m.Height)
}

func (m AppModel) renderFields() string {
	if m.Loading() {
		return m.Spinner.View() + " Loading record..."
	}

	var b strings.Builder
	pos := 0
	for i, sec := range m.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(SectionTitleStyle.Render(sec.Title))
		b.WriteString("\n")

		for _, slot := range sec.Slots {
			focused := m.Area == AreaFields && pos == m.FieldCursor
			pos++

			marker := "  "
			if focused {
				marker = SelectedStyle.Render("▸ ")
			}

			var value string
			switch {
			case focused && m.Editing == EditField:
				value = InlineEditorStyle().Render(m.Editor.View())
			case slot.Editable:
				value = EditableValueStyle.Render(slot.Text)
			default:
				value = slot.Text
			}
			b.WriteString(marker + LabelStyle.Render(slot.Label) + value + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m AppModel) renderTabs() string {
	if !m.sess.Solt.Loaded() {
		return PlaceholderStyle.Render("Loading lines...")
	}

	view := m.sess.Solt.View()
	parts := make([]string, 0, len(view.Tabs))
	for _, t := range view.Tabs {
		title := t.Title()
		if t.Active && m.Editing == EditTabName {
			title = t.Label + " " + m.Editor.View()
		}
		switch {
		case t.Active && m.Area == AreaTabs:
			parts = append(parts, ActiveTabStyle.Underline(true).Render(title))
		case t.Active:
			parts = append(parts, ActiveTabStyle.Render(title))
		default:
			parts = append(parts, TabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m AppModel) renderTable() string {
	if !m.sess.Solt.Loaded() {
		return ""
	}

	var b strings.Builder
	header := make([]string, len(rfq.Columns))
	for i, c := range rfq.Columns {
		header[i] = fit(c.Title, columnWidths[i])
	}
	b.WriteString(TableHeaderStyle.Render(strings.Join(header, " ")))
	b.WriteString("\n")

	rowPos := 0
	for _, row := range m.sess.Solt.View().Rows {
		if row.IsPlaceholder() {
			b.WriteString(PlaceholderStyle.Render(fit(row.Placeholder, tableWidth(row.Span))))
			b.WriteString("\n")
			continue
		}
		focusedRow := m.Area == AreaTable && rowPos == m.RowCursor
		rowPos++
		b.WriteString(m.renderRow(row, focusedRow))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m AppModel) renderRow(row solt.Row, focused bool) string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		width := columnWidths[i]
		text := cell.Text
		if cell.Numeric {
			text = fmt.Sprintf("%*s", width, text)
		}

		switch {
		case focused && i == m.ColCursor && m.Editing == EditCell && cell.Ref == m.editRef:
			cells[i] = fit(m.Editor.View(), width)
		case focused && i == m.ColCursor:
			cells[i] = SelectedStyle.Render(fit(text, width))
		case cell.Editable:
			cells[i] = EditableValueStyle.Render(fit(text, width))
		default:
			cells[i] = fit(text, width)
		}
	}

	line := strings.Join(cells, " ")
	if focused && m.PendingDelete == row.LineID {
		line += " " + lipgloss.NewStyle().Foreground(ErrorColor).Render("delete?")
	}
	return line
}

func (m AppModel) renderAddForm() string {
	labels := []string{"Item", "Qty", "UoM", "Unit price"}
	var b strings.Builder
	b.WriteString(SectionTitleStyle.Render(fmt.Sprintf("Add line to tab %d", m.sess.Solt.ActiveTab())))
	for i, in := range m.AddInputs {
		marker := "  "
		if i == m.AddFocus {
			marker = SelectedStyle.Render("▸ ")
		}
		b.WriteString("\n" + marker + LabelStyle.Render(labels[i]) + in.View())
	}
	b.WriteString("\n" + StatusBarStyle.Render("enter: add • tab: next • esc: cancel"))
	return InlineEditorStyle().Render(b.String())
}

func (m AppModel) renderStatus() string {
	status := m.sess.Status
	if status == "" {
		status = "Ready"
	}
	return StatusBarStyle.Render(fmt.Sprintf("[%s] %s", m.Area, status))
}

func (m AppModel) renderHelp() string {
	h := m.Help
	h.ShowAll = true
	content := SectionTitleStyle.Render("Keys") + "\n\n" + h.View(m.Keys) +
		"\n\n" + StatusBarStyle.Render("Press ? or esc to close")
	return HelpBoxStyle.Render(content)
}

// tableWidth is the width of the first span columns with separators.
func tableWidth(span int) int {
	if span > len(columnWidths) {
		span = len(columnWidths)
	}
	w := 0
	for _, cw := range columnWidths[:span] {
		w += cw
	}
	if span > 1 {
		w += span - 1
	}
	return w
}
