// Package tui implements the interactive record view of rfqedit.
//
// One screen shows the record fields grouped by the layout's sections, the
// tab strip of the line table and the lines of the active tab. The model
// holds no record state of its own: every remote result is handed to the
// session, and the view is drawn from the session's registry and line
// table controller.
//
// # Areas
//
// The cursor lives in one of three areas, cycled with tab:
//   - fields: up/down move between slots, enter opens the inline editor
//   - tabs: left/right select the neighbouring tab, enter renames it
//   - lines: up/down/left/right move between cells, enter edits a cell
//
// Editors only open while edit mode is on ("e"). Inside an editor enter,
// tab and shift+tab commit; esc closes it and nothing is written.
//
// # Usage Example
//
//	sess := session.New(ctx, client, binding.NewRegistry())
//	app := tui.NewAppModel(sess, layout, cfg.RFQID, cfg.Server)
//
//	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
//	    return err
//	}
package tui
