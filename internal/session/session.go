// Package session wires the field registry, the edit toggle and the line
// table to a remote record for the lifetime of one view.
//
// All remote calls run inside tea.Cmd closures that only capture their
// arguments. Their results come back as messages and are applied by
// Update, so state is only ever touched on the event loop. Overlapping
// writes are not serialized: whichever response arrives last wins.
package session

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/rfqedit/internal/binding"
	"github.com/muurk/rfqedit/internal/editmode"
	"github.com/muurk/rfqedit/internal/logging"
	"github.com/muurk/rfqedit/internal/rfq"
	"github.com/muurk/rfqedit/internal/rfqapi"
	"github.com/muurk/rfqedit/internal/solt"
)

// Remote is the service a session talks to. *rfqapi.Client implements it.
type Remote interface {
	FetchRecord(ctx context.Context) (rfq.Record, error)
	PatchRecord(ctx context.Context, field string, value rfq.Value) (rfq.Record, error)
	FetchSolt(ctx context.Context) (*rfq.Snapshot, error)
	PatchTab(ctx context.Context, index int, name string) (rfq.Tab, error)
	PatchLine(ctx context.Context, id rfq.LineID, fields map[string]any) bool
	AddLine(ctx context.Context, line rfq.NewLine) error
	DeleteLine(ctx context.Context, id rfq.LineID) error
}

var _ Remote = (*rfqapi.Client)(nil)

// Session is the state of one record view.
type Session struct {
	ctx    context.Context
	remote Remote

	Fields *binding.Registry
	Edit   *editmode.Controller
	Solt   *solt.Controller

	// Status is a transient one-line message about the last operation.
	Status string
}

// New creates a session over fields. ctx bounds every remote call.
func New(ctx context.Context, remote Remote, fields *binding.Registry) *Session {
	s := &Session{ctx: ctx, remote: remote, Fields: fields}
	s.Solt = solt.New(func() bool { return s.Edit.Enabled() })
	s.Edit = editmode.New(fields, s.Solt.Render)
	return s
}

// Init loads the record and the line table concurrently.
func (s *Session) Init() tea.Cmd {
	return tea.Batch(s.LoadRecord(), s.LoadSolt())
}

// ToggleEdit flips edit mode.
func (s *Session) ToggleEdit() bool {
	return s.Edit.Toggle()
}

// LoadRecord fetches the record.
func (s *Session) LoadRecord() tea.Cmd {
	ctx, remote := s.ctx, s.remote
	return func() tea.Msg {
		rec, err := remote.FetchRecord(ctx)
		return RecordLoadedMsg{Record: rec, Err: err}
	}
}

// LoadSolt fetches the line table.
func (s *Session) LoadSolt() tea.Cmd {
	ctx, remote := s.ctx, s.remote
	return func() tea.Msg {
		snap, err := remote.FetchSolt(ctx)
		return SoltLoadedMsg{Snapshot: snap, Err: err}
	}
}

// BlurField handles focus leaving a field slot. It returns nil when no
// write is needed.
func (s *Session) BlurField(slot *binding.Slot, text string) tea.Cmd {
	field, value, ok := s.Fields.Blur(slot, text, s.Edit.Enabled())
	if !ok {
		return nil
	}
	ctx, remote := s.ctx, s.remote
	return func() tea.Msg {
		rec, err := remote.PatchRecord(ctx, field, value)
		return RecordPatchedMsg{Field: field, Record: rec, Err: err}
	}
}

// RenameTab writes a new tab name. Empty names are discarded without a
// request, and renaming requires edit mode.
func (s *Session) RenameTab(index int, name string) tea.Cmd {
	if name == "" || !s.Edit.Enabled() {
		return nil
	}
	ctx, remote := s.ctx, s.remote
	return func() tea.Msg {
		tab, err := remote.PatchTab(ctx, index, name)
		return TabRenamedMsg{Index: index, Name: tab.Name, Err: err}
	}
}

// CommitCell handles focus leaving a line cell. A cell commits once; the
// write is followed by a table reload whatever its outcome.
func (s *Session) CommitCell(ref solt.CellRef, text string) tea.Cmd {
	edit, ok := s.Solt.Commit(ref, text)
	if !ok {
		return nil
	}
	ctx, remote := s.ctx, s.remote
	return func() tea.Msg {
		return LinePatchedMsg{Edit: edit, OK: remote.PatchLine(ctx, edit.ID, edit.Payload())}
	}
}

// AddLine appends a line to a tab.
func (s *Session) AddLine(line rfq.NewLine) tea.Cmd {
	ctx, remote := s.ctx, s.remote
	return func() tea.Msg {
		return LineAddedMsg{TabIndex: line.TabIndex, Err: remote.AddLine(ctx, line)}
	}
}

// DeleteLine removes a line. It requires edit mode.
func (s *Session) DeleteLine(id rfq.LineID) tea.Cmd {
	if !s.Edit.Enabled() || id == "" {
		return nil
	}
	ctx, remote := s.ctx, s.remote
	return func() tea.Msg {
		return LineDeletedMsg{ID: id, Err: remote.DeleteLine(ctx, id)}
	}
}

// Update applies a result message. Failures change nothing but the status
// line. It returns a follow-up command, if any.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case RecordLoadedMsg:
		if s.dropped("load record", msg.Err) {
			return nil
		}
		s.Fields.Load(msg.Record)
		s.Status = "Record loaded"

	case RecordPatchedMsg:
		if s.dropped("patch record", msg.Err, zap.String("field", msg.Field)) {
			return nil
		}
		s.Fields.ReplaceCache(msg.Record)
		s.Status = fmt.Sprintf("Saved %s", msg.Field)

	case SoltLoadedMsg:
		if s.dropped("load lines", msg.Err) {
			return nil
		}
		s.Solt.Apply(msg.Snapshot)

	case TabRenamedMsg:
		if s.dropped("rename tab", msg.Err, zap.Int("tab_index", msg.Index)) {
			return nil
		}
		s.Solt.ApplyRename(msg.Index, msg.Name)
		s.Status = fmt.Sprintf("Renamed tab to %q", msg.Name)

	case LinePatchedMsg:
		if msg.OK {
			s.Status = fmt.Sprintf("Saved %s on line %s", msg.Edit.Field, msg.Edit.ID)
		} else {
			logging.LogDropped("patch line", nil,
				zap.String("line_id", string(msg.Edit.ID)),
				zap.String("field", msg.Edit.Field),
			)
			s.Status = "Line not saved"
		}
		return s.LoadSolt()

	case LineAddedMsg:
		if s.dropped("add line", msg.Err, zap.Int("tab_index", msg.TabIndex)) {
			return nil
		}
		s.Status = "Line added"
		return s.LoadSolt()

	case LineDeletedMsg:
		if s.dropped("delete line", msg.Err, zap.String("line_id", string(msg.ID))) {
			return nil
		}
		s.Status = fmt.Sprintf("Line %s deleted", msg.ID)
		return s.LoadSolt()
	}
	return nil
}

func (s *Session) dropped(operation string, err error, fields ...zap.Field) bool {
	if err == nil {
		return false
	}
	logging.LogDropped(operation, err, fields...)
	s.Status = rfqapi.ShortMessage(err)
	return true
}
