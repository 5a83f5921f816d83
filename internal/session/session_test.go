package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/rfqedit/internal/binding"
	"github.com/muurk/rfqedit/internal/mockserver"
	"github.com/muurk/rfqedit/internal/rfq"
	"github.com/muurk/rfqedit/internal/rfqapi"
)

// fakeRemote records calls and serves canned responses.
type fakeRemote struct {
	record    rfq.Record
	patched   rfq.Record
	snapshots []string
	fetches   int

	recordErr error
	patchErr  error
	tabErr    error
	lineOK    bool

	patches    []map[string]rfq.Value
	linePatch  []rfq.LineEdit
	tabRenames []string
	added      []rfq.NewLine
	deleted    []rfq.LineID
}

func (f *fakeRemote) FetchRecord(ctx context.Context) (rfq.Record, error) {
	return f.record, f.recordErr
}

func (f *fakeRemote) PatchRecord(ctx context.Context, field string, value rfq.Value) (rfq.Record, error) {
	f.patches = append(f.patches, map[string]rfq.Value{field: value})
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	return f.patched, nil
}

func (f *fakeRemote) FetchSolt(ctx context.Context) (*rfq.Snapshot, error) {
	payload := f.snapshots[len(f.snapshots)-1]
	if f.fetches < len(f.snapshots) {
		payload = f.snapshots[f.fetches]
	}
	f.fetches++
	var snap rfq.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, rfqapi.NewParseError("bad snapshot", err)
	}
	return &snap, nil
}

func (f *fakeRemote) PatchTab(ctx context.Context, index int, name string) (rfq.Tab, error) {
	f.tabRenames = append(f.tabRenames, name)
	if f.tabErr != nil {
		return rfq.Tab{}, f.tabErr
	}
	return rfq.Tab{Index: index, Name: name}, nil
}

func (f *fakeRemote) PatchLine(ctx context.Context, id rfq.LineID, fields map[string]any) bool {
	for k, v := range fields {
		f.linePatch = append(f.linePatch, rfq.LineEdit{ID: id, Field: k, Value: v})
	}
	return f.lineOK
}

func (f *fakeRemote) AddLine(ctx context.Context, line rfq.NewLine) error {
	f.added = append(f.added, line)
	return nil
}

func (f *fakeRemote) DeleteLine(ctx context.Context, id rfq.LineID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

const tabA = `{"tabs":[{"index":0,"name":"Tab A"}],"lines":{"0":[{"id":7,"qty":2,"unit_price":10,"line_total":20}]}}`

// run executes cmd and every follow-up command on the calling goroutine,
// the way the event loop would, one message at a time.
func run(s *Session, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			run(s, c)
		}
		return
	}
	run(s, s.Update(msg))
}

func newSession(remote Remote) (*Session, *binding.Slot, *binding.Slot) {
	fields := binding.NewRegistry()
	total := fields.Bind("grand_total", "Grand Total")
	po := fields.Bind("po_number", "PO Number")
	return New(context.Background(), remote, fields), total, po
}

func TestEndToEnd_RecordEdit(t *testing.T) {
	remote := &fakeRemote{
		record:    rfq.Record{"grand_total": "500", "po_number": "PO-1"},
		patched:   rfq.Record{"grand_total": "520", "po_number": "PO-2"},
		snapshots: []string{tabA},
	}
	s, total, po := newSession(remote)
	run(s, s.Init())

	assert.Equal(t, "Grand total: 500", total.Text)
	assert.Equal(t, "PO-1", po.Text)

	assert.Nil(t, s.BlurField(po, "PO-2"), "no patch while edit mode is off")

	s.ToggleEdit()
	run(s, s.BlurField(po, " PO-2 "))

	require.Len(t, remote.patches, 1)
	assert.Equal(t, map[string]rfq.Value{"po_number": "PO-2"}, remote.patches[0])
	v, _ := s.Fields.Cached("grand_total")
	assert.Equal(t, "520", v, "cache replaced by the authoritative record")

	remote.record = remote.patched
	run(s, s.LoadRecord())
	assert.Equal(t, "Grand total: 520", total.Text)
}

func TestBlurField_CleanSkipsPatch(t *testing.T) {
	remote := &fakeRemote{record: rfq.Record{"po_number": "PO-1"}, snapshots: []string{tabA}}
	s, _, po := newSession(remote)
	run(s, s.Init())
	s.ToggleEdit()

	assert.Nil(t, s.BlurField(po, "PO-1  "))
	assert.Empty(t, remote.patches)
}

func TestBlurField_FailureLeavesCache(t *testing.T) {
	remote := &fakeRemote{
		record:    rfq.Record{"po_number": "PO-1"},
		snapshots: []string{tabA},
		patchErr:  rfqapi.NewHTTPError(500, "boom"),
	}
	s, _, po := newSession(remote)
	run(s, s.Init())
	s.ToggleEdit()

	run(s, s.BlurField(po, "PO-2"))

	v, _ := s.Fields.Cached("po_number")
	assert.Equal(t, "PO-1", v)
	assert.Equal(t, "Server returned HTTP 500", s.Status)
}

func TestLoadRecord_FailureKeepsView(t *testing.T) {
	remote := &fakeRemote{recordErr: rfqapi.NewNetworkError("down", errors.New("refused")), snapshots: []string{tabA}}
	s, total, _ := newSession(remote)
	total.Text = "placeholder"

	run(s, s.LoadRecord())
	assert.Equal(t, "placeholder", total.Text)
	assert.False(t, s.Fields.Loaded())
}

func TestCommitCell_AlwaysReloads(t *testing.T) {
	for _, ok := range []bool{true, false} {
		remote := &fakeRemote{
			record:    rfq.Record{},
			snapshots: []string{tabA, `{"tabs":[{"index":0,"name":"Tab A"}],"lines":{"0":[{"id":7,"qty":5,"unit_price":10,"line_total":50}]}}`},
			lineOK:    ok,
		}
		s, _, _ := newSession(remote)
		run(s, s.Init())
		s.ToggleEdit()

		ref := s.Solt.View().Rows[0].Cells[4].Ref
		run(s, s.CommitCell(ref, "5"))

		require.Len(t, remote.linePatch, 1)
		assert.Equal(t, rfq.LineEdit{ID: "7", Field: "qty", Value: json.Number("5")}, remote.linePatch[0])
		assert.Equal(t, 2, remote.fetches, "reload after patch (ok=%v)", ok)
		assert.Equal(t, "50", s.Solt.View().Rows[0].Cells[7].Text)

		assert.Nil(t, s.CommitCell(ref, "6"), "dead cell after reload")
	}
}

func TestToggleEdit_BeforeSoltLoaded(t *testing.T) {
	s, _, po := newSession(&fakeRemote{snapshots: []string{tabA}})

	assert.NotPanics(t, func() { s.ToggleEdit() })
	assert.True(t, s.Edit.Enabled())
	assert.True(t, po.Editable)
}

func TestToggleEdit_RebuildsCells(t *testing.T) {
	s, _, _ := newSession(&fakeRemote{record: rfq.Record{}, snapshots: []string{tabA}})
	run(s, s.Init())

	assert.False(t, s.Solt.View().Rows[0].Cells[1].Editable)
	s.ToggleEdit()
	assert.True(t, s.Solt.View().Rows[0].Cells[1].Editable)
}

func TestRenameTab(t *testing.T) {
	remote := &fakeRemote{record: rfq.Record{}, snapshots: []string{tabA}}
	s, _, _ := newSession(remote)
	run(s, s.Init())

	assert.Nil(t, s.RenameTab(0, "Civil"), "rename requires edit mode")
	s.ToggleEdit()
	assert.Nil(t, s.RenameTab(0, ""), "empty name is discarded")

	run(s, s.RenameTab(0, "Civil"))
	assert.Equal(t, []string{"Civil"}, remote.tabRenames)
	assert.Equal(t, "Civil", s.Solt.View().Tabs[0].Name)
	assert.Equal(t, 1, remote.fetches, "rename merges without reloading")

	remote.tabErr = rfqapi.NewHTTPError(400, "name required")
	run(s, s.RenameTab(0, "Other"))
	assert.Equal(t, "Civil", s.Solt.View().Tabs[0].Name)
}

func TestAddAndDeleteLine(t *testing.T) {
	remote := &fakeRemote{record: rfq.Record{}, snapshots: []string{tabA}}
	s, _, _ := newSession(remote)
	run(s, s.Init())

	run(s, s.AddLine(rfq.NewLineFromText(0, "Gasket", "1", "ea", "2")))
	require.Len(t, remote.added, 1)
	assert.Equal(t, 2, remote.fetches)

	assert.Nil(t, s.DeleteLine("7"), "delete requires edit mode")
	s.ToggleEdit()
	run(s, s.DeleteLine("7"))
	assert.Equal(t, []rfq.LineID{"7"}, remote.deleted)
	assert.Equal(t, 3, remote.fetches)
}

func TestAgainstMockServer(t *testing.T) {
	srv := httptest.NewServer(mockserver.NewWithStore(&mockserver.Config{}, mockserver.NewStore()).Handler())
	defer srv.Close()

	fields := binding.NewRegistry()
	supplier := fields.Bind("supplier", "Supplier")
	s := New(context.Background(), rfqapi.NewClient(srv.URL, 1), fields)
	run(s, s.Init())

	require.True(t, s.Fields.Loaded())
	require.True(t, s.Solt.Loaded())
	assert.Equal(t, 0, s.Solt.ActiveTab())
	assert.Len(t, s.Solt.View().Rows, 2)

	s.ToggleEdit()
	run(s, s.BlurField(supplier, "ACME"))
	v, _ := s.Fields.Cached("supplier")
	assert.Equal(t, "ACME", v)

	ref := s.Solt.View().Rows[1].Cells[4].Ref
	run(s, s.CommitCell(ref, "5"))
	assert.Equal(t, "1250", s.Solt.View().Rows[1].Cells[7].Text, "server-computed total after reload")

	run(s, s.CommitCell(s.Solt.View().Rows[1].Cells[6].Ref, ""))
	assert.Equal(t, "", s.Solt.View().Rows[1].Cells[6].Text, "empty numeric cell is stored as null")
	assert.Equal(t, "0", s.Solt.View().Rows[1].Cells[7].Text)
}
