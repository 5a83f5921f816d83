package session

import "github.com/muurk/rfqedit/internal/rfq"

// Result messages produced by commands and applied by Session.Update.

// RecordLoadedMsg carries the result of a record fetch.
type RecordLoadedMsg struct {
	Record rfq.Record
	Err    error
}

// RecordPatchedMsg carries the authoritative record after a field write.
type RecordPatchedMsg struct {
	Field  string
	Record rfq.Record
	Err    error
}

// SoltLoadedMsg carries the result of a line table fetch.
type SoltLoadedMsg struct {
	Snapshot *rfq.Snapshot
	Err      error
}

// TabRenamedMsg carries the confirmed name of a renamed tab.
type TabRenamedMsg struct {
	Index int
	Name  string
	Err   error
}

// LinePatchedMsg reports a line write. Only success is known.
type LinePatchedMsg struct {
	Edit rfq.LineEdit
	OK   bool
}

// LineAddedMsg reports a line insert.
type LineAddedMsg struct {
	TabIndex int
	Err      error
}

// LineDeletedMsg reports a line removal.
type LineDeletedMsg struct {
	ID  rfq.LineID
	Err error
}
