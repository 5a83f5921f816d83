// Package report renders a record and its line table for the
// non-interactive commands.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/jmespath/go-jmespath"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/rfqedit/internal/config"
	"github.com/muurk/rfqedit/internal/rfq"
)

// Fetcher reads a record and its line table.
type Fetcher interface {
	FetchRecord(ctx context.Context) (rfq.Record, error)
	FetchSolt(ctx context.Context) (*rfq.Snapshot, error)
}

// Report is one record with its lines.
type Report struct {
	RFQID    int
	Record   rfq.Record
	Snapshot *rfq.Snapshot
}

// Fetch loads the record and the line table concurrently.
func Fetch(ctx context.Context, f Fetcher, rfqID int) (*Report, error) {
	r := &Report{RFQID: rfqID}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rec, err := f.FetchRecord(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch record: %w", err)
		}
		r.Record = rec
		return nil
	})
	g.Go(func() error {
		snap, err := f.FetchSolt(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch lines: %w", err)
		}
		r.Snapshot = snap
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

// Summary returns a one-line summary of the record
func (r *Report) Summary() string {
	number, _ := r.Record.Text("rfq_number")
	status, _ := r.Record.Text("status")
	lines := 0
	if r.Snapshot != nil {
		for _, rows := range r.Snapshot.Lines {
			lines += len(rows)
		}
	}
	return fmt.Sprintf("RFQ %d %s [%s] %d line(s)", r.RFQID, number, status, lines)
}

// FormatDetailed lists every layout field by section, then each tab with
// its lines.
func (r *Report) FormatDetailed(layout *config.Layout) string {
	var b strings.Builder

	for _, sec := range layout.Sections {
		b.WriteString(fmt.Sprintf("=== %s ===\n", sec.Title))
		for _, f := range sec.Fields {
			text, _ := rfq.FormatField(f.Field, r.Record[f.Field])
			b.WriteString(fmt.Sprintf("%-26s %s\n", f.Label+":", text))
		}
		b.WriteString("\n")
	}

	if r.Snapshot == nil {
		return b.String()
	}
	for pos, t := range r.Snapshot.Tabs {
		b.WriteString(fmt.Sprintf("=== Tab %d. %s ===\n", pos+1, t.Name))
		rows := r.Snapshot.Rows(t.Index)
		if len(rows) == 0 {
			b.WriteString(rfq.NoLinesMessage + "\n\n")
			continue
		}
		titles := make([]string, len(rfq.Columns))
		for i, c := range rfq.Columns {
			titles[i] = c.Title
		}
		b.WriteString(strings.Join(titles, " | ") + "\n")
		for _, line := range rows {
			cells := make([]string, len(rfq.Columns))
			for i, c := range rfq.Columns {
				cells[i] = line.CellText(c)
			}
			b.WriteString(strings.Join(cells, " | ") + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCompact returns a short multi-line form
func (r *Report) FormatCompact() string {
	var b strings.Builder
	b.WriteString(r.Summary() + "\n")
	if title, ok := r.Record.Text("title"); ok && title != "" {
		b.WriteString(fmt.Sprintf("Title:   %s\n", title))
	}
	if total, ok := rfq.FormatField(rfq.GrandTotalField, r.Record[rfq.GrandTotalField]); ok && total != "" {
		b.WriteString(total + "\n")
	}
	if r.Snapshot != nil {
		for pos, t := range r.Snapshot.Tabs {
			b.WriteString(fmt.Sprintf("Tab %d. %s: %d line(s)\n", pos+1, t.Name, len(r.Snapshot.Rows(t.Index))))
		}
	}
	return b.String()
}

type jsonTab struct {
	Index int                 `json:"tab_index"`
	Name  string              `json:"name"`
	Lines []map[string]string `json:"lines"`
}

// JSON returns the record and the displayed line cells as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	doc := struct {
		Record rfq.Record `json:"record"`
		Tabs   []jsonTab  `json:"tabs"`
	}{Record: r.Record, Tabs: []jsonTab{}}

	if r.Snapshot != nil {
		for _, t := range r.Snapshot.Tabs {
			jt := jsonTab{Index: t.Index, Name: t.Name, Lines: []map[string]string{}}
			for _, line := range r.Snapshot.Rows(t.Index) {
				cells := map[string]string{"id": string(line.ID)}
				for _, c := range rfq.Columns {
					cells[c.Field] = line.CellText(c)
				}
				jt.Lines = append(jt.Lines, cells)
			}
			doc.Tabs = append(doc.Tabs, jt)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// Query applies a JMESPath expression to a JSON document.
func Query(data []byte, expression string) ([]byte, error) {
	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	result, err := jp.Search(doc)
	if err != nil {
		return nil, fmt.Errorf("JMESPath search failed: %w", err)
	}
	if result == nil {
		return []byte("null"), nil
	}
	return json.MarshalIndent(result, "", "  ")
}

// Highlight writes JSON source with terminal colors.
func Highlight(w io.Writer, source string) error {
	return quick.Highlight(w, source, "json", "terminal256", "monokai")
}
