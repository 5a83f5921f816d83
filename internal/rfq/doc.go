// Package rfq defines the data model shared by the RFQ binding layer.
//
// A Record is the flat, top-level RFQ header as returned by the remote
// service. A Snapshot is the Scope Order Lines Table (SOLT): an ordered list
// of tabs plus the lines of each tab, keyed by tab index.
//
// # Replacement, not merging
//
// Records and snapshots are always replaced wholesale by the latest
// authoritative server response. Nothing in this package mutates a record
// in place.
//
// # Tab index canonicalization
//
// The service groups lines under JSON object keys, so tab indices arrive as
// strings ("0", "1"). Snapshot.UnmarshalJSON converts every key to an int
// once, at ingestion time. Lookups after that are single-path:
//
//	rows := snapshot.Rows(activeTab) // nil when the tab has no lines
//
// # Display rules
//
// FormatField applies the per-field display rule. Only grand_total has a
// special rule: it is prefixed with "Grand total:" exactly once.
//
//	rfq.FormatField("grand_total", "1,234.56") // "Grand total: 1,234.56", true
//	rfq.FormatField("grand_total", "Grand total: 1,234.56") // unchanged
//
// # Numeric cells
//
// Line quantities and prices are OptNumber values backed by decimal. A cell
// the service stored as something other than a number is shown as its text.
// CoerceCell turns empty or unparsable text into an explicit null, never zero.
package rfq
