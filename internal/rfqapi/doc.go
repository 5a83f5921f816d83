// Package rfqapi provides an HTTP client for one RFQ record and its Scope
// Order Lines Table.
//
// # Endpoints
//
//	GET    /api/rfq/{id}                      record
//	PATCH  /api/rfq/{id}                      {field: value} -> full record
//	GET    /api/rfq/{id}/solt                 {tabs, lines}
//	PATCH  /api/rfq/{id}/solt/tab/{index}     {name} -> {name, ...}
//	POST   /api/rfq/{id}/solt/line            new line
//	PATCH  /api/rfq/{id}/solt/line/{lineId}   partial fields -> status only
//	DELETE /api/rfq/{id}/solt/line/{lineId}
//	GET    /api/health
//
// # Usage Example
//
//	client := rfqapi.NewClient("http://localhost:5012", 1)
//
//	rec, err := client.FetchRecord(ctx)
//	if err != nil {
//	    return err // cache stays as it was
//	}
//
//	// Replace, don't merge: totals may change as a side effect.
//	rec, err = client.PatchRecord(ctx, "po_number", "PO-2")
//
// # Error Handling
//
// Transport failures, non-2xx statuses and malformed bodies are returned as
// *RemoteError with ErrTypeNetwork/ErrTypeTimeout, ErrTypeHTTP and
// ErrTypeParse respectively. The binding layer treats all of them the same
// way: the operation is dropped and no state changes.
//
// PatchLine is the exception: it returns only a success flag, because the
// caller reloads the whole line table afterwards regardless of the outcome.
//
// # Retries
//
// Writes are never retried. Reads are retried with exponential backoff only
// when MaxRetries is set, which the interactive view never does.
package rfqapi
