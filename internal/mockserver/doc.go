// Package mockserver serves the RFQ API from an in-memory store.
//
// It seeds record 1 with two tabs and three lines and follows the service's
// rules: unknown record fields are ignored (a patch with none left is a
// 400), renaming a missing tab creates it, and a line's total is
// recomputed from qty and unit_price unless the patch sets it.
//
// # Endpoints
//
//	GET    /api/health
//	GET    /api/rfq/:id
//	PATCH  /api/rfq/:id
//	GET    /api/rfq/:id/solt
//	PATCH  /api/rfq/:id/solt/tab/:tab
//	POST   /api/rfq/:id/solt/line
//	PATCH  /api/rfq/:id/solt/line/:line
//	DELETE /api/rfq/:id/solt/line/:line
//
// # Usage Example
//
//	srv, err := mockserver.New(&mockserver.Config{Host: "127.0.0.1", Port: 5012})
//	if err != nil {
//	    return err
//	}
//	return srv.Start() // blocks until SIGINT/SIGTERM
//
// Tests mount Handler on an httptest.Server instead of listening.
package mockserver
