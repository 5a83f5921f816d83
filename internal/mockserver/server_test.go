package mockserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(&Config{})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	status, body := do(t, newTestServer(t), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
}

func TestGetRecord(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, http.MethodGet, "/api/rfq/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "RFQ-0000-0", body["rfq_number"])
	assert.Equal(t, "Received", body["status"])
	assert.Equal(t, "", body["grand_total"])

	status, _ = do(t, srv, http.MethodGet, "/api/rfq/99", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPatchRecord(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, http.MethodPatch, "/api/rfq/1", `{"po_number":"x","supplier":"ACME","grand_total":520}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ACME", body["supplier"])
	assert.Equal(t, float64(520), body["grand_total"])
	assert.NotContains(t, body, "po_number", "fields outside the allowed set are ignored")
	assert.Equal(t, "Received", body["status"], "full record returned")

	status, _ = do(t, srv, http.MethodPatch, "/api/rfq/1", `{"po_number":"x"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, srv, http.MethodPatch, "/api/rfq/1", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, srv, http.MethodPatch, "/api/rfq/7", `{"title":"New"}`)
	require.Equal(t, http.StatusOK, status, "patch creates a missing record")
	assert.Equal(t, float64(7), body["id"])
}

func TestGetTable_GroupedAndSorted(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPatch, "/api/rfq/1/solt/line/1", `{"line_no":5}`)

	status, body := do(t, srv, http.MethodGet, "/api/rfq/1/solt", "")
	require.Equal(t, http.StatusOK, status)

	tabs := body["tabs"].([]any)
	require.Len(t, tabs, 2)
	assert.Equal(t, "Section 1", tabs[0].(map[string]any)["name"])

	lines := body["lines"].(map[string]any)
	tab0 := lines["0"].([]any)
	require.Len(t, tab0, 2)
	assert.Equal(t, "Line item B", tab0[0].(map[string]any)["item"], "sorted by line_no")
	assert.Len(t, lines["1"].([]any), 1)
}

func TestPatchTab(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, http.MethodPatch, "/api/rfq/1/solt/tab/1", `{"name":"  Civil "}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Civil", body["name"])
	assert.Equal(t, float64(1), body["tab_index"])

	status, _ = do(t, srv, http.MethodPatch, "/api/rfq/1/solt/tab/1", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, srv, http.MethodPatch, "/api/rfq/1/solt/tab/4", `{"name":"Extra"}`)
	require.Equal(t, http.StatusOK, status)
	grouped := srv.Store().Table(1)
	require.Len(t, grouped.Tabs, 3, "rename creates a missing tab")
	assert.Equal(t, 4, grouped.Tabs[2].TabIndex)
}

func TestPatchLine_RecomputesTotal(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, http.MethodPatch, "/api/rfq/1/solt/line/2", `{"qty":5}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1250), body["line_total"])

	_, body = do(t, srv, http.MethodPatch, "/api/rfq/1/solt/line/2", `{"unit_price":0.1,"qty":3}`)
	assert.Equal(t, 0.3, body["line_total"])

	_, body = do(t, srv, http.MethodPatch, "/api/rfq/1/solt/line/2", `{"qty":1,"line_total":999}`)
	assert.Equal(t, float64(999), body["line_total"], "explicit total wins")

	_, body = do(t, srv, http.MethodPatch, "/api/rfq/1/solt/line/2", `{"qty":null}`)
	assert.Nil(t, body["qty"])
	assert.Equal(t, float64(0), body["line_total"])

	status, _ = do(t, srv, http.MethodPatch, "/api/rfq/1/solt/line/2", `{"mdf_code":"X"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, srv, http.MethodPatch, "/api/rfq/1/solt/line/99", `{"qty":1}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAddAndDeleteLine(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, http.MethodPost, "/api/rfq/1/solt/line", `{"tab_index":0,"item":"Gasket","qty":"4","unit_price":2.5}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(4), body["id"])
	assert.Equal(t, float64(3), body["line_no"])
	assert.Equal(t, float64(10), body["line_total"])

	_, body = do(t, srv, http.MethodPost, "/api/rfq/1/solt/line", `{"tab_index":3,"qty":"abc"}`)
	assert.Equal(t, float64(1), body["line_no"], "first line of a new tab")
	assert.Equal(t, float64(0), body["qty"])

	status, _ = do(t, srv, http.MethodDelete, "/api/rfq/1/solt/line/4", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, srv.Store().Table(1).Lines[0], 2)

	status, _ = do(t, srv, http.MethodDelete, "/api/rfq/1/solt/line/404", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestOpenStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "store.yaml")

	store, err := OpenStore(path)
	require.NoError(t, err)
	_, err = store.PatchRecord(1, Fields{"supplier": "ACME"})
	require.NoError(t, err)
	_, err = store.RenameTab(1, 0, "Mechanical")
	require.NoError(t, err)

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	rec, err := reopened.Record(1)
	require.NoError(t, err)
	assert.Equal(t, "ACME", rec["supplier"])
	assert.Equal(t, "Mechanical", reopened.Table(1).Tabs[0].Name)

	line, err := reopened.AddLine(1, Fields{"tab_index": 0, "qty": json.Number("2"), "unit_price": json.Number("3")})
	require.NoError(t, err)
	assert.Equal(t, 4, line["id"], "next line id survives a reload")
}

func TestHandler_ServesOverHTTP(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/rfq/1/solt")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
