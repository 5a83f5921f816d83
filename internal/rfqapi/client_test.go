package rfqapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/rfqedit/internal/rfq"
)

const mockRecord = `{"id":1,"grand_total":"500","po_number":"PO-1"}`

const mockSolt = `{"rfq_id":1,"tabs":[{"tab_index":0,"name":"Tab A"}],"lines":{"0":[{"id":7,"tab_index":0,"line_no":1,"qty":2,"unit_price":10,"line_total":20}]}}`

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:5012/", 3)

	if client.BaseURL != "http://localhost:5012" {
		t.Errorf("BaseURL = %s, want trailing slash trimmed", client.BaseURL)
	}
	if client.RecordURL() != "http://localhost:5012/api/rfq/3" {
		t.Errorf("RecordURL() = %s", client.RecordURL())
	}
	if client.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0 (no retries by default)", client.MaxRetries)
	}
	if client.HTTPClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", client.HTTPClient.Timeout, DefaultTimeout)
	}
}

func TestSetTimeoutAndRetry(t *testing.T) {
	client := NewClient("http://localhost", 1)
	client.SetTimeout(5 * time.Second)
	client.SetRetry(2, time.Second)

	if client.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.HTTPClient.Timeout)
	}
	if client.MaxRetries != 2 || client.RetryDelay != time.Second {
		t.Errorf("retry = %d/%v, want 2/1s", client.MaxRetries, client.RetryDelay)
	}
}

func TestFetchRecord_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Request method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/rfq/1" {
			t.Errorf("Request path = %s, want /api/rfq/1", r.URL.Path)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id header")
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "rfqedit/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(mockRecord))
	}))
	defer server.Close()

	rec, err := NewClient(server.URL, 1).FetchRecord(context.Background())
	if err != nil {
		t.Fatalf("FetchRecord() error = %v", err)
	}
	if got, _ := rec.Text("po_number"); got != "PO-1" {
		t.Errorf("po_number = %q, want PO-1", got)
	}
	if rec["id"] != json.Number("1") {
		t.Errorf("id = %#v, want json.Number(1)", rec["id"])
	}
}

func TestFetchRecord_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		isHTTP  bool
		isParse bool
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"error":"not found"}`, isHTTP: true},
		{name: "server error", status: http.StatusInternalServerError, body: "", isHTTP: true},
		{name: "malformed body", status: http.StatusOK, body: "<html>", isParse: true},
		{name: "json array", status: http.StatusOK, body: "[1,2]", isParse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			rec, err := NewClient(server.URL, 1).FetchRecord(context.Background())
			if err == nil {
				t.Fatal("FetchRecord() should fail")
			}
			if rec != nil {
				t.Errorf("record = %v, want nil", rec)
			}
			if IsHTTPError(err) != tt.isHTTP {
				t.Errorf("IsHTTPError() = %v, want %v (%v)", IsHTTPError(err), tt.isHTTP, err)
			}
			if IsParseError(err) != tt.isParse {
				t.Errorf("IsParseError() = %v, want %v (%v)", IsParseError(err), tt.isParse, err)
			}
			if tt.isHTTP && StatusCode(err) != tt.status {
				t.Errorf("StatusCode() = %d, want %d", StatusCode(err), tt.status)
			}
		})
	}
}

func TestFetchRecord_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, 1).FetchRecord(context.Background())
	if !IsNetworkError(err) {
		t.Errorf("error should be network error, got %T: %v", err, err)
	}
}

func TestFetchRecord_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(mockRecord))
	}))
	defer server.Close()

	client := NewClient(server.URL, 1)
	client.SetRetry(3, time.Millisecond)

	if _, err := client.FetchRecord(context.Background()); err != nil {
		t.Fatalf("FetchRecord() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetchRecord_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, 1).FetchRecord(context.Background()); err == nil {
		t.Fatal("FetchRecord() should fail")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestPatchRecord_ReturnsAuthoritativeRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("Request method = %s, want PATCH", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"po_number":"PO-2"}` {
			t.Errorf("body = %s, want {\"po_number\":\"PO-2\"}", body)
		}
		w.Write([]byte(`{"grand_total":"520","po_number":"PO-2"}`))
	}))
	defer server.Close()

	rec, err := NewClient(server.URL, 1).PatchRecord(context.Background(), "po_number", "PO-2")
	if err != nil {
		t.Fatalf("PatchRecord() error = %v", err)
	}
	if got, _ := rec.Text("grand_total"); got != "520" {
		t.Errorf("grand_total = %q, want 520 (server-derived)", got)
	}
}

func TestPatchRecord_BadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"no valid fields"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 1).PatchRecord(context.Background(), "nope", "x")
	if !IsHTTPError(err) || IsRetryable(err) {
		t.Errorf("error = %v, want non-retryable HTTP error", err)
	}
}

func TestFetchSolt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rfq/1/solt" {
			t.Errorf("Request path = %s", r.URL.Path)
		}
		w.Write([]byte(mockSolt))
	}))
	defer server.Close()

	snap, err := NewClient(server.URL, 1).FetchSolt(context.Background())
	if err != nil {
		t.Fatalf("FetchSolt() error = %v", err)
	}
	rows := snap.Rows(0)
	if len(rows) != 1 || rows[0].ID != "7" {
		t.Fatalf("rows = %+v, want line 7", rows)
	}
}

func TestPatchTab(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/rfq/1/solt/tab/2" {
			t.Errorf("Request = %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["name"] != "Civil" {
			t.Errorf("name = %q, want Civil", payload["name"])
		}
		w.Write([]byte(`{"tab_index":2,"name":"Civil"}`))
	}))
	defer server.Close()

	tab, err := NewClient(server.URL, 1).PatchTab(context.Background(), 2, "Civil")
	if err != nil {
		t.Fatalf("PatchTab() error = %v", err)
	}
	if tab != (rfq.Tab{Index: 2, Name: "Civil"}) {
		t.Errorf("tab = %+v", tab)
	}
}

func TestPatchLine(t *testing.T) {
	var mu sync.Mutex
	var gotBody string
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rfq/1/solt/line/7" {
			t.Errorf("Request path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotBody = string(body)
		mu.Unlock()
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	client := NewClient(server.URL, 1)
	edit := rfq.LineEdit{ID: "7", Field: rfq.FieldQty, Value: rfq.CoerceCell(rfq.FieldQty, "5")}

	if !client.PatchLine(context.Background(), edit.ID, edit.Payload()) {
		t.Error("PatchLine() = false, want true")
	}
	mu.Lock()
	if gotBody != `{"qty":5}` {
		t.Errorf("body = %s, want {\"qty\":5}", gotBody)
	}
	mu.Unlock()

	status.Store(http.StatusNotFound)
	if client.PatchLine(context.Background(), edit.ID, edit.Payload()) {
		t.Error("PatchLine() = true for 404, want false")
	}
}

func TestAddAndDeleteLine(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 1)
	if err := client.AddLine(context.Background(), rfq.NewLineFromText(1, "Valve", "2", "ea", "10")); err != nil {
		t.Fatalf("AddLine() error = %v", err)
	}
	if err := client.DeleteLine(context.Background(), "9"); err != nil {
		t.Fatalf("DeleteLine() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"POST /api/rfq/1/solt/line", "DELETE /api/rfq/1/solt/line/9"}
	if len(seen) != 2 || seen[0] != want[0] || seen[1] != want[1] {
		t.Errorf("requests = %v, want %v", seen, want)
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	if err := NewClient(server.URL, 1).Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}

func TestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 1)
	client.SetTimeout(20 * time.Millisecond)

	_, err := client.FetchRecord(context.Background())
	if !IsNetworkError(err) {
		t.Fatalf("error = %v, want network/timeout error", err)
	}
	if ShortMessage(err) != "Server not responding (timeout)" {
		t.Errorf("ShortMessage() = %q", ShortMessage(err))
	}
}
