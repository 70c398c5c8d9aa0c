package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/engine"
	"github.com/hyperjump/shirabe/internal/models"
)

func newTestServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()
	opts := engine.DefaultOptions()
	eng, err := engine.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.ServerConfig{Host: "localhost", Port: 0}
	return NewServer(eng, cfg, zap.NewNop()), eng
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleAddAndSearch(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/documents", []models.Document{
		{ID: "1", Content: "resetting a forgotten password"},
		{ID: "2", Content: "billing and invoices"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodPost, "/api/v1/search", &SearchRequest{Query: "forgotten password", K: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || len(resp.Results) != 2 {
		t.Fatalf("search response = %+v", resp)
	}
	if resp.Results[0].ID != "1" {
		t.Errorf("top result = %s, want 1", resp.Results[0].ID)
	}
}

func TestHandleAddSingleDocumentAndGeneratedID(t *testing.T) {
	s, eng := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/documents", models.Document{Content: "no id supplied"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d", rec.Code)
	}
	var resp struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.IDs) != 1 || resp.IDs[0] == "" {
		t.Fatalf("generated ids = %v", resp.IDs)
	}
	if eng.Size() != 1 {
		t.Errorf("engine size = %d", eng.Size())
	}
}

func TestHandleSearchValidation(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/search", &SearchRequest{Query: ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query status = %d, want 400", rec.Code)
	}
}

func TestHandleGetAndDelete(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(t, s, http.MethodPost, "/api/v1/documents", []models.Document{{ID: "x", Content: "hello"}})

	rec := doRequest(t, s, http.MethodGet, "/api/v1/documents/x", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var doc models.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID != "x" || doc.Content != "hello" {
		t.Errorf("get body = %+v", doc)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/documents/x", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodDelete, "/api/v1/documents/x", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/api/v1/documents/x", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestHandleExportImportClear(t *testing.T) {
	s, eng := newTestServer(t)
	docs := make([]models.Document, 5)
	for i := range docs {
		docs[i] = models.Document{ID: fmt.Sprintf("d%d", i), Content: fmt.Sprintf("entry %d", i)}
	}
	doRequest(t, s, http.MethodPost, "/api/v1/documents", docs)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	var entries []models.ExportedDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Fatalf("exported %d entries", len(entries))
	}

	rec = doRequest(t, s, http.MethodPost, "/api/v1/clear", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	if eng.Size() != 0 {
		t.Fatal("clear did not empty the engine")
	}

	rec = doRequest(t, s, http.MethodPost, "/api/v1/import", entries)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if eng.Size() != 5 {
		t.Errorf("size after import = %d", eng.Size())
	}
}

func TestHandleStatusAndHealth(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(t, s, http.MethodPost, "/api/v1/documents", []models.Document{{ID: "a", Content: "text"}})

	rec := doRequest(t, s, http.MethodGet, "/api/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var status StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Documents != 1 {
		t.Errorf("status documents = %d", status.Documents)
	}
	if status.Routing != engine.RoutingBruteForce {
		t.Errorf("status routing = %q", status.Routing)
	}

	rec = doRequest(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}

func TestHandleBadJSON(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d, want 400", rec.Code)
	}
}
