package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pathce/internal/catalog"
	"pathce/internal/common"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	store, err := catalog.OpenMemory()
	if err != nil {
		t.Fatalf("open memory catalog: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	cache, err := newEstimateCache(16)
	if err != nil {
		t.Fatalf("new estimate cache: %v", err)
	}
	return NewApp(store, cache)
}

func TestHandleCatalogPathsEmpty(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/catalog/paths", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var resp CatalogPaths
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Paths) != 0 {
		t.Errorf("want no paths in an empty catalog, got %d", len(resp.Paths))
	}
}

func TestHandleCatalogStarsEmpty(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/catalog/stars", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

func TestHandleCatalogEdgeCount(t *testing.T) {
	app := newTestApp(t)
	app.store.AddEdgeCount(common.LabelId(3), 42)

	req := httptest.NewRequest(http.MethodGet, "/catalog/edges/3", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp EdgeCount
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 42 {
		t.Errorf("want count 42, got %d", resp.Count)
	}
}

func TestHandleCatalogEdgeCountUnknown(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/catalog/edges/999", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("want 404 for an unregistered edge label, got %d", rec.Code)
	}
}

func TestHandleCatalogEdgeCountInvalidLabel(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/catalog/edges/not-a-number", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for a non-numeric label, got %d", rec.Code)
	}
}

func TestHandleEstimateInvalidJSON(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/estimate", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for a malformed request body, got %d", rec.Code)
	}
}

func TestHandleEstimateInvalidPattern(t *testing.T) {
	app := newTestApp(t)
	body, _ := json.Marshal(EstimateRequest{Pattern: json.RawMessage(`{"vertices":[],"edges":[]}`)})
	req := httptest.NewRequest(http.MethodPost, "/estimate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for an empty pattern, got %d: %s", rec.Code, rec.Body.String())
	}
}
