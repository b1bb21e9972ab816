package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	apiContext "slugr/internal/api/context"
	"slugr/internal/engine/resolve"
)

func resolveRequest(slug string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/r/"+slug, nil)
	params := httprouter.Params{{Key: "slug", Value: slug}}
	ctx := context.WithValue(req.Context(), apiContext.Params, params)
	return req.WithContext(ctx)
}

func TestResolveHandler(t *testing.T) {
	resolver := &fakeResolver{resolutions: map[string]resolve.Resolution{
		"mi-link":  {State: resolve.StateValid, URL: "https://example.com"},
		"old-link": {State: resolve.StateExpired},
	}}
	handler := NewResolveHandler(resolver)

	rec := httptest.NewRecorder()
	handler.Handle(rec, resolveRequest("mi-link"))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["url"] != "https://example.com" {
		t.Errorf("Unexpected url: %s", body["url"])
	}

	rec = httptest.NewRecorder()
	handler.Handle(rec, resolveRequest("old-link"))
	if rec.Code != http.StatusGone {
		t.Errorf("Expected 410 for expired, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Handle(rec, resolveRequest("missing"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown slug, got %d", rec.Code)
	}
}
