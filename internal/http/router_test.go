package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gisdesk/ticket-agent/internal/config"
	"github.com/gisdesk/ticket-agent/internal/db"
	"github.com/gisdesk/ticket-agent/internal/export"
	"github.com/gisdesk/ticket-agent/internal/service"
)

func TestRouterServesAPIAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := db.NewMemoryStore()
	analyzer := &service.Analyzer{
		Settings: service.Settings{FallbackToRules: true},
		Export:   export.NewMemorySink(),
		Recorder: store,
		Logger:   zerolog.Nop(),
	}
	cfg := config.Config{CORSAllowed: "*", MaxUploadSizeMB: 1, BulkWorkers: 2}
	r := Router(cfg, analyzer, store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze_ticket",
		strings.NewReader(`{"id":"R1","subject":"Survey123 form","description":"form will not submit"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ticket_agent_http_requests_total") {
		t.Fatalf("http collector missing from metrics output")
	}
}
