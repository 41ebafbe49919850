package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/VulcanWM/threadofclues/pkg/config"
)

func TestBuildSecConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Security.CORS.AllowedOrigins = []string{"https://game.example"}
	cfg.Security.RateLimit.RPS = 2
	cfg.Security.RateLimit.Burst = 4
	cfg.Security.APIKeys.Backend = []string{"bk1", "bk2"}
	cfg.Security.APIKeys.Frontend = []string{"fk"}
	cfg.Security.APIKeys.Admin = []string{"ak"}
	cfg.Security.APIKeys.AllowUnauth = true

	sec := buildSecConfig(cfg)

	if len(sec.BackendKeys) != 2 {
		t.Fatalf("backend keys: %v", sec.BackendKeys)
	}
	if _, ok := sec.BackendKeys["bk1"]; !ok {
		t.Fatalf("bk1 missing: %v", sec.BackendKeys)
	}
	if _, ok := sec.FrontendKeys["fk"]; !ok {
		t.Fatalf("frontend keys: %v", sec.FrontendKeys)
	}
	if _, ok := sec.AdminKeys["ak"]; !ok {
		t.Fatalf("admin keys: %v", sec.AdminKeys)
	}
	if !sec.AllowUnauth || sec.RPS != 2 || sec.Burst != 4 {
		t.Fatalf("scalar fields: %+v", sec)
	}
	if len(sec.AllowedOrigins) != 1 || sec.AllowedOrigins[0] != "https://game.example" {
		t.Fatalf("origins: %v", sec.AllowedOrigins)
	}
}

func TestHealthEndpoints(t *testing.T) {
	a := &App{version: "1.2.3", commit: "abcdef0", buildDate: "2026-09-01"}
	h := a.setupHTTPHandlers(buildSecConfig(&config.Config{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if body["version"] != "1.2.3" || body["commit"] != "abcdef0" || body["build_date"] != "2026-09-01" {
		t.Fatalf("healthz body: %v", body)
	}

	// no store opened: not ready
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status: %d", rec.Code)
	}
}
