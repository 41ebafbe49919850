package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func gatewayServer(cfg SecConfig) http.Handler {
	return AuthenticateRequestMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestGatewayProbeBypass(t *testing.T) {
	h := gatewayServer(SecConfig{}) // no keys, no anonymous play
	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/docs/index.html"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
}

func TestGatewayRejectsKeyless(t *testing.T) {
	h := gatewayServer(SecConfig{})
	req := httptest.NewRequest("GET", "/v1/init", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestGatewayAllowsKeylessWhenConfigured(t *testing.T) {
	h := gatewayServer(SecConfig{AllowUnauth: true})
	req := httptest.NewRequest("GET", "/v1/init", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if got := req.Header.Get("X-Role-Name"); got != "unauth" {
		t.Fatalf("role header: %q", got)
	}
}

func TestGatewayRoleResolution(t *testing.T) {
	cfg := SecConfig{
		BackendKeys:  map[string]struct{}{"bk": {}},
		FrontendKeys: map[string]struct{}{"fk": {}},
		AdminKeys:    map[string]struct{}{"ak": {}},
	}
	h := gatewayServer(cfg)

	cases := []struct {
		key  string
		want string
	}{
		{"bk", "backend"},
		{"fk", "frontend"},
		{"ak", "admin"},
	}
	for _, c := range cases {
		req := httptest.NewRequest("GET", "/v1/init", nil)
		req.Header.Set("Authorization", "Bearer "+c.key)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("key %s: status %d", c.key, rec.Code)
		}
		if got := req.Header.Get("X-Role-Name"); got != c.want {
			t.Fatalf("key %s: role %q", c.key, got)
		}
	}

	// an unrecognized key is rejected outright
	req := httptest.NewRequest("GET", "/v1/init", nil)
	req.Header.Set("X-API-Key", "nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad key status: %d", rec.Code)
	}
}

func TestGatewayFrontendScope(t *testing.T) {
	cfg := SecConfig{FrontendKeys: map[string]struct{}{"fk": {}}}
	h := gatewayServer(cfg)

	req := httptest.NewRequest("DELETE", "/v1/mysteries/london", nil)
	req.Header.Set("X-API-Key", "fk")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("frontend DELETE status: %d", rec.Code)
	}

	req = httptest.NewRequest("POST", "/v1/mysteries/london/main", nil)
	req.Header.Set("X-API-Key", "fk")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("frontend POST status: %d", rec.Code)
	}
}

func TestGatewayIPWhitelist(t *testing.T) {
	cfg := SecConfig{
		AllowUnauth: true,
		IPWhitelist: []string{"192.0.2.1"},
	}
	h := gatewayServer(cfg)

	req := httptest.NewRequest("GET", "/v1/init", nil)
	req.RemoteAddr = "192.0.2.1:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("whitelisted ip status: %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/v1/init", nil)
	req.RemoteAddr = "203.0.113.9:5000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("blocked ip status: %d", rec.Code)
	}
}

func TestGatewayCORSPreflight(t *testing.T) {
	cfg := SecConfig{AllowedOrigins: []string{"https://game.example"}}
	h := gatewayServer(cfg)

	req := httptest.NewRequest("OPTIONS", "/v1/init", nil)
	req.Header.Set("Origin", "https://game.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status: %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://game.example" {
		t.Fatalf("allow-origin: %q", got)
	}

	// unknown origins get no CORS headers
	req = httptest.NewRequest("OPTIONS", "/v1/init", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("allow-origin leaked: %q", got)
	}
}
