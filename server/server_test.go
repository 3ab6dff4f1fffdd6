package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/medreconcile/medreconcile-api/auth"
	"github.com/medreconcile/medreconcile-api/config"
	"github.com/medreconcile/medreconcile-api/data"
	"github.com/medreconcile/medreconcile-api/gateway/rxnav"
	"github.com/medreconcile/medreconcile-api/gateway/simplify"
	"github.com/medreconcile/medreconcile-api/gateway/vision"
	"github.com/medreconcile/medreconcile-api/health"
	"github.com/medreconcile/medreconcile-api/store"
	"github.com/medreconcile/medreconcile-api/validation"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Port:            "8000",
		Address:         "127.0.0.1",
		Env:             "test",
		MaxRequestBody:  1 << 20,
		RefreshInterval: 24 * time.Hour,
	}

	container := data.NewContainer()
	records := store.NewMemoryStore()

	return NewServer(cfg, Dependencies{
		Provider:      container,
		Terminology:   rxnav.NewStaticGateway(),
		Scanner:       vision.NewStaticScanner(),
		Simplifier:    simplify.NewStaticSimplifier(),
		Records:       records,
		Authenticator: auth.NewDevAuthenticator(),
		Checker:       health.NewChecker(container, records, cfg.RefreshInterval),
		Validator:     validation.NewValidator(),
	})
}

func TestRoutesRespond(t *testing.T) {
	srv := testServer(t)

	analysisBody := `{"medications":[{"name":"Warfarin","dosage":"5mg"},{"name":"Aspirin","dosage":"81mg"}],"patient_factors":{"age":70}}`

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"appropriateness", http.MethodPost, "/analysis/appropriateness", analysisBody, http.StatusOK},
		{"dosages", http.MethodPost, "/analysis/dosages", analysisBody, http.StatusOK},
		{"regimen", http.MethodPost, "/analysis/regimen", analysisBody, http.StatusOK},
		{"reconcile", http.MethodPost, "/analysis/reconcile", analysisBody, http.StatusOK},
		{"interactions", http.MethodPost, "/analysis/interactions", analysisBody, http.StatusOK},
		{"evidence lookup", http.MethodGet, "/evidence/metformin", "", http.StatusOK},
		{"simplify", http.MethodPost, "/tools/simplify", `{"text":"take po twice daily"}`, http.StatusOK},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"records unauthenticated", http.MethodGet, "/records/medications", "", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("%s %s = %d, want %d (body %s)", tc.method, tc.path, rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestRecordsRouteWithDevAuth(t *testing.T) {
	srv := testServer(t)

	body, _ := json.Marshal(map[string]any{
		"medication": map[string]string{"name": "Lisinopril", "dosage": "10mg"},
	})
	req := httptest.NewRequest(http.MethodPost, "/records/medications", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	srv := testServer(t)

	big := strings.Repeat("a", 2<<20)
	req := httptest.NewRequest(http.MethodPost, "/analysis/dosages", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestRealIPMiddleware(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	RealIPMiddleware(inner).ServeHTTP(httptest.NewRecorder(), req)

	if seen != "203.0.113.7" {
		t.Errorf("RemoteAddr = %q, want first forwarded IP", seen)
	}
}

func TestRateLimiterExhaustion(t *testing.T) {
	rl := NewRateLimiter()
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var limited bool
	for i := 0; i < 30; i++ {
		req := httptest.NewRequest(http.MethodPost, "/analysis/reconcile", nil)
		req.RemoteAddr = "198.51.100.2:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Errorf("expected rate limit to trigger on repeated expensive requests")
	}
}

func TestTokenCost(t *testing.T) {
	tests := []struct {
		path string
		want int64
	}{
		{"/health", 1},
		{"/metrics", 1},
		{"/analysis/reconcile", 100},
		{"/tools/scan", 50},
		{"/analysis/dosages", 30},
		{"/evidence/metformin", 20},
		{"/records/medications", 10},
		{"/other", 20},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if got := tokenCost(req); got != tc.want {
			t.Errorf("tokenCost(%q) = %d, want %d", tc.path, got, tc.want)
		}
	}
}
