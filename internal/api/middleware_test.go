package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	cfg := testConfig()
	cfg.BearerToken = "secret-token"
	srv := testServer(cfg)

	called := false
	handler := srv.withAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if called {
		t.Error("handler should not have been called without auth")
	}

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Error != "missing authorization header" {
		t.Errorf("expected error 'missing authorization header', got '%s'", resp.Error)
	}
}

func TestAuthMiddlewareInvalidFormat(t *testing.T) {
	cfg := testConfig()
	cfg.BearerToken = "secret-token"
	srv := testServer(cfg)

	called := false
	handler := srv.withAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz") // Basic auth format
	w := httptest.NewRecorder()

	handler(w, req)

	if called {
		t.Error("handler should not have been called with invalid auth format")
	}

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	cfg := testConfig()
	cfg.BearerToken = "secret-token"
	srv := testServer(cfg)

	called := false
	handler := srv.withAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()

	handler(w, req)

	if called {
		t.Error("handler should not have been called with invalid token")
	}

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Error != "invalid token" {
		t.Errorf("expected error 'invalid token', got '%s'", resp.Error)
	}
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	cfg := testConfig()
	cfg.BearerToken = "secret-token"
	srv := testServer(cfg)

	called := false
	handler := srv.withAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w := httptest.NewRecorder()

	handler(w, req)

	if !called {
		t.Error("handler should have been called with valid token")
	}

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestAuthMiddlewareNoBearerConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.BearerToken = "" // No token configured
	srv := testServer(cfg)

	called := false
	handler := srv.withAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	// No authorization header
	w := httptest.NewRecorder()

	handler(w, req)

	if !called {
		t.Error("handler should have been called when no bearer token is configured")
	}

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestAuthMiddlewareCaseInsensitiveBearer(t *testing.T) {
	cfg := testConfig()
	cfg.BearerToken = "secret-token"
	srv := testServer(cfg)

	called := false
	handler := srv.withAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "bearer secret-token") // lowercase 'bearer'
	w := httptest.NewRecorder()

	handler(w, req)

	if !called {
		t.Error("handler should have been called with lowercase 'bearer'")
	}

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestCORSPreflightAllowAll(t *testing.T) {
	srv := testServer(testConfig())

	req := httptest.NewRequest("OPTIONS", "/api/tts", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("Access-Control-Allow-Headers = %q, want Authorization listed", got)
	}
}

func TestCORSSpecificOrigins(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://app.example"}
	srv := testServer(cfg)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"allowed preflight", "OPTIONS", "https://app.example", http.StatusNoContent, "https://app.example"},
		{"disallowed preflight", "OPTIONS", "https://evil.example", http.StatusForbidden, ""},
		{"allowed get", "GET", "https://app.example", http.StatusOK, "https://app.example"},
		{"disallowed get", "GET", "https://evil.example", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/healthz", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			srv.Handler().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestRequestIDGenerated(t *testing.T) {
	srv := testServer(testConfig())

	req := httptest.NewRequest("GET", "/v1/healthz", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected generated UUID request ID, got %q", id)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv := testServer(testConfig())

	var seen string
	handler := srv.withRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "client-id-42")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if seen != "client-id-42" {
		t.Errorf("context request ID = %q, want client-id-42", seen)
	}
	if got := w.Header().Get(RequestIDHeader); got != "client-id-42" {
		t.Errorf("response request ID = %q, want client-id-42", got)
	}
}

func TestRequestIDTooLongReplaced(t *testing.T) {
	srv := testServer(testConfig())

	req := httptest.NewRequest("GET", "/v1/healthz", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if _, err := uuid.Parse(w.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("expected oversized request ID to be replaced, got %q", w.Header().Get(RequestIDHeader))
	}
}
