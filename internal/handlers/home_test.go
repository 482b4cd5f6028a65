package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHomeRedirectsToLogin(t *testing.T) {
	_, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)
	sessionManager = nil

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	Home(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestHomeRedirectsActiveSessionToApp(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodGet, "/", nil), 3)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	Home(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", w.Code)
	}
	if got := w.Header().Get("HX-Redirect"); got != "/app" {
		t.Fatalf("expected HX-Redirect to /app, got %q", got)
	}
}

func TestHomeUnknownPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
	w := httptest.NewRecorder()
	Home(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
