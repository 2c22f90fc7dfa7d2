package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestShutdownHandlerRequiresToken(t *testing.T) {
	srv := &http.Server{}
	h := shutdownHandler("secret", srv)

	cases := []struct {
		method, token string
		want          int
	}{
		{http.MethodGet, "secret", http.StatusMethodNotAllowed},
		{http.MethodPost, "", http.StatusUnauthorized},
		{http.MethodPost, "wrong", http.StatusUnauthorized},
		{http.MethodPost, "secret", http.StatusOK},
	}
	for _, c := range cases {
		req := httptest.NewRequest(c.method, "/shutdown", nil)
		req.RemoteAddr = "127.0.0.1:5555"
		if c.token != "" {
			req.Header.Set("X-Shutdown-Token", c.token)
		}
		rec := httptest.NewRecorder()
		h(rec, req)
		if rec.Code != c.want {
			t.Fatalf("%s token=%q: code=%d want %d", c.method, c.token, rec.Code, c.want)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/shutdown", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	req.Header.Set("X-Shutdown-Token", "secret")
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote caller: code=%d", rec.Code)
	}
}

func TestClip(t *testing.T) {
	if got := clip("  Software Engineer Intern  ", 8); got != "Softwar…" {
		t.Fatalf("clip=%q", got)
	}
	if got := clip("short", 8); got != "short" {
		t.Fatalf("clip=%q", got)
	}
}
