package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fakeServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"detail": "down"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/room/check", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("code") != "ABC234" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Room not found or expired. Ask your friend to generate a new code."})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"valid": true, "host": "Alice"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	t.Run("healthy server", func(t *testing.T) {
		srv := fakeServer(t, true)
		output := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Output: output, HTTPClient: srv.Client()})

		if err := run(r, "health", "--url", srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "is healthy") {
			t.Errorf("unexpected output: %q", output.String())
		}
	})

	t.Run("unhealthy server", func(t *testing.T) {
		srv := fakeServer(t, false)
		r := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, HTTPClient: srv.Client()})

		err := run(r, "health", "--url", srv.URL)
		if err == nil || !strings.Contains(err.Error(), "not healthy") {
			t.Errorf("expected health error, got %v", err)
		}
	})
}

func TestRoomCheck(t *testing.T) {
	srv := fakeServer(t, true)

	t.Run("waiting room", func(t *testing.T) {
		output := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Output: output, HTTPClient: srv.Client()})

		if err := run(r, "room", "check", "--url", srv.URL, "ABC234"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := output.String(); !strings.Contains(got, "ABC234") || !strings.Contains(got, "Alice") {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("unknown room", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, HTTPClient: srv.Client()})

		err := run(r, "room", "check", "--url", srv.URL, "zzzzzz")
		if err == nil || !strings.Contains(err.Error(), "ZZZZZZ") || !strings.Contains(err.Error(), "Room not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("missing code", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, HTTPClient: srv.Client()})

		if err := run(r, "room", "check", "--url", srv.URL); err == nil {
			t.Error("expected error for missing code")
		}
	})
}
