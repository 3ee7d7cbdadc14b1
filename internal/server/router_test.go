package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubHandler struct{ routes []string }

func (s stubHandler) Routes() []string { return s.routes }

func (s stubHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: r.URL.Path})
}

func TestBasicRouter(t *testing.T) {
	var order []string
	trace := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewBasicRouter()
	r.Use(trace("first"), trace("second"))
	r.Handle(http.MethodPost, "/room/create", okHandler())
	r.Handler(stubHandler{routes: []string{"/a", "/b"}})
	r.NotFound()

	tests := []struct {
		name   string
		method string
		path   string
		status int
		allow  string
	}{
		{name: "Registered Route", method: http.MethodPost, path: "/room/create", status: http.StatusOK},
		{name: "Wrong Method", method: http.MethodGet, path: "/room/create", status: http.StatusMethodNotAllowed, allow: http.MethodPost},
		{name: "Custom Handler", method: http.MethodGet, path: "/b", status: http.StatusOK},
		{name: "Unknown Path", method: http.MethodGet, path: "/missing", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order = nil
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if got := rec.Header().Get("Allow"); got != tt.allow {
				t.Errorf("expected Allow %q, got %q", tt.allow, got)
			}
			if len(order) != 2 || order[0] != "first" || order[1] != "second" {
				t.Errorf("expected middleware in registration order, got %v", order)
			}
		})
	}
}
