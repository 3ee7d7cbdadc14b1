// package server contains the router, middleware & handlers for the library comparison web service
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/auth"
	"github.com/desertthunder/vibesync/internal/pairing"
	"github.com/desertthunder/vibesync/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, panic recovery and CORS.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own several routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config    *shared.Config
	Provider  Provider
	Authority *auth.Authority
	Pairing   *pairing.Service
	Logger    *log.Logger
}

// NewRouter registers every endpoint behind the standard middleware stack.
func NewRouter(d Deps) *BasicRouter {
	logger := d.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	r := NewBasicRouter()
	r.Use(
		Recoverer(logger),
		RequestLogger(logger),
		CORS(d.Config.Server.AllowedOrigins),
	)

	r.Handler(NewOAuthHandler(d.Provider, d.Pairing, d.Config.Server, logger))

	api := NewAPIHandler(d.Authority, d.Pairing, logger)
	r.Handle(http.MethodGet, "/session", http.HandlerFunc(api.Session))
	r.Handle(http.MethodGet, "/me", http.HandlerFunc(api.Me))
	r.Handle(http.MethodPost, "/refresh", http.HandlerFunc(api.Refresh))
	r.Handle(http.MethodPost, "/room/create", http.HandlerFunc(api.CreateRoom))
	r.Handle(http.MethodGet, "/room/check", http.HandlerFunc(api.CheckRoom))
	r.Handle(http.MethodPost, "/room/join", http.HandlerFunc(api.JoinRoom))
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(api.Health))
	r.NotFound()

	return r
}

// NewHTTPServer creates the listening server for handler.
//
// There is no write timeout: a join waits on two full library fetches.
func NewHTTPServer(cfg shared.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
