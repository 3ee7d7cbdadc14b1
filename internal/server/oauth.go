package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/auth"
	"github.com/desertthunder/vibesync/internal/pairing"
	"github.com/desertthunder/vibesync/internal/services"
	"github.com/desertthunder/vibesync/internal/shared"
	"golang.org/x/oauth2"
)

// Provider is the part of the upstream OAuth2 provider the login flow needs.
//
// [services.SpotifyService] implements this.
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Profile(ctx context.Context, accessToken string) (*services.Profile, error)
}

// OAuthHandler handles the browser side of the OAuth2 authorization code flow.
// Implements the Handler interface for registration with a Router.
//
// /login redirects to the provider with a fresh single-use state. /callback validates the
// state, exchanges the code, stages a handoff session and redirects to the frontend with
// only the handoff id in the URL.
type OAuthHandler struct {
	provider Provider
	pairing  *pairing.Service
	frontend string
	logger   *log.Logger
}

// NewOAuthHandler creates a new OAuth handler redirecting to the frontend configured in cfg.
func NewOAuthHandler(provider Provider, p *pairing.Service, cfg shared.ServerConfig, logger *log.Logger) *OAuthHandler {
	path := cfg.CallbackPath
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return &OAuthHandler{
		provider: provider,
		pairing:  p,
		frontend: strings.TrimRight(cfg.FrontendURL, "/") + path,
		logger:   shared.WithLogger(logger, "component", "oauth"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/login", "/callback"}
}

// ServeHTTP dispatches to the login or callback step.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	switch r.URL.Path {
	case "/login":
		h.Login(w, r)
	case "/callback":
		h.Callback(w, r)
	default:
		writeDetail(w, http.StatusNotFound, "Not found.")
	}
}

// Login redirects the browser to the provider's consent screen.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.pairing.NewState()
	if err != nil {
		h.logger.Error("failed to create oauth state", "error", err)
		writeError(w, err)
		return
	}

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the authorization code flow.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if denied := r.URL.Query().Get("error"); denied != "" && r.URL.Query().Get("code") == "" {
		h.pairing.ConsumeState(r.URL.Query().Get("state"))
		writeError(w, fmt.Errorf("%w: authorization denied: %s", shared.ErrExchangeFailed, denied))
		return
	}

	var q CallbackQuery
	if err := decodeQuery(r, &q); err != nil {
		writeError(w, err)
		return
	}

	if err := h.pairing.ConsumeState(q.State); err != nil {
		h.logger.Warn("rejected oauth callback", "error", err)
		writeError(w, err)
		return
	}

	token, err := h.provider.Exchange(r.Context(), q.Code)
	if err != nil {
		h.logger.Warn("code exchange failed", "error", err)
		writeError(w, err)
		return
	}

	profile, err := h.provider.Profile(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Warn("profile lookup failed", "error", err)
		writeError(w, err)
		return
	}

	handoff, err := h.pairing.CreateHandoff(auth.Identity{
		UserID:       profile.ID,
		DisplayName:  profile.DisplayName,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	})
	if err != nil {
		h.logger.Error("failed to stage handoff", "error", err)
		writeError(w, err)
		return
	}

	h.logger.Info("login completed", "user", profile.ID)
	http.Redirect(w, r, h.frontend+"?"+url.Values{"s": {handoff}}.Encode(), http.StatusTemporaryRedirect)
}
