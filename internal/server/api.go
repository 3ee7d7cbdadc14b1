package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/auth"
	"github.com/desertthunder/vibesync/internal/pairing"
	"github.com/desertthunder/vibesync/internal/shared"
)

// APIHandler serves the JSON endpoints used by the frontend.
type APIHandler struct {
	authority *auth.Authority
	pairing   *pairing.Service
	logger    *log.Logger
}

// NewAPIHandler creates an [APIHandler].
func NewAPIHandler(authority *auth.Authority, p *pairing.Service, logger *log.Logger) *APIHandler {
	return &APIHandler{
		authority: authority,
		pairing:   p,
		logger:    shared.WithLogger(logger, "component", "api"),
	}
}

// Session exchanges a one-time handoff id for a credential.
func (a *APIHandler) Session(w http.ResponseWriter, r *http.Request) {
	var q SessionQuery
	if err := decodeQuery(r, &q); err != nil {
		writeError(w, err)
		return
	}

	token, err := a.pairing.ConsumeHandoff(q.S)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Me returns the identity carried by a credential.
func (a *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	var q TokenQuery
	if err := decodeQuery(r, &q); err != nil {
		writeError(w, err)
		return
	}

	claims, err := a.authority.Verify(q.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{UserID: claims.Subject, DisplayName: claims.DisplayName})
}

// Refresh re-issues a credential, expired or not, with a renewed upstream access token.
func (a *APIHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	claims, err := a.authority.VerifyIgnoringExpiry(req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := a.authority.Refresh(r.Context(), claims)
	if err != nil {
		a.logger.Warn("credential refresh failed", "user", claims.Subject, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// CreateRoom opens a room for the caller.
func (a *APIHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	ticket, err := a.pairing.CreateRoom(req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RoomCreatedResponse{RoomCode: ticket.Code, ExpiresInMinutes: ticket.ExpiresInMinutes})
}

// CheckRoom reports who is waiting on a code.
func (a *APIHandler) CheckRoom(w http.ResponseWriter, r *http.Request) {
	var q CodeQuery
	if err := decodeQuery(r, &q); err != nil {
		writeError(w, err)
		return
	}

	host, err := a.pairing.CheckRoom(q.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RoomCheckResponse{Valid: true, Host: host})
}

// JoinRoom pairs the caller with the room's creator and returns the comparison.
func (a *APIHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := a.pairing.JoinRoom(r.Context(), req.RoomCode, req.Token)
	if err != nil {
		if StatusFor(err) >= http.StatusInternalServerError {
			a.logger.Error("join failed", "code", shared.NormalizeCode(req.RoomCode), "error", err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Health is the liveness probe.
func (a *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
