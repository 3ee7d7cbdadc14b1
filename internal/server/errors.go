package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/vibesync/internal/shared"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// StatusFor maps an error to the HTTP status returned to clients.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shared.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrTokenExpired),
		errors.Is(err, shared.ErrTokenInvalid),
		errors.Is(err, shared.ErrNoRefreshToken),
		errors.Is(err, shared.ErrRefreshFailed),
		errors.Is(err, shared.ErrInvalidState),
		errors.Is(err, shared.ErrCreatorSessionExpired),
		errors.Is(err, shared.ErrUpstreamUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrRoomNotFound), errors.Is(err, shared.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrSelfComparison), errors.Is(err, shared.ErrExchangeFailed):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUpstreamStatus):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DetailFor returns the message shown to the user for err. Internal errors are not described.
func DetailFor(err error) string {
	var statusErr *shared.UpstreamStatusError

	switch {
	case errors.Is(err, shared.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), shared.ErrValidation.Error())
		msg = strings.TrimPrefix(msg, ": ")
		if msg == "" {
			return "A required field is missing."
		}
		return msg
	case errors.Is(err, shared.ErrTokenExpired):
		return "Token has expired. Please log in again."
	case errors.Is(err, shared.ErrTokenInvalid):
		return "Invalid token. Please log in again."
	case errors.Is(err, shared.ErrNoRefreshToken):
		return "No refresh token available. Please log in again."
	case errors.Is(err, shared.ErrRefreshFailed):
		return "Spotify refresh failed. Please log in again."
	case errors.Is(err, shared.ErrInvalidState):
		return "Invalid OAuth state. Please start the login again."
	case errors.Is(err, shared.ErrCreatorSessionExpired):
		return "Room creator's session expired. Ask them to log in again."
	case errors.Is(err, shared.ErrUpstreamUnauthorized):
		return "Spotify session expired. Please log in again."
	case errors.Is(err, shared.ErrRoomNotFound):
		return "Room not found or expired. Ask your friend to generate a new code."
	case errors.Is(err, shared.ErrSessionNotFound):
		return "Session not found or expired. Please log in again."
	case errors.Is(err, shared.ErrSelfComparison):
		return "You can't compare with yourself!"
	case errors.Is(err, shared.ErrExchangeFailed):
		return "Failed to exchange code for token."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Spotify API error (status %d). Please try again.", statusErr.StatusCode)
	default:
		return "Internal server error."
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// writeError classifies err and writes it as a JSON error body.
func writeError(w http.ResponseWriter, err error) {
	writeDetail(w, StatusFor(err), DetailFor(err))
}
