package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrValidation = fmt.Errorf("missing required field")

	// Authentication errors
	ErrTokenExpired   = fmt.Errorf("token has expired")
	ErrTokenInvalid   = fmt.Errorf("invalid token")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrInvalidState   = fmt.Errorf("invalid oauth state")

	// Upstream (Spotify) errors
	ErrUpstreamUnauthorized = fmt.Errorf("spotify token expired or invalid")
	ErrExchangeFailed       = fmt.Errorf("failed to exchange code for token")
	ErrUpstreamStatus       = fmt.Errorf("spotify API error")

	// Pairing errors
	ErrRoomNotFound          = fmt.Errorf("room not found or expired")
	ErrSessionNotFound       = fmt.Errorf("session not found or expired")
	ErrSelfComparison        = fmt.Errorf("cannot compare with yourself")
	ErrCreatorSessionExpired = fmt.Errorf("room creator's session expired")
)

// UpstreamStatusError carries the status code of a non-2xx upstream response.
//
// It matches [ErrUpstreamStatus] with errors.Is.
type UpstreamStatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%v: status %d from %s", ErrUpstreamStatus, e.StatusCode, e.Endpoint)
}

func (e *UpstreamStatusError) Is(target error) bool {
	return target == ErrUpstreamStatus
}
