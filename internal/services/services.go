// package services defines interface Service for interacting with the upstream music provider
package services

import (
	"context"

	"github.com/desertthunder/vibesync/internal/models"
	"golang.org/x/oauth2"
)

// Service defines the operations the application needs from a music provider: the OAuth2
// authorization code flow and read access to a user's profile and saved tracks.
type Service interface {
	// AuthURL returns the provider's authorization URL carrying the given anti-forgery state.
	AuthURL(state string) string

	// Exchange trades an authorization code for upstream tokens.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Refresh trades a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)

	// Profile looks up the user owning accessToken.
	Profile(ctx context.Context, accessToken string) (*Profile, error)

	// AllSavedTracks pages through the user's saved tracks and returns them in library order.
	AllSavedTracks(ctx context.Context, accessToken string) ([]models.TrackRecord, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Profile is the identity of an upstream user.
type Profile struct {
	ID          string
	DisplayName string
}
