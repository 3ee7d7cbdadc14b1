// package models defines the data model for the library comparison service
package models

import "time"

// TrackRecord is a saved track as returned to clients.
type TrackRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	AlbumArt    string   `json:"album_art,omitempty"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	ExternalURL string   `json:"external_url,omitempty"`
}

// PrimaryArtist returns the first credited artist, or an empty string.
func (t TrackRecord) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// Participant identifies one side of a comparison. It never carries credentials.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Stats summarizes a comparison.
type Stats struct {
	TotalA             int     `json:"total_a"`
	TotalB             int     `json:"total_b"`
	OnlyACount         int     `json:"only_a_count"`
	OnlyBCount         int     `json:"only_b_count"`
	CommonCount        int     `json:"common_count"`
	CompatibilityScore float64 `json:"compatibility_score"`
}

// ComparisonResult is the outcome of comparing two saved-track libraries.
type ComparisonResult struct {
	UserA  Participant   `json:"user_a"`
	UserB  Participant   `json:"user_b"`
	OnlyA  []TrackRecord `json:"only_a"`
	OnlyB  []TrackRecord `json:"only_b"`
	Common []TrackRecord `json:"common"`
	Stats  Stats         `json:"stats"`
}

// Staged is an ephemeral registry record. It lives until it is consumed or its TTL
// measured from StagedAt elapses.
type Staged interface {
	StagedAt() time.Time
}

// Room binds a waiting participant's credential to a short shareable code.
type Room struct {
	Code       string
	OwnerID    string
	OwnerName  string
	Credential string // signed credential of the creator, never returned to other clients
	CreatedAt  time.Time
}

func (r Room) StagedAt() time.Time { return r.CreatedAt }

// Handoff stages the identity and upstream tokens obtained in an OAuth callback until
// the frontend exchanges the handoff id for a credential.
type Handoff struct {
	ID           string
	UserID       string
	DisplayName  string
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
}

func (h Handoff) StagedAt() time.Time { return h.CreatedAt }

// OAuthState is an anti-forgery value handed to the provider's authorize endpoint.
type OAuthState struct {
	Value     string
	CreatedAt time.Time
}

func (s OAuthState) StagedAt() time.Time { return s.CreatedAt }
