// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAccountsURL = "https://accounts.spotify.com"
	spotifyBaseURL     = "https://api.spotify.com/v1"
	savedTracksLimit   = 50 // Spotify max per page
)

var spotifyScopes = []string{
	"user-library-read",
	"user-read-private",
	"user-read-email",
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []SpotifyArtist   `json:"artists"`
	Album        SpotifyAlbum      `json:"album"`
	DurationMS   int               `json:"duration_ms"`
	PreviewURL   *string           `json:"preview_url"`
	ExternalURLs map[string]string `json:"external_urls"`
	URI          string            `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifySavedTrack `json:"items"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

// SpotifySavedTrack represents a track saved in the user's library.
//
// Track is nil for items Spotify can no longer resolve.
type SpotifySavedTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyOpts contains optional settings for [NewSpotifyService].
type SpotifyOpts struct {
	HTTPClient        *http.Client // Client for API and token requests (default: http.DefaultClient)
	RequestsPerSecond float64      // Shared pacing across all page requests (default: unlimited)
	PageSize          int          // Saved tracks per page, capped at 50
}

// SpotifyService implements the Service interface for Spotify API interactions.
//
// It holds no user tokens: every API call takes the caller's access token, so one
// instance serves all users.
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(creds shared.SpotifyConfig, opts SpotifyOpts) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrInvalidConfig)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrInvalidConfig)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:8000/callback"
	}
	accountsURL := strings.TrimRight(creds.AccountsURL, "/")
	if accountsURL == "" {
		accountsURL = spotifyAccountsURL
	}
	baseURL := strings.TrimRight(creds.APIURL, "/")
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.PageSize <= 0 || opts.PageSize > savedTracksLimit {
		opts.PageSize = savedTracksLimit
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   accountsURL + "/authorize",
			TokenURL:  accountsURL + "/api/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SpotifyService{
		config:     config,
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
		pageSize:   opts.PageSize,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for user login.
//
// show_dialog forces the consent screen so a second person on the same browser can pick their own account.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// oauthContext makes the oauth2 package use this service's HTTP client.
func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// Exchange trades an authorization code for tokens. Client credentials are sent with HTTP basic auth.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}
	return token, nil
}

// Refresh trades a refresh token for a new access token.
//
// When Spotify does not rotate the refresh token the returned token carries the one passed in.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := s.config.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

// doRequest performs an authenticated GET against the Spotify API and decodes the JSON body into result.
//
// target is either an endpoint relative to the API base or an absolute URL taken from a paging object.
func (s *SpotifyService) doRequest(ctx context.Context, accessToken, target string, result any) error {
	apiURL := target
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		apiURL = s.baseURL + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return shared.ErrUpstreamUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &shared.UpstreamStatusError{StatusCode: resp.StatusCode, Endpoint: endpointOf(apiURL)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the profile of the user owning accessToken.
func (s *SpotifyService) UserProfile(ctx context.Context, accessToken string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, accessToken, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Profile implements [Service]. The display name falls back to the user id.
func (s *SpotifyService) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	user, err := s.UserProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	return &Profile{ID: user.ID, DisplayName: name}, nil
}

// SavedTracks retrieves one page of saved tracks. An empty pageURL requests the first page.
func (s *SpotifyService) SavedTracks(ctx context.Context, accessToken, pageURL string) (*SpotifyPaginatedTracks, error) {
	if pageURL == "" {
		pageURL = fmt.Sprintf("/me/tracks?limit=%d&offset=0", s.pageSize)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, accessToken, pageURL, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// AllSavedTracks follows the next pointer of each page until it is null and flattens the pages.
//
// Items without a resolvable track are skipped. An expired access token fails the whole fetch.
func (s *SpotifyService) AllSavedTracks(ctx context.Context, accessToken string) ([]models.TrackRecord, error) {
	var tracks []models.TrackRecord
	next := ""

	for {
		page, err := s.SavedTracks(ctx, accessToken, next)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, toTrackRecord(item.Track))
		}

		if page.Next == nil || *page.Next == "" || *page.Next == next {
			break
		}
		next = *page.Next
	}

	return tracks, nil
}

func toTrackRecord(t *SpotifyTrack) models.TrackRecord {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	record := models.TrackRecord{
		ID:          t.ID,
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		ExternalURL: t.ExternalURLs["spotify"],
	}
	if len(t.Album.Images) > 0 {
		record.AlbumArt = t.Album.Images[0].URL
	}
	if t.PreviewURL != nil {
		record.PreviewURL = *t.PreviewURL
	}
	return record
}

func endpointOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
