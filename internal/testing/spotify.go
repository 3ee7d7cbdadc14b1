package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/vibesync/internal/models"
)

const (
	FakeClientID     = "test_client_id"
	FakeClientSecret = "test_client_secret"
)

// FakeUser is a Spotify account served by [FakeSpotify].
type FakeUser struct {
	ID          string
	DisplayName string
	Tracks      []models.TrackRecord
	NullItems   int // items with a null track payload, served on the first page
	FailStatus  int // when set, every saved-tracks page after the first fails with this status
}

// Grant is the token pair handed out by the fake token endpoint.
type Grant struct {
	AccessToken  string
	RefreshToken string
}

// FakeSpotify serves the subset of the Spotify accounts and Web API used by this module.
//
// Accounts endpoints live under /authorize and /api/token, API endpoints under /v1.
type FakeSpotify struct {
	Server *httptest.Server

	mu        sync.Mutex
	users     map[string]*FakeUser // access token -> user
	codes     map[string]Grant     // authorization code -> grant
	refreshes map[string]Grant     // refresh token -> grant
	pageSize  int
	requests  map[string]int
}

// NewFakeSpotify starts a fake Spotify server that is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()
	f := &FakeSpotify{
		users:     make(map[string]*FakeUser),
		codes:     make(map[string]Grant),
		refreshes: make(map[string]Grant),
		pageSize:  2,
		requests:  make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", f.token)
	mux.HandleFunc("/v1/me", f.me)
	mux.HandleFunc("/v1/me/tracks", f.tracks)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake accounts service.
func (f *FakeSpotify) URL() string { return f.Server.URL }

// APIURL returns the base URL of the fake Web API.
func (f *FakeSpotify) APIURL() string { return f.Server.URL + "/v1" }

// AddUser makes user reachable with accessToken.
func (f *FakeSpotify) AddUser(accessToken string, user FakeUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[accessToken] = &user
}

// AddCode registers an authorization code.
func (f *FakeSpotify) AddCode(code string, g Grant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = g
}

// AddRefresh registers a refresh token. An empty Grant.RefreshToken means no rotation.
func (f *FakeSpotify) AddRefresh(refreshToken string, g Grant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes[refreshToken] = g
}

// SetPageSize changes the maximum page size the fake honours.
func (f *FakeSpotify) SetPageSize(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageSize = n
}

// Requests returns how many requests hit path.
func (f *FakeSpotify) Requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *FakeSpotify) count(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[r.URL.Path]++
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *FakeSpotify) token(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok || id != FakeClientID || secret != FakeClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	f.mu.Lock()
	var (
		g     Grant
		found bool
	)
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		g, found = f.codes[r.PostForm.Get("code")]
		delete(f.codes, r.PostForm.Get("code"))
	case "refresh_token":
		g, found = f.refreshes[r.PostForm.Get("refresh_token")]
	}
	f.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}

	body := map[string]any{
		"access_token": g.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
		"scope":        "user-library-read user-read-private user-read-email",
	}
	if g.RefreshToken != "" {
		body["refresh_token"] = g.RefreshToken
	}
	writeJSON(w, http.StatusOK, body)
}

func (f *FakeSpotify) user(r *http.Request) *FakeUser {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[token]
}

func (f *FakeSpotify) me(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	u := f.user(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"status": 401, "message": "Invalid access token"}})
		return
	}

	var name any
	if u.DisplayName != "" {
		name = u.DisplayName
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "display_name": name})
}

func (f *FakeSpotify) tracks(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	u := f.user(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"status": 401, "message": "The access token expired"}})
		return
	}

	f.mu.Lock()
	maxPage := f.pageSize
	f.mu.Unlock()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxPage {
		limit = maxPage
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if offset > 0 && u.FailStatus != 0 {
		writeJSON(w, u.FailStatus, map[string]any{"error": map[string]any{"status": u.FailStatus}})
		return
	}

	items := []map[string]any{}
	if offset == 0 {
		for i := 0; i < u.NullItems; i++ {
			items = append(items, map[string]any{"added_at": "2024-01-01T00:00:00Z", "track": nil})
		}
	}

	end := min(offset+limit, len(u.Tracks))
	for i := offset; i < end; i++ {
		items = append(items, map[string]any{
			"added_at": "2024-01-01T00:00:00Z",
			"track":    trackJSON(u.Tracks[i]),
		})
	}

	var next any
	if end < len(u.Tracks) {
		next = fmt.Sprintf("http://%s/v1/me/tracks?limit=%d&offset=%d", r.Host, limit, end)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  len(u.Tracks),
		"limit":  limit,
		"offset": offset,
		"next":   next,
	})
}

func trackJSON(t models.TrackRecord) map[string]any {
	artists := make([]map[string]any, 0, len(t.Artists))
	for i, a := range t.Artists {
		artists = append(artists, map[string]any{"id": fmt.Sprintf("%s-artist-%d", t.ID, i), "name": a})
	}

	images := []map[string]any{}
	if t.AlbumArt != "" {
		images = append(images, map[string]any{"url": t.AlbumArt, "height": 640, "width": 640})
	}

	var preview any
	if t.PreviewURL != "" {
		preview = t.PreviewURL
	}

	external := map[string]string{}
	if t.ExternalURL != "" {
		external["spotify"] = t.ExternalURL
	}

	return map[string]any{
		"id":            t.ID,
		"name":          t.Name,
		"artists":       artists,
		"album":         map[string]any{"id": t.ID + "-album", "name": t.Album, "images": images},
		"duration_ms":   180000,
		"preview_url":   preview,
		"external_urls": external,
		"uri":           "spotify:track:" + t.ID,
	}
}

// Track builds a [models.TrackRecord] with a single artist for tests.
func Track(id, name, artist string) models.TrackRecord {
	return models.TrackRecord{
		ID:      id,
		Name:    name,
		Artists: []string{artist},
		Album:   name + " (Album)",
	}
}

// Tracks builds n tracks with ids prefix-0..prefix-(n-1).
func Tracks(prefix string, n int) []models.TrackRecord {
	out := make([]models.TrackRecord, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d", prefix, i)
		out = append(out, Track(id, "Song "+id, "Artist "+id))
	}
	return out
}
