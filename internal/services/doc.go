// Package services defines the [Service] interface for the upstream music provider and implements it for Spotify.
//
// # Service Interface
//
// The server only needs the OAuth2 authorization code flow plus read access to a user's
// profile and saved tracks, so the interface stays that narrow.
//
// # Spotify Implementation
//
// [SpotifyService] holds client credentials only. User tokens travel inside signed
// credentials and are passed in on every call, so a single instance serves every user.
//
// Token exchange and refresh go through [golang.org/x/oauth2] with client credentials in
// the Authorization header. Saved tracks are fetched page by page following the next
// pointer, paced by a shared [rate.Limiter].
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrUpstreamUnauthorized] : the access token was rejected (HTTP 401)
//   - [shared.UpstreamStatusError] : any other non-2xx answer, matches [shared.ErrUpstreamStatus]
//   - [shared.ErrExchangeFailed] : authorization code exchange failed
//   - [shared.ErrRefreshFailed] : refresh grant failed
//
// # API Client
//
// [APIClient] talks to a running vibesync server. The CLI uses it for health probes and
// for checking room codes from a terminal.
package services
