// Package models defines the values exchanged between the upstream client, the comparison engine, the pairing registry and the HTTP layer.
//
// Comparison values:
//   - [TrackRecord] : one saved track, normalized from the Spotify saved-tracks payload
//   - [Participant] : the public identity of one side of a comparison
//   - [ComparisonResult] : exclusive and common tracks plus [Stats]
//
// These are fetched or computed per comparison and never stored.
//
// Registry records implement [Staged]:
//   - [Room] : a creator waiting on a six character code
//   - [Handoff] : upstream tokens parked between the OAuth callback and the credential exchange
//   - [OAuthState] : a pending anti-forgery value
//
// Registry records are held in memory only and vanish on restart.
package models
