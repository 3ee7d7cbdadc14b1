// Package server provides HTTP routing, middleware, and the handlers for every public endpoint.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] is applied so that the first one added runs first. [NewRouter] installs
// [Recoverer], [RequestLogger] and [CORS] in that order.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Flow
//
// [OAuthHandler] serves /login and /callback. The callback never puts a credential in a
// URL: it stages a handoff session and redirects with its short id, which the frontend
// trades for a credential at /session.
//
// # JSON API
//
// [APIHandler] serves /session, /me, /refresh, /room/create, /room/check, /room/join and
// /health. Inputs are decoded into typed request structs and checked with
// go-playground/validator before any work is done.
//
// # Errors
//
// Handlers return errors from the shared taxonomy. [StatusFor] maps them to a status
// code and [DetailFor] to the user-facing message written as {"detail": "..."}.
package server
