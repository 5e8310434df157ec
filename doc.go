// Package tubeAuth verifies user credentials and runs the access/refresh token
// lifecycle of the video platform backend.
//
// An [Engine] is assembled by [Builder.Build] over a credential.Store. It is
// safe for concurrent use.
//
// # Token model
//
// Login issues a short-lived access token and a long-lived refresh token. The
// access token carries the display identity and is verified by [Engine.Authorize]
// without any store round-trip. The refresh token is also persisted on the user
// record; it is the only session state. Each user has at most one live refresh
// token, so a new Login ends any earlier session.
//
// Refresh rotates the pair with a compare-and-set on the stored token. A
// verified token that no longer matches the stored one is treated as reuse:
// [ErrTokenReused] is returned and the stored token is cleared. Logout clears
// it too. Access tokens are never revoked; they expire on their own.
//
// # Boundaries
//
// The package exposes the Engine, its configuration and value types. Flow
// orchestration, audit dispatch, and metric counters live under internal/.
// The HTTP surface lives in httpapi and middleware; sub-packages never import
// this package back except for those two.
package tubeAuth
