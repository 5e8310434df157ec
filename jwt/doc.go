// Package jwt issues and verifies the two token kinds used by tubeAuth: short
// lived access tokens carrying display identity, and refresh tokens carrying
// only the user id and a random jti.
//
// Each kind has its own signing context (key, algorithm, TTL). Parse errors are
// reduced to four sentinels so callers never depend on the underlying library.
package jwt
