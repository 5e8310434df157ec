// Package middleware exposes HTTP guards built on tubeAuth.Engine.Authorize.
//
// # Guards
//
//   - [Guard] verifies the access token only. No store access.
//   - [RequireStrict] additionally loads the account, rejecting tokens whose
//     user no longer exists.
//
// The access token is read from the access cookie first, then from an
// "Authorization: Bearer" header. The verified identity is placed in the
// request context with tubeAuth.WithIdentity.
//
// This package translates HTTP semantics into Engine calls. It does not parse
// tokens or make decisions beyond pass/reject.
package middleware
