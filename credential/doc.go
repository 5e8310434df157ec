// Package credential defines the user record that owns a password hash and the
// single currently-valid refresh token, together with the Store contract that
// persistence backends implement.
//
// # Architecture boundaries
//
// This package is a leaf: it holds the model, the Store interface, store errors
// and identifier normalization. Backends live in sub-packages
// (credential/mongostore, credential/redisstore).
//
// # What this package must NOT do
//
//   - Hash passwords or sign tokens.
//   - Import tubeAuth or any sibling package.
package credential
