// Package password implements password hashing and verification.
//
// # Output formats
//
// New digests default to argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// bcrypt digests ($2a$, $2b$, $2y$) are produced when configured and are always
// accepted by [Hasher.Verify], so records created by earlier deployments keep
// working. [Hasher.NeedsUpgrade] reports digests that use the other family or
// weaker parameters so the caller can re-hash after a successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length) is enforced by the Engine. It never stores, logs or returns
// plaintext, and imports no other tubeAuth package.
package password
