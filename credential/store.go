package credential

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("credential: user not found")
	// ErrDuplicate is returned when a username or email is already taken.
	ErrDuplicate = errors.New("credential: duplicate login identifier")
	// ErrRefreshMismatch is returned by RotateRefreshToken when the stored
	// token differs from the presented one.
	ErrRefreshMismatch = errors.New("credential: refresh token mismatch")
	// ErrInvalidIdentifier is returned when a username or email breaks the
	// identifier rules checked by User.CheckIdentifiers.
	ErrInvalidIdentifier = errors.New("credential: invalid login identifier")
	// ErrUnavailable wraps backend I/O failures.
	ErrUnavailable = errors.New("credential: store unavailable")
)

// ProfileUpdate carries the non-credential fields that may change after
// registration. Empty fields are left untouched.
type ProfileUpdate struct {
	FullName string
	Email    string
}

// Store is the persistence contract for user records.
//
// All refresh-token writes are single-field atomic updates. RotateRefreshToken
// must compare and overwrite in one operation so concurrent refreshes with the
// same presented token produce exactly one winner.
type Store interface {
	// Create inserts u, assigning u.ID when empty. Identifiers must already be
	// normalized.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByLogin resolves a normalized identifier against username OR email.
	GetByLogin(ctx context.Context, identifier string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error)
	// SetRefreshToken overwrites the stored refresh token unconditionally.
	SetRefreshToken(ctx context.Context, id, token string) error
	// RotateRefreshToken replaces presented with next only when presented is
	// the stored value. Returns ErrRefreshMismatch otherwise.
	RotateRefreshToken(ctx context.Context, id, presented, next string) error
	// ClearRefreshToken removes the stored token. Clearing an empty field
	// succeeds.
	ClearRefreshToken(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
