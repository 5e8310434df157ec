package credential

import (
	"strings"
	"time"
)

// User is the persisted account record. PasswordHash and RefreshToken are only
// mutated through a Store.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Avatar       string
	CoverImage   string
	PasswordHash string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasSession reports whether a refresh token is currently stored.
func (u *User) HasSession() bool {
	return u != nil && u.RefreshToken != ""
}

// NormalizeIdentifier lower-cases and trims a username or email so lookups and
// uniqueness checks are case-insensitive.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Normalize applies NormalizeIdentifier to both login identifiers in place.
func (u *User) Normalize() {
	u.Username = NormalizeIdentifier(u.Username)
	u.Email = NormalizeIdentifier(u.Email)
	u.FullName = strings.TrimSpace(u.FullName)
}

// CheckIdentifiers enforces the shape of both login identifiers. Emails must
// contain "@" and usernames must not, so a username can never equal any
// account's email and a login lookup by either field is unambiguous.
func (u *User) CheckIdentifiers() error {
	switch {
	case u.Username == "", strings.Contains(u.Username, "@"):
		return ErrInvalidIdentifier
	case !IsEmail(u.Email):
		return ErrInvalidIdentifier
	}
	return nil
}

// IsEmail reports whether s has the minimal shape of an email identifier.
func IsEmail(s string) bool {
	local, domain, ok := strings.Cut(s, "@")
	return ok && local != "" && domain != ""
}

// Public returns a copy with credential material removed.
func (u *User) Public() User {
	out := *u
	out.PasswordHash = ""
	out.RefreshToken = ""
	return out
}
