package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently truncates beyond this many bytes, so longer input is
// rejected instead.
const bcryptMaxPasswordBytes = 72

// DefaultBcryptCost matches the cost used by digests created before argon2id
// became the default.
const DefaultBcryptCost = 10

const minBcryptCost = 10

// Bcrypt hashes and verifies $2a$/$2b$/$2y$ digests.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. A zero cost selects DefaultBcryptCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < minBcryptCost || cost > bcrypt.MaxCost {
		return nil, errors.New("password bcrypt cost must be between 10 and 31")
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash returns a bcrypt digest of password.
func (b *Bcrypt) Hash(password string) (string, error) {
	if len(password) == 0 {
		return "", ErrEmptyPassword
	}
	if len(password) > bcryptMaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify compares password against a bcrypt digest. A mismatch is (false, nil);
// an unparseable digest is an error.
func (b *Bcrypt) Verify(password, digest string) (bool, error) {
	if len(password) > bcryptMaxPasswordBytes {
		return false, ErrPasswordTooLong
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errors.Join(ErrMalformedDigest, err)
	}
}

// NeedsUpgrade reports whether digest was produced with a lower cost.
func (b *Bcrypt) NeedsUpgrade(digest string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return false, errors.Join(ErrMalformedDigest, err)
	}
	return cost < b.cost, nil
}

func isBcryptDigest(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}
