package password

import (
	"fmt"
	"strings"
)

// Algorithm names a supported digest family.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// HasherConfig selects the algorithm used for new digests. Both families are
// always accepted by Verify.
type HasherConfig struct {
	Algorithm  Algorithm
	Argon2     Config
	BcryptCost int
}

// Hasher produces digests with the preferred algorithm and verifies digests of
// either family by prefix.
//
// Hasher is safe for concurrent use.
type Hasher struct {
	preferred Algorithm
	argon     *Argon2
	bcrypt    *Bcrypt
}

// NewHasher builds a Hasher. An empty Algorithm selects argon2id.
func NewHasher(cfg HasherConfig) (*Hasher, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmArgon2id
	}
	if cfg.Algorithm != AlgorithmArgon2id && cfg.Algorithm != AlgorithmBcrypt {
		return nil, fmt.Errorf("password: unsupported algorithm %q", cfg.Algorithm)
	}

	argon, err := NewArgon2(cfg.Argon2)
	if err != nil {
		return nil, err
	}
	bc, err := NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	return &Hasher{
		preferred: cfg.Algorithm,
		argon:     argon,
		bcrypt:    bc,
	}, nil
}

// Algorithm returns the algorithm used by Hash.
func (h *Hasher) Algorithm() Algorithm {
	return h.preferred
}

// Hash returns a salted digest of plaintext. It fails only on empty input,
// oversized input or an entropy read failure.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if h.preferred == AlgorithmBcrypt {
		return h.bcrypt.Hash(plaintext)
	}
	return h.argon.Hash(plaintext)
}

// Verify reports whether plaintext matches digest. Unknown, truncated or
// otherwise malformed digests yield false.
func (h *Hasher) Verify(plaintext, digest string) bool {
	var (
		ok  bool
		err error
	)
	switch {
	case strings.HasPrefix(digest, argon2Prefix):
		ok, err = h.argon.Verify(plaintext, digest)
	case isBcryptDigest(digest):
		ok, err = h.bcrypt.Verify(plaintext, digest)
	default:
		return false
	}
	return err == nil && ok
}

// NeedsUpgrade reports whether digest should be replaced on the next
// successful login: it uses the non-preferred family or weaker parameters.
// Malformed digests never need an upgrade since they never verify.
func (h *Hasher) NeedsUpgrade(digest string) bool {
	switch {
	case strings.HasPrefix(digest, argon2Prefix):
		if h.preferred != AlgorithmArgon2id {
			return true
		}
		upgrade, err := h.argon.NeedsUpgrade(digest)
		return err == nil && upgrade
	case isBcryptDigest(digest):
		if h.preferred != AlgorithmBcrypt {
			return true
		}
		upgrade, err := h.bcrypt.NeedsUpgrade(digest)
		return err == nil && upgrade
	default:
		return false
	}
}
