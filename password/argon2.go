package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Prefix = "$argon2id$"

	// DefaultMaxPasswordBytes bounds argon2 input when Config leaves it unset.
	DefaultMaxPasswordBytes = 1024
)

// Floors for both configured and stored parameters. A stored digest below
// them is treated as malformed.
const (
	floorMemoryKB    = 8 * 1024
	floorTime        = 1
	floorParallelism = 1
	floorSaltBytes   = 16
	floorKeyBytes    = 16
)

var (
	// ErrEmptyPassword is returned by Hash for zero-length input.
	ErrEmptyPassword = errors.New("password: empty password")
	// ErrPasswordTooLong is returned when input exceeds the configured maximum.
	ErrPasswordTooLong = errors.New("password: password exceeds maximum length")
	// ErrMalformedDigest is returned when a stored digest cannot be parsed.
	ErrMalformedDigest = errors.New("password: malformed digest")
)

// Config holds argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

func (c Config) validate() error {
	switch {
	case c.Memory < floorMemoryKB:
		return fmt.Errorf("password: argon2 memory must be >= %d KiB", floorMemoryKB)
	case c.Time < floorTime:
		return errors.New("password: argon2 time must be >= 1")
	case c.Parallelism < floorParallelism:
		return errors.New("password: argon2 parallelism must be >= 1")
	case c.SaltLength < floorSaltBytes:
		return fmt.Errorf("password: salt length must be >= %d", floorSaltBytes)
	case c.KeyLength < floorKeyBytes:
		return fmt.Errorf("password: key length must be >= %d", floorKeyBytes)
	case c.MaxPasswordBytes < 0:
		return errors.New("password: max password bytes must be >= 0")
	}
	return nil
}

// phc is a decoded $argon2id$v=19$m=..,t=..,p=..$salt$key string.
type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (p phc) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version,
		p.memory, p.time, p.parallelism,
		enc.EncodeToString(p.salt), enc.EncodeToString(p.key))
}

// derive computes the key for plaintext under p's parameters and salt.
func (p phc) derive(plaintext string) []byte {
	return argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))
}

func parsePHC(digest string) (phc, error) {
	rest, ok := strings.CutPrefix(digest, argon2Prefix)
	if !ok {
		return phc{}, fmt.Errorf("%w: not an argon2id digest", ErrMalformedDigest)
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return phc{}, fmt.Errorf("%w: expected 4 sections, got %d", ErrMalformedDigest, len(fields))
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil || version != argon2.Version {
		return phc{}, fmt.Errorf("%w: unsupported argon2 version", ErrMalformedDigest)
	}

	var (
		p        phc
		parallel uint32
	)
	n, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &p.memory, &p.time, &parallel)
	if err != nil || n != 3 || fmt.Sprintf("m=%d,t=%d,p=%d", p.memory, p.time, parallel) != fields[1] {
		return phc{}, fmt.Errorf("%w: invalid parameters", ErrMalformedDigest)
	}
	if p.memory < floorMemoryKB || p.time < floorTime || parallel < floorParallelism || parallel > 255 {
		return phc{}, fmt.Errorf("%w: parameters below floor", ErrMalformedDigest)
	}
	p.parallelism = uint8(parallel)

	if p.salt, err = decodeB64(fields[2]); err != nil || len(p.salt) < floorSaltBytes {
		return phc{}, fmt.Errorf("%w: invalid salt", ErrMalformedDigest)
	}
	if p.key, err = decodeB64(fields[3]); err != nil || len(p.key) == 0 {
		return phc{}, fmt.Errorf("%w: invalid key", ErrMalformedDigest)
	}
	return p, nil
}

// decodeB64 accepts both padded and unpadded standard base64.
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// Argon2 hashes and verifies argon2id digests in PHC string format.
type Argon2 struct {
	config Config
}

// NewArgon2 validates cfg against the parameter floors.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	return &Argon2{config: cfg}, nil
}

func (a *Argon2) checkLength(plaintext string) error {
	if len(plaintext) > a.config.MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Hash derives a digest with a fresh random salt. Input bytes are used as
// given, without Unicode normalization.
func (a *Argon2) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if err := a.checkLength(plaintext); err != nil {
		return "", err
	}

	p := phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        make([]byte, a.config.SaltLength),
		key:         make([]byte, a.config.KeyLength),
	}
	if _, err := rand.Read(p.salt); err != nil {
		return "", fmt.Errorf("password: read salt: %w", err)
	}
	p.key = p.derive(plaintext)
	return p.String(), nil
}

// Verify recomputes the key with the parameters stored in digest and compares
// in constant time. Oversized input fails before any derivation.
func (a *Argon2) Verify(plaintext, digest string) (bool, error) {
	if err := a.checkLength(plaintext); err != nil {
		return false, err
	}
	p, err := parsePHC(digest)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(p.derive(plaintext), p.key) == 1, nil
}

// NeedsUpgrade reports whether digest was produced with weaker costs or a
// different key length than the current config.
func (a *Argon2) NeedsUpgrade(digest string) (bool, error) {
	p, err := parsePHC(digest)
	if err != nil {
		return false, err
	}
	weaker := p.memory < a.config.Memory ||
		p.time < a.config.Time ||
		p.parallelism < a.config.Parallelism ||
		uint32(len(p.key)) != a.config.KeyLength
	return weaker, nil
}
