package tubeAuth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/tubeAuth/password"
)

// Config is the full engine configuration. It is copied by Builder.WithConfig
// and treated as immutable afterwards.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Cookie   CookieConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the two signing contexts. With hs256 the access and refresh
// secrets must differ; with ed25519 each context has its own key pair.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"

	AccessSecret  []byte
	RefreshSecret []byte

	AccessPrivateKey  []byte
	AccessPublicKey   []byte
	RefreshPrivateKey []byte
	RefreshPublicKey  []byte

	Issuer   string
	Audience string
	Leeway   time.Duration
	KeyID    string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

type PasswordConfig struct {
	Algorithm   string // "argon2id" (default) or "bcrypt"
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int

	MinLength      int
	MaxLength      int
	UpgradeOnLogin bool
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig controls how the HTTP layer sets token cookies. HttpOnly and
// Secure are always set.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Path        string
	SameSite    http.SameSite
}

/*
====================================
SECURITY CONFIG
====================================
*/

type SecurityConfig struct {
	// ProductionMode requires strong secrets and enables audit.
	ProductionMode bool
	// MinSecretBytes is the minimum hs256 secret length in production.
	MinSecretBytes int
}

// DefaultConfig returns a config with every field but the signing keys set.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    10 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "tubeauth",
		},
		Password: PasswordConfig{
			Algorithm:      string(password.AlgorithmArgon2id),
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			BcryptCost:     password.DefaultBcryptCost,
			MinLength:      8,
			MaxLength:      password.DefaultMaxPasswordBytes,
			UpgradeOnLogin: true,
		},
		Cookie: CookieConfig{
			AccessName:  "accessToken",
			RefreshName: "refreshToken",
			Path:        "/",
			SameSite:    http.SameSiteLaxMode,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Security: SecurityConfig{
			MinSecretBytes: 32,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	out.JWT.AccessPrivateKey = cloneBytes(cfg.JWT.AccessPrivateKey)
	out.JWT.AccessPublicKey = cloneBytes(cfg.JWT.AccessPublicKey)
	out.JWT.RefreshPrivateKey = cloneBytes(cfg.JWT.RefreshPrivateKey)
	out.JWT.RefreshPublicKey = cloneBytes(cfg.JWT.RefreshPublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error. Build calls it, so a bad
// config fails at startup rather than on the first request.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be longer than AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	switch strings.ToLower(c.JWT.SigningMethod) {
	case "hs256", "":
		if len(c.JWT.AccessSecret) == 0 || len(c.JWT.RefreshSecret) == 0 {
			return errors.New("hs256 requires AccessSecret and RefreshSecret")
		}
		if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
			return errors.New("AccessSecret and RefreshSecret must differ")
		}
		if c.Security.ProductionMode &&
			(len(c.JWT.AccessSecret) < c.Security.MinSecretBytes || len(c.JWT.RefreshSecret) < c.Security.MinSecretBytes) {
			return errors.New("JWT secrets are shorter than Security MinSecretBytes")
		}
	case "ed25519":
		if len(c.JWT.AccessPrivateKey) == 0 || len(c.JWT.RefreshPrivateKey) == 0 {
			return errors.New("ed25519 requires AccessPrivateKey and RefreshPrivateKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}

	// Password
	switch password.Algorithm(c.Password.Algorithm) {
	case password.AlgorithmArgon2id, "":
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 || c.Password.Parallelism < 1 {
			return errors.New("Password Time and Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 || c.Password.KeyLength < 16 {
			return errors.New("Password SaltLength and KeyLength must be >= 16")
		}
	case password.AlgorithmBcrypt:
		if c.Password.BcryptCost != 0 && (c.Password.BcryptCost < 10 || c.Password.BcryptCost > 31) {
			return errors.New("Password BcryptCost must be between 10 and 31")
		}
		if c.Password.MaxLength > 72 {
			return errors.New("Password MaxLength must be <= 72 for bcrypt")
		}
	default:
		return errors.New("unsupported password algorithm")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password MaxLength must be >= MinLength")
	}

	// Cookie
	if c.Cookie.AccessName == "" || c.Cookie.RefreshName == "" {
		return errors.New("Cookie AccessName and RefreshName must be set")
	}
	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return errors.New("Cookie AccessName and RefreshName must differ")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && c.Cookie.Domain == "" && c.Security.ProductionMode {
		return errors.New("Cookie SameSite=None requires an explicit Domain in production")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Security.ProductionMode && !c.Audit.Enabled {
		return errors.New("production mode requires audit to be enabled")
	}

	return nil
}
