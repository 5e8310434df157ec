package jwt

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the JWS algorithm for one token context.
type SigningMethod string

const (
	// MethodHS256 signs with a shared secret (PrivateKey holds the secret).
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an ed25519 private key and verifies with the
	// matching public key.
	MethodEd25519 SigningMethod = "ed25519"
)

// KeyConfig is the key material and lifetime of one token context.
type KeyConfig struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	KeyID         string
	TTL           time.Duration
}

// Config configures both token contexts. Access and Refresh must use
// different keys so a token minted in one context never verifies in the other.
type Config struct {
	Access       KeyConfig
	Refresh      KeyConfig
	Issuer       string
	Audience     string
	Leeway       time.Duration
	MaxFutureIAT time.Duration

	// Now overrides the clock used for issuing and validating. Defaults to
	// time.Now.
	Now func() time.Time
}

// AccessClaims are the claims of a short-lived access token.
type AccessClaims struct {
	UID      string `json:"_id"`
	Username string `json:"userName,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims of a refresh token. ID (jti) is random per
// token so two tokens minted within the same second still differ.
type RefreshClaims struct {
	UID string `json:"_id"`
	jwt.RegisteredClaims
}

// AccessInput carries the identity denormalized into an access token.
type AccessInput struct {
	UserID   string
	Username string
	Email    string
	FullName string
}

type signer struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	keyID     string
	ttl       time.Duration
}

// Manager signs and verifies access and refresh tokens.
//
// Manager is immutable after NewManager and safe for concurrent use.
type Manager struct {
	access  signer
	refresh signer
	config  Config
}

// NewManager validates cfg and prepares both signing contexts. Any
// misconfiguration is reported here so it surfaces at startup.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	access, err := newSigner("access", cfg.Access)
	if err != nil {
		return nil, err
	}
	refresh, err := newSigner("refresh", cfg.Refresh)
	if err != nil {
		return nil, err
	}
	if sameKey(cfg.Access, cfg.Refresh) {
		return nil, errors.New("access and refresh contexts must use different keys")
	}

	return &Manager{access: access, refresh: refresh, config: cfg}, nil
}

func newSigner(name string, kc KeyConfig) (signer, error) {
	if kc.TTL <= 0 {
		return signer{}, fmt.Errorf("%s: invalid TTL configuration", name)
	}

	s := signer{keyID: strings.TrimSpace(kc.KeyID), ttl: kc.TTL}
	switch kc.SigningMethod {
	case MethodHS256, "":
		if len(kc.PrivateKey) == 0 {
			return signer{}, fmt.Errorf("%s: hs256 requires a secret", name)
		}
		s.method = jwt.SigningMethodHS256
		s.signKey = kc.PrivateKey
		s.verifyKey = kc.PrivateKey
	case MethodEd25519:
		priv, err := parseEdPrivateKey(kc.PrivateKey)
		if err != nil {
			return signer{}, fmt.Errorf("%s: %w", name, err)
		}
		pub := priv.Public().(ed25519.PublicKey)
		if len(kc.PublicKey) > 0 {
			if pub, err = parseEdPublicKey(kc.PublicKey); err != nil {
				return signer{}, fmt.Errorf("%s: %w", name, err)
			}
		}
		s.method = jwt.SigningMethodEdDSA
		s.signKey = priv
		s.verifyKey = pub
	default:
		return signer{}, fmt.Errorf("%s: unsupported signing method", name)
	}
	return s, nil
}

func sameKey(a, b KeyConfig) bool {
	if methodOrDefault(a.SigningMethod) != methodOrDefault(b.SigningMethod) {
		return false
	}
	if bytes.Equal(a.PrivateKey, b.PrivateKey) {
		return true
	}
	return len(a.PublicKey) > 0 && bytes.Equal(a.PublicKey, b.PublicKey)
}

func methodOrDefault(m SigningMethod) SigningMethod {
	if m == "" {
		return MethodHS256
	}
	return m
}

// AccessTTL returns the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.access.ttl }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.refresh.ttl }

// CreateAccess mints an access token for in.
func (m *Manager) CreateAccess(in AccessInput) (string, error) {
	if in.UserID == "" {
		return "", errors.New("jwt: empty user id")
	}
	now := m.config.Now()
	claims := AccessClaims{
		UID:              in.UserID,
		Username:         in.Username,
		Email:            in.Email,
		FullName:         in.FullName,
		RegisteredClaims: m.registered(now, m.access.ttl),
	}
	return m.sign(m.access, claims)
}

// CreateRefresh mints a refresh token for userID.
func (m *Manager) CreateRefresh(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("jwt: empty user id")
	}
	now := m.config.Now()
	claims := RefreshClaims{
		UID:              userID,
		RegisteredClaims: m.registered(now, m.refresh.ttl),
	}
	claims.ID = uuid.NewString()
	return m.sign(m.refresh, claims)
}

// ParseAccess verifies an access token. Errors are one of ErrMalformed,
// ErrSignatureInvalid, ErrExpired or ErrInvalidClaims.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(m.access, tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.UID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	}
	if err := m.checkIssuedAt(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token with the refresh context key.
func (m *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(m.refresh, tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.UID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	}
	if err := m.checkIssuedAt(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	rc := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    m.config.Issuer,
	}
	if m.config.Audience != "" {
		rc.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	return rc
}

func (m *Manager) sign(s signer, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(s.method, claims)
	if s.keyID != "" {
		token.Header["kid"] = s.keyID
	}
	return token.SignedString(s.signKey)
}

func (m *Manager) parse(s signer, tokenStr string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(m.config.Now),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		if s.keyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid != s.keyID {
				return nil, errors.New("unknown kid")
			}
		}
		return s.verifyKey, nil
	})
	if err != nil {
		return Classify(err)
	}
	if !token.Valid {
		return ErrInvalidClaims
	}
	return nil
}

func (m *Manager) checkIssuedAt(iat *jwt.NumericDate) error {
	if iat == nil {
		return nil
	}
	if iat.Time.After(m.config.Now().Add(m.config.MaxFutureIAT)) {
		return fmt.Errorf("%w: iat too far in the future", ErrInvalidClaims)
	}
	return nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
