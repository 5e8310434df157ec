package jwt

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed means the token is not a structurally valid JWS.
	ErrMalformed = errors.New("jwt: malformed token")
	// ErrSignatureInvalid means the signature, algorithm or key id did not
	// verify against the context key.
	ErrSignatureInvalid = errors.New("jwt: signature invalid")
	// ErrExpired means the token was evaluated at or after its exp instant.
	ErrExpired = errors.New("jwt: token expired")
	// ErrInvalidClaims covers wrong issuer or audience, a missing subject and
	// other claim validation failures.
	ErrInvalidClaims = errors.New("jwt: invalid claims")
)

// Classify maps an error from the underlying JWT library onto the package
// sentinels. Errors that already are sentinels pass through unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrMalformed),
		errors.Is(err, ErrSignatureInvalid),
		errors.Is(err, ErrExpired),
		errors.Is(err, ErrInvalidClaims):
		return err
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrInvalidClaims
	}
}
