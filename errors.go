package tubeAuth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by Login when the password does not
	// match, and by ChangePassword when the old password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when no account matches the identifier or id.
	ErrUserNotFound = errors.New("user not found")
	// ErrMissingToken is returned when no token was presented.
	ErrMissingToken = errors.New("missing token")
	// ErrTokenInvalid covers bad signatures, wrong algorithm, wrong context and
	// unacceptable claims.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenMalformed is a token that could not be decoded. It wraps
	// ErrTokenInvalid.
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	// ErrTokenExpired is a well-formed, correctly signed token past its exp.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenReused is a verified refresh token that is no longer the stored
	// one. The stored token is cleared when this is returned.
	ErrTokenReused = errors.New("refresh token reused")
	// ErrUnauthenticated is returned by Authorize; it wraps the specific cause.
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrAccountExists  = errors.New("account already exists")
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrInvalidInput is a registration or profile request with a missing or
	// malformed field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable wraps credential store I/O failures.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	ErrEngineNotReady   = errors.New("engine not ready")
)

// ErrorKind returns a stable snake_case code for err, suitable for logs,
// audit events and metrics labels. Unknown errors map to "internal_error".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTokenReused):
		return "token_reused"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenMalformed):
		return "token_malformed"
	case errors.Is(err, ErrTokenInvalid):
		return "token_invalid"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrAccountExists):
		return "account_exists"
	case errors.Is(err, ErrPasswordPolicy):
		return "password_policy"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrEngineNotReady):
		return "engine_not_ready"
	default:
		return "internal_error"
	}
}
