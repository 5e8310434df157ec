package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/tubeAuth/credential"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureEmptyInput
	LoginFailureUserNotFound
	LoginFailurePasswordMismatch
	LoginFailureStore
	LoginFailureIssue
	LoginFailurePersist
)

// LoginResult carries either the issued pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	User         *credential.User
	AccessToken  string
	RefreshToken string
	Rehashed     bool
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	UpgradeOnLogin bool

	GetUserByLogin func(ctx context.Context, identifier string) (*credential.User, error)
	VerifyPassword func(plaintext, digest string) bool
	// DummyDigest is verified against when the identifier is unknown so the
	// not-found path costs one password verification like a mismatch does.
	DummyDigest string

	NeedsUpgrade       func(digest string) bool
	HashPassword       func(plaintext string) (string, error)
	UpdatePasswordHash func(ctx context.Context, userID, hash string) error
	IssueTokens        TokenIssuer
	SetRefreshToken    func(ctx context.Context, userID, token string) error

	Warn func(msg string, err error)
}

// RunLogin resolves the identifier, verifies the password, mints a pair and
// overwrites the stored refresh token. Any earlier session on the account is
// replaced.
func RunLogin(ctx context.Context, identifier, plaintext string, deps LoginDeps) LoginResult {
	identifier = credential.NormalizeIdentifier(identifier)
	if identifier == "" || plaintext == "" {
		return LoginResult{Failure: LoginFailureEmptyInput}
	}

	user, err := deps.GetUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			if deps.DummyDigest != "" {
				deps.VerifyPassword(plaintext, deps.DummyDigest)
			}
			return LoginResult{Failure: LoginFailureUserNotFound, Err: err}
		}
		return LoginResult{Failure: LoginFailureStore, Err: err}
	}

	if !deps.VerifyPassword(plaintext, user.PasswordHash) {
		return LoginResult{Failure: LoginFailurePasswordMismatch, User: user}
	}

	rehashed := false
	if deps.UpgradeOnLogin && deps.NeedsUpgrade != nil && deps.NeedsUpgrade(user.PasswordHash) {
		rehashed = upgradeHash(ctx, user, plaintext, deps)
	}

	access, refresh, err := deps.IssueTokens(user)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, User: user}
	}

	if err := deps.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return LoginResult{Failure: LoginFailurePersist, Err: err, User: user}
	}
	user.RefreshToken = refresh

	return LoginResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		Rehashed:     rehashed,
	}
}

// upgradeHash re-hashes with current parameters. Failures are reported and
// never fail the login.
func upgradeHash(ctx context.Context, user *credential.User, plaintext string, deps LoginDeps) bool {
	if deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return false
	}
	hash, err := deps.HashPassword(plaintext)
	if err != nil {
		warn(deps.Warn, "password hash upgrade generation failed", err)
		return false
	}
	if err := deps.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		warn(deps.Warn, "password hash upgrade update failed", err)
		return false
	}
	user.PasswordHash = hash
	return true
}

func warn(fn func(string, error), msg string, err error) {
	if fn != nil {
		fn(msg, err)
	}
}
