package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/tubeAuth/credential"
)

// RefreshFailureKind classifies refresh failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureParse
	RefreshFailureUserNotFound
	RefreshFailureStore
	RefreshFailureIssue
	RefreshFailureReuse
)

// RefreshResult carries either the rotated pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	UserID       string
	User         *credential.User
	AccessToken  string
	RefreshToken string
	// Revoked is set when a reuse cleared the stored token.
	Revoked bool
}

// RefreshDeps captures refresh dependencies.
type RefreshDeps struct {
	ParseRefresh       func(token string) (userID string, err error)
	GetUserByID        func(ctx context.Context, userID string) (*credential.User, error)
	IssueTokens        TokenIssuer
	RotateRefreshToken func(ctx context.Context, userID, presented, next string) error
	ClearRefreshToken  func(ctx context.Context, userID string) error

	Warn func(msg string, err error)
}

// RunRefresh verifies the presented refresh token, mints a new pair and swaps
// it in with a compare-and-set against the stored value. A presented token
// that no longer matches is treated as reuse: the stored token is cleared so
// every holder must log in again.
func RunRefresh(ctx context.Context, presented string, deps RefreshDeps) RefreshResult {
	if presented == "" {
		return RefreshResult{Failure: RefreshFailureMissing}
	}

	userID, err := deps.ParseRefresh(presented)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureParse, Err: err}
	}

	user, err := deps.GetUserByID(ctx, userID)
	if err != nil {
		return RefreshResult{Failure: storeFailure(err), Err: err, UserID: userID}
	}

	access, next, err := deps.IssueTokens(user)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, UserID: userID, User: user}
	}

	err = deps.RotateRefreshToken(ctx, userID, presented, next)
	switch {
	case err == nil:
	case errors.Is(err, credential.ErrRefreshMismatch):
		revoked := true
		if clearErr := deps.ClearRefreshToken(ctx, userID); clearErr != nil {
			warn(deps.Warn, "refresh reuse revocation failed", clearErr)
			revoked = false
		}
		return RefreshResult{Failure: RefreshFailureReuse, Err: err, UserID: userID, User: user, Revoked: revoked}
	default:
		return RefreshResult{Failure: storeFailure(err), Err: err, UserID: userID, User: user}
	}
	user.RefreshToken = next

	return RefreshResult{
		UserID:       userID,
		User:         user,
		AccessToken:  access,
		RefreshToken: next,
	}
}

func storeFailure(err error) RefreshFailureKind {
	if errors.Is(err, credential.ErrNotFound) {
		return RefreshFailureUserNotFound
	}
	return RefreshFailureStore
}
