package flows

import (
	"context"
	"errors"
)

// ErrNoUser is returned by RunLogout for an empty user id.
var ErrNoUser = errors.New("flows: empty user id")

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	ClearRefreshToken func(ctx context.Context, userID string) error
}

// RunLogout clears the stored refresh token. Clearing an absent token is not
// an error. Access tokens already issued stay valid until they expire.
func RunLogout(ctx context.Context, userID string, deps LogoutDeps) error {
	if userID == "" {
		return ErrNoUser
	}
	return deps.ClearRefreshToken(ctx, userID)
}
