package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/tubeAuth/credential"
)

// AccountFailureKind classifies account management failures.
type AccountFailureKind int

const (
	AccountFailureNone AccountFailureKind = iota
	AccountFailureInvalid
	AccountFailurePolicy
	AccountFailureDuplicate
	AccountFailureUserNotFound
	AccountFailureInvalidOld
	AccountFailureHash
	AccountFailureStore
)

// AccountResult is shared by register, change-password and profile flows.
type AccountResult struct {
	Failure AccountFailureKind
	Err     error
	User    *credential.User
	// Reason names the failing field for AccountFailureInvalid.
	Reason string
}

// RegisterInput is the caller-supplied account data. Avatar and CoverImage
// are stored as given.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     string
	CoverImage string
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	CheckPolicy  func(plaintext string) error
	HashPassword func(plaintext string) (string, error)
	CreateUser   func(ctx context.Context, user *credential.User) error
}

// RunRegister validates input, hashes the password and creates the record.
// The new account has no session.
func RunRegister(ctx context.Context, in RegisterInput, deps RegisterDeps) AccountResult {
	user := &credential.User{
		Username:   in.Username,
		Email:      in.Email,
		FullName:   in.FullName,
		Avatar:     strings.TrimSpace(in.Avatar),
		CoverImage: strings.TrimSpace(in.CoverImage),
	}
	user.Normalize()

	// Usernames never contain "@" so they cannot collide with any email.
	switch {
	case user.Username == "" || strings.Contains(user.Username, "@"):
		return AccountResult{Failure: AccountFailureInvalid, Reason: "userName"}
	case !credential.IsEmail(user.Email):
		return AccountResult{Failure: AccountFailureInvalid, Reason: "email"}
	case user.FullName == "":
		return AccountResult{Failure: AccountFailureInvalid, Reason: "fullName"}
	}

	if err := deps.CheckPolicy(in.Password); err != nil {
		return AccountResult{Failure: AccountFailurePolicy, Err: err}
	}

	hash, err := deps.HashPassword(in.Password)
	if err != nil {
		return AccountResult{Failure: AccountFailureHash, Err: err}
	}
	user.PasswordHash = hash

	if err := deps.CreateUser(ctx, user); err != nil {
		if errors.Is(err, credential.ErrDuplicate) {
			return AccountResult{Failure: AccountFailureDuplicate, Err: err}
		}
		return AccountResult{Failure: AccountFailureStore, Err: err}
	}
	return AccountResult{User: user}
}

type ChangePasswordDeps struct {
	GetUserByID        func(ctx context.Context, userID string) (*credential.User, error)
	VerifyPassword     func(plaintext, digest string) bool
	CheckPolicy        func(plaintext string) error
	HashPassword       func(plaintext string) (string, error)
	UpdatePasswordHash func(ctx context.Context, userID, hash string) error
	ClearRefreshToken  func(ctx context.Context, userID string) error

	Warn func(msg string, err error)
}

// RunChangePassword verifies the old password, stores a new digest and ends
// the current session.
func RunChangePassword(ctx context.Context, userID, oldPassword, newPassword string, deps ChangePasswordDeps) AccountResult {
	if userID == "" {
		return AccountResult{Failure: AccountFailureUserNotFound}
	}
	if oldPassword == "" {
		return AccountResult{Failure: AccountFailureInvalidOld}
	}

	user, err := deps.GetUserByID(ctx, userID)
	if err != nil {
		return AccountResult{Failure: lookupFailure(err), Err: err}
	}
	if !deps.VerifyPassword(oldPassword, user.PasswordHash) {
		return AccountResult{Failure: AccountFailureInvalidOld, User: user}
	}
	if err := deps.CheckPolicy(newPassword); err != nil {
		return AccountResult{Failure: AccountFailurePolicy, Err: err, User: user}
	}

	hash, err := deps.HashPassword(newPassword)
	if err != nil {
		return AccountResult{Failure: AccountFailureHash, Err: err, User: user}
	}
	if err := deps.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return AccountResult{Failure: lookupFailure(err), Err: err, User: user}
	}
	user.PasswordHash = hash

	if err := deps.ClearRefreshToken(ctx, userID); err != nil {
		warn(deps.Warn, "session clear after password change failed", err)
	} else {
		user.RefreshToken = ""
	}
	return AccountResult{User: user}
}

type UpdateProfileDeps struct {
	UpdateProfile func(ctx context.Context, userID string, update credential.ProfileUpdate) (*credential.User, error)
}

// RunUpdateProfile changes display name and/or email. The password digest and
// refresh token are never touched.
func RunUpdateProfile(ctx context.Context, userID string, update credential.ProfileUpdate, deps UpdateProfileDeps) AccountResult {
	if userID == "" {
		return AccountResult{Failure: AccountFailureUserNotFound}
	}
	update.FullName = strings.TrimSpace(update.FullName)
	update.Email = credential.NormalizeIdentifier(update.Email)
	if update.FullName == "" && update.Email == "" {
		return AccountResult{Failure: AccountFailureInvalid, Reason: "fullName"}
	}
	if update.Email != "" && !strings.Contains(update.Email, "@") {
		return AccountResult{Failure: AccountFailureInvalid, Reason: "email"}
	}

	user, err := deps.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, credential.ErrDuplicate) {
			return AccountResult{Failure: AccountFailureDuplicate, Err: err}
		}
		return AccountResult{Failure: lookupFailure(err), Err: err}
	}
	return AccountResult{User: user}
}

func lookupFailure(err error) AccountFailureKind {
	if errors.Is(err, credential.ErrNotFound) {
		return AccountFailureUserNotFound
	}
	return AccountFailureStore
}
