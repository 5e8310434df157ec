package tubeAuth

import (
	"context"
	"fmt"

	"github.com/MrEthical07/tubeAuth/internal/flows"
	"go.uber.org/zap"
)

// Register creates an account. Username and email are normalized and must be
// unique (ErrAccountExists). The password must satisfy the configured length
// policy (ErrPasswordPolicy). The new account has no session; call Login.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	ctx, span := e.startSpan(ctx, "Register")
	defer span.End()

	res := flows.RunRegister(ctx, flows.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	}, e.flows.Register)

	if err := e.accountError(res); err != nil {
		if res.Failure == flows.AccountFailureDuplicate {
			e.metricInc(MetricAccountCreationDuplicate)
		}
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", err, func() map[string]string {
			if res.Reason == "" {
				return nil
			}
			return map[string]string{"field": res.Reason}
		})
		e.logFailure("register", err)
		endSpan(span, err)
		return nil, err
	}

	e.metricInc(MetricAccountCreationSuccess)
	e.emitAudit(ctx, auditEventAccountCreationSuccess, true, res.User.ID, nil, nil)
	out := res.User.Public()
	return &out, nil
}

// CurrentUser loads the account of an authenticated caller.
func (e *Engine) CurrentUser(ctx context.Context, userID string) (*User, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrUserNotFound
	}
	u, err := e.store.GetByID(ctx, userID)
	if err != nil {
		err = storeError(err)
		e.logFailure("current_user", err)
		return nil, err
	}
	out := u.Public()
	return &out, nil
}

// ChangePassword verifies oldPassword, stores a digest of newPassword and
// clears the refresh token, so the caller must log in again.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	ctx, span := e.startSpan(ctx, "ChangePassword")
	defer span.End()

	res := flows.RunChangePassword(ctx, userID, oldPassword, newPassword, e.flows.ChangePassword)
	if err := e.accountError(res); err != nil {
		if res.Failure == flows.AccountFailureInvalidOld {
			e.metricInc(MetricPasswordChangeInvalidOld)
		}
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, err, nil)
		e.logFailure("change_password", err)
		endSpan(span, err)
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, nil, nil)
	e.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

// UpdateProfile changes the display name and/or email. The password digest
// and the refresh token are left untouched. A taken email yields
// ErrAccountExists.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	ctx, span := e.startSpan(ctx, "UpdateProfile")
	defer span.End()

	res := flows.RunUpdateProfile(ctx, userID, update, e.flows.UpdateProfile)
	if err := e.accountError(res); err != nil {
		e.logFailure("update_profile", err)
		endSpan(span, err)
		return nil, err
	}

	e.metricInc(MetricProfileUpdate)
	e.emitAudit(ctx, auditEventProfileUpdate, true, userID, nil, nil)
	out := res.User.Public()
	return &out, nil
}

func (e *Engine) accountError(res flows.AccountResult) error {
	switch res.Failure {
	case flows.AccountFailureNone:
		return nil
	case flows.AccountFailureInvalid:
		return fmt.Errorf("%w: %s", ErrInvalidInput, res.Reason)
	case flows.AccountFailurePolicy:
		return res.Err
	case flows.AccountFailureDuplicate:
		return ErrAccountExists
	case flows.AccountFailureUserNotFound:
		return ErrUserNotFound
	case flows.AccountFailureInvalidOld:
		return ErrInvalidCredentials
	case flows.AccountFailureStore:
		return storeError(res.Err)
	default:
		return fmt.Errorf("tubeauth: hash password: %w", res.Err)
	}
}
