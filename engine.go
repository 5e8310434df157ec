package tubeAuth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/tubeAuth/credential"
	"github.com/MrEthical07/tubeAuth/internal/audit"
	"github.com/MrEthical07/tubeAuth/internal/flows"
	"github.com/MrEthical07/tubeAuth/internal/metrics"
	"github.com/MrEthical07/tubeAuth/jwt"
	"github.com/MrEthical07/tubeAuth/password"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Engine verifies credentials and runs the access/refresh token lifecycle.
//
// Engine is safe for concurrent use. It holds no per-user state: the only
// session state is the refresh token stored on the user record.
type Engine struct {
	config Config
	store  credential.Store
	hasher *password.Hasher
	// dummyDigest is verified on logins for unknown identifiers.
	dummyDigest string
	tokens      *jwt.Manager
	flows       flows.Deps
	audit       *audit.Dispatcher
	metrics     *metrics.Metrics
	logger      *zap.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// Close drains the audit dispatcher. The credential store is owned by the
// caller and left open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports events discarded because the audit buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// CookieConfig returns the configured token cookie settings.
func (e *Engine) CookieConfig() CookieConfig {
	return e.config.Cookie
}

// Ping checks the credential store.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if err := e.store.Ping(ctx); err != nil {
		return storeError(err)
	}
	return nil
}

// Login resolves identifier (username or email, case-insensitive), verifies
// the password and issues a new token pair. The refresh token replaces any
// previously stored one, ending earlier sessions.
//
// Failures are ErrUserNotFound or ErrInvalidCredentials; HTTP callers should
// report both identically.
func (e *Engine) Login(ctx context.Context, identifier, plaintext string) (TokenPair, error) {
	if e == nil || e.store == nil {
		return TokenPair{}, ErrEngineNotReady
	}
	ctx, span := e.startSpan(ctx, "Login")
	defer span.End()

	res := flows.RunLogin(ctx, identifier, plaintext, e.flows.Login)

	var err error
	reason := ""
	switch res.Failure {
	case flows.LoginFailureNone:
	case flows.LoginFailureEmptyInput:
		err, reason = ErrInvalidCredentials, "empty_input"
	case flows.LoginFailureUserNotFound:
		err, reason = ErrUserNotFound, "user_not_found"
	case flows.LoginFailurePasswordMismatch:
		err, reason = ErrInvalidCredentials, "password_mismatch"
	case flows.LoginFailureStore, flows.LoginFailurePersist:
		err, reason = storeError(res.Err), "store"
	default:
		err, reason = fmt.Errorf("tubeauth: issue tokens: %w", res.Err), "issue"
	}

	if err != nil {
		e.metricInc(MetricLoginFailure)
		userID := ""
		if res.User != nil {
			userID = res.User.ID
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, userID, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		e.logFailure("login", err, zap.String("reason", reason))
		endSpan(span, err)
		return TokenPair{}, err
	}

	if res.Rehashed {
		e.metricInc(MetricPasswordRehash)
	}
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.User.ID, nil, nil)
	span.SetAttributes(attribute.String("tubeauth.user_id", res.User.ID))

	return e.tokenPair(res.User, res.AccessToken, res.RefreshToken), nil
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// verify and equal the stored one; the swap is a single compare-and-set, so
// of several concurrent calls with the same token exactly one succeeds.
//
// A verified token that no longer matches is reuse: ErrTokenReused is returned
// and the stored token is cleared, forcing a fresh login. Access tokens issued
// earlier stay valid until they expire.
func (e *Engine) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	if e == nil || e.store == nil {
		return TokenPair{}, ErrEngineNotReady
	}
	ctx, span := e.startSpan(ctx, "Refresh")
	defer span.End()

	res := flows.RunRefresh(ctx, presented, e.flows.Refresh)

	var err error
	switch res.Failure {
	case flows.RefreshFailureNone:
	case flows.RefreshFailureMissing:
		err = ErrMissingToken
	case flows.RefreshFailureParse:
		err = tokenError(res.Err)
	case flows.RefreshFailureUserNotFound:
		err = ErrUserNotFound
	case flows.RefreshFailureStore:
		err = storeError(res.Err)
	case flows.RefreshFailureReuse:
		err = ErrTokenReused
	default:
		err = fmt.Errorf("tubeauth: issue tokens: %w", res.Err)
	}

	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if res.Failure == flows.RefreshFailureReuse {
			e.metricInc(MetricRefreshReuseDetected)
			e.emitAudit(ctx, auditEventRefreshReuseDetected, false, res.UserID, err, func() map[string]string {
				return map[string]string{"revoked": fmt.Sprint(res.Revoked)}
			})
			e.logger.Warn("refresh token reuse detected",
				zap.String("user_id", res.UserID),
				zap.Bool("revoked", res.Revoked),
			)
		} else {
			e.emitAudit(ctx, auditEventRefreshInvalid, false, res.UserID, err, nil)
			e.logFailure("refresh", err)
		}
		endSpan(span, err)
		return TokenPair{}, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, res.UserID, nil, nil)
	return e.tokenPair(res.User, res.AccessToken, res.RefreshToken), nil
}

// Logout clears the stored refresh token of userID. It is idempotent.
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	ctx, span := e.startSpan(ctx, "Logout")
	defer span.End()

	if err := flows.RunLogout(ctx, userID, e.flows.Logout); err != nil {
		if errors.Is(err, flows.ErrNoUser) {
			err = fmt.Errorf("%w: %w", ErrUnauthenticated, ErrMissingToken)
		} else {
			err = storeError(err)
		}
		e.logFailure("logout", err)
		endSpan(span, err)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, nil, nil)
	return nil
}

// Authorize verifies an access token and returns the identity it carries. It
// performs no store access. Every failure wraps ErrUnauthenticated together
// with the specific cause (ErrMissingToken, ErrTokenMalformed,
// ErrTokenInvalid or ErrTokenExpired).
func (e *Engine) Authorize(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	_, span := e.startSpan(ctx, "Authorize")
	defer span.End()

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res := flows.RunAuthorize(accessToken, e.flows.Authorize)

	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricAuthorizeLatency, time.Since(start))
	}

	if res.Failure != flows.AuthorizeFailureNone {
		cause := ErrMissingToken
		if res.Failure == flows.AuthorizeFailureToken {
			cause = tokenError(res.Err)
		}
		err := fmt.Errorf("%w: %w", ErrUnauthenticated, cause)
		e.metricInc(MetricAuthorizeFailure)
		endSpan(span, err)
		return nil, err
	}

	e.metricInc(MetricAuthorizeSuccess)
	return &Identity{
		UserID:   res.Claims.UID,
		Username: res.Claims.Username,
		Email:    res.Claims.Email,
		FullName: res.Claims.FullName,
	}, nil
}

func (e *Engine) buildFlowDeps() flows.Deps {
	warn := func(msg string, err error) {
		e.logger.Warn(msg, zap.Error(err))
	}
	return flows.Deps{
		Login: flows.LoginDeps{
			UpgradeOnLogin:     e.config.Password.UpgradeOnLogin,
			GetUserByLogin:     e.store.GetByLogin,
			VerifyPassword:     e.hasher.Verify,
			DummyDigest:        e.dummyDigest,
			NeedsUpgrade:       e.hasher.NeedsUpgrade,
			HashPassword:       e.hasher.Hash,
			UpdatePasswordHash: e.store.UpdatePasswordHash,
			IssueTokens:        e.issueTokens,
			SetRefreshToken:    e.store.SetRefreshToken,
			Warn:               warn,
		},
		Refresh: flows.RefreshDeps{
			ParseRefresh: func(token string) (string, error) {
				claims, err := e.tokens.ParseRefresh(token)
				if err != nil {
					return "", err
				}
				return claims.UID, nil
			},
			GetUserByID:        e.store.GetByID,
			IssueTokens:        e.issueTokens,
			RotateRefreshToken: e.store.RotateRefreshToken,
			ClearRefreshToken:  e.store.ClearRefreshToken,
			Warn:               warn,
		},
		Logout: flows.LogoutDeps{
			ClearRefreshToken: e.store.ClearRefreshToken,
		},
		Authorize: flows.AuthorizeDeps{
			ParseAccess: e.tokens.ParseAccess,
		},
		Register: flows.RegisterDeps{
			CheckPolicy:  e.checkPasswordPolicy,
			HashPassword: e.hasher.Hash,
			CreateUser:   e.store.Create,
		},
		ChangePassword: flows.ChangePasswordDeps{
			GetUserByID:        e.store.GetByID,
			VerifyPassword:     e.hasher.Verify,
			CheckPolicy:        e.checkPasswordPolicy,
			HashPassword:       e.hasher.Hash,
			UpdatePasswordHash: e.store.UpdatePasswordHash,
			ClearRefreshToken:  e.store.ClearRefreshToken,
			Warn:               warn,
		},
		UpdateProfile: flows.UpdateProfileDeps{
			UpdateProfile: e.store.UpdateProfile,
		},
	}
}

func (e *Engine) issueTokens(u *credential.User) (string, string, error) {
	access, err := e.tokens.CreateAccess(jwt.AccessInput{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
	})
	if err != nil {
		return "", "", err
	}
	refresh, err := e.tokens.CreateRefresh(u.ID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (e *Engine) tokenPair(u *credential.User, access, refresh string) TokenPair {
	now := e.now()
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(e.tokens.AccessTTL()),
		RefreshExpiresAt: now.Add(e.tokens.RefreshTTL()),
		User:             u.Public(),
	}
}

func (e *Engine) checkPasswordPolicy(plaintext string) error {
	switch {
	case len(plaintext) < e.config.Password.MinLength:
		return fmt.Errorf("%w: shorter than %d bytes", ErrPasswordPolicy, e.config.Password.MinLength)
	case len(plaintext) > e.config.Password.MaxLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrPasswordPolicy, e.config.Password.MaxLength)
	}
	return nil
}

// tokenError maps codec errors onto public sentinels.
func tokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrMalformed):
		return ErrTokenMalformed
	default:
		return ErrTokenInvalid
	}
}

func storeError(err error) error {
	if errors.Is(err, credential.ErrNotFound) {
		return ErrUserNotFound
	}
	return errors.Join(ErrStoreUnavailable, err)
}

func (e *Engine) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return e.tracer.Start(ctx, "tubeauth."+op)
}

func endSpan(span trace.Span, err error) {
	kind := ErrorKind(err)
	span.SetAttributes(attribute.String("tubeauth.failure", kind))
	span.SetStatus(codes.Error, kind)
}

// logFailure logs at warn for backend faults and debug for ordinary auth
// rejections.
func (e *Engine) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.String("error_code", ErrorKind(err)))
	switch ErrorKind(err) {
	case "store_unavailable", "internal_error", "engine_not_ready":
		e.logger.Warn("operation failed", append(fields, zap.Error(err))...)
	default:
		e.logger.Debug("operation rejected", fields...)
	}
}
