package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tubeAuth "github.com/MrEthical07/tubeAuth"
)

type userContextKey struct{}

// UserFromContext returns the account loaded by RequireStrict.
func UserFromContext(ctx context.Context) (*tubeAuth.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*tubeAuth.User)
	return u, ok && u != nil
}

// RequireStrict behaves like Guard and then loads the account. A token whose
// user was deleted is rejected; a store outage is reported to the failure
// handler as is.
func RequireStrict(engine *tubeAuth.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	guard := Guard(engine, opts...)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := tubeAuth.IdentityFromContext(r.Context())
			u, err := engine.CurrentUser(r.Context(), id.UserID)
			if errors.Is(err, tubeAuth.ErrUserNotFound) {
				err = fmt.Errorf("%w: %w", tubeAuth.ErrUnauthenticated, err)
			}
			if err != nil {
				o.onFailure(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		}))
	}
}
