package middleware

import (
	"net/http"
	"strings"

	tubeAuth "github.com/MrEthical07/tubeAuth"
)

// FailureHandler writes the response for a rejected request. err wraps
// tubeAuth.ErrUnauthenticated.
type FailureHandler func(w http.ResponseWriter, r *http.Request, err error)

type Option func(*options)

type options struct {
	onFailure FailureHandler
}

// WithFailureHandler replaces the default plain-text 401 response.
func WithFailureHandler(h FailureHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onFailure = h
		}
	}
}

func defaultFailure(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func buildOptions(opts []Option) options {
	o := options{onFailure: defaultFailure}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Guard rejects requests without a valid access token.
func Guard(engine *tubeAuth.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				o.onFailure(w, r, tubeAuth.ErrUnauthenticated)
				return
			}

			id, err := engine.Authorize(r.Context(), AccessToken(r, engine.CookieConfig().AccessName))
			if err != nil {
				o.onFailure(w, r, err)
				return
			}

			ctx := tubeAuth.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessToken returns the token from the named cookie, or from the
// Authorization header when the cookie is absent or empty.
func AccessToken(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	token, _ := bearerToken(r.Header.Get("Authorization"))
	return token
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
