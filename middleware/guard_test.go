package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tubeAuth "github.com/MrEthical07/tubeAuth"
	"github.com/MrEthical07/tubeAuth/credential/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const password = "correct-password-123"

type fixture struct {
	engine *tubeAuth.Engine
	store  *redisstore.Store
	rdb    *redis.Client
	user   *tubeAuth.User
	pair   tubeAuth.TokenPair
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := redisstore.New(rdb, "mw")

	cfg := tubeAuth.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("middleware-access-secret-0123456789")
	cfg.JWT.RefreshSecret = []byte("middleware-refresh-secret-012345678")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	engine, err := tubeAuth.New().WithConfig(cfg).WithCredentialStore(store).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	ctx := context.Background()
	u, err := engine.Register(ctx, tubeAuth.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice A",
		Password: password,
	})
	require.NoError(t, err)
	pair, err := engine.Login(ctx, "alice", password)
	require.NoError(t, err)

	return &fixture{engine: engine, store: store, rdb: rdb, user: u, pair: pair}
}

func identityHandler(t *testing.T, wantID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := tubeAuth.IdentityFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, wantID, id.UserID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestGuardAcceptsCookieAndBearer(t *testing.T) {
	f := newFixture(t)
	h := Guard(f.engine)(identityHandler(t, f.user.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: f.pair.AccessToken})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+f.pair.AccessToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGuardPrefersCookie(t *testing.T) {
	f := newFixture(t)
	h := Guard(f.engine)(identityHandler(t, f.user.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: f.pair.AccessToken})
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGuardRejects(t *testing.T) {
	f := newFixture(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "no token"},
		{name: "wrong scheme", header: "Basic " + f.pair.AccessToken},
		{name: "empty bearer", header: "Bearer "},
		{name: "refresh token", header: "Bearer " + f.pair.RefreshToken},
		{name: "garbage", header: "Bearer abc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got error
			h := Guard(f.engine, WithFailureHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				got = err
				w.WriteHeader(http.StatusUnauthorized)
			}))(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.ErrorIs(t, got, tubeAuth.ErrUnauthenticated)
		})
	}
}

func TestGuardNilEngine(t *testing.T) {
	h := Guard(nil)(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireStrictLoadsUser(t *testing.T) {
	f := newFixture(t)
	h := RequireStrict(f.engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "alice", u.Username)
		require.Empty(t, u.PasswordHash)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+f.pair.AccessToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireStrictRejectsDeletedUser(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rdb.Del(context.Background(), "mw:u:"+f.user.ID).Err())

	var got error
	h := RequireStrict(f.engine, WithFailureHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusUnauthorized)
	}))(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+f.pair.AccessToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.True(t, errors.Is(got, tubeAuth.ErrUserNotFound))
	require.ErrorIs(t, got, tubeAuth.ErrUnauthenticated)
}
