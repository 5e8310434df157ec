package tubeAuth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/tubeAuth/credential/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testPassword = "correct-password-123"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret-0123456789abcdef-0123456789")
	cfg.JWT.RefreshSecret = []byte("refresh-secret-0123456789abcdef-012345678")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

type testEnv struct {
	engine *Engine
	store  *redisstore.Store
	mr     *miniredis.Miniredis
	clock  *testClock
}

func newTestEnv(t *testing.T, cfg Config, configure ...func(*Builder)) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := redisstore.New(rdb, "test")
	clock := newTestClock()

	b := New().
		WithConfig(cfg).
		WithCredentialStore(store).
		WithClock(clock.Now)
	for _, fn := range configure {
		fn(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, store: store, mr: mr, clock: clock}
}

func (env *testEnv) register(t *testing.T, username string) *User {
	t.Helper()

	u, err := env.engine.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func (env *testEnv) storedRefresh(t *testing.T, userID string) string {
	t.Helper()

	u, err := env.store.GetByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u.RefreshToken
}
