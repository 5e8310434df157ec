package tubeAuth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	u, err := env.engine.Register(ctx, RegisterRequest{
		Username:   "  Alice ",
		Email:      "Alice@Example.com",
		FullName:   "Alice A",
		Password:   testPassword,
		Avatar:     "https://cdn.example.com/a.png",
		CoverImage: "https://cdn.example.com/cover.png",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.CoverImage != "https://cdn.example.com/cover.png" {
		t.Fatalf("expected cover image in the returned user, got %q", u.CoverImage)
	}
	if u.ID == "" || u.Username != "alice" || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.PasswordHash != "" || u.RefreshToken != "" {
		t.Fatal("register must return the public view")
	}

	stored, err := env.store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id digest, got %q", stored.PasswordHash)
	}
	if stored.PasswordHash == testPassword {
		t.Fatal("password stored in plaintext")
	}
	if stored.HasSession() {
		t.Fatal("new account must not have a session")
	}
	if stored.Avatar != "https://cdn.example.com/a.png" || stored.CoverImage != "https://cdn.example.com/cover.png" {
		t.Fatalf("expected images on the stored record, got avatar=%q cover=%q", stored.Avatar, stored.CoverImage)
	}
}

func TestRegisterEmailShapedUsernameCannotShadowEmailLogin(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	_, err := env.engine.Register(ctx, RegisterRequest{
		Username: "v@x.io", Email: "squatter@example.com", FullName: "S", Password: testPassword,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	victim, err := env.engine.Register(ctx, RegisterRequest{
		Username: "victim", Email: "v@x.io", FullName: "V", Password: testPassword,
	})
	if err != nil {
		t.Fatalf("register victim: %v", err)
	}
	pair, err := env.engine.Login(ctx, "v@x.io", testPassword)
	if err != nil {
		t.Fatalf("login by email: %v", err)
	}
	if pair.User.ID != victim.ID {
		t.Fatalf("email login resolved to %q, want %q", pair.User.ID, victim.ID)
	}
}

func TestRegisterRejections(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	env.register(t, "bob")

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{
			name: "duplicate username",
			req:  RegisterRequest{Username: "BOB", Email: "other@example.com", FullName: "B", Password: testPassword},
			want: ErrAccountExists,
		},
		{
			name: "duplicate email",
			req:  RegisterRequest{Username: "other", Email: "bob@example.com", FullName: "B", Password: testPassword},
			want: ErrAccountExists,
		},
		{
			name: "short password",
			req:  RegisterRequest{Username: "carl", Email: "carl@example.com", FullName: "C", Password: "short"},
			want: ErrPasswordPolicy,
		},
		{
			name: "missing full name",
			req:  RegisterRequest{Username: "dana", Email: "dana@example.com", Password: testPassword},
			want: ErrInvalidInput,
		},
		{
			name: "bad email",
			req:  RegisterRequest{Username: "dana", Email: "dana.example.com", FullName: "D", Password: testPassword},
			want: ErrInvalidInput,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.engine.Register(ctx, tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricAccountCreationDuplicate] != 2 {
		t.Fatalf("expected 2 duplicates, got %d", snap.Counters[MetricAccountCreationDuplicate])
	}
	if snap.Counters[MetricAccountCreationSuccess] != 1 {
		t.Fatalf("expected 1 creation, got %d", snap.Counters[MetricAccountCreationSuccess])
	}
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	u := env.register(t, "ella")

	if _, err := env.engine.Login(ctx, "ella", testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	got, err := env.engine.CurrentUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if got.Username != "ella" || got.RefreshToken != "" || got.PasswordHash != "" {
		t.Fatalf("unexpected current user %+v", got)
	}

	if _, err := env.engine.CurrentUser(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := env.engine.CurrentUser(ctx, ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for empty id, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	u := env.register(t, "fred")

	pair, err := env.engine.Login(ctx, "fred", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := env.engine.ChangePassword(ctx, u.ID, "wrong-password", "new-password-456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := env.storedRefresh(t, u.ID); got != pair.RefreshToken {
		t.Fatal("failed change must keep the session")
	}

	if err := env.engine.ChangePassword(ctx, u.ID, testPassword, "short"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}

	if err := env.engine.ChangePassword(ctx, u.ID, testPassword, "new-password-456"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if got := env.storedRefresh(t, u.ID); got != "" {
		t.Fatal("password change must end the session")
	}

	if _, err := env.engine.Login(ctx, "fred", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := env.engine.Login(ctx, "fred", "new-password-456"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricPasswordChangeSuccess] != 1 || snap.Counters[MetricPasswordChangeInvalidOld] != 1 {
		t.Fatalf("unexpected password change counters %+v", snap.Counters)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	u := env.register(t, "gail")
	env.register(t, "hugo")

	pair, err := env.engine.Login(ctx, "gail", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	updated, err := env.engine.UpdateProfile(ctx, u.ID, ProfileUpdate{FullName: "Gail G", Email: "Gail.New@example.com"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FullName != "Gail G" || updated.Email != "gail.new@example.com" {
		t.Fatalf("unexpected profile %+v", updated)
	}
	if updated.RefreshToken != "" || updated.PasswordHash != "" {
		t.Fatal("update must return the public view")
	}
	if got := env.storedRefresh(t, u.ID); got != pair.RefreshToken {
		t.Fatal("profile update must not touch the session")
	}

	if _, err := env.engine.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: "hugo@example.com"}); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if _, err := env.engine.UpdateProfile(ctx, u.ID, ProfileUpdate{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.engine.UpdateProfile(ctx, "missing", ProfileUpdate{FullName: "X"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := env.engine.Login(ctx, "gail.new@example.com", testPassword); err != nil {
		t.Fatalf("login with new email: %v", err)
	}
}

func TestLoginUpgradesBcryptDigest(t *testing.T) {
	cfg := testConfig()
	cfg.Password.Algorithm = "bcrypt"
	cfg.Password.BcryptCost = 10
	cfg.Password.MaxLength = 72
	legacy := newTestEnv(t, cfg)
	legacy.register(t, "iris")

	upgraded := newTestEnv(t, testConfig())
	stored, err := legacy.store.GetByLogin(context.Background(), "iris")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	stored.ID = ""
	stored.RefreshToken = ""
	if err := upgraded.store.Create(context.Background(), stored); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$2") {
		t.Fatalf("expected bcrypt digest, got %q", stored.PasswordHash)
	}

	if _, err := upgraded.engine.Login(context.Background(), "iris", testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	after, err := upgraded.store.GetByID(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("load after login: %v", err)
	}
	if !strings.HasPrefix(after.PasswordHash, "$argon2id$") {
		t.Fatalf("expected rehash to argon2id, got %q", after.PasswordHash)
	}
	if got := upgraded.engine.MetricsSnapshot().Counters[MetricPasswordRehash]; got != 1 {
		t.Fatalf("expected 1 rehash, got %d", got)
	}
}
