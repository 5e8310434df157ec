package redisstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/tubeAuth/credential"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.store = New(s.rdb, "tu")
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	s.rdb.Close()
	s.mr.Close()
}

func (s *StoreSuite) createUser(username, email string) *credential.User {
	u := &credential.User{
		Username:     username,
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	}
	s.Require().NoError(s.store.Create(s.ctx, u))
	s.Require().NotEmpty(u.ID)
	return u
}

func (s *StoreSuite) TestCreateAndLookup() {
	u := s.createUser("  Alice ", "Alice@Example.com")

	byID, err := s.store.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)
	s.Equal("alice@example.com", byID.Email)
	s.Equal("Test User", byID.FullName)
	s.Equal(u.PasswordHash, byID.PasswordHash)
	s.Empty(byID.RefreshToken)
	s.False(byID.CreatedAt.IsZero())

	byName, err := s.store.GetByLogin(s.ctx, "ALICE")
	s.Require().NoError(err)
	s.Equal(u.ID, byName.ID)

	byEmail, err := s.store.GetByLogin(s.ctx, " alice@EXAMPLE.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
}

func (s *StoreSuite) TestCreateDuplicateIdentifiers() {
	s.createUser("alice", "alice@example.com")

	err := s.store.Create(s.ctx, &credential.User{Username: "ALICE", Email: "other@example.com"})
	s.ErrorIs(err, credential.ErrDuplicate)

	err = s.store.Create(s.ctx, &credential.User{Username: "bob", Email: "Alice@example.com"})
	s.ErrorIs(err, credential.ErrDuplicate)

	_, err = s.store.GetByLogin(s.ctx, "bob")
	s.ErrorIs(err, credential.ErrNotFound)
}

func (s *StoreSuite) TestCreateRejectsEmailShapedUsername() {
	s.createUser("victim", "v@x.io")

	err := s.store.Create(s.ctx, &credential.User{Username: "V@x.io", Email: "squatter@example.com"})
	s.ErrorIs(err, credential.ErrInvalidIdentifier)

	err = s.store.Create(s.ctx, &credential.User{Username: "other", Email: "no-at-sign"})
	s.ErrorIs(err, credential.ErrInvalidIdentifier)

	_, err = s.store.GetByLogin(s.ctx, "squatter@example.com")
	s.ErrorIs(err, credential.ErrNotFound)

	u := s.createUser("owner", "owner@example.com")
	_, err = s.store.UpdateProfile(s.ctx, u.ID, credential.ProfileUpdate{Email: "owner.example.com"})
	s.ErrorIs(err, credential.ErrInvalidIdentifier)
}

func (s *StoreSuite) TestLookupMissing() {
	_, err := s.store.GetByID(s.ctx, "nope")
	s.ErrorIs(err, credential.ErrNotFound)

	_, err = s.store.GetByLogin(s.ctx, "nobody")
	s.ErrorIs(err, credential.ErrNotFound)

	_, err = s.store.GetByLogin(s.ctx, "   ")
	s.ErrorIs(err, credential.ErrNotFound)
}

func (s *StoreSuite) TestRefreshTokenLifecycle() {
	u := s.createUser("carol", "carol@example.com")

	s.Require().NoError(s.store.SetRefreshToken(s.ctx, u.ID, "r1"))
	got, err := s.store.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("r1", got.RefreshToken)
	s.True(got.HasSession())

	s.Require().NoError(s.store.RotateRefreshToken(s.ctx, u.ID, "r1", "r2"))
	err = s.store.RotateRefreshToken(s.ctx, u.ID, "r1", "r3")
	s.ErrorIs(err, credential.ErrRefreshMismatch)

	got, err = s.store.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("r2", got.RefreshToken)

	s.Require().NoError(s.store.ClearRefreshToken(s.ctx, u.ID))
	s.Require().NoError(s.store.ClearRefreshToken(s.ctx, u.ID))

	got, err = s.store.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Empty(got.RefreshToken)
	s.Equal("carol", got.Username, "clearing the token must not drop the record")

	err = s.store.RotateRefreshToken(s.ctx, u.ID, "r2", "r4")
	s.ErrorIs(err, credential.ErrRefreshMismatch, "rotation against a cleared token must fail")
}

func (s *StoreSuite) TestMutationsOnMissingUser() {
	s.ErrorIs(s.store.SetRefreshToken(s.ctx, "ghost", "r1"), credential.ErrNotFound)
	s.ErrorIs(s.store.RotateRefreshToken(s.ctx, "ghost", "r1", "r2"), credential.ErrNotFound)
	s.ErrorIs(s.store.UpdatePasswordHash(s.ctx, "ghost", "h"), credential.ErrNotFound)
	s.NoError(s.store.ClearRefreshToken(s.ctx, "ghost"))

	exists, err := s.rdb.Exists(s.ctx, "tu:u:ghost").Result()
	s.Require().NoError(err)
	s.Zero(exists, "failed mutations must not create partial records")
}

func (s *StoreSuite) TestUpdatePasswordHashKeepsSession() {
	u := s.createUser("dave", "dave@example.com")
	s.Require().NoError(s.store.SetRefreshToken(s.ctx, u.ID, "r1"))

	s.Require().NoError(s.store.UpdatePasswordHash(s.ctx, u.ID, "new-hash"))
	got, err := s.store.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("new-hash", got.PasswordHash)
	s.Equal("r1", got.RefreshToken)
}

func (s *StoreSuite) TestUpdateProfile() {
	u := s.createUser("erin", "erin@example.com")
	s.createUser("frank", "frank@example.com")

	updated, err := s.store.UpdateProfile(s.ctx, u.ID, credential.ProfileUpdate{FullName: "Erin E", Email: "Erin.New@example.com"})
	s.Require().NoError(err)
	s.Equal("Erin E", updated.FullName)
	s.Equal("erin.new@example.com", updated.Email)
	s.Equal(u.PasswordHash, updated.PasswordHash)

	_, err = s.store.GetByLogin(s.ctx, "erin@example.com")
	s.ErrorIs(err, credential.ErrNotFound, "old email index must be released")

	byNew, err := s.store.GetByLogin(s.ctx, "erin.new@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byNew.ID)

	_, err = s.store.UpdateProfile(s.ctx, u.ID, credential.ProfileUpdate{Email: "frank@example.com"})
	s.ErrorIs(err, credential.ErrDuplicate)

	onlyName, err := s.store.UpdateProfile(s.ctx, u.ID, credential.ProfileUpdate{FullName: "Erin Final"})
	s.Require().NoError(err)
	s.Equal("Erin Final", onlyName.FullName)
	s.Equal("erin.new@example.com", onlyName.Email)

	_, err = s.store.UpdateProfile(s.ctx, "ghost", credential.ProfileUpdate{FullName: "x"})
	s.ErrorIs(err, credential.ErrNotFound)
}

func (s *StoreSuite) TestConcurrentRotationSingleWinner() {
	u := s.createUser("gina", "gina@example.com")
	s.Require().NoError(s.store.SetRefreshToken(s.ctx, u.ID, "seed"))

	const workers = 16
	var (
		wg       sync.WaitGroup
		wins     atomic.Int32
		mismatch atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.RotateRefreshToken(context.Background(), u.ID, "seed", "next-"+string(rune('a'+i)))
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, credential.ErrRefreshMismatch):
				mismatch.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(workers-1), mismatch.Load())
}

func (s *StoreSuite) TestBackendFailureIsUnavailable() {
	s.mr.Close()
	_, err := s.store.GetByID(s.ctx, "any")
	s.ErrorIs(err, credential.ErrUnavailable)
	s.ErrorIs(s.store.Ping(s.ctx), credential.ErrUnavailable)
}
