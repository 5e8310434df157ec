package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/tubeAuth/credential"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	fieldID           = "id"
	fieldUsername     = "username"
	fieldEmail        = "email"
	fieldFullName     = "full_name"
	fieldAvatar       = "avatar"
	fieldCoverImage   = "cover_image"
	fieldPasswordHash = "password_hash"
	fieldRefreshToken = "refresh_token"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
)

const (
	statusNotFound  int64 = 0
	statusOK        int64 = 1
	statusDuplicate int64 = 2
	statusMismatch  int64 = 3
)

// KEYS: user hash, username index, email index. ARGV: id, then field/value
// pairs for HSET.
const createUserScript = `
if redis.call("EXISTS", KEYS[2]) == 1 or redis.call("EXISTS", KEYS[3]) == 1 then
  return 2
end
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 2
end
redis.call("SET", KEYS[2], ARGV[1])
redis.call("SET", KEYS[3], ARGV[1])
local fields = {}
for i = 2, #ARGV do
  fields[#fields + 1] = ARGV[i]
end
redis.call("HSET", KEYS[1], unpack(fields))
return 1
`

var createUserLua = redis.NewScript(createUserScript)

// KEYS: user hash. ARGV: field/value pairs. Only updates existing records.
const updateFieldsScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`

var updateFieldsLua = redis.NewScript(updateFieldsScript)

// KEYS: user hash. ARGV: presented token, next token, updated_at.
const rotateRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local current = redis.call("HGET", KEYS[1], "refresh_token")
if not current or current == "" or current ~= ARGV[1] then
  return 3
end
redis.call("HSET", KEYS[1], "refresh_token", ARGV[2], "updated_at", ARGV[3])
return 1
`

var rotateRefreshLua = redis.NewScript(rotateRefreshScript)

// KEYS: user hash, new email index. ARGV: id, full name, new email,
// index prefix, updated_at.
const updateProfileScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local id = ARGV[1]
local full_name = ARGV[2]
local new_email = ARGV[3]
if new_email ~= "" then
  local owner = redis.call("GET", KEYS[2])
  if owner and owner ~= id then
    return 2
  end
  local old_email = redis.call("HGET", KEYS[1], "email")
  if old_email and old_email ~= new_email then
    redis.call("DEL", ARGV[4] .. old_email)
  end
  redis.call("SET", KEYS[2], id)
  redis.call("HSET", KEYS[1], "email", new_email)
end
if full_name ~= "" then
  redis.call("HSET", KEYS[1], "full_name", full_name)
end
redis.call("HSET", KEYS[1], "updated_at", ARGV[5])
return 1
`

var updateProfileLua = redis.NewScript(updateProfileScript)

// Store is a Redis-backed credential.Store. Each user is one hash; login
// identifiers are indexed by plain string keys pointing at the user id.
// Every refresh-token mutation is a single Lua script or HDEL, so it is atomic
// per record.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New creates a Store. prefix namespaces all keys; "tu" is used when empty.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "tu"
	}
	return &Store{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *Store) userKey(id string) string {
	return s.prefix + ":u:" + id
}

func (s *Store) loginPrefix() string {
	return s.prefix + ":login:"
}

func (s *Store) loginKey(identifier string) string {
	return s.loginPrefix() + identifier
}

// Create implements credential.Store.
func (s *Store) Create(ctx context.Context, u *credential.User) error {
	if u == nil {
		return errors.New("redisstore: nil user")
	}
	u.Normalize()
	if err := u.CheckIdentifiers(); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	args := []interface{}{u.ID}
	args = append(args, encodeUser(u)...)

	code, err := createUserLua.Run(
		ctx,
		s.redis,
		[]string{s.userKey(u.ID), s.loginKey(u.Username), s.loginKey(u.Email)},
		args...,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
	}
	if code == statusDuplicate {
		return credential.ErrDuplicate
	}
	return nil
}

// GetByID implements credential.Store.
func (s *Store) GetByID(ctx context.Context, id string) (*credential.User, error) {
	if id == "" {
		return nil, credential.ErrNotFound
	}
	values, err := s.redis.HGetAll(ctx, s.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
	}
	if len(values) == 0 {
		return nil, credential.ErrNotFound
	}
	return decodeUser(values), nil
}

// GetByLogin implements credential.Store.
func (s *Store) GetByLogin(ctx context.Context, identifier string) (*credential.User, error) {
	identifier = credential.NormalizeIdentifier(identifier)
	if identifier == "" {
		return nil, credential.ErrNotFound
	}
	id, err := s.redis.Get(ctx, s.loginKey(identifier)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, credential.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
	}
	return s.GetByID(ctx, id)
}

// UpdatePasswordHash implements credential.Store.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return s.updateFields(ctx, id, fieldPasswordHash, hash)
}

// UpdateProfile implements credential.Store. The password hash is never
// touched.
func (s *Store) UpdateProfile(ctx context.Context, id string, update credential.ProfileUpdate) (*credential.User, error) {
	email := credential.NormalizeIdentifier(update.Email)
	if email != "" && !credential.IsEmail(email) {
		return nil, credential.ErrInvalidIdentifier
	}
	emailKey := s.loginKey(email)
	if email == "" {
		emailKey = s.userKey(id)
	}

	code, err := updateProfileLua.Run(
		ctx,
		s.redis,
		[]string{s.userKey(id), emailKey},
		id,
		update.FullName,
		email,
		s.loginPrefix(),
		formatTime(s.now()),
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
	}
	switch code {
	case statusNotFound:
		return nil, credential.ErrNotFound
	case statusDuplicate:
		return nil, credential.ErrDuplicate
	}
	return s.GetByID(ctx, id)
}

// SetRefreshToken implements credential.Store.
func (s *Store) SetRefreshToken(ctx context.Context, id, token string) error {
	if token == "" {
		return s.ClearRefreshToken(ctx, id)
	}
	return s.updateFields(ctx, id, fieldRefreshToken, token)
}

// RotateRefreshToken implements credential.Store with a Lua compare-and-set.
func (s *Store) RotateRefreshToken(ctx context.Context, id, presented, next string) error {
	if presented == "" || next == "" {
		return credential.ErrRefreshMismatch
	}
	code, err := rotateRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.userKey(id)},
		presented,
		next,
		formatTime(s.now()),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
	}

	switch code {
	case statusOK:
		return nil
	case statusNotFound:
		return credential.ErrNotFound
	case statusMismatch:
		return credential.ErrRefreshMismatch
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", credential.ErrUnavailable, code)
	}
}

// ClearRefreshToken implements credential.Store. HDEL on a missing field or
// key is a no-op.
func (s *Store) ClearRefreshToken(ctx context.Context, id string) error {
	if err := s.redis.HDel(ctx, s.userKey(id), fieldRefreshToken).Err(); err != nil {
		return fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
	}
	return nil
}

// Ping implements credential.Store.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) updateFields(ctx context.Context, id string, fieldValues ...string) error {
	args := make([]interface{}, 0, len(fieldValues)+2)
	for _, v := range fieldValues {
		args = append(args, v)
	}
	args = append(args, fieldUpdatedAt, formatTime(s.now()))

	code, err := updateFieldsLua.Run(ctx, s.redis, []string{s.userKey(id)}, args...).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
	}
	if code == statusNotFound {
		return credential.ErrNotFound
	}
	return nil
}

func encodeUser(u *credential.User) []interface{} {
	out := []interface{}{
		fieldID, u.ID,
		fieldUsername, u.Username,
		fieldEmail, u.Email,
		fieldFullName, u.FullName,
		fieldAvatar, u.Avatar,
		fieldCoverImage, u.CoverImage,
		fieldPasswordHash, u.PasswordHash,
		fieldCreatedAt, formatTime(u.CreatedAt),
		fieldUpdatedAt, formatTime(u.UpdatedAt),
	}
	if u.RefreshToken != "" {
		out = append(out, fieldRefreshToken, u.RefreshToken)
	}
	return out
}

func decodeUser(values map[string]string) *credential.User {
	return &credential.User{
		ID:           values[fieldID],
		Username:     values[fieldUsername],
		Email:        values[fieldEmail],
		FullName:     values[fieldFullName],
		Avatar:       values[fieldAvatar],
		CoverImage:   values[fieldCoverImage],
		PasswordHash: values[fieldPasswordHash],
		RefreshToken: values[fieldRefreshToken],
		CreatedAt:    parseTime(values[fieldCreatedAt]),
		UpdatedAt:    parseTime(values[fieldUpdatedAt]),
	}
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseTime(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
