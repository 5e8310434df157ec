// Package mongostore implements credential.Store on a MongoDB collection using
// the document layout of the platform's users collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/tubeAuth/credential"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection is the collection name used when New receives "".
const DefaultCollection = "users"

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"userName"`
	Email        string             `bson:"email"`
	FullName     string             `bson:"fullName"`
	Avatar       string             `bson:"avatar,omitempty"`
	CoverImage   string             `bson:"coverImage,omitempty"`
	Password     string             `bson:"password"`
	RefreshToken string             `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *userDoc) toUser() *credential.User {
	return &credential.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		FullName:     d.FullName,
		Avatar:       d.Avatar,
		CoverImage:   d.CoverImage,
		PasswordHash: d.Password,
		RefreshToken: d.RefreshToken,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// Store is a MongoDB-backed credential.Store.
type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

// New returns a Store over db.collection.
func New(db *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{
		coll: db.Collection(collection),
		now:  time.Now,
	}
}

// EnsureIndexes creates the unique indexes that back duplicate detection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userName", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Create implements credential.Store.
func (s *Store) Create(ctx context.Context, u *credential.User) error {
	if u == nil {
		return errors.New("mongostore: nil user")
	}
	u.Normalize()
	if err := u.CheckIdentifiers(); err != nil {
		return err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	doc := userDoc{
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		Password:     u.PasswordHash,
		RefreshToken: u.RefreshToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.ID != "" {
		oid, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			return fmt.Errorf("mongostore: invalid id %q", u.ID)
		}
		doc.ID = oid
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return credential.ErrDuplicate
		}
		return unavailable(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid.Hex()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// GetByID implements credential.Store. Ids that are not valid ObjectIDs
// cannot exist and report ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*credential.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, credential.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// GetByLogin implements credential.Store.
func (s *Store) GetByLogin(ctx context.Context, identifier string) (*credential.User, error) {
	identifier = credential.NormalizeIdentifier(identifier)
	if identifier == "" {
		return nil, credential.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"userName": identifier},
		bson.M{"email": identifier},
	}})
}

// UpdatePasswordHash implements credential.Store.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{
		"password":  hash,
		"updatedAt": s.now().UTC(),
	}})
}

// UpdateProfile implements credential.Store.
func (s *Store) UpdateProfile(ctx context.Context, id string, update credential.ProfileUpdate) (*credential.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, credential.ErrNotFound
	}

	set := bson.M{"updatedAt": s.now().UTC()}
	if update.FullName != "" {
		set["fullName"] = update.FullName
	}
	if email := credential.NormalizeIdentifier(update.Email); email != "" {
		if !credential.IsEmail(email) {
			return nil, credential.ErrInvalidIdentifier
		}
		set["email"] = email
	}

	var doc userDoc
	err = s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	switch {
	case err == nil:
		return doc.toUser(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, credential.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, credential.ErrDuplicate
	default:
		return nil, unavailable(err)
	}
}

// SetRefreshToken implements credential.Store.
func (s *Store) SetRefreshToken(ctx context.Context, id, token string) error {
	if token == "" {
		return s.ClearRefreshToken(ctx, id)
	}
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{
		"refreshToken": token,
		"updatedAt":    s.now().UTC(),
	}})
}

// RotateRefreshToken implements credential.Store. The filter carries the
// presented token, so the match and the overwrite are one server-side
// operation.
func (s *Store) RotateRefreshToken(ctx context.Context, id, presented, next string) error {
	if presented == "" || next == "" {
		return credential.ErrRefreshMismatch
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return credential.ErrNotFound
	}

	err = s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid, "refreshToken": presented},
		bson.M{"$set": bson.M{"refreshToken": next, "updatedAt": s.now().UTC()}},
		options.FindOneAndUpdate().SetProjection(bson.M{"_id": 1}),
	).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return unavailable(err)
	}

	// No match: tell a stale token apart from a deleted account.
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	switch {
	case err == nil:
		return credential.ErrRefreshMismatch
	case errors.Is(err, mongo.ErrNoDocuments):
		return credential.ErrNotFound
	default:
		return unavailable(err)
	}
}

// ClearRefreshToken implements credential.Store. Unknown ids and already
// cleared tokens are not errors.
func (s *Store) ClearRefreshToken(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$unset": bson.M{"refreshToken": ""},
		"$set":   bson.M{"updatedAt": s.now().UTC()},
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Ping implements credential.Store.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.coll.Database().Client().Ping(ctx, nil); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*credential.User, error) {
	var doc userDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	switch {
	case err == nil:
		return doc.toUser(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, credential.ErrNotFound
	default:
		return nil, unavailable(err)
	}
}

func (s *Store) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return credential.ErrNotFound
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return unavailable(err)
	}
	if res.MatchedCount == 0 {
		return credential.ErrNotFound
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
}
