// Package mongostore implements auth.Storage on MongoDB. Documents use the
// same collection names and field layout as the existing catalog database.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/tilestore/svc/auth"
)

const (
	usersCollection         = "users"
	refreshTokensCollection = "refreshtokens"

	// Refresh token documents are reaped by the server 30 days after creation.
	refreshTokenRetention = 30 * 24 * time.Hour
)

// Store is a MongoDB backed auth.Storage.
type Store struct {
	users  *mongo.Collection
	tokens *mongo.Collection
	now    func() time.Time
}

var _ auth.Storage = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Store over db. Call EnsureIndexes once at startup.
func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{
		users:  db.Collection(usersCollection),
		tokens: db.Collection(refreshTokensCollection),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	now := s.now().UTC()
	u.ID = ""
	u.CreatedAt = now
	u.UpdatedAt = now

	rec, err := toUserRecord(u)
	if err != nil {
		return err
	}
	rec.ID = bson.NewObjectID()

	if _, err := s.users.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrUserExists
		}
		return err
	}
	u.ID = rec.ID.Hex()
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, auth.ErrUserNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	// Local accounts sort before google ones.
	sort := options.FindOne().SetSort(bson.D{{Key: "provider", Value: -1}})
	return s.findUser(ctx, bson.M{"email": email}, sort)
}

func (s *Store) FindGoogleUser(ctx context.Context, email, googleID string) (*auth.User, error) {
	or := bson.A{bson.M{"email": email, "provider": string(auth.ProviderGoogle)}}
	if googleID != "" {
		or = append(or, bson.M{"googleId": googleID})
	}
	return s.findUser(ctx, bson.M{"$or": or})
}

func (s *Store) GetUserByVerificationToken(ctx context.Context, tokenHash string) (*auth.User, error) {
	if tokenHash == "" {
		return nil, auth.ErrUserNotFound
	}
	return s.findUser(ctx, bson.M{"emailVerificationToken": tokenHash})
}

func (s *Store) UpdateUser(ctx context.Context, u *auth.User) error {
	u.UpdatedAt = s.now().UTC()
	rec, err := toUserRecord(u)
	if err != nil {
		return err
	}
	if rec.ID.IsZero() {
		return auth.ErrUserNotFound
	}

	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrUserExists
		}
		return err
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (*auth.User, error) {
	var rec userRecord
	if err := s.users.FindOne(ctx, filter, opts...).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return rec.toUser(), nil
}

func (s *Store) CreateRefreshToken(ctx context.Context, t *auth.RefreshToken) error {
	uid, err := bson.ObjectIDFromHex(t.UserID)
	if err != nil {
		return auth.ErrUserNotFound
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}

	rec := refreshTokenRecord{
		ID:        bson.NewObjectID(),
		UserID:    uid,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt,
		IsRevoked: t.Revoked,
		CreatedAt: t.CreatedAt,
	}
	if _, err := s.tokens.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrTokenExists
		}
		return err
	}
	return nil
}

func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	var rec refreshTokenRecord
	if err := s.tokens.FindOne(ctx, bson.M{"token": tokenHash}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrTokenNotFound
		}
		return nil, err
	}
	return rec.toRefreshToken(), nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.tokens.UpdateOne(ctx,
		bson.M{"token": tokenHash},
		bson.M{"$set": bson.M{"isRevoked": true}},
	)
	return err
}

func (s *Store) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	uid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	_, err = s.tokens.UpdateMany(ctx,
		bson.M{"userId": uid, "isRevoked": false},
		bson.M{"$set": bson.M{"isRevoked": true}},
	)
	return err
}

func (s *Store) ConsumeRefreshToken(ctx context.Context, tokenHash string) (bool, error) {
	res, err := s.tokens.UpdateOne(ctx,
		bson.M{"token": tokenHash, "isRevoked": false},
		bson.M{"$set": bson.M{"isRevoked": true}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
