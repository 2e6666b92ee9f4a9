package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/tilestore/svc/auth"
)

type userRecord struct {
	ID                    bson.ObjectID `bson:"_id,omitempty"`
	Username              string        `bson:"username"`
	Email                 string        `bson:"email"`
	Firstname             string        `bson:"firstname"`
	Lastname              string        `bson:"lastname"`
	Password              string        `bson:"password,omitempty"`
	IsAdmin               bool          `bson:"isAdmin"`
	GoogleID              string        `bson:"googleId,omitempty"`
	Provider              string        `bson:"provider"`
	IsVerified            bool          `bson:"isVerified"`
	VerificationTokenHash string        `bson:"emailVerificationToken,omitempty"`
	VerificationExpiresAt *time.Time    `bson:"emailVerificationExpires,omitempty"`
	CreatedAt             time.Time     `bson:"createdAt"`
	UpdatedAt             time.Time     `bson:"updatedAt"`
}

func toUserRecord(u *auth.User) (userRecord, error) {
	rec := userRecord{
		Username:              u.Username,
		Email:                 u.Email,
		Firstname:             u.Firstname,
		Lastname:              u.Lastname,
		Password:              u.PasswordHash,
		IsAdmin:               u.IsAdmin,
		GoogleID:              u.GoogleID,
		Provider:              string(u.Provider),
		IsVerified:            u.Verified,
		VerificationTokenHash: u.VerificationTokenHash,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
	if !u.VerificationExpiresAt.IsZero() {
		exp := u.VerificationExpiresAt
		rec.VerificationExpiresAt = &exp
	}
	if u.ID != "" {
		id, err := bson.ObjectIDFromHex(u.ID)
		if err != nil {
			return userRecord{}, auth.ErrUserNotFound
		}
		rec.ID = id
	}
	return rec, nil
}

func (r userRecord) toUser() *auth.User {
	u := &auth.User{
		ID:                    r.ID.Hex(),
		Email:                 r.Email,
		Username:              r.Username,
		Firstname:             r.Firstname,
		Lastname:              r.Lastname,
		PasswordHash:          r.Password,
		GoogleID:              r.GoogleID,
		Provider:              auth.Provider(r.Provider),
		Verified:              r.IsVerified,
		VerificationTokenHash: r.VerificationTokenHash,
		IsAdmin:               r.IsAdmin,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
	if u.Provider == "" {
		u.Provider = auth.ProviderLocal
	}
	if r.VerificationExpiresAt != nil {
		u.VerificationExpiresAt = *r.VerificationExpiresAt
	}
	return u
}

type refreshTokenRecord struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"userId"`
	Token     string        `bson:"token"`
	ExpiresAt time.Time     `bson:"expiresAt"`
	IsRevoked bool          `bson:"isRevoked"`
	CreatedAt time.Time     `bson:"createdAt"`
}

func (r refreshTokenRecord) toRefreshToken() *auth.RefreshToken {
	return &auth.RefreshToken{
		UserID:    r.UserID.Hex(),
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
		Revoked:   r.IsRevoked,
		CreatedAt: r.CreatedAt,
	}
}
