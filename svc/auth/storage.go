package auth

import "context"

// UserStore persists accounts. Emails are passed in normalized form.
type UserStore interface {
	// CreateUser assigns u.ID. Returns ErrUserExists when (email, provider)
	// is taken.
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	// GetUserByEmail returns a user with the given email under any provider,
	// preferring the local one.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// FindGoogleUser matches (email, provider=google) or googleID.
	FindGoogleUser(ctx context.Context, email, googleID string) (*User, error)
	GetUserByVerificationToken(ctx context.Context, tokenHash string) (*User, error)
	// UpdateUser overwrites every mutable field of u.
	UpdateUser(ctx context.Context, u *User) error
}

// TokenStore persists refresh token records keyed by token hash.
type TokenStore interface {
	CreateRefreshToken(ctx context.Context, t *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// RevokeRefreshToken is idempotent; a missing record is not an error.
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error
	// ConsumeRefreshToken flips revoked from false to true atomically and
	// reports whether this call performed the flip.
	ConsumeRefreshToken(ctx context.Context, tokenHash string) (bool, error)
}

// Storage is everything the auth service persists.
type Storage interface {
	UserStore
	TokenStore
}
