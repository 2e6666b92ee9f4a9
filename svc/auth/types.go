package auth

import "time"

// Provider identifies how an account authenticates.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// User is a registered account.
type User struct {
	ID        string
	Email     string
	Username  string
	Firstname string
	Lastname  string

	// PasswordHash is empty for accounts created through Google.
	PasswordHash string
	GoogleID     string
	Provider     Provider

	Verified              bool
	VerificationTokenHash string
	VerificationExpiresAt time.Time

	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the public view of a user returned to clients.
type Profile struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	IsAdmin   bool     `json:"isAdmin"`
	Provider  Provider `json:"provider,omitempty"`
}

// Profile strips credentials and verification state.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		IsAdmin:   u.IsAdmin,
	}
}

// ProfileWithProvider is Profile plus the provider, as returned by Google sign-in.
func (u *User) ProfileWithProvider() Profile {
	p := u.Profile()
	p.Provider = u.Provider
	return p
}

// RefreshToken is the persisted record of an issued refresh token. Token
// holds the sha256 hex digest of the signed JWT, never the JWT itself.
type RefreshToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Valid reports whether the record can still be exchanged at now.
func (t *RefreshToken) Valid(now time.Time) bool {
	return t != nil && !t.Revoked && t.ExpiresAt.After(now)
}

// TokenPayload is the identity embedded in an access token.
type TokenPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Identity is the verified access-token payload attached to a request.
type Identity = TokenPayload

// PayloadFor builds the access-token payload of u.
func PayloadFor(u *User) TokenPayload {
	return TokenPayload{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
	}
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RefreshVerification is the outcome of checking a refresh token.
type RefreshVerification struct {
	Valid  bool
	UserID string
}
