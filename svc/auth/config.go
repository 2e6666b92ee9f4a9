package auth

import "time"

// Config holds token secrets and the Google client binding.
type Config struct {
	AccessTokenSecret  string `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret string `env:"REFRESH_TOKEN_SECRET,required"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	CookieDomain       string `env:"COOKIE_DOMAIN"`

	// AllowAdminSignup lets the public signup request set isAdmin.
	AllowAdminSignup bool `env:"ALLOW_ADMIN_SIGNUP" envDefault:"true"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
}

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour

	// verificationTTL bounds how long an email verification link stays valid.
	verificationTTL = 24 * time.Hour

	bcryptCost = 10
)

// tokenTTLs returns the configured lifetimes with defaults for unset values.
func (c Config) tokenTTLs() (access, refresh time.Duration) {
	access, refresh = c.AccessTokenTTL, c.RefreshTokenTTL
	if access <= 0 {
		access = defaultAccessTokenTTL
	}
	if refresh <= 0 {
		refresh = defaultRefreshTokenTTL
	}
	return access, refresh
}
