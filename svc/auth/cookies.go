package auth

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/tilestore/pkg/cookie"
	"github.com/dmitrymomot/tilestore/pkg/environment"
)

const (
	AccessTokenCookie  = "auth_access_token"
	RefreshTokenCookie = "refresh_token"
)

// SessionCookies writes and reads the session token cookies. In production
// they are Secure, SameSite=None and scoped to the cookie domain so a
// separately hosted frontend can send them; elsewhere they are SameSite=Lax
// host-only cookies.
type SessionCookies struct {
	cookies *cookie.Manager

	accessMaxAge  int
	refreshMaxAge int
}

// NewSessionCookies derives cookie lifetimes from the token TTLs in cfg. The
// access cookie lives as long as the access token; the refresh cookie
// expires a fifteenth of the refresh TTL early (28 of 30 days by default),
// so browsers drop it before the stored token lapses.
func NewSessionCookies(env environment.Environment, cfg Config) *SessionCookies {
	accessTTL, refreshTTL := cfg.tokenTTLs()

	opts := []cookie.Option{
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	}
	if env.IsProduction() {
		opts = append(opts,
			cookie.WithSecure(true),
			cookie.WithSameSite(http.SameSiteNoneMode),
			cookie.WithDomain(cfg.CookieDomain),
		)
	}
	return &SessionCookies{
		cookies:       cookie.New(opts...),
		accessMaxAge:  seconds(accessTTL),
		refreshMaxAge: seconds(refreshTTL - refreshTTL/15),
	}
}

func seconds(d time.Duration) int {
	return max(int(d/time.Second), 1)
}

func (c *SessionCookies) Set(w http.ResponseWriter, pair TokenPair) {
	c.cookies.Set(w, AccessTokenCookie, pair.AccessToken, cookie.WithMaxAge(c.accessMaxAge))
	c.cookies.Set(w, RefreshTokenCookie, pair.RefreshToken, cookie.WithMaxAge(c.refreshMaxAge))
}

// Clear expires both cookies with the attributes they were set with.
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	c.cookies.Delete(w, AccessTokenCookie)
	c.cookies.Delete(w, RefreshTokenCookie)
}

// AccessToken returns the access cookie value or "".
func (c *SessionCookies) AccessToken(r *http.Request) string {
	v, _ := c.cookies.Get(r, AccessTokenCookie)
	return v
}

// RefreshToken returns the refresh cookie value or "".
func (c *SessionCookies) RefreshToken(r *http.Request) string {
	v, _ := c.cookies.Get(r, RefreshTokenCookie)
	return v
}
