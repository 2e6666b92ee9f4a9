// Package cookie writes and reads HTTP cookies with a shared set of default
// attributes, so every cookie a service emits agrees on scope and security.
//
// A Manager holds the defaults (path "/", HttpOnly, SameSite=Lax). Options
// passed to New replace them for every cookie; options passed to Set or
// Delete apply to that call only. Delete expires a cookie with the same
// attributes it was written with, which browsers require to drop it.
//
// # Usage
//
//	m := cookie.New(
//	    cookie.WithSecure(true),
//	    cookie.WithSameSite(http.SameSiteNoneMode),
//	    cookie.WithDomain("example.com"),
//	)
//
//	m.Set(w, "refresh_token", token, cookie.WithMaxAge(3600))
//	v, err := m.Get(r, "refresh_token") // ErrCookieNotFound when absent
//	m.Delete(w, "refresh_token")
package cookie
