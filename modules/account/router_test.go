package account_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tilestore/modules/account"
	"github.com/dmitrymomot/tilestore/pkg/clientip"
	"github.com/dmitrymomot/tilestore/pkg/environment"
	"github.com/dmitrymomot/tilestore/pkg/ratelimiter"
	"github.com/dmitrymomot/tilestore/svc/auth"
)

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *captureMailer) SendVerification(_ context.Context, u *auth.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[u.Email] = token
	return nil
}

func (m *captureMailer) token(emailAddr string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[emailAddr]
}

type envelope struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	User    *auth.Profile `json:"user"`
}

type fixture struct {
	srv    *httptest.Server
	mailer *captureMailer
}

func newFixture(t *testing.T, limiter ratelimiter.Limiter, trustedProxies ...netip.Prefix) *fixture {
	t.Helper()

	store := auth.NewMemoryStore()
	tokens, err := auth.NewTokenService(auth.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
	}, store)
	require.NoError(t, err)

	mailer := &captureMailer{tokens: map[string]string{}}
	svc := auth.NewService(store, tokens, auth.WithVerificationMailer(mailer))
	cookies := auth.NewSessionCookies(environment.Development, auth.Config{})

	router := account.Router(account.RouterOptions{
		Service:    svc,
		Cookies:    cookies,
		Middleware: auth.NewMiddleware(tokens, cookies, nil),
		Limiter:    limiter,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/auth/", http.StripPrefix("/api/auth", router))
	srv := httptest.NewServer(clientip.Middleware(trustedProxies...)(mux))
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, mailer: mailer}
}

func (f *fixture) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) (*http.Response, envelope) {
	t.Helper()

	var req *http.Request
	var err error
	if body != "" {
		req, err = http.NewRequest(method, f.srv.URL+"/api/auth"+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, f.srv.URL+"/api/auth"+path, nil)
		require.NoError(t, err)
	}
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

// signinVia posts bad credentials with the given X-Forwarded-For value and
// returns the status code.
func (f *fixture) signinVia(t *testing.T, forwardedFor string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/api/auth/signin",
		strings.NewReader(`{"email":"x@example.com","password":"p"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func assertCleared(t *testing.T, resp *http.Response) {
	t.Helper()
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		c := findCookie(resp, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
}

const signupBody = `{"username":"alice","email":"Alice@Example.com","firstname":"Alice","lastname":"Smith","password":"s3cret"}`

func TestRouter_SessionLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	resp, env := f.do(t, http.MethodPost, "/signup", signupBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "Registration successful!", env.Message)
	assert.Nil(t, findCookie(resp, auth.AccessTokenCookie))

	resp, env = f.do(t, http.MethodPost, "/signup", signupBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "User already exists", env.Message)

	resp, env = f.do(t, http.MethodPost, "/signin", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Incorrect email or password", env.Message)

	resp, env = f.do(t, http.MethodPost, "/signin", `{"email":"alice@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, env.User)
	assert.Equal(t, "alice@example.com", env.User.Email)
	assert.Empty(t, env.User.Provider)

	access := findCookie(resp, auth.AccessTokenCookie)
	refresh := findCookie(resp, auth.RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, 900, access.MaxAge)
	assert.Equal(t, 2419200, refresh.MaxAge)

	resp, env = f.do(t, http.MethodGet, "/me", "", access)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", env.User.Username)

	resp, env = f.do(t, http.MethodPost, "/refresh", "", refresh)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@example.com", env.User.Email)
	rotated := findCookie(resp, auth.RefreshTokenCookie)
	require.NotNil(t, rotated)
	assert.NotEqual(t, refresh.Value, rotated.Value)
	access = findCookie(resp, auth.AccessTokenCookie)

	resp, env = f.do(t, http.MethodPost, "/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or expired refresh token", env.Message)
	assertCleared(t, resp)

	resp, env = f.do(t, http.MethodPost, "/resetpassword", `{"currentPassword":"s3cret","newPassword":"s3cret"}`, access)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "New password cannot be the same as the current password", env.Message)

	resp, env = f.do(t, http.MethodPost, "/resetpassword", `{"currentPassword":"nope","newPassword":"n3w"}`, access)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Incorrect current password", env.Message)

	resp, env = f.do(t, http.MethodPost, "/resetpassword", `{"currentPassword":"s3cret","newPassword":"n3w"}`, access)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password updated successfully. Please login again.", env.Message)
	assertCleared(t, resp)

	// Every refresh token of the user is revoked by the password change.
	resp, _ = f.do(t, http.MethodPost, "/refresh", "", rotated)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/signin", `{"email":"alice@example.com","password":"n3w"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refresh = findCookie(resp, auth.RefreshTokenCookie)

	resp, env = f.do(t, http.MethodPost, "/logout", "", refresh)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", env.Message)
	assertCleared(t, resp)

	resp, env = f.do(t, http.MethodGet, "/me", "", findCookie(resp, auth.AccessTokenCookie))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", env.Message)

	resp, _ = f.do(t, http.MethodPost, "/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		code    int
		message string
	}{
		{"signup without body", http.MethodPost, "/signup", "", http.StatusBadRequest, "Missing required fields"},
		{"signup missing field", http.MethodPost, "/signup", `{"email":"a@b.c","password":"x"}`, http.StatusBadRequest, "Missing required fields"},
		{"signin missing password", http.MethodPost, "/signin", `{"email":"a@b.c"}`, http.StatusBadRequest, "Missing required fields"},
		{"signin malformed json", http.MethodPost, "/signin", `{"email":`, http.StatusBadRequest, "Invalid request body"},
		{"google without credential", http.MethodPost, "/google", `{}`, http.StatusBadRequest, "Google credential is required"},
		{"refresh without cookie", http.MethodPost, "/refresh", "", http.StatusUnauthorized, "Refresh token not found"},
		{"me without cookie", http.MethodGet, "/me", "", http.StatusUnauthorized, "Unauthorized"},
		{"reset without cookie", http.MethodPost, "/resetpassword", `{}`, http.StatusUnauthorized, "Unauthorized"},
		{"verify without token", http.MethodGet, "/verify-email", "", http.StatusBadRequest, "Invalid or expired verification token"},
		{"verify unknown token", http.MethodGet, "/verify-email?token=abc", "", http.StatusBadRequest, "Invalid or expired verification token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, env := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, tt.message, env.Message)
		})
	}

	t.Run("logout without cookie", func(t *testing.T) {
		t.Parallel()
		resp, env := f.do(t, http.MethodPost, "/logout", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Logged out successfully", env.Message)
		assertCleared(t, resp)
	})

	t.Run("invalid access token", func(t *testing.T) {
		t.Parallel()
		resp, env := f.do(t, http.MethodGet, "/me", "", &http.Cookie{Name: auth.AccessTokenCookie, Value: "garbage"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Token invalid or expired", env.Message)
		assertCleared(t, resp)
	})
}

func TestRouter_VerifyEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	resp, _ := f.do(t, http.MethodPost, "/signup", signupBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	token := f.mailer.token("alice@example.com")
	require.NotEmpty(t, token)

	resp, env := f.do(t, http.MethodGet, "/verify-email?token="+token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Email verified successfully", env.Message)
	assert.Equal(t, "alice@example.com", env.User.Email)

	resp, _ = f.do(t, http.MethodGet, "/verify-email?token="+token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func newTightBucket(t *testing.T) *ratelimiter.Bucket {
	t.Helper()

	store := ratelimiter.NewMemoryStore(0)
	t.Cleanup(store.Close)
	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       2,
		RefillRate:     1,
		RefillInterval: time.Hour,
	})
	require.NoError(t, err)
	return bucket
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, newTightBucket(t))

	for range 2 {
		resp, _ := f.do(t, http.MethodPost, "/signin", `{"email":"x@example.com","password":"p"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, env := f.do(t, http.MethodPost, "/signin", `{"email":"x@example.com","password":"p"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests, please try again later", env.Message)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Session endpoints are not throttled.
	resp, _ = f.do(t, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_RateLimitForwardedFor(t *testing.T) {
	t.Parallel()

	t.Run("untrusted peer cannot rotate buckets", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, newTightBucket(t))

		throttled := 0
		for i := range 20 {
			if f.signinVia(t, fmt.Sprintf("10.0.0.%d", i+1)) == http.StatusTooManyRequests {
				throttled++
			}
		}
		assert.Equal(t, 18, throttled)
	})

	t.Run("trusted proxy forwards client address", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, newTightBucket(t), netip.MustParsePrefix("127.0.0.0/8"), netip.MustParsePrefix("::1/128"))

		for range 2 {
			assert.Equal(t, http.StatusUnauthorized, f.signinVia(t, "198.51.100.1"))
		}
		assert.Equal(t, http.StatusTooManyRequests, f.signinVia(t, "198.51.100.1"))
		assert.Equal(t, http.StatusUnauthorized, f.signinVia(t, "198.51.100.2"))
	})
}
