package auth

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tilestore/handler"
	"github.com/dmitrymomot/tilestore/pkg/logger"
)

// AccessVerifier verifies access tokens. *TokenService implements it.
type AccessVerifier interface {
	VerifyAccessToken(token string) (*TokenPayload, bool)
}

// Middleware gates routes on the access-token cookie.
type Middleware struct {
	verifier AccessVerifier
	cookies  *SessionCookies
	logger   *slog.Logger
}

func NewMiddleware(verifier AccessVerifier, cookies *SessionCookies, log *slog.Logger) *Middleware {
	if log == nil {
		log = logger.Noop()
	}
	return &Middleware{verifier: verifier, cookies: cookies, logger: log}
}

type requireConfig struct {
	admin bool
}

type RequireOption func(*requireConfig)

// WithAdmin additionally rejects non-admin identities with 403.
func WithAdmin() RequireOption {
	return func(c *requireConfig) { c.admin = true }
}

// RequireAuth rejects requests without a valid access token. An invalid
// token also clears the session cookies.
func (m *Middleware) RequireAuth(opts ...RequireOption) func(http.Handler) http.Handler {
	var cfg requireConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := m.cookies.AccessToken(r)
			if token == "" {
				m.reject(w, r, ErrHTTPUnauthorized)
				return
			}

			payload, ok := m.verifier.VerifyAccessToken(token)
			if !ok {
				m.cookies.Clear(w)
				m.reject(w, r, ErrHTTPTokenInvalid)
				return
			}
			if cfg.admin && !payload.IsAdmin {
				m.reject(w, r, ErrHTTPForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *payload)))
		})
	}
}

// OptionalAuth attaches the identity when a valid access token is present
// and otherwise lets the request through anonymously.
func (m *Middleware) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := m.cookies.AccessToken(r); token != "" {
				if payload, ok := m.verifier.VerifyAccessToken(token); ok {
					r = r.WithContext(WithIdentity(r.Context(), *payload))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err handler.HTTPError) {
	m.logger.DebugContext(r.Context(), "request rejected",
		slog.Int("status", err.Code),
		slog.String("reason", err.Message),
		logger.Component("auth_middleware"),
	)
	_ = handler.WriteError(w, err.Code, err.Message)
}
