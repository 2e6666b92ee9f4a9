package account

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tilestore/handler"
	"github.com/dmitrymomot/tilestore/pkg/binder"
	"github.com/dmitrymomot/tilestore/pkg/clientip"
	"github.com/dmitrymomot/tilestore/pkg/logger"
	"github.com/dmitrymomot/tilestore/pkg/ratelimiter"
	"github.com/dmitrymomot/tilestore/svc/auth"
)

// RouterOptions wires the account module. Service, Cookies and Middleware
// are required; the rest are optional.
type RouterOptions struct {
	Service    AuthService
	Cookies    *auth.SessionCookies
	Middleware *auth.Middleware

	// Limiter throttles the credential endpoints (signup, signin, google)
	// per client IP as resolved by clientip.Middleware. Nil disables throttling.
	Limiter ratelimiter.Limiter

	Logger *slog.Logger
}

// Router returns the /api/auth routes.
//
//	r.Mount("/api/auth", account.Router(account.RouterOptions{
//	    Service:    authSvc,
//	    Cookies:    cookies,
//	    Middleware: authMw,
//	    Limiter:    bucket,
//	}))
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	h := NewHandlers(opts.Service, opts.Cookies, log)
	errHandler := handler.NewErrorHandler(log)

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(ratelimiter.Middleware(opts.Limiter,
				ratelimiter.PrefixedKey("auth", clientip.Key),
				ratelimiter.WithLimitedHandler(tooManyRequests),
				ratelimiter.WithErrorHandler(limiterFailed(log)),
			))
		}

		r.Post("/signup", handler.Wrap(h.signup,
			handler.WithBinders[handler.Context, SignupRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, SignupRequest](errHandler),
		))
		r.Post("/signin", handler.Wrap(h.signin,
			handler.WithBinders[handler.Context, SigninRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, SigninRequest](errHandler),
		))
		r.Post("/google", handler.Wrap(h.google,
			handler.WithBinders[handler.Context, GoogleRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, GoogleRequest](errHandler),
		))
	})

	r.Post("/logout", handler.Wrap(h.logout,
		handler.WithErrorHandler[handler.Context, Empty](errHandler),
	))
	r.Post("/refresh", handler.Wrap(h.refresh,
		handler.WithErrorHandler[handler.Context, Empty](errHandler),
	))
	r.Get("/verify-email", handler.Wrap(h.verifyEmail,
		handler.WithBinders[handler.Context, VerifyEmailRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, VerifyEmailRequest](errHandler),
	))

	r.Group(func(r chi.Router) {
		r.Use(opts.Middleware.RequireAuth())

		r.Post("/resetpassword", handler.Wrap(h.changePassword,
			handler.WithBinders[handler.Context, ChangePasswordRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, ChangePasswordRequest](errHandler),
		))
		r.Get("/me", handler.Wrap(h.me,
			handler.WithErrorHandler[handler.Context, Empty](errHandler),
		))
	})

	return r
}

func tooManyRequests(w http.ResponseWriter, _ *http.Request, _ ratelimiter.Result) {
	_ = handler.WriteError(w, handler.ErrTooManyRequests.Code, handler.ErrTooManyRequests.Message)
}

func limiterFailed(log *slog.Logger) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		log.ErrorContext(r.Context(), "rate limiter unavailable",
			logger.Error(err),
			logger.Component("account"),
		)
		_ = handler.WriteError(w, handler.ErrInternalServerError.Code, handler.ErrInternalServerError.Message)
	}
}
