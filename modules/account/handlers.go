package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tilestore/handler"
	"github.com/dmitrymomot/tilestore/pkg/logger"
	"github.com/dmitrymomot/tilestore/svc/auth"
)

// AuthService is the part of *auth.Service the HTTP layer drives.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.User, error)
	Login(ctx context.Context, email, password string) (*auth.User, auth.TokenPair, error)
	GoogleLogin(ctx context.Context, credential string) (*auth.User, auth.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*auth.User, auth.TokenPair, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	CurrentUser(ctx context.Context, userID string) (*auth.User, error)
	VerifyEmail(ctx context.Context, token string) (*auth.User, error)
}

// Handlers serves the /api/auth endpoints. Session tokens travel only in
// cookies; response bodies carry the public profile.
type Handlers struct {
	svc     AuthService
	cookies *auth.SessionCookies
	logger  *slog.Logger
}

func NewHandlers(svc AuthService, cookies *auth.SessionCookies, log *slog.Logger) *Handlers {
	if log == nil {
		log = logger.Noop()
	}
	return &Handlers{svc: svc, cookies: cookies, logger: log}
}

type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Password  string `json:"password"`
	// IsAdmin is client controlled; it only takes effect while admin signup
	// is enabled on the service.
	IsAdmin   bool   `json:"isAdmin"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleRequest struct {
	Credential string `json:"credential"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type VerifyEmailRequest struct {
	Token string `query:"token"`
}

// Empty is the request type of endpoints without a body.
type Empty struct{}

func fail(err error) handler.Response {
	return handler.Error(auth.ToHTTPError(err))
}

func (h *Handlers) signup(ctx handler.Context, req SignupRequest) handler.Response {
	_, err := h.svc.Register(ctx, auth.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Password:  req.Password,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		return fail(err)
	}
	return handler.Success("Registration successful!", handler.WithStatus(http.StatusCreated))
}

func (h *Handlers) signin(ctx handler.Context, req SigninRequest) handler.Response {
	u, pair, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(err)
	}
	h.cookies.Set(ctx.ResponseWriter(), pair)
	return handler.JSON(handler.WithUser(u.Profile()))
}

func (h *Handlers) google(ctx handler.Context, req GoogleRequest) handler.Response {
	u, pair, err := h.svc.GoogleLogin(ctx, req.Credential)
	if err != nil {
		return fail(err)
	}
	h.cookies.Set(ctx.ResponseWriter(), pair)
	return handler.JSON(handler.WithUser(u.ProfileWithProvider()))
}

// logout always succeeds from the client's point of view; a failed
// revocation is logged and the cookies are cleared regardless.
func (h *Handlers) logout(ctx handler.Context, _ Empty) handler.Response {
	if token := h.cookies.RefreshToken(ctx.Request()); token != "" {
		if err := h.svc.Logout(ctx, token); err != nil {
			h.logger.ErrorContext(ctx, "failed to revoke refresh token",
				logger.Error(err),
				logger.Component("account"),
			)
		}
	}
	h.cookies.Clear(ctx.ResponseWriter())
	return handler.Success("Logged out successfully")
}

func (h *Handlers) refresh(ctx handler.Context, _ Empty) handler.Response {
	token := h.cookies.RefreshToken(ctx.Request())
	u, pair, err := h.svc.Refresh(ctx, token)
	if err != nil {
		h.cookies.Clear(ctx.ResponseWriter())
		return fail(err)
	}
	h.cookies.Set(ctx.ResponseWriter(), pair)
	return handler.JSON(handler.WithUser(u.Profile()))
}

func (h *Handlers) changePassword(ctx handler.Context, req ChangePasswordRequest) handler.Response {
	id, _ := auth.IdentityFromContext(ctx)
	if err := h.svc.ChangePassword(ctx, id.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return fail(err)
	}
	h.cookies.Clear(ctx.ResponseWriter())
	return handler.Success("Password updated successfully. Please login again.")
}

func (h *Handlers) me(ctx handler.Context, _ Empty) handler.Response {
	id, _ := auth.IdentityFromContext(ctx)
	u, err := h.svc.CurrentUser(ctx, id.ID)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(handler.WithUser(u.Profile()))
}

func (h *Handlers) verifyEmail(ctx handler.Context, req VerifyEmailRequest) handler.Response {
	u, err := h.svc.VerifyEmail(ctx, req.Token)
	if err != nil {
		return fail(err)
	}
	return handler.Success("Email verified successfully", handler.WithUser(u.Profile()))
}
