package auth

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/tilestore/handler"
	"github.com/dmitrymomot/tilestore/pkg/validator"
)

// Storage errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrTokenNotFound = errors.New("refresh token record not found")
	ErrTokenExists   = errors.New("refresh token record already exists")
)

// Service errors.
var (
	ErrInvalidCredentials       = errors.New("incorrect email or password")
	ErrUnauthenticated          = errors.New("unauthenticated")
	ErrMissingGoogleCredential  = errors.New("google credential is required")
	ErrInvalidGoogleToken       = errors.New("invalid google token")
	ErrGoogleIdentityMismatch   = errors.New("account linked to a different google identity")
	ErrMissingRefreshToken      = errors.New("refresh token not found")
	ErrInvalidRefreshToken      = errors.New("invalid or expired refresh token")
	ErrIncorrectCurrentPassword = errors.New("incorrect current password")
	ErrSamePassword             = errors.New("new password equals current password")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
	ErrMissingSecret            = errors.New("token secret is not configured")
)

// Client-facing errors.
var (
	ErrHTTPMissingFields       = handler.NewHTTPError(http.StatusBadRequest, "Missing required fields")
	ErrHTTPUserExists          = handler.NewHTTPError(http.StatusConflict, "User already exists")
	ErrHTTPInvalidCredentials  = handler.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	ErrHTTPUnauthorized        = handler.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	ErrHTTPTokenInvalid        = handler.NewHTTPError(http.StatusUnauthorized, "Token invalid or expired")
	ErrHTTPForbidden           = handler.NewHTTPError(http.StatusForbidden, "Forbidden: Admin access required")
	ErrHTTPUserNotFound        = handler.NewHTTPError(http.StatusNotFound, "User not found")
	ErrHTTPGoogleCredential    = handler.NewHTTPError(http.StatusBadRequest, "Google credential is required")
	ErrHTTPInvalidGoogleToken  = handler.NewHTTPError(http.StatusBadRequest, "Invalid Google token")
	ErrHTTPGoogleMismatch      = handler.NewHTTPError(http.StatusConflict, "Account linked to a different Google identity")
	ErrHTTPRefreshMissing      = handler.NewHTTPError(http.StatusUnauthorized, "Refresh token not found")
	ErrHTTPRefreshInvalid      = handler.NewHTTPError(http.StatusUnauthorized, "Invalid or expired refresh token")
	ErrHTTPIncorrectPassword   = handler.NewHTTPError(http.StatusUnauthorized, "Incorrect current password")
	ErrHTTPSamePassword        = handler.NewHTTPError(http.StatusBadRequest, "New password cannot be the same as the current password")
	ErrHTTPInvalidVerification = handler.NewHTTPError(http.StatusBadRequest, "Invalid or expired verification token")
)

var httpErrors = []struct {
	err  error
	resp handler.HTTPError
}{
	{ErrUserExists, ErrHTTPUserExists},
	{ErrInvalidCredentials, ErrHTTPInvalidCredentials},
	{ErrUnauthenticated, ErrHTTPUnauthorized},
	{ErrUserNotFound, ErrHTTPUserNotFound},
	{ErrMissingGoogleCredential, ErrHTTPGoogleCredential},
	{ErrInvalidGoogleToken, ErrHTTPInvalidGoogleToken},
	{ErrGoogleIdentityMismatch, ErrHTTPGoogleMismatch},
	{ErrMissingRefreshToken, ErrHTTPRefreshMissing},
	{ErrInvalidRefreshToken, ErrHTTPRefreshInvalid},
	{ErrIncorrectCurrentPassword, ErrHTTPIncorrectPassword},
	{ErrSamePassword, ErrHTTPSamePassword},
	{ErrInvalidVerificationToken, ErrHTTPInvalidVerification},
}

// ToHTTPError maps a service error onto the client-facing taxonomy. The
// original error is kept as the cause for logging. Unknown errors become
// a 500 with a generic message.
func ToHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var httpErr handler.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	if validator.IsValidationError(err) {
		return ErrHTTPMissingFields.WithCause(err)
	}
	for _, m := range httpErrors {
		if errors.Is(err, m.err) {
			return m.resp.WithCause(err)
		}
	}
	return handler.ErrInternalServerError.WithCause(err)
}
