package auth_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tilestore/handler"
	"github.com/dmitrymomot/tilestore/pkg/validator"
	"github.com/dmitrymomot/tilestore/svc/auth"
)

func TestToHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", validator.Apply(validator.RequiredString("email", "")), http.StatusBadRequest, "Missing required fields"},
		{"duplicate", auth.ErrUserExists, http.StatusConflict, "User already exists"},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect email or password"},
		{"no identity", auth.ErrUnauthenticated, http.StatusUnauthorized, "Unauthorized"},
		{"user gone", auth.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{"google missing", auth.ErrMissingGoogleCredential, http.StatusBadRequest, "Google credential is required"},
		{"google invalid", errors.Join(auth.ErrInvalidGoogleToken, errors.New("aud")), http.StatusBadRequest, "Invalid Google token"},
		{"google mismatch", auth.ErrGoogleIdentityMismatch, http.StatusConflict, "Account linked to a different Google identity"},
		{"refresh missing", auth.ErrMissingRefreshToken, http.StatusUnauthorized, "Refresh token not found"},
		{"refresh invalid", auth.ErrInvalidRefreshToken, http.StatusUnauthorized, "Invalid or expired refresh token"},
		{"wrong current", auth.ErrIncorrectCurrentPassword, http.StatusUnauthorized, "Incorrect current password"},
		{"same password", auth.ErrSamePassword, http.StatusBadRequest, "New password cannot be the same as the current password"},
		{"verification", auth.ErrInvalidVerificationToken, http.StatusBadRequest, "Invalid or expired verification token"},
		{"wrapped", fmt.Errorf("lookup: %w", auth.ErrUserNotFound), http.StatusNotFound, "User not found"},
		{"unknown", errors.New("mongo: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, msg := handler.Classify(auth.ToHTTPError(tt.err))
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, msg)
		})
	}

	assert.NoError(t, auth.ToHTTPError(nil))
}

func TestToHTTPError_KeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("mongo: connection refused")
	err := auth.ToHTTPError(cause)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, func() string { _, m := handler.Classify(err); return m }(), "mongo")
}
