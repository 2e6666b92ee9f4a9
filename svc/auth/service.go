package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tilestore/pkg/logger"
	"github.com/dmitrymomot/tilestore/pkg/sanitizer"
	"github.com/dmitrymomot/tilestore/pkg/validator"
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username  string
	Email     string
	Firstname string
	Lastname  string
	Password  string
	IsAdmin   bool
}

// Service implements account registration, sign-in and session rotation.
// It never touches HTTP; callers set or clear cookies from its results.
type Service struct {
	users  UserStore
	tokens *TokenService
	google GoogleVerifier
	mailer VerificationMailer
	now    func() time.Time
	logger *slog.Logger

	adminSignup bool
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGoogleVerifier enables GoogleLogin.
func WithGoogleVerifier(v GoogleVerifier) Option {
	return func(s *Service) { s.google = v }
}

// WithVerificationMailer sends the verification link after Register.
func WithVerificationMailer(m VerificationMailer) Option {
	return func(s *Service) { s.mailer = m }
}

// WithAdminSignup controls whether Register honors RegisterInput.IsAdmin.
// It is on by default: the public signup endpoint lets callers create admin
// accounts unless this is turned off.
func WithAdminSignup(allowed bool) Option {
	return func(s *Service) { s.adminSignup = allowed }
}

func NewService(users UserStore, tokens *TokenService, opts ...Option) *Service {
	s := &Service{
		users:       users,
		tokens:      tokens,
		now:         time.Now,
		logger:      logger.Noop(),
		adminSignup: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens exposes the token service, e.g. for the auth middleware.
func (s *Service) Tokens() *TokenService { return s.tokens }

// Register creates an unverified local account. It does not sign the user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := validator.Apply(
		validator.RequiredString("username", in.Username),
		validator.RequiredString("email", in.Email),
		validator.RequiredString("firstname", in.Firstname),
		validator.RequiredString("lastname", in.Lastname),
		validator.RequiredString("password", in.Password),
	); err != nil {
		return nil, err
	}

	emailAddr := sanitizer.NormalizeEmail(in.Email)
	if _, err := s.users.GetUserByEmail(ctx, emailAddr); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	token, err := newVerificationToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &User{
		Email:                 emailAddr,
		Username:              sanitizer.SingleLine(in.Username),
		Firstname:             sanitizer.SingleLine(in.Firstname),
		Lastname:              sanitizer.SingleLine(in.Lastname),
		PasswordHash:          hash,
		Provider:              ProviderLocal,
		Verified:              false,
		VerificationTokenHash: hashToken(token),
		VerificationExpiresAt: now.Add(verificationTTL),
		IsAdmin:               in.IsAdmin && s.adminSignup,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", logger.UserID(u.ID), logger.Event("user_registered"))

	if s.mailer != nil {
		if err := s.mailer.SendVerification(ctx, u, token); err != nil {
			s.logger.WarnContext(ctx, "failed to send verification email",
				logger.UserID(u.ID),
				logger.Error(err),
			)
		}
	}
	return u, nil
}

// Login authenticates with email and password. Unknown emails, wrong
// passwords and password-less accounts all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*User, TokenPair, error) {
	if err := validator.Apply(
		validator.RequiredString("email", emailAddr),
		validator.RequiredString("password", password),
	); err != nil {
		return nil, TokenPair{}, err
	}

	u, err := s.users.GetUserByEmail(ctx, sanitizer.NormalizeEmail(emailAddr))
	if errors.Is(err, ErrUserNotFound) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if !checkPassword(u.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssueTokenPair(ctx, PayloadFor(u))
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.InfoContext(ctx, "user signed in", logger.UserID(u.ID), logger.Provider(string(ProviderLocal)))
	return u, pair, nil
}

// GoogleLogin signs in with a Google ID token, creating the account or
// linking an existing local one on first use.
func (s *Service) GoogleLogin(ctx context.Context, credential string) (*User, TokenPair, error) {
	if credential == "" {
		return nil, TokenPair{}, ErrMissingGoogleCredential
	}
	if s.google == nil {
		return nil, TokenPair{}, errors.New("google sign-in is not configured")
	}

	profile, err := s.google.Verify(ctx, credential)
	if err != nil {
		if errors.Is(err, ErrInvalidGoogleToken) {
			return nil, TokenPair{}, err
		}
		return nil, TokenPair{}, errors.Join(ErrInvalidGoogleToken, err)
	}
	if profile.Email == "" {
		return nil, TokenPair{}, ErrInvalidGoogleToken
	}
	profile.Email = sanitizer.NormalizeEmail(profile.Email)

	u, err := s.resolveGoogleUser(ctx, profile)
	if err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.tokens.IssueTokenPair(ctx, PayloadFor(u))
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.InfoContext(ctx, "user signed in", logger.UserID(u.ID), logger.Provider(string(ProviderGoogle)))
	return u, pair, nil
}

func (s *Service) resolveGoogleUser(ctx context.Context, p GoogleProfile) (*User, error) {
	u, err := s.users.FindGoogleUser(ctx, p.Email, p.Subject)
	switch {
	case err == nil:
		if u.GoogleID == "" {
			return s.linkGoogle(ctx, u, p)
		}
		if u.GoogleID != p.Subject {
			return nil, ErrGoogleIdentityMismatch
		}
		return u, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("lookup google user: %w", err)
	}

	u, err = s.users.GetUserByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if u.GoogleID != "" && u.GoogleID != p.Subject {
			return nil, ErrGoogleIdentityMismatch
		}
		return s.linkGoogle(ctx, u, p)
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	firstname := orDefault(p.GivenName, "Default")
	lastname := orDefault(p.FamilyName, "User")
	now := s.now()
	u = &User{
		Email:     p.Email,
		Username:  orDefault(p.Name, firstname+"_"+lastname),
		Firstname: firstname,
		Lastname:  lastname,
		GoogleID:  p.Subject,
		Provider:  ProviderGoogle,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}
	s.logger.InfoContext(ctx, "user registered", logger.UserID(u.ID), logger.Provider(string(ProviderGoogle)), logger.Event("user_registered"))
	return u, nil
}

func (s *Service) linkGoogle(ctx context.Context, u *User, p GoogleProfile) (*User, error) {
	u.GoogleID = p.Subject
	u.Provider = ProviderGoogle
	u.Verified = true
	u.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("link google account: %w", err)
	}
	s.logger.InfoContext(ctx, "google account linked", logger.UserID(u.ID), logger.Event("google_linked"))
	return u, nil
}

// Logout revokes the refresh token if one is given. It is idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.RevokeRefreshToken(ctx, refreshToken)
}

// Refresh exchanges a refresh token for a new pair. The old token is
// consumed before the new pair is issued, so a token is usable once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*User, TokenPair, error) {
	if refreshToken == "" {
		return nil, TokenPair{}, ErrMissingRefreshToken
	}

	v, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if !v.Valid || v.UserID == "" {
		return nil, TokenPair{}, ErrInvalidRefreshToken
	}

	u, err := s.users.GetUserByID(ctx, v.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, TokenPair{}, ErrUserNotFound
	}
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	won, err := s.tokens.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if !won {
		s.logger.WarnContext(ctx, "refresh token reused", logger.UserID(u.ID), logger.Event("refresh_token_reuse"))
		return nil, TokenPair{}, ErrInvalidRefreshToken
	}

	pair, err := s.tokens.IssueTokenPair(ctx, PayloadFor(u))
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// ChangePassword revokes every refresh token of userID, then replaces the
// password, forcing a new sign-in everywhere. A failed revocation leaves the
// old password in place.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if err := validator.Apply(
		validator.RequiredString("currentPassword", current),
		validator.RequiredString("newPassword", next),
	); err != nil {
		return err
	}

	u, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !checkPassword(u.PasswordHash, current) {
		return ErrIncorrectCurrentPassword
	}
	if current == next {
		return ErrSamePassword
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	if err := s.tokens.RevokeAllUserRefreshTokens(ctx, u.ID); err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", logger.UserID(u.ID), logger.Event("password_changed"))
	return nil
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// VerifyEmail marks the owner of a verification token as verified. The
// token is single use.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidVerificationToken
	}

	u, err := s.users.GetUserByVerificationToken(ctx, hashToken(token))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidVerificationToken
	}
	if err != nil {
		return nil, fmt.Errorf("lookup verification token: %w", err)
	}

	now := s.now()
	if !u.VerificationExpiresAt.After(now) {
		return nil, ErrInvalidVerificationToken
	}

	u.Verified = true
	u.VerificationTokenHash = ""
	u.VerificationExpiresAt = time.Time{}
	u.UpdatedAt = now
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	s.logger.InfoContext(ctx, "email verified", logger.UserID(u.ID), logger.Event("email_verified"))
	return u, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
