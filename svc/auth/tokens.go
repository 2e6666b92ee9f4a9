package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tilestore/pkg/jwt"
	"github.com/dmitrymomot/tilestore/pkg/logger"
)

type accessClaims struct {
	TokenPayload
	jwt.RegisteredClaims
}

// TokenService issues and verifies access and refresh tokens. Access tokens
// are verified statelessly; refresh tokens are only valid while their
// stored record is.
type TokenService struct {
	access     *jwt.Service
	refresh    *jwt.Service
	store      TokenStore
	now        func() time.Time
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
}

type TokenOption func(*TokenService)

func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithTokenLogger(log *slog.Logger) TokenOption {
	return func(s *TokenService) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewTokenService builds a TokenService from cfg. Zero TTLs fall back to
// 15 minutes and 30 days.
func NewTokenService(cfg Config, store TokenStore, opts ...TokenOption) (*TokenService, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, ErrMissingSecret
	}

	s := &TokenService{
		store:  store,
		now:    time.Now,
		logger: logger.Noop(),
	}
	s.accessTTL, s.refreshTTL = cfg.tokenTTLs()
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.access, err = jwt.NewFromString(cfg.AccessTokenSecret, jwt.WithClock(s.now)); err != nil {
		return nil, fmt.Errorf("access token signer: %w", err)
	}
	if s.refresh, err = jwt.NewFromString(cfg.RefreshTokenSecret, jwt.WithClock(s.now)); err != nil {
		return nil, fmt.Errorf("refresh token signer: %w", err)
	}
	return s, nil
}

// IssueTokenPair signs both tokens and stores the refresh record. No pair
// is returned when the record cannot be stored.
func (s *TokenService) IssueTokenPair(ctx context.Context, payload TokenPayload) (TokenPair, error) {
	now := s.now()

	access, err := s.access.Generate(accessClaims{
		TokenPayload: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshClaims := jwt.RegisteredClaims{
		Subject:   payload.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
	}
	refresh, err := s.refresh.Generate(refreshClaims)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	record := &RefreshToken{
		UserID:    payload.ID,
		Token:     hashToken(refresh),
		ExpiresAt: refreshClaims.ExpiresAt.Time,
		CreatedAt: now,
	}
	if err := s.store.CreateRefreshToken(ctx, record); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccessToken reports the embedded payload. Every failure mode
// yields false.
func (s *TokenService) VerifyAccessToken(token string) (*TokenPayload, bool) {
	if token == "" {
		return nil, false
	}
	var claims accessClaims
	if err := s.access.Parse(token, &claims); err != nil {
		return nil, false
	}
	if claims.TokenPayload.ID == "" {
		return nil, false
	}
	payload := claims.TokenPayload
	return &payload, true
}

// VerifyRefreshToken checks the stored record, which is authoritative. The
// signature is checked first so garbage never reaches the store.
func (s *TokenService) VerifyRefreshToken(ctx context.Context, token string) (RefreshVerification, error) {
	if token == "" {
		return RefreshVerification{}, nil
	}
	var claims jwt.RegisteredClaims
	if err := s.refresh.Parse(token, &claims); err != nil {
		return RefreshVerification{}, nil
	}

	record, err := s.store.GetRefreshToken(ctx, hashToken(token))
	if errors.Is(err, ErrTokenNotFound) {
		return RefreshVerification{}, nil
	}
	if err != nil {
		return RefreshVerification{}, fmt.Errorf("load refresh token: %w", err)
	}
	if !record.Valid(s.now()) {
		return RefreshVerification{}, nil
	}
	return RefreshVerification{Valid: true, UserID: record.UserID}, nil
}

// RevokeRefreshToken marks the record revoked. Unknown tokens are ignored.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.RevokeRefreshToken(ctx, hashToken(token)); err != nil && !errors.Is(err, ErrTokenNotFound) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *TokenService) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	if err := s.store.RevokeAllUserRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	s.logger.DebugContext(ctx, "revoked all refresh tokens", logger.UserID(userID), logger.Event("refresh_tokens_revoked"))
	return nil
}

// ConsumeRefreshToken revokes a live token and reports whether this call
// won. Exactly one of several concurrent callers gets true.
func (s *TokenService) ConsumeRefreshToken(ctx context.Context, token string) (bool, error) {
	ok, err := s.store.ConsumeRefreshToken(ctx, hashToken(token))
	if err != nil {
		return false, fmt.Errorf("consume refresh token: %w", err)
	}
	return ok, nil
}
