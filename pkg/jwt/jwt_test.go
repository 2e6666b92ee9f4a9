package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tilestore/pkg/jwt"
)

type sessionClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, key string) *jwt.Service {
	t.Helper()
	svc, err := jwt.NewFromString(key, jwt.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return svc
}

func claimsExpiringIn(d time.Duration) *sessionClaims {
	return &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(fixedNow),
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(d)),
		},
		Email:   "a@x.com",
		IsAdmin: true,
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := jwt.New(nil)
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)

	_, err = jwt.NewFromString("")
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)

	svc, err := jwt.NewFromString("secret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), svc.Now(), time.Second)
}

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	svc := newService(t, "access-secret")

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		token, err := svc.Generate(claimsExpiringIn(15 * time.Minute))
		require.NoError(t, err)

		var got sessionClaims
		require.NoError(t, svc.Parse(token, &got))
		assert.Equal(t, "user-1", got.Subject)
		assert.Equal(t, "a@x.com", got.Email)
		assert.True(t, got.IsAdmin)
		assert.Equal(t, fixedNow.Add(15*time.Minute), got.ExpiresAt.Time.UTC())
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		token, err := svc.Generate(claimsExpiringIn(-time.Minute))
		require.NoError(t, err)

		err = svc.Parse(token, &sessionClaims{})
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("missing exp is rejected", func(t *testing.T) {
		t.Parallel()
		token, err := svc.Generate(&sessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "x"}})
		require.NoError(t, err)

		assert.ErrorIs(t, svc.Parse(token, &sessionClaims{}), jwt.ErrInvalidToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		other := newService(t, "refresh-secret")
		token, err := other.Generate(claimsExpiringIn(time.Hour))
		require.NoError(t, err)

		assert.ErrorIs(t, svc.Parse(token, &sessionClaims{}), jwt.ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		t.Parallel()
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, claimsExpiringIn(time.Hour)).SignedString([]byte("access-secret"))
		require.NoError(t, err)

		assert.ErrorIs(t, svc.Parse(token, &sessionClaims{}), jwt.ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		t.Parallel()
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claimsExpiringIn(time.Hour)).SignedString(gojwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		assert.ErrorIs(t, svc.Parse(token, &sessionClaims{}), jwt.ErrInvalidToken)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		for _, token := range []string{"", "abc", "a.b.c"} {
			assert.ErrorIs(t, svc.Parse(token, &sessionClaims{}), jwt.ErrInvalidToken, token)
		}
	})

	t.Run("nil claims", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Generate(nil)
		assert.ErrorIs(t, err, jwt.ErrMissingClaims)
		assert.ErrorIs(t, svc.Parse("x", nil), jwt.ErrMissingClaims)
	})
}
