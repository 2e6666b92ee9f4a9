package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// GoogleProfile is the verified content of a Google ID token.
type GoogleProfile struct {
	Subject    string
	Email      string
	Name       string
	GivenName  string
	FamilyName string
}

// GoogleVerifier checks a Google Sign-In credential against the
// application's client id. Implementations return ErrInvalidGoogleToken for
// any credential that does not verify.
type GoogleVerifier interface {
	Verify(ctx context.Context, credential string) (GoogleProfile, error)
}

type idTokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// GoogleIDTokenVerifier validates ID tokens with Google's published keys.
type GoogleIDTokenVerifier struct {
	validator idTokenValidator
	clientID  string
}

// NewGoogleIDTokenVerifier creates a verifier bound to clientID.
func NewGoogleIDTokenVerifier(ctx context.Context, clientID string, opts ...option.ClientOption) (*GoogleIDTokenVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}
	v, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create id token validator: %w", err)
	}
	return &GoogleIDTokenVerifier{validator: v, clientID: clientID}, nil
}

func (g *GoogleIDTokenVerifier) Verify(ctx context.Context, credential string) (GoogleProfile, error) {
	payload, err := g.validator.Validate(ctx, credential, g.clientID)
	if err != nil {
		return GoogleProfile{}, errors.Join(ErrInvalidGoogleToken, err)
	}
	return profileFromPayload(payload)
}

func profileFromPayload(p *idtoken.Payload) (GoogleProfile, error) {
	if p == nil {
		return GoogleProfile{}, ErrInvalidGoogleToken
	}
	claim := func(name string) string {
		s, _ := p.Claims[name].(string)
		return strings.TrimSpace(s)
	}

	profile := GoogleProfile{
		Subject:    p.Subject,
		Email:      claim("email"),
		Name:       claim("name"),
		GivenName:  claim("given_name"),
		FamilyName: claim("family_name"),
	}
	if profile.Email == "" || profile.Subject == "" {
		return GoogleProfile{}, fmt.Errorf("%w: payload has no email", ErrInvalidGoogleToken)
	}
	return profile, nil
}
