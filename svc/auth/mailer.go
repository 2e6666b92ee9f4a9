package auth

import (
	"context"

	"github.com/dmitrymomot/tilestore/pkg/email"
)

// VerificationMailer delivers the raw email verification token to a new user.
type VerificationMailer interface {
	SendVerification(ctx context.Context, u *User, token string) error
}

// EmailVerificationMailer renders the verification message and sends it
// through an email.EmailSender.
type EmailVerificationMailer struct {
	sender  email.EmailSender
	appName string
	appURL  string
}

func NewEmailVerificationMailer(sender email.EmailSender, appName, appURL string) *EmailVerificationMailer {
	return &EmailVerificationMailer{sender: sender, appName: appName, appURL: appURL}
}

func (m *EmailVerificationMailer) SendVerification(ctx context.Context, u *User, token string) error {
	params, err := email.VerificationEmail{
		AppName:  m.appName,
		AppURL:   m.appURL,
		Username: u.Username,
		Token:    token,
	}.Params(u.Email)
	if err != nil {
		return err
	}
	return m.sender.SendEmail(ctx, params)
}
