package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// VerificationEmail is the data for the address confirmation message.
type VerificationEmail struct {
	AppName  string
	AppURL   string
	Username string
	Token    string
}

// Link is the absolute verification URL.
func (v VerificationEmail) Link() string {
	return strings.TrimRight(v.AppURL, "/") + "/api/auth/verify-email?token=" + url.QueryEscape(v.Token)
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <p>Hi {{.Username}},</p>
  <p>Thanks for signing up to {{.AppName}}. Please confirm your email address within 24 hours.</p>
  <p><a href="{{.Link}}" style="background:#2563eb;color:#fff;padding:10px 16px;border-radius:4px;text-decoration:none;">Verify email</a></p>
  <p>If the button does not work, paste this link into your browser:<br>{{.Link}}</p>
  <p>If you did not create an account, ignore this message.</p>
</body>
</html>`))

// Params renders the message for recipient.
func (v VerificationEmail) Params(recipient string) (SendEmailParams, error) {
	var buf bytes.Buffer
	if err := verificationTmpl.Execute(&buf, v); err != nil {
		return SendEmailParams{}, fmt.Errorf("render verification email: %w", err)
	}
	return SendEmailParams{
		SendTo:   recipient,
		Subject:  fmt.Sprintf("Verify your %s account", v.AppName),
		BodyHTML: buf.String(),
		Tag:      "email-verification",
	}, nil
}
