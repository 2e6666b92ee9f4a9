package email

// Config selects and configures the outbound mail transport.
//
// Postmark is used when both Postmark tokens are set, SMTP when SMTPHost is
// set, otherwise messages are written to DevDir.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	SenderEmail  string `env:"SENDER_EMAIL" envDefault:"noreply@tilestore.local"`
	SupportEmail string `env:"SUPPORT_EMAIL" envDefault:"support@tilestore.local"`

	DevDir string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

func (c Config) postmarkEnabled() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}

func (c Config) smtpEnabled() bool {
	return c.SMTPHost != ""
}
