package email

// Config holds email service configuration. API credentials are optional so
// development environments can run with the dev sender instead of a live
// Mailgun account; SenderEmail establishes the sender identity for all
// outbound mail.
type Config struct {
	MailgunDomain string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey string `env:"MAILGUN_API_KEY"`
	SenderName    string `env:"SENDER_NAME" envDefault:"Grail"`
	SenderEmail   string `env:"SENDER_EMAIL,required"`
}
