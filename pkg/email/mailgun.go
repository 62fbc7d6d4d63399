package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
)

type mailgunSender struct {
	client *mailgun.MailgunImpl
	config Config
}

// NewMailgunSender creates a Mailgun-backed email sender. All credentials are
// required for runtime operation; this enforces explicit configuration rather
// than silent failures in production.
func NewMailgunSender(cfg Config) (Sender, error) {
	if cfg.MailgunDomain == "" {
		return nil, fmt.Errorf("%w: MailgunDomain is required", ErrInvalidConfig)
	}
	if cfg.MailgunAPIKey == "" {
		return nil, fmt.Errorf("%w: MailgunAPIKey is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" || !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}

	return &mailgunSender{
		client: mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey),
		config: cfg,
	}, nil
}

// MustNewMailgunSender creates a Mailgun sender that panics on invalid config,
// failing fast during initialization.
func MustNewMailgunSender(cfg Config) Sender {
	s, err := NewMailgunSender(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Send delivers the email through Mailgun's messages API.
func (s *mailgunSender) Send(ctx context.Context, params SendParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	from := fmt.Sprintf("%s <%s>", s.config.SenderName, s.config.SenderEmail)
	msg := s.client.NewMessage(from, params.Subject, "", params.To)
	msg.SetHtml(params.BodyHTML)
	if params.Tag != "" {
		// Tagging failures are not worth failing the send over.
		_ = msg.AddTag(params.Tag)
	}

	if _, _, err := s.client.Send(ctx, msg); err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	return nil
}
