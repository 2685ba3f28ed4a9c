// Package notify delivers outbound email through a pluggable provider.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/siddhasavor/backend/internal/config"
)

var ErrInvalidRecipient = errors.New("invalid recipient")

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Gateway sends a single message. Implementations do not retry.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidRecipient)
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecipient, msg.To)
	}
	return nil
}

// New picks the provider named by cfg.NotifyProvider. Unknown or
// unconfigured providers fall back to the log gateway.
func New(cfg *config.Config) (Gateway, error) {
	switch strings.ToLower(cfg.NotifyProvider) {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, errors.New("SMTP_HOST is required for the smtp provider")
		}
		return NewSMTPGateway(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		}), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("SENDGRID_API_KEY is required for the sendgrid provider")
		}
		return NewSendGridGateway(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName), nil
	default:
		return NewLogGateway(nil), nil
	}
}
