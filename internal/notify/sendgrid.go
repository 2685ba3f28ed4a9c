package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridGateway struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridGateway(apiKey, from, fromName string) *SendGridGateway {
	return &SendGridGateway{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (g *SendGridGateway) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	from := mail.NewEmail(g.fromName, g.from)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := g.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", msg.To, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send to %s: status %d", msg.To, response.StatusCode)
	}
	return nil
}
