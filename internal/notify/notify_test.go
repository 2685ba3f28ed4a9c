package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/siddhasavor/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeMealReminder(t *testing.T) {
	msg := ComposeMealReminder(MealReminder{
		PatientName:  "Meena",
		PatientEmail: "meena@example.com",
		Diagnosis:    "DIABETES",
		MealType:     "dinner",
		MealItems:    []string{"Ragi roti", "Bitter gourd poriyal"},
		Notes:        "Finish before 8 pm.",
	})

	assert.Equal(t, "meena@example.com", msg.To)
	assert.Equal(t, "Your dinner reminder", msg.Subject)
	assert.Contains(t, msg.Text, "- Ragi roti")
	assert.Contains(t, msg.Text, "Finish before 8 pm.")
	assert.Contains(t, msg.HTML, "<li>Bitter gourd poriyal</li>")
}

func TestComposeMealReminderWithoutItems(t *testing.T) {
	msg := ComposeMealReminder(MealReminder{PatientName: "Ravi", PatientEmail: "ravi@example.com", MealType: "lunch"})
	assert.Contains(t, msg.Text, "follow the diet plan")
	assert.NotContains(t, msg.HTML, "<ul>")
}

func TestComposeRejectionEscapesHTML(t *testing.T) {
	msg := ComposeRejection("Ravi", "ravi@example.com", "<b>duplicate</b>")
	assert.Contains(t, msg.Text, "Reason: <b>duplicate</b>")
	assert.Contains(t, msg.HTML, "&lt;b&gt;duplicate&lt;/b&gt;")
}

func TestLogGatewayRejectsBadRecipient(t *testing.T) {
	var buf bytes.Buffer
	g := NewLogGateway(slog.New(slog.NewTextHandler(&buf, nil)))

	err := g.Send(context.Background(), Message{To: "not-an-address"})
	assert.True(t, errors.Is(err, ErrInvalidRecipient))

	require.NoError(t, g.Send(context.Background(), ComposeApproval("Meena", "meena@example.com")))
	assert.Contains(t, buf.String(), "meena@example.com")
}

func TestNewSelectsProvider(t *testing.T) {
	g, err := New(&config.Config{NotifyProvider: "log"})
	require.NoError(t, err)
	assert.IsType(t, &LogGateway{}, g)

	g, err = New(&config.Config{NotifyProvider: "smtp", SMTPHost: "mail.local", SMTPPort: 25, MailFrom: "a@b.c"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPGateway{}, g)

	g, err = New(&config.Config{NotifyProvider: "sendgrid", SendGridAPIKey: "key"})
	require.NoError(t, err)
	assert.IsType(t, &SendGridGateway{}, g)

	_, err = New(&config.Config{NotifyProvider: "smtp"})
	assert.Error(t, err)
}

func TestSMTPGatewayHonoursCancelledContext(t *testing.T) {
	g := NewSMTPGateway(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "a@b.c"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Send(ctx, Message{To: "x@example.com", Subject: "s", Text: "t"})
	assert.ErrorIs(t, err, context.Canceled)
}
