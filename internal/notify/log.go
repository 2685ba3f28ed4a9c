package notify

import (
	"context"
	"log/slog"
)

// LogGateway writes messages to the log instead of delivering them.
type LogGateway struct {
	logger *slog.Logger
}

func NewLogGateway(logger *slog.Logger) *LogGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	g.logger.InfoContext(ctx, "notification (log provider)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}
