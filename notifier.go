package identity

import "context"

// LogNotifier renders password reset messages through the logger instead of
// an outbound transport. Useful for development and as the fallback when no
// mailing pipeline is wired.
type LogNotifier struct {
	logger Logger
}

// NewLogNotifier returns a LogNotifier writing to the given logger.
func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendPasswordResetMessage(ctx context.Context, address string, token ResetToken) error {
	n.logger.Info("password reset message",
		"to", address,
		"token", token.Value,
		"issued_at", token.CreatedAt,
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
