package mail

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleMailer writes messages to the log instead of delivering them. It is the
// default backend for local development.
type ConsoleMailer struct {
	logger *zap.Logger
	from   string
}

// NewConsoleMailer returns a ConsoleMailer; a nil logger discards output.
func NewConsoleMailer(logger *zap.Logger, from string) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{logger: logger.Named("mail"), from: from}
}

// Send implements Mailer.
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.from
	}
	if err := msg.validate(); err != nil {
		return err
	}

	m.logger.Info("email message",
		zap.String("from", msg.From),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
