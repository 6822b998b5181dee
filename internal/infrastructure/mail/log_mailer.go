package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// LogMailer writes messages to the log instead of delivering them. Meant for
// local development, where reading the OTP from the console is enough.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mail").Logger()}
}

func (m *LogMailer) Send(_ context.Context, msg domain.Mail) error {
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("kind", msg.Kind).
		Str("body", msg.Text).
		Msg("mail")
	return nil
}
