package service

import (
	"context"
	"log/slog"
	"time"
)

// Mailer delivers one-time registration codes
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, name, code string, ttl time.Duration) error
}

// LogMailer writes codes to the structured log instead of sending email.
// It is meant for local development and tests.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer that logs through logger, or slog.Default when nil
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// SendVerificationCode logs the code
func (m *LogMailer) SendVerificationCode(ctx context.Context, email, name, code string, ttl time.Duration) error {
	m.logger.InfoContext(ctx, "verification code issued",
		slog.String("email", email),
		slog.String("name", name),
		slog.String("code", code),
		slog.Duration("valid_for", ttl),
	)
	return nil
}
