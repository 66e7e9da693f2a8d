package mail

import (
	"context"

	"github.com/dmitrijs2005/openaudit/internal/logging"
)

// LogSender writes messages to the log instead of delivering them. Used in
// tests and local development, mirroring what production would have sent.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "mail")}
}

func (s *LogSender) SendConfirmation(ctx context.Context, address, code, optOutCode string) error {
	s.log.Info(ctx, "would send confirmation", "to", address, "code", code)
	return nil
}

func (s *LogSender) SendChangeEmailConfirmation(ctx context.Context, address, code, optOutCode string) error {
	s.log.Info(ctx, "would send change-email confirmation", "to", address, "code", code)
	return nil
}

func (s *LogSender) SendResetPassword(ctx context.Context, address, code, optOutCode string) error {
	s.log.Info(ctx, "would send password reset", "to", address, "code", code)
	return nil
}

func (s *LogSender) SendAccountAlert(ctx context.Context, address, action, reason string) error {
	s.log.Info(ctx, "would send account alert", "to", address, "action", action, "reason", reason)
	return nil
}
