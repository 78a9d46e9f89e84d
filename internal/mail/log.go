package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes mail to the log instead of delivering it. Used in
// development when no SMTP_ADDR is configured.
type LogMailer struct{}

// NewLogMailer creates a Mailer that only logs.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// SendMagicLink implements Mailer.
func (m *LogMailer) SendMagicLink(_ context.Context, to, loginURL string) error {
	slog.Info("magic link mail (not delivered)", "to", to, "url", loginURL)
	return nil
}

// SendPasswordSetup implements Mailer.
func (m *LogMailer) SendPasswordSetup(_ context.Context, to, setupURL string) error {
	slog.Info("password setup mail (not delivered)", "to", to, "url", setupURL)
	return nil
}

// SendInvitation implements Mailer.
func (m *LogMailer) SendInvitation(_ context.Context, to, requestTitle, accessURL string) error {
	slog.Info("invitation mail (not delivered)", "to", to, "request", requestTitle, "url", accessURL)
	return nil
}
