package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// MailerConfig carries SMTP settings for outbound mail.
type MailerConfig struct {
	Enabled bool
	Host    string
	Port    int
	From    string
	User    string
	Pass    string
}

// Mailer delivers emails over SMTP. When disabled it logs and drops
// messages, which keeps local development free of an SMTP dependency.
type Mailer struct {
	cfg    MailerConfig
	logger *slog.Logger
}

// NewMailer constructs a Mailer.
func NewMailer(cfg MailerConfig, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Send delivers one message. The context is honored only insofar as the
// net/smtp client allows; delivery is expected to be quick.
func (m *Mailer) Send(ctx context.Context, payload SendEmailPayload) error {
	if payload.To == "" {
		return nil
	}
	if !m.cfg.Enabled {
		m.logger.Info("mail disabled, dropping message",
			slog.String("to", payload.To),
			slog.String("subject", payload.Subject))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + payload.To,
		"Subject: " + payload.Subject,
		"",
		payload.Body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{payload.To}, []byte(msg)); err != nil {
		return fmt.Errorf("jobs: send mail: %w", err)
	}
	m.logger.Info("mail sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
