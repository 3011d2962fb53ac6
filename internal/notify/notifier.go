// Package notify bridges the leave service's notification port to the
// background mail queue.
package notify

import (
	"context"
	"log/slog"

	"github.com/leavedesk/leavedesk/internal/leave"
	"github.com/leavedesk/leavedesk/jobs"
)

// MailNotifier enqueues notifications as background mail tasks.
// Enqueue failures are logged by the caller per the notification
// contract; this type only reports them.
type MailNotifier struct {
	client *jobs.Client
	logger *slog.Logger
}

// NewMailNotifier constructs a MailNotifier.
func NewMailNotifier(client *jobs.Client, logger *slog.Logger) *MailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailNotifier{client: client, logger: logger}
}

var _ leave.Notifier = (*MailNotifier)(nil)

// Notify enqueues one notification for delivery by the mail worker.
func (n *MailNotifier) Notify(ctx context.Context, notification leave.Notification) error {
	if n.client == nil {
		n.logger.Info("notification skipped, queue not configured",
			slog.String("subject", notification.Subject))
		return nil
	}
	_, err := n.client.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      notification.Recipient,
		Subject: notification.Subject,
		Body:    notification.Body,
	})
	return err
}
