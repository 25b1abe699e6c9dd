package notify

import (
	"context"
	"log/slog"

	"campusdocs/internal/domain/services"
)

// LogNotifier only logs notifications. Used when REDIS_URL is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n
func (l *LogNotifier) Notify(ctx context.Context, n services.Notification) error {
	l.logger.Info("notification",
		"type", n.Type,
		"recipient_id", n.RecipientID,
		"recipient_type", n.RecipientType,
		"document_id", n.DocumentID,
	)
	return nil
}
