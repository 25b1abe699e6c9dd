package docsystem

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"campusdocs/internal/domain/services"
	"campusdocs/internal/metrics"
)

// notifyTimeout bounds one notification delivery
const notifyTimeout = 10 * time.Second

// NotificationDispatcher sends notifications in the background.
// Delivery never blocks or fails the operation that triggered it.
type NotificationDispatcher struct {
	notifier services.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewNotificationDispatcher creates a dispatcher around notifier
func NewNotificationDispatcher(notifier services.Notifier, m *metrics.Metrics, logger *slog.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{notifier: notifier, metrics: m, logger: logger}
}

// Dispatch delivers n asynchronously. The request context's values are kept
// but its cancellation is not, so a finished request does not abort delivery.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, n services.Notification) {
	if d == nil || d.notifier == nil {
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}

	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(detached, notifyTimeout)
		defer cancel()

		if err := d.notifier.Notify(sendCtx, n); err != nil {
			d.metrics.RecordNotification(n.Type, "error")
			d.logger.Warn("notification failed", "type", n.Type, "document_id", n.DocumentID, "error", err)
			return
		}
		d.metrics.RecordNotification(n.Type, "ok")
	}()
}

// Wait blocks until every dispatched notification finished (shutdown and tests)
func (d *NotificationDispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
