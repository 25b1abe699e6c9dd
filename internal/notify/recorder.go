package notify

import (
	"context"
	"sync"

	"campusdocs/internal/domain/services"
)

// Recorder keeps every notification in memory. Tests use it to observe dispatches.
type Recorder struct {
	mu   sync.Mutex
	sent []services.Notification
	ch   chan services.Notification
	Err  error // returned from Notify when set
}

// NewRecorder creates a recorder whose channel buffers up to buffer notifications
func NewRecorder(buffer int) *Recorder {
	return &Recorder{ch: make(chan services.Notification, buffer)}
}

// Notify records n
func (r *Recorder) Notify(ctx context.Context, n services.Notification) error {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	err := r.Err
	r.mu.Unlock()

	select {
	case r.ch <- n:
	default:
	}
	return err
}

// C delivers each recorded notification
func (r *Recorder) C() <-chan services.Notification {
	return r.ch
}

// Sent returns a copy of every recorded notification
func (r *Recorder) Sent() []services.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]services.Notification(nil), r.sent...)
}
