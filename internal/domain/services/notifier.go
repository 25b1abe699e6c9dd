package services

import (
	"context"
	"time"
)

// Notification types
const (
	NotificationShareCreated    = "share.created"
	NotificationDocumentRequest = "document.request"
	NotificationRequestUpdated  = "document.request.updated"
)

// Notification is a fire-and-forget message for the notification collaborator
type Notification struct {
	Type          string         `json:"type"`
	RecipientID   string         `json:"recipient_id,omitempty"`
	RecipientType string         `json:"recipient_type,omitempty"`
	DocumentID    string         `json:"document_id,omitempty"`
	ActorID       string         `json:"actor_id,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Notifier delivers notifications. Delivery failures never affect the operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
