package httputil

import (
	"context"
	"net/http"

	"campusdocs/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	identityKey contextKey = "identity"
)

// WithIdentity adds the resolved caller to the request context
func WithIdentity(r *http.Request, id models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, id)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the caller from context, returns the zero Identity if anonymous
func GetIdentity(r *http.Request) models.Identity {
	id, _ := r.Context().Value(identityKey).(models.Identity)
	return id
}
