package services

import (
	"context"

	"campusdocs/internal/domain/models"
)

// TokenVerifier resolves a bearer token into the caller identity
type TokenVerifier interface {
	// VerifyToken validates the token signature and expiry and returns its claims
	VerifyToken(ctx context.Context, token string) (*models.Claims, error)
}
