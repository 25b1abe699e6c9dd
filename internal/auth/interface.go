package auth

import "campusdocs/internal/domain/services"

// JWTVerifier defines the interface for JWT token verification.
// The middleware depends on services.TokenVerifier only; Close is for process shutdown.
type JWTVerifier interface {
	services.TokenVerifier

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}
