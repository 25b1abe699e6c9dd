package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"campusdocs/internal/domain"
	"campusdocs/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// allowedAlgorithms prevents algorithm confusion attacks (no HS256 with a public key, no "none")
var allowedAlgorithms = []string{"RS256", "ES256"}

// JWKSVerifier implements JWTVerifier using keys published on a JWKS endpoint.
type JWKSVerifier struct {
	keyfunc jwt.Keyfunc
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a new JWT verifier that fetches public keys from the identity provider's JWKS endpoint.
// The JWKS keys are cached and automatically refreshed based on HTTP cache headers.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	// The refresh goroutine lives until Close
	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	v := newVerifier(jwks.Keyfunc, logger)
	v.cancel = cancel
	return v, nil
}

func newVerifier(kf jwt.Keyfunc, logger *slog.Logger) *JWKSVerifier {
	return &JWKSVerifier{keyfunc: kf, logger: logger}
}

// VerifyToken validates a JWT token and extracts the platform claims.
// Every failure collapses into domain.ErrUnauthorized; the reason is only logged.
func (v *JWKSVerifier) VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, v.keyfunc,
		jwt.WithValidMethods(allowedAlgorithms),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.DebugContext(ctx, "token parse failed", "error", err)
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		v.logger.ErrorContext(ctx, "failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.DebugContext(ctx, "token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	switch claims.UserType {
	case models.UserTypeStaff, models.UserTypeStudent, models.UserTypeCompany:
	default:
		v.logger.WarnContext(ctx, "token has unknown user type",
			"user_type", claims.UserType,
			"user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *JWKSVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	v.logger.Info("JWT verifier closed")
	return nil
}
