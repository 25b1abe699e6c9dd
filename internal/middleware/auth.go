package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"campusdocs/internal/domain"
	"campusdocs/internal/domain/services"
	"campusdocs/internal/httputil"
)

var errMissingBearer = errors.New("missing bearer token")

// RequireAuth rejects requests without a valid bearer token with 401.
// The resolved identity is available through httputil.GetIdentity.
func RequireAuth(verifier services.TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, err := authenticate(verifier, r)
			if err != nil {
				logger.Debug("request rejected", "path", r.URL.Path, "error", err)
				httputil.RespondErrorWithExtras(w, http.StatusUnauthorized, "authentication required",
					map[string]interface{}{"code": domain.CodeUnauthorized})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth resolves the identity when a bearer token is present and lets
// anonymous requests through. A token that is present but invalid is still a 401.
func OptionalAuth(verifier services.TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			r, err := authenticate(verifier, r)
			if err != nil {
				logger.Debug("request rejected", "path", r.URL.Path, "error", err)
				httputil.RespondErrorWithExtras(w, http.StatusUnauthorized, "invalid bearer token",
					map[string]interface{}{"code": domain.CodeUnauthorized})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(verifier services.TokenVerifier, r *http.Request) (*http.Request, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return r, errMissingBearer
	}
	claims, err := verifier.VerifyToken(r.Context(), strings.TrimSpace(token))
	if err != nil {
		return r, err
	}
	return httputil.WithIdentity(r, claims.Identity()), nil
}
