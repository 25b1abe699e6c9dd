package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"campusdocs/internal/domain"
	"campusdocs/internal/domain/models/docsystem"
	"campusdocs/internal/httputil"
)

// handleError converts domain errors to HTTP responses.
// Every problem body carries a stable "code" field.
func handleError(w http.ResponseWriter, err error) {
	var batch *docsystem.PartialBatchFailure
	if errors.As(err, &batch) {
		httputil.RespondJSON(w, http.StatusMultiStatus, batch.Result)
		return
	}

	code := domain.ErrorCode(err)
	extras := map[string]interface{}{"code": code}

	var conflictErr *domain.ConflictError
	switch {
	case code == domain.CodeInvalidOrExpired:
		// One fixed body regardless of why the token did not resolve
		httputil.RespondErrorWithExtras(w, http.StatusNotFound, domain.ErrInvalidOrExpired.Error(), extras)
	case code == domain.CodeInternal:
		slog.Error("request failed", "error", err)
		httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, "internal server error", extras)
	case errors.As(err, &conflictErr):
		extras["resource_type"] = conflictErr.ResourceType
		extras["resource_id"] = conflictErr.ResourceID
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	default:
		httputil.RespondErrorWithExtras(w, statusFromCode(code), err.Error(), extras)
	}
}

func statusFromCode(code string) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict, domain.CodeStaleUpdate, domain.CodeFolderNotEmpty:
		return http.StatusConflict
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// HandleCreateConflict handles conflicts during creation by returning the existing resource with 409
// If the error is a ConflictError, it calls fetchFn to retrieve the existing resource
func HandleCreateConflict[T any](w http.ResponseWriter, err error, fetchFn func(id string) (*T, error)) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) && conflictErr.ResourceID != "" {
		// Try to fetch existing resource
		existing, fetchErr := fetchFn(conflictErr.ResourceID)
		if fetchErr != nil {
			handleError(w, fetchErr)
			return
		}

		// Return existing resource with 409 status
		httputil.RespondJSON(w, http.StatusConflict, existing)
		return
	}

	// Not a conflict error, handle normally
	handleError(w, err)
}

// PathParam returns a required path value, answering 400 when it is blank
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := strings.TrimSpace(r.PathValue(name))
	if value == "" {
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, label+" is required",
			map[string]interface{}{"code": domain.CodeValidation})
		return "", false
	}
	return value, true
}

// badRequest answers 400 with the validation code
func badRequest(w http.ResponseWriter, detail string) {
	httputil.RespondErrorWithExtras(w, http.StatusBadRequest, detail,
		map[string]interface{}{"code": domain.CodeValidation})
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}

// splitList accepts both repeated parameters and comma-separated values
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
