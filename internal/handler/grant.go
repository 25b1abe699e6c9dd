package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/httputil"
)

// GrantHandler handles access grant HTTP requests
type GrantHandler struct {
	grantService docsysSvc.GrantService
	logger       *slog.Logger
}

// NewGrantHandler creates a new grant handler
func NewGrantHandler(grantService docsysSvc.GrantService, logger *slog.Logger) *GrantHandler {
	return &GrantHandler{
		grantService: grantService,
		logger:       logger,
	}
}

// CreateGrant grants a user access to a document. Granting twice returns the existing grant.
// POST /api/documents/{id}/grants
func (h *GrantHandler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var req docsysSvc.GrantRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	req.DocumentID = id

	grant, err := h.grantService.Grant(r.Context(), httputil.GetIdentity(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, grant)
}

// ListGrants lists grants on a document
// GET /api/documents/{id}/grants
func (h *GrantHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	grants, err := h.grantService.ListForDocument(r.Context(), httputil.GetIdentity(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, grants)
}

// RevokeGrants removes every grant on a document
// DELETE /api/documents/{id}/grants
func (h *GrantHandler) RevokeGrants(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	revoked, err := h.grantService.RevokeAllForDocument(r.Context(), httputil.GetIdentity(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int64{"revoked": revoked})
}

// SharedWithMe lists documents explicitly granted to the caller
// GET /api/documents/shared-with-me
func (h *GrantHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	id := httputil.GetIdentity(r)

	docs, err := h.grantService.ListForUser(r.Context(), id.UserID, id.UserType)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}
