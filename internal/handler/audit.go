package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/httputil"
)

// AuditHandler exposes the read side of the audit trail
type AuditHandler struct {
	audit  docsysSvc.AuditLogger
	logger *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit docsysSvc.AuditLogger, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

// ListAudit returns the newest audit entries of a document
// GET /api/documents/{id}/audit?limit=
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	entries, err := h.audit.ListForDocument(r.Context(), httputil.GetIdentity(r), id, limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entries)
}
