package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/httputil"
)

// VersionHandler handles version history HTTP requests
type VersionHandler struct {
	versionService docsysSvc.VersionService
	logger         *slog.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(versionService docsysSvc.VersionService, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{
		versionService: versionService,
		logger:         logger,
	}
}

// ListVersions lists a file's versions, newest first
// GET /api/documents/{id}/versions
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	versions, err := h.versionService.ListVersions(r.Context(), httputil.GetIdentity(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// RestoreVersion appends a copy of an older version
// POST /api/documents/{id}/versions/{versionId}/restore
func (h *VersionHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}
	versionID, ok := PathParam(w, r, "versionId", "Version ID")
	if !ok {
		return
	}

	version, err := h.versionService.Restore(r.Context(), httputil.GetIdentity(r), id, versionID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}
