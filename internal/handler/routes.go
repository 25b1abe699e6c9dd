package handler

import (
	"net/http"

	"campusdocs/internal/domain"
	"campusdocs/internal/httputil"
)

// Handlers groups every HTTP handler of the service
type Handlers struct {
	Documents *DocumentHandler
	Folders   *FolderHandler
	Versions  *VersionHandler
	Grants    *GrantHandler
	Shares    *ShareHandler
	Audit     *AuditHandler
	Bulk      *BulkHandler
	Requests  *RequestHandler
}

// Middleware wraps a handler
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers the API (behind requireAuth) and the public share
// routes (behind optionalAuth) on mux (Go 1.22+ enhanced patterns).
func RegisterRoutes(mux *http.ServeMux, h *Handlers, requireAuth, optionalAuth Middleware) {
	api := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(fn))
	}

	// Health check
	mux.HandleFunc("GET /health", h.Documents.HealthCheck)

	// Documents
	api("GET /api/documents", h.Documents.ListDocuments)
	api("POST /api/documents", h.Documents.CreateDocument)
	api("GET /api/documents/shared-with-me", h.Grants.SharedWithMe) // Literal wins over {id}
	api("GET /api/documents/{id}", h.Documents.GetDocument)
	api("PATCH /api/documents/{id}", h.Documents.UpdateDocument)
	api("DELETE /api/documents/{id}", h.Documents.DeleteDocument)
	api("POST /api/documents/{id}/file", h.Documents.ReplaceFile)

	// Folders
	api("POST /api/documents/folders", h.Folders.CreateFolder)
	api("PATCH /api/documents/folders/{id}", h.Folders.RenameFolder)

	// DELETE /api/documents/folders/{id} and DELETE /api/documents/{id}/grants
	// overlap (folders/grants matches both), so ServeMux needs one pattern for both.
	api("DELETE /api/documents/{id}/{sub}", h.deleteSubresource)

	// Bulk
	api("POST /api/documents/bulk-delete", h.Bulk.BulkDelete)
	api("POST /api/documents/bulk-move", h.Bulk.BulkMove)
	api("POST /api/documents/bulk-download", h.Bulk.BulkDownload)

	// Versions
	api("GET /api/documents/{id}/versions", h.Versions.ListVersions)
	api("POST /api/documents/{id}/versions/{versionId}/restore", h.Versions.RestoreVersion)

	// Grants
	api("POST /api/documents/{id}/grants", h.Grants.CreateGrant)
	api("GET /api/documents/{id}/grants", h.Grants.ListGrants)

	// Shares
	api("POST /api/documents/{id}/share", h.Shares.CreateShare)
	api("GET /api/documents/{id}/shares", h.Shares.ListShares)
	api("PATCH /api/documents/shares/{shareId}/revoke", h.Shares.RevokeShare)

	// Audit
	api("GET /api/documents/{id}/audit", h.Audit.ListAudit)

	// Document requests
	api("POST /api/document-requests", h.Requests.CreateRequest)
	api("GET /api/document-requests", h.Requests.ListRequests)
	api("GET /api/document-requests/{id}", h.Requests.GetRequest)
	api("POST /api/document-requests/{id}/fulfill", h.Requests.FulfillRequest)
	api("POST /api/document-requests/{id}/decline", h.Requests.DeclineRequest)

	// Public share consumption (identity optional, needed for audience links)
	mux.Handle("GET /share/{token}", optionalAuth(http.HandlerFunc(h.Shares.GetSharedDocument)))
	mux.Handle("GET /share/{token}/download", optionalAuth(http.HandlerFunc(h.Shares.DownloadSharedDocument)))
	mux.Handle("POST /share/{token}/download", optionalAuth(http.HandlerFunc(h.Shares.DownloadSharedDocument)))
}

func (h *Handlers) deleteSubresource(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.PathValue("id") == "folders":
		r.SetPathValue("id", r.PathValue("sub"))
		h.Folders.DeleteFolder(w, r)
	case r.PathValue("sub") == "grants":
		h.Grants.RevokeGrants(w, r)
	default:
		httputil.RespondErrorWithExtras(w, http.StatusNotFound, "route not found",
			map[string]interface{}{"code": domain.CodeNotFound})
	}
}
