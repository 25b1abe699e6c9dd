package handler

import (
	"log/slog"
	"net/http"

	"campusdocs/internal/domain/models/docsystem"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService docsysSvc.FolderService
	docService    docsysSvc.DocumentService
	logger        *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService docsysSvc.FolderService, docService docsysSvc.DocumentService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		docService:    docService,
		logger:        logger,
	}
}

// CreateFolder creates a new folder
// POST /api/documents/folders
// Returns 201 if created, 409 with the existing folder if the path is taken
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	req.Actor = httputil.GetIdentity(r)

	folder, err := h.folderService.CreateFolder(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, err, func(id string) (*docsystem.Document, error) {
			return h.docService.GetDocument(r.Context(), id)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// RenameFolder renames a folder and rewrites its subtree
// PATCH /api/documents/folders/{id}
func (h *FolderHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Folder ID")
	if !ok {
		return
	}

	var req docsysSvc.RenameFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	folder, err := h.folderService.RenameFolder(r.Context(), httputil.GetIdentity(r), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes an empty folder
// DELETE /api/documents/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Folder ID")
	if !ok {
		return
	}

	if err := h.folderService.DeleteFolder(r.Context(), httputil.GetIdentity(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
