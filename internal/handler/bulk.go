package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"campusdocs/internal/domain/models/docsystem"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/httputil"
)

// Trailers sent after a bulk download, once the per-item outcome is known
const (
	TrailerBulkSucceeded = "X-Bulk-Succeeded"
	TrailerBulkFailed    = "X-Bulk-Failed"
)

// BulkHandler handles multi-item HTTP requests
type BulkHandler struct {
	bulkService docsysSvc.BulkService
	logger      *slog.Logger
}

// NewBulkHandler creates a new bulk handler
func NewBulkHandler(bulkService docsysSvc.BulkService, logger *slog.Logger) *BulkHandler {
	return &BulkHandler{
		bulkService: bulkService,
		logger:      logger,
	}
}

// BulkDelete deletes many documents. Returns 207 with per-item results when some fail.
// POST /api/documents/bulk-delete
func (h *BulkHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.BulkRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	result, err := h.bulkService.BulkDelete(r.Context(), httputil.GetIdentity(r), req.IDs)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// BulkMove moves many documents into targetPath. Returns 207 when some fail.
// POST /api/documents/bulk-move
func (h *BulkHandler) BulkMove(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.BulkRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	result, err := h.bulkService.BulkMove(r.Context(), httputil.GetIdentity(r), req.IDs, req.TargetPath)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// BulkDownload streams a zip of the selected documents.
// POST /api/documents/bulk-download
//
// Errors found before the first byte (bad ids, nothing resolves) get a normal
// problem response. Once streaming started the status is committed, so the
// per-item outcome travels in trailers and in the archive's error manifest.
func (h *BulkHandler) BulkDownload(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.BulkRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	name := fmt.Sprintf("documents-%s.zip", time.Now().UTC().Format("20060102-150405"))
	stream := httputil.NewStreamWriter(w, func(header http.Header) {
		header.Set("Content-Type", "application/zip")
		header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		header.Set("Trailer", TrailerBulkSucceeded+", "+TrailerBulkFailed)
	})

	result, err := h.bulkService.BulkDownload(r.Context(), httputil.GetIdentity(r), req.IDs, stream)
	if !stream.Started() {
		if err != nil {
			handleError(w, err)
			return
		}
		// An archive always has at least its end record, so this is unexpected
		h.logger.Error("bulk download wrote nothing")
		handleError(w, errors.New("empty archive"))
		return
	}

	var batch *docsystem.PartialBatchFailure
	if err != nil && !errors.As(err, &batch) {
		// Status is already 200; aborting tells the client the archive is incomplete
		h.logger.Error("bulk download failed mid-stream", "error", err)
		panic(http.ErrAbortHandler)
	}

	w.Header().Set(TrailerBulkSucceeded, strconv.Itoa(result.Succeeded))
	w.Header().Set(TrailerBulkFailed, strconv.Itoa(result.Failed))
}
