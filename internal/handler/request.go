package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"campusdocs/internal/domain/models/docsystem"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/httputil"
)

// RequestHandler handles document request ticket HTTP requests
type RequestHandler struct {
	requestService docsysSvc.RequestService
	logger         *slog.Logger
}

// NewRequestHandler creates a new document request handler
func NewRequestHandler(requestService docsysSvc.RequestService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		logger:         logger,
	}
}

// CreateRequest asks another user for a document
// POST /api/document-requests
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.CreateDocumentRequestRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	created, err := h.requestService.Create(r.Context(), httputil.GetIdentity(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, created)
}

// ListRequests lists the caller's incoming (default) or outgoing requests
// GET /api/document-requests?box=incoming|outgoing
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor := httputil.GetIdentity(r)

	var (
		requests []docsystem.DocumentRequest
		err      error
	)
	switch box := r.URL.Query().Get("box"); box {
	case "", "incoming":
		requests, err = h.requestService.ListIncoming(r.Context(), actor)
	case "outgoing":
		requests, err = h.requestService.ListOutgoing(r.Context(), actor)
	default:
		badRequest(w, "box must be incoming or outgoing")
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, requests)
}

// GetRequest returns a request visible to the caller
// GET /api/document-requests/{id}
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	req, err := h.requestService.Get(r.Context(), httputil.GetIdentity(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, req)
}

// FulfillRequest marks an open request fulfilled, optionally pointing at a document
// POST /api/document-requests/{id}/fulfill
func (h *RequestHandler) FulfillRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	var body docsysSvc.FulfillRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "Invalid request body")
		return
	}

	req, err := h.requestService.Fulfill(r.Context(), httputil.GetIdentity(r), id, body.DocumentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, req)
}

// DeclineRequest marks an open request declined
// POST /api/document-requests/{id}/decline
func (h *RequestHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	req, err := h.requestService.Decline(r.Context(), httputil.GetIdentity(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, req)
}
