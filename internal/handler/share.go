package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"campusdocs/internal/domain/models/docsystem"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/httputil"

	"github.com/gosimple/slug"
)

// SharePasswordHeader carries the password of a protected link on GET requests
const SharePasswordHeader = "X-Share-Password"

// ShareHandler handles share link HTTP requests
type ShareHandler struct {
	shareService docsysSvc.ShareService
	logger       *slog.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService docsysSvc.ShareService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		logger:       logger,
	}
}

// CreateShare issues a share link. The token is only ever returned here.
// POST /api/documents/{id}/share
func (h *ShareHandler) CreateShare(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	// An empty body means defaults: no expiry, any audience, no password
	var req docsysSvc.CreateShareRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "Invalid request body")
		return
	}
	req.DocumentID = id

	created, err := h.shareService.CreateLink(r.Context(), httputil.GetIdentity(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.RespondJSON(w, http.StatusCreated, created)
}

// ListShares lists a document's links
// GET /api/documents/{id}/shares
func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	shares, err := h.shareService.ListForDocument(r.Context(), httputil.GetIdentity(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, shares)
}

// RevokeShare revokes a link (idempotent)
// PATCH /api/documents/shares/{shareId}/revoke
func (h *ShareHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	shareID, ok := PathParam(w, r, "shareId", "Share ID")
	if !ok {
		return
	}

	share, err := h.shareService.Revoke(r.Context(), httputil.GetIdentity(r), shareID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, share)
}

// GetSharedDocument returns the metadata behind a share token
// GET /share/{token}
func (h *ShareHandler) GetSharedDocument(w http.ResponseWriter, r *http.Request) {
	token, ok := PathParam(w, r, "token", "Share token")
	if !ok {
		return
	}
	noStoreTokenResponse(w)

	resolved, err := h.shareService.Validate(r.Context(), &docsysSvc.ValidateShareRequest{
		Token:     token,
		Requester: httputil.GetIdentity(r),
		Password:  r.Header.Get(SharePasswordHeader),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resolved)
}

type shareDownloadBody struct {
	Password string `json:"password"`
}

// DownloadSharedDocument streams the bytes behind a share token
// GET|POST /share/{token}/download (POST carries the password as JSON or form field)
func (h *ShareHandler) DownloadSharedDocument(w http.ResponseWriter, r *http.Request) {
	token, ok := PathParam(w, r, "token", "Share token")
	if !ok {
		return
	}
	noStoreTokenResponse(w)

	password := r.Header.Get(SharePasswordHeader)
	if r.Method == http.MethodPost {
		if isJSON(r) {
			var body shareDownloadBody
			if err := httputil.ParseJSON(w, r, &body); err != nil {
				badRequest(w, "Invalid request body")
				return
			}
			password = body.Password
		} else {
			password = r.FormValue("password")
		}
	}

	file, err := h.shareService.Open(r.Context(), &docsysSvc.ValidateShareRequest{
		Token:     token,
		Requester: httputil.GetIdentity(r),
		Password:  password,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	defer file.Content.Close()

	doc := file.Document
	contentType := "application/octet-stream"
	if doc.MimeType != nil && *doc.MimeType != "" {
		contentType = *doc.MimeType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": downloadName(doc),
	}))
	if doc.SizeBytes != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(*doc.SizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)

	if n, err := io.Copy(w, file.Content); err != nil {
		h.logger.Warn("share download interrupted",
			"document_id", doc.ID,
			"bytes", n,
			"error", err,
		)
	}
}

// downloadName builds an ASCII-safe file name from the title, keeping the extension
func downloadName(doc *docsystem.Document) string {
	ext := path.Ext(doc.Title)
	if doc.Extension != nil && *doc.Extension != "" {
		ext = "." + strings.TrimPrefix(*doc.Extension, ".")
	}
	base := slug.Make(strings.TrimSuffix(doc.Title, path.Ext(doc.Title)))
	if base == "" {
		base = "document"
	}
	return base + strings.ToLower(ext)
}

// noStoreTokenResponse keeps token-addressed responses out of caches and referrers
func noStoreTokenResponse(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}
