package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"campusdocs/internal/domain"
	"campusdocs/internal/domain/models/docsystem"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/httputil"
)

// multipartMemory is how much of an upload is buffered in memory before spilling to disk
const multipartMemory = 8 << 20

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService     docsysSvc.DocumentService
	versionService docsysSvc.VersionService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	docService docsysSvc.DocumentService,
	versionService docsysSvc.VersionService,
	maxUploadBytes int64,
	logger *slog.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		docService:     docService,
		versionService: versionService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ListDocuments browses one folder
// GET /api/documents?emplacement=&q=&category=&tags=&type=&from=&to=&sort=&order=&page=&pageSize=
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	page, err := h.docService.ListByFolder(r.Context(), httputil.GetIdentity(r), opts)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}

func parseListOptions(r *http.Request) (*docsystem.ListOptions, error) {
	q := r.URL.Query()
	opts := &docsystem.ListOptions{
		Emplacement: q.Get("emplacement"),
		Query:       q.Get("q"),
		Category:    q.Get("category"),
		Tags:        splitList(q["tags"]),
		Kind:        docsystem.Kind(q.Get("type")),
		Sort:        docsystem.SortField(q.Get("sort")),
		Order:       docsystem.SortOrder(strings.ToLower(q.Get("order"))),
	}

	var err error
	if opts.Page, err = queryInt(r, "page"); err != nil {
		return nil, err
	}
	if opts.PageSize, err = queryInt(r, "pageSize"); err != nil {
		return nil, err
	}
	if opts.From, err = parseDateParam(q.Get("from"), false); err != nil {
		return nil, errors.New("from must be RFC 3339 or YYYY-MM-DD")
	}
	if opts.To, err = parseDateParam(q.Get("to"), true); err != nil {
		return nil, errors.New("to must be RFC 3339 or YYYY-MM-DD")
	}
	return opts, nil
}

// parseDateParam accepts a timestamp or a plain date. A plain "to" date covers the whole day.
func parseDateParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}

// CreateDocument uploads a new file
// POST /api/documents (multipart: file, title, emplacement, description, category, tags, accessLevel)
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseUpload(w, r)
	if !ok {
		return
	}
	defer form.close()

	req := &docsysSvc.CreateDocumentRequest{
		Actor:       httputil.GetIdentity(r),
		Title:       r.FormValue("title"),
		Emplacement: r.FormValue("emplacement"),
		Description: formString(r, "description"),
		Category:    formString(r, "category"),
		Tags:        splitList(r.MultipartForm.Value["tags"]),
		AccessLevel: docsystem.AccessLevel(r.FormValue("accessLevel")),
		Link:        r.FormValue("link"),
		File:        form.file,
	}
	if req.Title == "" && form.file != nil {
		req.Title = form.file.Filename
	}

	doc, err := h.docService.CreateDocument(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves a document and stamps it as opened
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	doc, err := h.docService.OpenDocument(r.Context(), httputil.GetIdentity(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// updateDocumentBody is the PATCH body. Description and category distinguish
// absent (unchanged) from null (cleared).
type updateDocumentBody struct {
	Title       *string                 `json:"title"`
	Description httputil.OptionalString `json:"description"`
	Category    httputil.OptionalString `json:"category"`
	Tags        *[]string               `json:"tags"`
	AccessLevel *docsystem.AccessLevel  `json:"accessLevel"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// UpdateDocument patches document metadata
// PATCH /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var body updateDocumentBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req := &docsysSvc.UpdateDocumentRequest{
		Title:       body.Title,
		Description: docsysSvc.OptionalText{Present: body.Description.Present, Value: body.Description.Value},
		Category:    docsysSvc.OptionalText{Present: body.Category.Present, Value: body.Category.Value},
		Tags:        body.Tags,
		AccessLevel: body.AccessLevel,
		UpdatedAt:   body.UpdatedAt,
	}

	doc, err := h.docService.UpdateDocument(r.Context(), httputil.GetIdentity(r), id, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ReplaceFile uploads new bytes as the next version
// POST /api/documents/{id}/file (multipart: file)
func (h *DocumentHandler) ReplaceFile(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	form, ok := h.parseUpload(w, r)
	if !ok {
		return
	}
	defer form.close()
	if form.file == nil {
		badRequest(w, "file is required")
		return
	}

	version, err := h.versionService.ReplaceFile(r.Context(), httputil.GetIdentity(r), id, form.file)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}

// DeleteDocument deletes a file with its history, or an empty folder
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	if err := h.docService.DeleteDocument(r.Context(), httputil.GetIdentity(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck returns 200 if the server is running
// GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// uploadForm is a parsed multipart request with its optional file part
type uploadForm struct {
	file    *docsysSvc.UploadedFile
	closers []multipart.File
	form    *multipart.Form
}

func (f *uploadForm) close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
	if f.form != nil {
		_ = f.form.RemoveAll()
	}
}

// parseUpload parses a multipart body capped at maxUploadBytes.
// It answers the request itself when parsing fails.
func (h *DocumentHandler) parseUpload(w http.ResponseWriter, r *http.Request) (*uploadForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondErrorWithExtras(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit",
				map[string]interface{}{"code": domain.CodeValidation, "limit_bytes": h.maxUploadBytes})
			return nil, false
		}
		badRequest(w, "Failed to parse multipart form")
		return nil, false
	}

	form := &uploadForm{form: r.MultipartForm}
	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return form, true
	case err != nil:
		h.logger.Error("failed to open uploaded file", "error", err)
		form.close()
		badRequest(w, "Failed to read uploaded file")
		return nil, false
	}

	form.closers = append(form.closers, file)
	form.file = &docsysSvc.UploadedFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}
	return form, true
}

// formString returns a form value, nil when the field is absent or blank
func formString(r *http.Request, name string) *string {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil
	}
	return &v
}
