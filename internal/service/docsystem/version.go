package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"campusdocs/internal/domain"
	authModels "campusdocs/internal/domain/models"
	models "campusdocs/internal/domain/models/docsystem"
	"campusdocs/internal/domain/repositories"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	"campusdocs/internal/domain/services"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/metrics"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type versionService struct {
	docRepo     docsysRepo.DocumentRepository
	versionRepo docsysRepo.VersionRepository
	blobs       services.BlobStore
	txManager   repositories.TransactionManager
	validator   *ResourceValidator
	audit       docsysSvc.AuditLogger
	metrics     *metrics.Metrics
	clock       func() time.Time
	logger      *slog.Logger
}

// NewVersionService creates a new version service
func NewVersionService(
	docRepo docsysRepo.DocumentRepository,
	versionRepo docsysRepo.VersionRepository,
	blobs services.BlobStore,
	txManager repositories.TransactionManager,
	validator *ResourceValidator,
	audit docsysSvc.AuditLogger,
	m *metrics.Metrics,
	logger *slog.Logger,
) docsysSvc.VersionService {
	return &versionService{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		blobs:       blobs,
		txManager:   txManager,
		validator:   validator,
		audit:       audit,
		metrics:     m,
		clock:       now,
		logger:      logger,
	}
}

// RecordVersion appends the next version for a file and mirrors its payload onto the document
func (s *versionService) RecordVersion(ctx context.Context, actor authModels.Identity, documentID string, payload models.Payload) (*models.DocumentVersion, error) {
	payload.Link = strings.TrimSpace(payload.Link)
	if err := validation.Validate(payload.Link, validation.Required); err != nil {
		return nil, fmt.Errorf("%w: link: %v", domain.ErrValidation, err)
	}
	payload = describeLink(payload)

	version, err := s.append(ctx, actor, documentID, payload)
	if err != nil {
		return nil, err
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionVersionCreate, documentID, map[string]any{
		"version": version.Version,
	}))
	return version, nil
}

// ReplaceFile stores new bytes and records them as the next version.
// The stored bytes are deleted again if recording fails.
func (s *versionService) ReplaceFile(ctx context.Context, actor authModels.Identity, documentID string, file *docsysSvc.UploadedFile) (*models.DocumentVersion, error) {
	if file == nil || file.Content == nil {
		return nil, fmt.Errorf("%w: file is required", domain.ErrValidation)
	}

	doc, err := s.validator.Editable(ctx, actor, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsFolder() {
		return nil, fmt.Errorf("%w: folders have no versions", domain.ErrValidation)
	}

	payload, err := storeUpload(ctx, s.blobs, file)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordStored(derefSize(payload.SizeBytes))

	version, err := s.append(ctx, actor, documentID, *payload)
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), payload.Link); delErr != nil {
			s.logger.Warn("failed to delete orphaned payload", "pointer", payload.Link, "error", delErr)
		}
		return nil, err
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionVersionCreate, documentID, map[string]any{
		"version":  version.Version,
		"filename": file.Filename,
	}))
	return version, nil
}

// ListVersions returns a file's versions, newest first
func (s *versionService) ListVersions(ctx context.Context, actor authModels.Identity, documentID string) ([]models.DocumentVersion, error) {
	doc, err := s.validator.Viewable(ctx, actor, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsFolder() {
		return nil, fmt.Errorf("%w: folders have no versions", domain.ErrValidation)
	}
	return s.versionRepo.ListByDocument(ctx, documentID)
}

// Restore appends a new version that points at an older version's payload.
// History is never rewritten.
func (s *versionService) Restore(ctx context.Context, actor authModels.Identity, documentID, versionID string) (*models.DocumentVersion, error) {
	if err := validateID(versionID); err != nil {
		return nil, fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
	}

	var restored *models.DocumentVersion
	var from int
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		source, err := s.versionRepo.GetByID(txCtx, versionID)
		if err != nil {
			return err
		}
		if source.DocumentID != documentID {
			return fmt.Errorf("version %s of document %s: %w", versionID, documentID, domain.ErrNotFound)
		}
		from = source.Version

		restored, err = s.append(txCtx, actor, documentID, source.Payload())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionVersionRestore, documentID, map[string]any{
		"from_version": from,
		"version":      restored.Version,
	}))

	s.logger.Info("version restored",
		"document_id", documentID,
		"from_version", from,
		"version", restored.Version,
	)
	return restored, nil
}

// append assigns max+1 under a row lock on the document, inserts the version
// and mirrors the payload onto the document in one transaction. actor must be
// allowed to change the document.
func (s *versionService) append(ctx context.Context, actor authModels.Identity, documentID string, payload models.Payload) (*models.DocumentVersion, error) {
	if err := validateID(documentID); err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}

	var version *models.DocumentVersion
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}
		if doc.IsFolder() {
			return fmt.Errorf("%w: folders have no versions", domain.ErrValidation)
		}
		if err := s.validator.RequireEdit(txCtx, actor, doc); err != nil {
			return err
		}

		latest, err := s.versionRepo.MaxVersion(txCtx, documentID)
		if err != nil {
			return err
		}

		at := nextUpdatedAt(s.clock, doc.UpdatedAt)
		version = newVersion(documentID, latest+1, payload, at)
		if err := s.versionRepo.Create(txCtx, version); err != nil {
			return err
		}

		doc.ApplyPayload(payload)
		doc.UpdatedAt = at
		return s.docRepo.Update(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordVersion()
	s.logger.Info("version recorded",
		"document_id", documentID,
		"version", version.Version,
		"link", version.Link,
	)
	return version, nil
}

func newVersion(documentID string, number int, payload models.Payload, at time.Time) *models.DocumentVersion {
	return &models.DocumentVersion{
		DocumentID: documentID,
		Version:    number,
		Link:       payload.Link,
		Extension:  payload.Extension,
		MimeType:   payload.MimeType,
		SizeBytes:  payload.SizeBytes,
		CreatedAt:  at,
	}
}

// storeUpload writes an uploaded file to byte storage and describes the result
func storeUpload(ctx context.Context, blobs services.BlobStore, file *docsysSvc.UploadedFile) (*models.Payload, error) {
	filename := strings.TrimSpace(file.Filename)
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrValidation)
	}

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(filepath.Ext(filename)); guessed != "" {
			contentType = guessed
		}
	}

	pointer, size, err := blobs.Store(ctx, file.Content, contentType, filename)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", filename, err)
	}

	payload := &models.Payload{
		Link:      pointer,
		Extension: extensionOf(filename),
		SizeBytes: &size,
	}
	if contentType != "" {
		payload.MimeType = &contentType
	}
	return payload, nil
}

// linkPayload describes a payload that was stored elsewhere
func linkPayload(link string) *models.Payload {
	p := &models.Payload{Link: link, Extension: extensionOf(path.Base(link))}
	if p.Extension != nil {
		if guessed := mime.TypeByExtension("." + *p.Extension); guessed != "" {
			p.MimeType = &guessed
		}
	}
	return p
}

// describeLink fills a missing extension and MIME type from the link itself,
// the same way a linked file is described on create
func describeLink(p models.Payload) models.Payload {
	derived := linkPayload(p.Link)
	if p.Extension == nil {
		p.Extension = derived.Extension
	}
	if p.MimeType == nil {
		p.MimeType = derived.MimeType
	}
	return p
}

// extensionOf returns the lower-case extension without the dot, or nil
func extensionOf(filename string) *string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return nil
	}
	return &ext
}

func derefSize(size *int64) int64 {
	if size == nil {
		return 0
	}
	return *size
}
