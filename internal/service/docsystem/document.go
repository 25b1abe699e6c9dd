package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

// documentService implements the DocumentService interface
type documentService struct {
	docRepo     docsysRepo.DocumentRepository
	versionRepo docsysRepo.VersionRepository
	grantRepo   docsysRepo.GrantRepository
	shareRepo   docsysRepo.ShareRepository
	blobs       services.BlobStore
	txManager   repositories.TransactionManager
	validator   *ResourceValidator
	folders     docsysSvc.FolderService
	audit       docsysSvc.AuditLogger
	metrics     *metrics.Metrics
	clock       func() time.Time
	logger      *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo docsysRepo.DocumentRepository,
	versionRepo docsysRepo.VersionRepository,
	grantRepo docsysRepo.GrantRepository,
	shareRepo docsysRepo.ShareRepository,
	blobs services.BlobStore,
	txManager repositories.TransactionManager,
	validator *ResourceValidator,
	folders docsysSvc.FolderService,
	audit docsysSvc.AuditLogger,
	m *metrics.Metrics,
	logger *slog.Logger,
) docsysSvc.DocumentService {
	return &documentService{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		grantRepo:   grantRepo,
		shareRepo:   shareRepo,
		blobs:       blobs,
		txManager:   txManager,
		validator:   validator,
		folders:     folders,
		audit:       audit,
		metrics:     m,
		clock:       now,
		logger:      logger,
	}
}

// CreateDocument creates a file document. Uploaded bytes are stored first; the
// document row and version 1 are then written in one transaction. If that
// transaction fails the stored bytes are deleted again.
func (s *documentService) CreateDocument(ctx context.Context, req *docsysSvc.CreateDocumentRequest) (*models.Document, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Emplacement = models.NormalizeEmplacement(req.Emplacement)
	req.Description = trimmedOrNil(req.Description)
	req.Category = trimmedOrNil(req.Category)
	req.Tags = normalizeTags(req.Tags)
	if req.AccessLevel == "" {
		req.AccessLevel = models.AccessPrivate
	}

	if err := validation.Validate(req.Title, titleRules()...); err != nil {
		return nil, fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
	}
	if err := validateMetadata(req.Description, req.Category, req.Tags, &req.AccessLevel); err != nil {
		return nil, err
	}

	// Fail fast before storing bytes; re-checked inside the transaction
	if err := s.validator.ValidateEmplacement(ctx, req.Emplacement); err != nil {
		return nil, err
	}

	var payload *models.Payload
	var stored string
	switch {
	case req.File != nil:
		p, err := storeUpload(ctx, s.blobs, req.File)
		if err != nil {
			return nil, err
		}
		payload, stored = p, p.Link
		s.metrics.RecordStored(derefSize(p.SizeBytes))
	case strings.TrimSpace(req.Link) != "":
		payload = linkPayload(strings.TrimSpace(req.Link))
	}

	ts := s.clock()
	doc := &models.Document{
		Kind:        models.KindFile,
		Emplacement: req.Emplacement,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		AccessLevel: req.AccessLevel,
		CreatorID:   req.Actor.UserID,
		CreatorName: req.Actor.Name,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if payload != nil {
		doc.ApplyPayload(*payload)
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidateEmplacement(txCtx, req.Emplacement); err != nil {
			return err
		}
		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return err
		}
		if payload == nil {
			return nil
		}
		return s.versionRepo.Create(txCtx, newVersion(doc.ID, 1, *payload, ts))
	})
	if err != nil {
		if stored != "" {
			s.discardBlob(ctx, stored)
		}
		return nil, err
	}
	if payload != nil {
		s.metrics.RecordVersion()
	}

	s.audit.Append(ctx, auditEntry(req.Actor, models.ActionCreate, doc.ID, map[string]any{
		"title":       doc.Title,
		"emplacement": doc.Emplacement,
	}))

	s.logger.Info("document created",
		"id", doc.ID,
		"title", doc.Title,
		"emplacement", doc.Emplacement,
		"has_payload", payload != nil,
	)

	return doc, nil
}

// GetDocument retrieves a document or folder by id without an access check
func (s *documentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.validator.Document(ctx, id)
}


// OpenDocument retrieves a document actor may read and stamps lastOpenedAt.
// A failed stamp is logged; the read itself still succeeds.
func (s *documentService) OpenDocument(ctx context.Context, actor authModels.Identity, id string) (*models.Document, error) {
	doc, err := s.validator.Viewable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if doc.IsFolder() {
		return doc, nil
	}

	at := s.clock()
	if err := s.docRepo.TouchOpened(ctx, id, at); err != nil {
		s.logger.Warn("failed to stamp last opened", "document_id", id, "error", err)
		return doc, nil
	}
	doc.LastOpenedAt = &at
	return doc, nil
}

// ListByFolder lists the direct children of an emplacement that actor may read,
// with filters and pagination
func (s *documentService) ListByFolder(ctx context.Context, actor authModels.Identity, opts *models.ListOptions) (*models.Page, error) {
	if actor.IsZero() {
		return nil, &domain.ForbiddenError{Message: "not allowed to browse documents"}
	}
	opts.Emplacement = models.NormalizeEmplacement(opts.Emplacement)
	opts.Query = strings.TrimSpace(opts.Query)
	opts.Category = strings.TrimSpace(opts.Category)
	opts.Tags = normalizeTags(opts.Tags)
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.validator.ValidateEmplacement(ctx, opts.Emplacement); err != nil {
		return nil, err
	}

	opts.Visibility = s.validator.Scope(actor)
	docs, total, err := s.docRepo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return models.NewPage(docs, total, opts), nil
}

// UpdateDocument applies a metadata patch under optimistic concurrency.
// A stale updatedAt returns a StaleUpdateError and writes nothing.
func (s *documentService) UpdateDocument(ctx context.Context, actor authModels.Identity, id string, req *docsysSvc.UpdateDocumentRequest) (*models.Document, error) {
	if req.UpdatedAt.IsZero() {
		return nil, fmt.Errorf("%w: updatedAt is required", domain.ErrValidation)
	}
	req.Description.Value = trimmedOrNil(req.Description.Value)
	req.Category.Value = trimmedOrNil(req.Category.Value)
	if req.Tags != nil {
		tags := normalizeTags(*req.Tags)
		req.Tags = &tags
	}
	var tags []string
	if req.Tags != nil {
		tags = *req.Tags
	}
	if err := validateMetadata(req.Description.Value, req.Category.Value, tags, req.AccessLevel); err != nil {
		return nil, err
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validation.Validate(title, titleRules()...); err != nil {
			return nil, fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
		}
		req.Title = &title
	}

	var doc *models.Document
	changed := []string{}
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.validator.Editable(txCtx, actor, id)
		if err != nil {
			return err
		}
		if doc.IsFolder() && req.Title != nil && *req.Title != doc.Title {
			return fmt.Errorf("%w: folder titles change through rename", domain.ErrValidation)
		}

		if req.Title != nil && *req.Title != doc.Title {
			doc.Title = *req.Title
			changed = append(changed, "title")
		}
		if req.Description.Present {
			doc.Description = req.Description.Value
			changed = append(changed, "description")
		}
		if req.Category.Present {
			doc.Category = req.Category.Value
			changed = append(changed, "category")
		}
		if req.Tags != nil {
			doc.Tags = *req.Tags
			changed = append(changed, "tags")
		}
		if req.AccessLevel != nil {
			doc.AccessLevel = *req.AccessLevel
			changed = append(changed, "accessLevel")
		}
		doc.UpdatedAt = nextUpdatedAt(s.clock, req.UpdatedAt)

		return s.docRepo.UpdateIfUnchanged(txCtx, doc, req.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionUpdate, doc.ID, map[string]any{
		"fields": changed,
	}))

	s.logger.Info("document updated",
		"id", doc.ID,
		"fields", changed,
	)

	return doc, nil
}

// DeleteDocument deletes a file with its versions, grants and share links.
// Folders are delegated to DeleteFolder. Stored bytes are removed after commit.
func (s *documentService) DeleteDocument(ctx context.Context, actor authModels.Identity, id string) error {
	doc, err := s.validator.Editable(ctx, actor, id)
	if err != nil {
		return err
	}
	if doc.IsFolder() {
		return s.folders.DeleteFolder(ctx, actor, id)
	}

	pointers := map[string]bool{}
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err = s.docRepo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if doc.Link != "" {
			pointers[doc.Link] = true
		}

		versions, err := s.versionRepo.ListByDocument(txCtx, id)
		if err != nil {
			return err
		}
		for _, v := range versions {
			if v.Link != "" {
				pointers[v.Link] = true
			}
		}

		if err := s.versionRepo.DeleteByDocument(txCtx, id); err != nil {
			return err
		}
		if _, err := s.grantRepo.DeleteByDocument(txCtx, id); err != nil {
			return err
		}
		if err := s.shareRepo.DeleteByDocument(txCtx, id); err != nil {
			return err
		}
		return s.docRepo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	for pointer := range pointers {
		s.discardBlob(ctx, pointer)
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionDelete, id, map[string]any{
		"title":       doc.Title,
		"emplacement": doc.Emplacement,
	}))

	s.logger.Info("document deleted",
		"id", id,
		"title", doc.Title,
		"payloads", len(pointers),
	)

	return nil
}

// MoveDocument moves a file or folder into targetPath. Moving a folder
// rewrites the emplacement of its whole subtree in the same transaction.
func (s *documentService) MoveDocument(ctx context.Context, actor authModels.Identity, id, targetPath string) (*models.Document, error) {
	target := models.NormalizeEmplacement(targetPath)

	var doc *models.Document
	var from string
	var descendants int64
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.validator.Editable(txCtx, actor, id)
		if err != nil {
			return err
		}
		if err := s.validator.ValidateEmplacement(txCtx, target); err != nil {
			return err
		}

		from = doc.Emplacement
		if from == target {
			return nil
		}

		at := nextUpdatedAt(s.clock, doc.UpdatedAt)
		if doc.IsFolder() {
			descendants, err = moveFolder(txCtx, s.docRepo, doc, target, at)
			return err
		}
		doc.Emplacement = target
		doc.UpdatedAt = at
		return s.docRepo.Update(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}
	if doc.IsFolder() {
		doc.Path = doc.CanonicalPath()
	}
	if from == target {
		return doc, nil
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionMove, doc.ID, map[string]any{
		"from":        from,
		"to":          target,
		"descendants": descendants,
	}))

	s.logger.Info("document moved",
		"id", doc.ID,
		"from", from,
		"to", target,
		"descendants", descendants,
	)

	return doc, nil
}

// discardBlob deletes stored bytes, logging failures
func (s *documentService) discardBlob(ctx context.Context, pointer string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), pointer); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("failed to delete stored payload", "pointer", pointer, "error", err)
	}
}
