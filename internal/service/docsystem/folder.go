package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campusdocs/internal/config"
	"campusdocs/internal/domain"
	authModels "campusdocs/internal/domain/models"
	models "campusdocs/internal/domain/models/docsystem"
	"campusdocs/internal/domain/repositories"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	docsysSvc "campusdocs/internal/domain/services/docsystem"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type folderService struct {
	docRepo   docsysRepo.DocumentRepository
	txManager repositories.TransactionManager
	validator *ResourceValidator
	audit     docsysSvc.AuditLogger
	clock     func() time.Time
	logger    *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	docRepo docsysRepo.DocumentRepository,
	txManager repositories.TransactionManager,
	validator *ResourceValidator,
	audit docsysSvc.AuditLogger,
	logger *slog.Logger,
) docsysSvc.FolderService {
	return &folderService{
		docRepo:   docRepo,
		txManager: txManager,
		validator: validator,
		audit:     audit,
		clock:     now,
		logger:    logger,
	}
}

// CreateFolder creates a folder in an existing emplacement.
// Two folders with the same title in the same emplacement conflict.
func (s *folderService) CreateFolder(ctx context.Context, req *docsysSvc.CreateFolderRequest) (*models.Document, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Emplacement = models.NormalizeEmplacement(req.Emplacement)

	if err := validateFolderTitle(req.Title); err != nil {
		return nil, err
	}
	if err := validation.Validate(req.Emplacement, validation.Length(1, config.MaxEmplacementLength)); err != nil {
		return nil, fmt.Errorf("%w: emplacement: %v", domain.ErrValidation, err)
	}

	ts := s.clock()
	folder := &models.Document{
		Kind:        models.KindFolder,
		Emplacement: req.Emplacement,
		Title:       req.Title,
		Tags:        []string{},
		AccessLevel: models.AccessPrivate,
		CreatorID:   req.Actor.UserID,
		CreatorName: req.Actor.Name,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidateEmplacement(txCtx, req.Emplacement); err != nil {
			return err
		}
		return s.docRepo.Create(txCtx, folder)
	})
	if err != nil {
		return nil, err
	}
	folder.Path = folder.CanonicalPath()

	s.audit.Append(ctx, auditEntry(req.Actor, models.ActionFolderCreate, folder.ID, map[string]any{
		"path": folder.Path,
	}))

	s.logger.Info("folder created",
		"id", folder.ID,
		"path", folder.Path,
	)

	return folder, nil
}

// RenameFolder renames a folder under optimistic concurrency and rewrites the
// emplacement of every descendant in the same transaction.
func (s *folderService) RenameFolder(ctx context.Context, actor authModels.Identity, id string, req *docsysSvc.RenameFolderRequest) (*models.Document, error) {
	title := strings.TrimSpace(req.Title)
	if err := validateFolderTitle(title); err != nil {
		return nil, err
	}
	if req.UpdatedAt.IsZero() {
		return nil, fmt.Errorf("%w: updatedAt is required", domain.ErrValidation)
	}

	var folder *models.Document
	var oldPath string
	var moved int64

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		folder, err = s.validator.Editable(txCtx, actor, id)
		if err != nil {
			return err
		}
		if !folder.IsFolder() {
			return fmt.Errorf("%w: document %s is not a folder", domain.ErrValidation, id)
		}

		oldPath = folder.CanonicalPath()
		folder.Title = title
		folder.UpdatedAt = nextUpdatedAt(s.clock, req.UpdatedAt)

		if err := s.docRepo.UpdateIfUnchanged(txCtx, folder, req.UpdatedAt); err != nil {
			return err
		}

		moved, err = s.docRepo.RewriteEmplacementPrefix(txCtx, oldPath, folder.CanonicalPath(), folder.UpdatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	folder.Path = folder.CanonicalPath()

	s.audit.Append(ctx, auditEntry(actor, models.ActionFolderRename, folder.ID, map[string]any{
		"from":        oldPath,
		"to":          folder.Path,
		"descendants": moved,
	}))

	s.logger.Info("folder renamed",
		"id", folder.ID,
		"from", oldPath,
		"to", folder.Path,
		"descendants", moved,
	)

	return folder, nil
}

// DeleteFolder deletes a folder that has no direct children
func (s *folderService) DeleteFolder(ctx context.Context, actor authModels.Identity, id string) error {
	var path string
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		folder, err := s.validator.Editable(txCtx, actor, id)
		if err != nil {
			return err
		}
		if !folder.IsFolder() {
			return fmt.Errorf("%w: document %s is not a folder", domain.ErrValidation, id)
		}
		path = folder.CanonicalPath()

		children, err := s.docRepo.CountInEmplacement(txCtx, path)
		if err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("folder %q contains %d item(s): %w", path, children, domain.ErrFolderNotEmpty)
		}
		return s.docRepo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionFolderDelete, id, map[string]any{
		"path": path,
	}))

	s.logger.Info("folder deleted",
		"id", id,
		"path", path,
	)

	return nil
}

// moveFolder relocates a folder row and its subtree; must run inside a transaction
func moveFolder(ctx context.Context, docRepo docsysRepo.DocumentRepository, folder *models.Document, target string, at time.Time) (int64, error) {
	oldPath := folder.CanonicalPath()
	if models.IsWithin(target, oldPath) {
		return 0, fmt.Errorf("%w: cannot move folder %q into itself or its own subfolder", domain.ErrValidation, oldPath)
	}

	folder.Emplacement = target
	folder.UpdatedAt = at
	if err := docRepo.Update(ctx, folder); err != nil {
		return 0, err
	}
	return docRepo.RewriteEmplacementPrefix(ctx, oldPath, folder.CanonicalPath(), at)
}
