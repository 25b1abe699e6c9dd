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
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	docsysSvc "campusdocs/internal/domain/services/docsystem"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var userTypes = []any{authModels.UserTypeStaff, authModels.UserTypeStudent, authModels.UserTypeCompany}

type grantService struct {
	grantRepo docsysRepo.GrantRepository
	validator *ResourceValidator
	audit     docsysSvc.AuditLogger
	clock     func() time.Time
	logger    *slog.Logger
}

// NewGrantService creates the access grant ledger
func NewGrantService(
	grantRepo docsysRepo.GrantRepository,
	docRepo docsysRepo.DocumentRepository,
	audit docsysSvc.AuditLogger,
	logger *slog.Logger,
) docsysSvc.GrantService {
	return &grantService{
		grantRepo: grantRepo,
		validator: NewResourceValidator(docRepo, grantRepo),
		audit:     audit,
		clock:     now,
		logger:    logger,
	}
}

// Grant gives a user explicit access to a document. actor must be allowed to
// change the document. Granting twice returns the existing grant unchanged.
func (s *grantService) Grant(ctx context.Context, actor authModels.Identity, req *docsysSvc.GrantRequest) (*models.AccessGrant, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.UserType = strings.TrimSpace(req.UserType)
	if req.Access == "" {
		req.Access = models.GrantView
	}

	err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.UserType, validation.Required, validation.In(userTypes...)),
		validation.Field(&req.Access, validation.In(models.GrantView, models.GrantEdit)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.validator.Editable(ctx, actor, req.DocumentID); err != nil {
		return nil, err
	}

	grant, created, err := s.grantRepo.CreateIfAbsent(ctx, &models.AccessGrant{
		DocumentID: req.DocumentID,
		UserID:     req.UserID,
		UserType:   req.UserType,
		Access:     req.Access,
		CreatedAt:  s.clock(),
	})
	if err != nil {
		return nil, err
	}
	if !created {
		s.logger.Debug("grant already exists", "document_id", req.DocumentID, "user_id", req.UserID)
		return grant, nil
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionGrantCreate, req.DocumentID, map[string]any{
		"user_id":   grant.UserID,
		"user_type": grant.UserType,
		"access":    grant.Access,
	}))

	s.logger.Info("access granted",
		"document_id", grant.DocumentID,
		"user_id", grant.UserID,
		"user_type", grant.UserType,
		"access", grant.Access,
	)
	return grant, nil
}

// ListForUser returns the documents a user holds a grant on
func (s *grantService) ListForUser(ctx context.Context, userID, userType string) ([]models.Document, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.grantRepo.ListDocumentsForUser(ctx, userID, userType)
}

// ListForDocument returns every grant on a document
func (s *grantService) ListForDocument(ctx context.Context, actor authModels.Identity, documentID string) ([]models.AccessGrant, error) {
	if _, err := s.validator.Editable(ctx, actor, documentID); err != nil {
		return nil, err
	}
	return s.grantRepo.ListByDocument(ctx, documentID)
}

// RevokeAllForDocument removes every grant on a document
func (s *grantService) RevokeAllForDocument(ctx context.Context, actor authModels.Identity, documentID string) (int64, error) {
	if _, err := s.validator.Editable(ctx, actor, documentID); err != nil {
		return 0, err
	}

	removed, err := s.grantRepo.DeleteByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionGrantRevokeAll, documentID, map[string]any{
		"removed": removed,
	}))

	s.logger.Info("grants revoked", "document_id", documentID, "removed", removed)
	return removed, nil
}

// HasGrant reports whether a user holds any grant on a document
func (s *grantService) HasGrant(ctx context.Context, documentID, userID, userType string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	_, err := s.grantRepo.Get(ctx, documentID, userID, userType)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
