package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campusdocs/internal/config"
	"campusdocs/internal/domain"
	authModels "campusdocs/internal/domain/models"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/metrics"
)

// auditWriteTimeout bounds one audit write so a slow database never stalls the caller for long
const auditWriteTimeout = 5 * time.Second

type auditLogger struct {
	repo      docsysRepo.AuditRepository
	validator *ResourceValidator
	retention int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAuditLogger creates the audit logger. retention > 0 keeps only the newest retention entries.
func NewAuditLogger(
	repo docsysRepo.AuditRepository,
	validator *ResourceValidator,
	retention int,
	m *metrics.Metrics,
	logger *slog.Logger,
) docsysSvc.AuditLogger {
	return &auditLogger{
		repo:      repo,
		validator: validator,
		retention: retention,
		metrics:   m,
		logger:    logger,
	}
}

// Append writes entry outside any caller transaction. It runs after the primary
// write committed, so a failure here is logged and counted but never returned.
func (a *auditLogger) Append(ctx context.Context, entry *models.AuditLogEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now()
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := a.repo.Append(writeCtx, entry, a.retention); err != nil {
		a.metrics.RecordAuditFailure()
		a.logger.Error("audit append failed",
			"action", entry.Action,
			"document_id", entry.DocumentID,
			"error", err,
		)
		return
	}

	a.logger.Debug("audit appended", "action", entry.Action, "id", entry.ID)
}

// ListForDocument returns the newest entries for a document. Staff may read the
// trail of any document, deleted ones included; other callers must be allowed
// to change the document.
func (a *auditLogger) ListForDocument(ctx context.Context, actor authModels.Identity, documentID string, limit int) ([]models.AuditLogEntry, error) {
	if err := validateID(documentID); err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	if !isPrivileged(actor) {
		if _, err := a.validator.Editable(ctx, actor, documentID); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = config.DefaultAuditPageSize
	}
	limit = min(limit, config.MaxAuditPageSize)
	return a.repo.ListByDocument(ctx, documentID, limit)
}

// auditEntry builds an entry for actor. documentID may be empty for batch summaries.
func auditEntry(actor authModels.Identity, action, documentID string, metadata map[string]any) *models.AuditLogEntry {
	entry := &models.AuditLogEntry{
		Action:   action,
		Metadata: metadata,
	}
	if documentID != "" {
		entry.DocumentID = &documentID
	}
	if !actor.IsZero() {
		id, typ := actor.UserID, actor.UserType
		entry.ActorID = &id
		entry.ActorType = &typ
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	return entry
}
