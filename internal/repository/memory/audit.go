package memory

import (
	"context"
	"maps"

	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"

	"github.com/google/uuid"
)

// AuditRepository is the in-memory AuditRepository. Entries are kept in insertion order.
type AuditRepository struct {
	store *Store
}

// NewAuditRepository creates an audit repository backed by store
func NewAuditRepository(store *Store) docsysRepo.AuditRepository {
	return &AuditRepository{store: store}
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLogEntry, keep int) error {
	defer r.store.lock(ctx)()

	entry.ID = uuid.NewString()
	stored := *entry
	stored.Metadata = maps.Clone(entry.Metadata)
	r.store.audit = append(r.store.audit, stored)

	if keep > 0 && len(r.store.audit) > keep {
		r.store.audit = append([]models.AuditLogEntry(nil), r.store.audit[len(r.store.audit)-keep:]...)
	}
	return nil
}

func (r *AuditRepository) ListByDocument(ctx context.Context, documentID string, limit int) ([]models.AuditLogEntry, error) {
	defer r.store.lock(ctx)()

	entries := []models.AuditLogEntry{}
	for i := len(r.store.audit) - 1; i >= 0 && (limit <= 0 || len(entries) < limit); i-- {
		e := r.store.audit[i]
		if e.DocumentID != nil && *e.DocumentID == documentID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Len returns the number of stored entries
func (r *AuditRepository) Len() int {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.audit)
}
