package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"campusdocs/internal/domain"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"

	"github.com/google/uuid"
)

// ShareRepository is the in-memory ShareRepository
type ShareRepository struct {
	store *Store
}

// NewShareRepository creates a share link repository backed by store
func NewShareRepository(store *Store) docsysRepo.ShareRepository {
	return &ShareRepository{store: store}
}

func (r *ShareRepository) Create(ctx context.Context, s *models.ShareLink) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.documents[s.DocumentID]; !ok {
		return fmt.Errorf("document %s: %w", s.DocumentID, domain.ErrNotFound)
	}
	for _, existing := range r.store.shares {
		if existing.TokenHash == s.TokenHash {
			return fmt.Errorf("share token collision: %w", domain.ErrConflict)
		}
	}
	s.ID = uuid.NewString()
	r.store.shares[s.ID] = *s
	return nil
}

func (r *ShareRepository) GetByID(ctx context.Context, id string) (*models.ShareLink, error) {
	defer r.store.lock(ctx)()

	s, ok := r.store.shares[id]
	if !ok {
		return nil, fmt.Errorf("share %s: %w", id, domain.ErrNotFound)
	}
	return &s, nil
}

func (r *ShareRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.ShareLink, error) {
	defer r.store.lock(ctx)()

	for _, s := range r.store.shares {
		if s.TokenHash == tokenHash {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("share token: %w", domain.ErrNotFound)
}

func (r *ShareRepository) ListByDocument(ctx context.Context, documentID string) ([]models.ShareLink, error) {
	defer r.store.lock(ctx)()

	shares := []models.ShareLink{}
	for _, s := range r.store.shares {
		if s.DocumentID == documentID {
			shares = append(shares, s)
		}
	}
	slices.SortFunc(shares, func(a, b models.ShareLink) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return shares, nil
}

func (r *ShareRepository) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	defer r.store.lock(ctx)()

	s, ok := r.store.shares[id]
	if !ok || s.RevokedAt != nil {
		return false, nil
	}
	s.RevokedAt = &at
	r.store.shares[id] = s
	return true, nil
}

func (r *ShareRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	defer r.store.lock(ctx)()

	for id, s := range r.store.shares {
		if s.DocumentID == documentID {
			delete(r.store.shares, id)
		}
	}
	return nil
}
