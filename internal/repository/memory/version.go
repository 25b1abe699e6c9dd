package memory

import (
	"context"
	"fmt"
	"slices"

	"campusdocs/internal/domain"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"

	"github.com/google/uuid"
)

// VersionRepository is the in-memory VersionRepository
type VersionRepository struct {
	store *Store
}

// NewVersionRepository creates a version repository backed by store
func NewVersionRepository(store *Store) docsysRepo.VersionRepository {
	return &VersionRepository{store: store}
}

func (r *VersionRepository) Create(ctx context.Context, v *models.DocumentVersion) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.documents[v.DocumentID]; !ok {
		return fmt.Errorf("document %s: %w", v.DocumentID, domain.ErrNotFound)
	}
	for _, existing := range r.store.versions {
		if existing.DocumentID == v.DocumentID && existing.Version == v.Version {
			return fmt.Errorf("version %d of document %s: %w", v.Version, v.DocumentID, domain.ErrConflict)
		}
	}
	v.ID = uuid.NewString()
	r.store.versions[v.ID] = *v
	return nil
}

func (r *VersionRepository) GetByID(ctx context.Context, id string) (*models.DocumentVersion, error) {
	defer r.store.lock(ctx)()

	v, ok := r.store.versions[id]
	if !ok {
		return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}
	return &v, nil
}

func (r *VersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	defer r.store.lock(ctx)()

	versions := []models.DocumentVersion{}
	for _, v := range r.store.versions {
		if v.DocumentID == documentID {
			versions = append(versions, v)
		}
	}
	slices.SortFunc(versions, func(a, b models.DocumentVersion) int { return b.Version - a.Version })
	return versions, nil
}

func (r *VersionRepository) MaxVersion(ctx context.Context, documentID string) (int, error) {
	defer r.store.lock(ctx)()

	max := 0
	for _, v := range r.store.versions {
		if v.DocumentID == documentID && v.Version > max {
			max = v.Version
		}
	}
	return max, nil
}

func (r *VersionRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	defer r.store.lock(ctx)()

	for id, v := range r.store.versions {
		if v.DocumentID == documentID {
			delete(r.store.versions, id)
		}
	}
	return nil
}
