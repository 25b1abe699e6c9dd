package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"campusdocs/internal/domain"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"

	"github.com/google/uuid"
)

// GrantRepository is the in-memory GrantRepository
type GrantRepository struct {
	store *Store
}

// NewGrantRepository creates a grant repository backed by store
func NewGrantRepository(store *Store) docsysRepo.GrantRepository {
	return &GrantRepository{store: store}
}

func (r *GrantRepository) CreateIfAbsent(ctx context.Context, g *models.AccessGrant) (*models.AccessGrant, bool, error) {
	defer r.store.lock(ctx)()

	if _, ok := r.store.documents[g.DocumentID]; !ok {
		return nil, false, fmt.Errorf("document %s: %w", g.DocumentID, domain.ErrNotFound)
	}
	if existing, ok := r.find(g.DocumentID, g.UserID, g.UserType); ok {
		return &existing, false, nil
	}
	g.ID = uuid.NewString()
	r.store.grants[g.ID] = *g
	return g, true, nil
}

func (r *GrantRepository) Get(ctx context.Context, documentID, userID, userType string) (*models.AccessGrant, error) {
	defer r.store.lock(ctx)()

	g, ok := r.find(documentID, userID, userType)
	if !ok {
		return nil, fmt.Errorf("grant %s/%s: %w", documentID, userID, domain.ErrNotFound)
	}
	return &g, nil
}

func (r *GrantRepository) ListByDocument(ctx context.Context, documentID string) ([]models.AccessGrant, error) {
	defer r.store.lock(ctx)()

	grants := []models.AccessGrant{}
	for _, g := range r.store.grants {
		if g.DocumentID == documentID {
			grants = append(grants, g)
		}
	}
	slices.SortFunc(grants, func(a, b models.AccessGrant) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return grants, nil
}

func (r *GrantRepository) ListDocumentsForUser(ctx context.Context, userID, userType string) ([]models.Document, error) {
	defer r.store.lock(ctx)()

	var grants []models.AccessGrant
	for _, g := range r.store.grants {
		if g.UserID == userID && g.UserType == userType {
			grants = append(grants, g)
		}
	}
	slices.SortFunc(grants, func(a, b models.AccessGrant) int { return b.CreatedAt.Compare(a.CreatedAt) })

	docs := []models.Document{}
	for _, g := range grants {
		if doc, ok := r.store.documents[g.DocumentID]; ok {
			docs = append(docs, *withPath(doc))
		}
	}
	return docs, nil
}

func (r *GrantRepository) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	defer r.store.lock(ctx)()

	var removed int64
	for id, g := range r.store.grants {
		if g.DocumentID == documentID {
			delete(r.store.grants, id)
			removed++
		}
	}
	return removed, nil
}

func (r *GrantRepository) find(documentID, userID, userType string) (models.AccessGrant, bool) {
	for _, g := range r.store.grants {
		if g.DocumentID == documentID && g.UserID == userID && g.UserType == userType {
			return g, true
		}
	}
	return models.AccessGrant{}, false
}
