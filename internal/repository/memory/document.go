package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"campusdocs/internal/domain"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"

	"github.com/google/uuid"
)

// DocumentRepository is the in-memory DocumentRepository
type DocumentRepository struct {
	store *Store
}

// NewDocumentRepository creates a document repository backed by store
func NewDocumentRepository(store *Store) docsysRepo.DocumentRepository {
	return &DocumentRepository{store: store}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	defer r.store.lock(ctx)()

	if doc.IsFolder() {
		if err := r.checkFolderUnique(doc.Emplacement, doc.Title, ""); err != nil {
			return err
		}
	}
	doc.ID = uuid.NewString()
	r.store.documents[doc.ID] = cloneDocument(*doc)
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	defer r.store.lock(ctx)()
	return r.get(id)
}

// GetForUpdate is GetByID: the store lock already serializes transactions
func (r *DocumentRepository) GetForUpdate(ctx context.Context, id string) (*models.Document, error) {
	return r.GetByID(ctx, id)
}

func (r *DocumentRepository) GetFolderByPath(ctx context.Context, path string) (*models.Document, error) {
	defer r.store.lock(ctx)()

	emplacement, title := models.SplitPath(path)
	for _, doc := range r.store.documents {
		if doc.IsFolder() && doc.Emplacement == emplacement && doc.Title == title {
			return withPath(doc), nil
		}
	}
	return nil, fmt.Errorf("folder %s: %w", path, domain.ErrNotFound)
}

func (r *DocumentRepository) UpdateIfUnchanged(ctx context.Context, doc *models.Document, expected time.Time) error {
	defer r.store.lock(ctx)()

	current, ok := r.store.documents[doc.ID]
	if !ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	if !current.UpdatedAt.Equal(expected) {
		return &domain.StaleUpdateError{ResourceID: doc.ID, Expected: expected, Actual: current.UpdatedAt}
	}
	if current.IsFolder() {
		if err := r.checkFolderUnique(doc.Emplacement, doc.Title, doc.ID); err != nil {
			return err
		}
	}

	// Payload columns are owned by the version chain
	next := cloneDocument(*doc)
	next.ApplyPayload(models.Payload{Link: current.Link, Extension: current.Extension, MimeType: current.MimeType, SizeBytes: current.SizeBytes})
	next.LastOpenedAt = current.LastOpenedAt
	r.store.documents[doc.ID] = next
	return nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	defer r.store.lock(ctx)()

	current, ok := r.store.documents[doc.ID]
	if !ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	if current.IsFolder() {
		if err := r.checkFolderUnique(doc.Emplacement, doc.Title, doc.ID); err != nil {
			return err
		}
	}
	next := cloneDocument(*doc)
	next.LastOpenedAt = current.LastOpenedAt
	r.store.documents[doc.ID] = next
	return nil
}

func (r *DocumentRepository) TouchOpened(ctx context.Context, id string, at time.Time) error {
	defer r.store.lock(ctx)()

	doc, ok := r.store.documents[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	doc.LastOpenedAt = &at
	r.store.documents[id] = doc
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.documents[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(r.store.documents, id)
	return nil
}

func (r *DocumentRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Document, int, error) {
	defer r.store.lock(ctx)()

	var matched []models.Document
	for _, doc := range r.store.documents {
		if matches(doc, opts) && r.visible(doc, opts.Visibility) {
			matched = append(matched, doc)
		}
	}

	slices.SortFunc(matched, func(a, b models.Document) int {
		// Folders first
		if a.IsFolder() != b.IsFolder() {
			if a.IsFolder() {
				return -1
			}
			return 1
		}
		var c int
		switch opts.Sort {
		case models.SortByTitle:
			c = cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if opts.Order == models.SortDesc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})

	total := len(matched)
	start := min(opts.Offset(), total)
	end := min(start+opts.PageSize, total)

	page := make([]models.Document, 0, end-start)
	for _, doc := range matched[start:end] {
		page = append(page, *withPath(doc))
	}
	return page, total, nil
}

func matches(doc models.Document, opts *models.ListOptions) bool {
	if doc.Emplacement != opts.Emplacement {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(opts.Query)); q != "" {
		inTitle := strings.Contains(strings.ToLower(doc.Title), q)
		inDescription := doc.Description != nil && strings.Contains(strings.ToLower(*doc.Description), q)
		if !inTitle && !inDescription {
			return false
		}
	}
	if opts.Category != "" && (doc.Category == nil || *doc.Category != opts.Category) {
		return false
	}
	if len(opts.Tags) > 0 && !slices.ContainsFunc(doc.Tags, func(tag string) bool { return slices.Contains(opts.Tags, tag) }) {
		return false
	}
	if opts.Kind != "" && doc.Kind != opts.Kind {
		return false
	}
	if opts.From != nil && doc.CreatedAt.Before(*opts.From) {
		return false
	}
	if opts.To != nil && doc.CreatedAt.After(*opts.To) {
		return false
	}
	return true
}

// visible applies opts.Visibility; the caller holds the store lock
func (r *DocumentRepository) visible(doc models.Document, v *models.Visibility) bool {
	if v == nil || v.AllowsWithoutGrant(&doc) {
		return true
	}
	for _, g := range r.store.grants {
		if g.DocumentID == doc.ID && g.UserID == v.UserID && g.UserType == v.UserType {
			return true
		}
	}
	return false
}

func (r *DocumentRepository) CountInEmplacement(ctx context.Context, path string) (int, error) {
	defer r.store.lock(ctx)()

	count := 0
	for _, doc := range r.store.documents {
		if doc.Emplacement == path {
			count++
		}
	}
	return count, nil
}

func (r *DocumentRepository) ListWithin(ctx context.Context, path string) ([]models.Document, error) {
	defer r.store.lock(ctx)()

	docs := []models.Document{}
	for _, doc := range r.store.documents {
		if doc.Emplacement == path || strings.HasPrefix(doc.Emplacement, path+"/") {
			docs = append(docs, *withPath(doc))
		}
	}
	slices.SortFunc(docs, func(a, b models.Document) int {
		return cmp.Or(cmp.Compare(a.Emplacement, b.Emplacement), cmp.Compare(a.Title, b.Title))
	})
	return docs, nil
}

func (r *DocumentRepository) RewriteEmplacementPrefix(ctx context.Context, oldPath, newPath string, at time.Time) (int64, error) {
	defer r.store.lock(ctx)()

	moved := map[string]models.Document{}
	for id, doc := range r.store.documents {
		next := models.RebasePath(doc.Emplacement, oldPath, newPath)
		if next == doc.Emplacement {
			continue
		}
		doc.Emplacement = next
		doc.UpdatedAt = at
		moved[id] = doc
	}

	// Reject the whole rewrite if any moved folder lands on an existing folder path
	for id, doc := range moved {
		if !doc.IsFolder() {
			continue
		}
		for otherID, other := range r.store.documents {
			if otherID == id || !other.IsFolder() {
				continue
			}
			if m, ok := moved[otherID]; ok {
				other = m
			}
			if other.Emplacement == doc.Emplacement && other.Title == doc.Title {
				return 0, fmt.Errorf("moving %s to %s collides with an existing folder: %w", oldPath, newPath, domain.ErrConflict)
			}
		}
	}

	for id, doc := range moved {
		r.store.documents[id] = doc
	}
	return int64(len(moved)), nil
}

func (r *DocumentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Document, error) {
	defer r.store.lock(ctx)()

	docs := []models.Document{}
	for _, id := range ids {
		if doc, ok := r.store.documents[id]; ok {
			docs = append(docs, *withPath(doc))
		}
	}
	return docs, nil
}

func (r *DocumentRepository) get(id string) (*models.Document, error) {
	doc, ok := r.store.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return withPath(doc), nil
}

func (r *DocumentRepository) checkFolderUnique(emplacement, title, selfID string) error {
	for id, doc := range r.store.documents {
		if id != selfID && doc.IsFolder() && doc.Emplacement == emplacement && doc.Title == title {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder '%s' already exists in '%s'", title, emplacement),
				ResourceType: "folder",
				ResourceID:   id,
			}
		}
	}
	return nil
}

// withPath returns a detached copy with the computed folder path set
func withPath(doc models.Document) *models.Document {
	out := cloneDocument(doc)
	if out.IsFolder() {
		out.Path = out.CanonicalPath()
	}
	return &out
}

func cloneDocument(doc models.Document) models.Document {
	doc.Tags = slices.Clone(doc.Tags)
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	doc.Path = ""
	return doc
}
