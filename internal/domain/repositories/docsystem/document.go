package docsystem

import (
	"context"
	"time"

	"campusdocs/internal/domain/models/docsystem"
)

// DocumentRepository defines data access operations for documents and folders
type DocumentRepository interface {
	// Create inserts a new document and sets its generated ID
	Create(ctx context.Context, doc *docsystem.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*docsystem.Document, error)

	// GetForUpdate retrieves a document and locks its row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id string) (*docsystem.Document, error)

	// GetFolderByPath retrieves the folder whose canonical path is path
	GetFolderByPath(ctx context.Context, path string) (*docsystem.Document, error)

	// UpdateIfUnchanged writes doc only if the stored updated_at still equals expected.
	// Returns domain.StaleUpdateError when it does not, domain.ErrNotFound when the row is gone.
	UpdateIfUnchanged(ctx context.Context, doc *docsystem.Document, expected time.Time) error

	// Update writes doc unconditionally (used under a row lock)
	Update(ctx context.Context, doc *docsystem.Document) error

	// TouchOpened stamps last_opened_at without changing updated_at
	TouchOpened(ctx context.Context, id string, at time.Time) error

	// Delete removes a document row
	Delete(ctx context.Context, id string) error

	// List returns one page of documents in opts.Emplacement plus the total match count
	List(ctx context.Context, opts *docsystem.ListOptions) ([]docsystem.Document, int, error)

	// CountInEmplacement counts documents whose emplacement equals path
	CountInEmplacement(ctx context.Context, path string) (int, error)

	// ListWithin returns every document whose emplacement is path or below it
	ListWithin(ctx context.Context, path string) ([]docsystem.Document, error)

	// RewriteEmplacementPrefix rewrites every emplacement equal to oldPath or under
	// oldPath + "/" so it sits under newPath. Returns the number of rows changed.
	RewriteEmplacementPrefix(ctx context.Context, oldPath, newPath string, at time.Time) (int64, error)

	// ListByIDs retrieves documents by ID (missing IDs are skipped)
	ListByIDs(ctx context.Context, ids []string) ([]docsystem.Document, error)
}
