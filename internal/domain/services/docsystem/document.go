package docsystem

import (
	"context"
	"time"

	"campusdocs/internal/domain/models"
	"campusdocs/internal/domain/models/docsystem"
)

// DocumentService handles document and folder business logic
type DocumentService interface {
	// CreateDocument creates a file in an existing emplacement.
	// When req.File is set the bytes are stored and version 1 is recorded.
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*docsystem.Document, error)

	// GetDocument retrieves a document without an access check
	GetDocument(ctx context.Context, id string) (*docsystem.Document, error)

	// OpenDocument retrieves a document actor may read and stamps its last-opened time
	OpenDocument(ctx context.Context, actor models.Identity, id string) (*docsystem.Document, error)

	// ListByFolder returns one filtered, sorted page of the folder's direct
	// children that actor may read
	ListByFolder(ctx context.Context, actor models.Identity, opts *docsystem.ListOptions) (*docsystem.Page, error)

	// UpdateDocument patches metadata under optimistic concurrency.
	// Update, delete and move require the creator, staff or an edit grant.
	UpdateDocument(ctx context.Context, actor models.Identity, id string, req *UpdateDocumentRequest) (*docsystem.Document, error)

	// DeleteDocument deletes a file with its history, or an empty folder
	DeleteDocument(ctx context.Context, actor models.Identity, id string) error

	// MoveDocument moves a file or folder into targetPath
	MoveDocument(ctx context.Context, actor models.Identity, id, targetPath string) (*docsystem.Document, error)
}

// FolderService handles folder business logic
type FolderService interface {
	// CreateFolder creates a folder inside an existing emplacement
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*docsystem.Document, error)

	// RenameFolder renames a folder and rewrites every descendant emplacement
	RenameFolder(ctx context.Context, actor models.Identity, id string, req *RenameFolderRequest) (*docsystem.Document, error)

	// DeleteFolder deletes a folder (must be empty)
	DeleteFolder(ctx context.Context, actor models.Identity, id string) error
}

// CreateDocumentRequest represents a file creation request
type CreateDocumentRequest struct {
	Actor       models.Identity       `json:"-"` // Set by handler from auth context, not from request body
	Title       string                `json:"title"`
	Emplacement string                `json:"emplacement"`
	Description *string               `json:"description,omitempty"`
	Category    *string               `json:"category,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	AccessLevel docsystem.AccessLevel `json:"accessLevel,omitempty"`
	Link        string                `json:"link,omitempty"` // Pre-stored pointer, used when File is nil
	File        *UploadedFile         `json:"-"`
}

// UpdateDocumentRequest represents a metadata patch.
// Nil fields are left unchanged.
type UpdateDocumentRequest struct {
	Title       *string                // nil = unchanged; files only
	Description OptionalText           // Tri-state: absent = unchanged, null or blank = clear, value = set
	Category    OptionalText           // Tri-state, as Description
	Tags        *[]string              // nil = unchanged, empty = clear
	AccessLevel *docsystem.AccessLevel // nil = unchanged
	UpdatedAt   time.Time              // Optimistic concurrency token (required)
}

// OptionalText tracks tri-state semantics for clearable text fields (RFC 7396 PATCH).
// This is transport-agnostic (no JSON tags) - handler maps from httputil.OptionalString.
type OptionalText struct {
	Present bool    // true if field was in request
	Value   *string // nil = clear
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Actor       models.Identity `json:"-"`
	Title       string          `json:"title"`
	Emplacement string          `json:"emplacement"` // Parent path ("root" or empty for top level)
}

// RenameFolderRequest represents a folder rename request
type RenameFolderRequest struct {
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}
