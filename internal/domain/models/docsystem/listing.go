package docsystem

import (
	"fmt"
	"time"
)

// SortField is the closed set of columns a listing can be ordered by.
// Caller-supplied names are resolved through this enum, never interpolated.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByTitle     SortField = "title"
)

// SortOrder is the direction of a listing
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Default listing configuration values
const (
	DefaultPageSize  = 20
	MaxPageSize      = 100
	DefaultSortField = SortByCreatedAt
	DefaultSortOrder = SortDesc
)

// ListOptions configures how a folder is browsed
type ListOptions struct {
	// Emplacement is the folder being listed ("root" for top level)
	Emplacement string

	// Query is a case-insensitive substring matched against title and description
	Query string

	// Category filters on exact category equality
	Category string

	// Tags keeps documents carrying at least one of these tags
	Tags []string

	// Kind filters files or folders; empty = both
	Kind Kind

	// From/To bound createdAt (inclusive)
	From *time.Time
	To   *time.Time

	Sort  SortField
	Order SortOrder

	// Pagination (1-based page)
	Page     int
	PageSize int

	// Visibility limits the listing to one caller's documents; nil = unrestricted
	Visibility *Visibility
}

// Visibility describes what a non-privileged caller may read. Folders are
// namespace and always visible; files are visible to their creator, to roles
// their access level is open to, and to holders of an explicit grant.
type Visibility struct {
	UserID   string
	UserType string
	Levels   []AccessLevel // Access levels open to the caller's role
}

// AllowsWithoutGrant reports whether doc is visible before grants are consulted
func (v *Visibility) AllowsWithoutGrant(doc *Document) bool {
	if doc.IsFolder() || (doc.CreatorID != "" && doc.CreatorID == v.UserID) {
		return true
	}
	for _, level := range v.Levels {
		if doc.AccessLevel == level {
			return true
		}
	}
	return false
}

// LevelNames returns Levels as plain strings (SQL text[] parameter)
func (v *Visibility) LevelNames() []string {
	names := make([]string, len(v.Levels))
	for i, level := range v.Levels {
		names[i] = string(level)
	}
	return names
}

// ApplyDefaults fills in default values for unset fields
func (opts *ListOptions) ApplyDefaults() {
	if opts.Emplacement == "" {
		opts.Emplacement = RootEmplacement
	}
	if opts.Sort == "" {
		opts.Sort = DefaultSortField
	}
	if opts.Order == "" {
		opts.Order = DefaultSortOrder
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
}

// Validate checks that values are in range and enums are known
func (opts *ListOptions) Validate() error {
	if opts.PageSize > MaxPageSize {
		return fmt.Errorf("pageSize cannot exceed %d (requested: %d)", MaxPageSize, opts.PageSize)
	}
	switch opts.Sort {
	case SortByCreatedAt, SortByTitle:
	default:
		return fmt.Errorf("invalid sort field: %q (supported: createdAt, title)", opts.Sort)
	}
	switch opts.Order {
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("invalid sort order: %q (supported: asc, desc)", opts.Order)
	}
	switch opts.Kind {
	case "", KindFile, KindFolder:
	default:
		return fmt.Errorf("invalid type: %q (supported: file, folder)", opts.Kind)
	}
	if opts.From != nil && opts.To != nil && opts.From.After(*opts.To) {
		return fmt.Errorf("from must not be after to")
	}
	return nil
}

// Offset returns the number of rows to skip
func (opts *ListOptions) Offset() int {
	return (opts.Page - 1) * opts.PageSize
}

// Page is one page of a listing with pagination metadata
type Page struct {
	Items    []Document `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	HasMore  bool       `json:"has_more"`
}

// NewPage creates a Page with calculated HasMore flag
func NewPage(items []Document, total int, opts *ListOptions) *Page {
	if items == nil {
		items = []Document{}
	}
	return &Page{
		Items:    items,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.PageSize,
		HasMore:  opts.Offset()+len(items) < total,
	}
}
