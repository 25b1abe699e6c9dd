package docsystem

import (
	"time"
)

// Kind distinguishes file nodes from folder nodes
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// AccessLevel is the default visibility policy of a document, independent of share links
type AccessLevel string

const (
	AccessPrivate   AccessLevel = "private"
	AccessStudents  AccessLevel = "students"
	AccessCompanies AccessLevel = "companies"
)

// Valid reports whether the access level is one of the known values
func (a AccessLevel) Valid() bool {
	switch a {
	case AccessPrivate, AccessStudents, AccessCompanies:
		return true
	}
	return false
}

// Document is a file or folder node. Folders are addressed by their canonical
// path (emplacement + "/" + title), never by parent pointers.
type Document struct {
	ID           string      `json:"id" db:"id"`
	Kind         Kind        `json:"type" db:"kind"`
	Emplacement  string      `json:"emplacement" db:"emplacement"` // "root" or "A/B"
	Title        string      `json:"title" db:"title"`
	Description  *string     `json:"description,omitempty" db:"description"`
	Category     *string     `json:"category,omitempty" db:"category"`
	Tags         []string    `json:"tags" db:"tags"`
	Link         string      `json:"link,omitempty" db:"link"` // Pointer to the current payload (files only)
	Extension    *string     `json:"extension,omitempty" db:"extension"`
	MimeType     *string     `json:"mime_type,omitempty" db:"mime_type"`
	SizeBytes    *int64      `json:"size_bytes,omitempty" db:"size_bytes"`
	AccessLevel  AccessLevel `json:"access_level" db:"access_level"`
	CreatorID    string      `json:"creator_id" db:"creator_id"`
	CreatorName  string      `json:"creator_name" db:"creator_name"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
	LastOpenedAt *time.Time  `json:"last_opened_at,omitempty" db:"last_opened_at"`
	Path         string      `json:"path,omitempty"` // Computed canonical path for folders, not stored in DB
}

// IsFolder reports whether the node is a folder
func (d *Document) IsFolder() bool {
	return d.Kind == KindFolder
}

// CanonicalPath returns the path children of this folder use as their emplacement
func (d *Document) CanonicalPath() string {
	return JoinPath(d.Emplacement, d.Title)
}

// Payload describes a stored byte payload. It is what a version snapshots and
// what a document mirrors from its newest version.
type Payload struct {
	Link      string  `json:"link"`
	Extension *string `json:"extension,omitempty"`
	MimeType  *string `json:"mime_type,omitempty"`
	SizeBytes *int64  `json:"size_bytes,omitempty"`
}

// ApplyPayload mirrors a payload onto the document
func (d *Document) ApplyPayload(p Payload) {
	d.Link = p.Link
	d.Extension = p.Extension
	d.MimeType = p.MimeType
	d.SizeBytes = p.SizeBytes
}
