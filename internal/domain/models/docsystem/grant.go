package docsystem

import "time"

// GrantAccess is the level of an explicit access grant
type GrantAccess string

const (
	GrantView GrantAccess = "view"
	GrantEdit GrantAccess = "edit"
)

// AccessGrant is an explicit internal ACL entry, unique on (DocumentID, UserID, UserType)
type AccessGrant struct {
	ID         string      `json:"id" db:"id"`
	DocumentID string      `json:"document_id" db:"document_id"`
	UserID     string      `json:"user_id" db:"user_id"`
	UserType   string      `json:"user_type" db:"user_type"`
	Access     GrantAccess `json:"access" db:"access"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}
