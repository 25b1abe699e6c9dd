package docsystem

import (
	"strings"
	"time"
)

// Audience is the role-based visibility scope of a share link
type Audience string

const (
	AudienceAny       Audience = ""
	AudienceInternal  Audience = "internal"
	AudienceStudents  Audience = "students"
	AudienceCompanies Audience = "companies"
)

// Valid reports whether the audience is known (empty means unrestricted)
func (a Audience) Valid() bool {
	switch a {
	case AudienceAny, AudienceInternal, AudienceStudents, AudienceCompanies:
		return true
	}
	return false
}

// ShareAccessView is the only access level a share link grants
const ShareAccessView = "view"

// ShareLink is a capability token scoped to one document.
// The raw token is never stored, only its one-way hash.
type ShareLink struct {
	ID            string     `json:"id" db:"id"`
	DocumentID    string     `json:"document_id" db:"document_id"`
	TokenHash     string     `json:"-" db:"token_hash"`
	PasswordHash  *string    `json:"-" db:"password_hash"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Access        string     `json:"access" db:"access"` // "view" or "view:<audience>"
	CreatedBy     string     `json:"created_by" db:"created_by"`
	CreatedByType string     `json:"created_by_type" db:"created_by_type"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}

// ShareAccess builds the stored access string for an audience
func ShareAccess(a Audience) string {
	if a == AudienceAny {
		return ShareAccessView
	}
	return ShareAccessView + ":" + string(a)
}

// Audience extracts the audience suffix from the access string
func (s *ShareLink) Audience() Audience {
	_, aud, found := strings.Cut(s.Access, ":")
	if !found {
		return AudienceAny
	}
	return Audience(aud)
}

// HasPassword reports whether the link is password protected
func (s *ShareLink) HasPassword() bool {
	return s.PasswordHash != nil && *s.PasswordHash != ""
}

// UsableAt reports whether the link is neither revoked nor expired at t.
// Token and audience checks are done by the share service.
func (s *ShareLink) UsableAt(t time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	if s.ExpiresAt != nil && !s.ExpiresAt.After(t) {
		return false
	}
	return true
}

// CreatedShare is returned exactly once when a link is created.
// Token and URL cannot be recovered afterwards.
type CreatedShare struct {
	Share    *ShareLink `json:"share"`
	Token    string     `json:"token"`
	ShareURL string     `json:"share_url"`
}
