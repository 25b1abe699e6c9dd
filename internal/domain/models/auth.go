package models

import "github.com/golang-jwt/jwt/v5"

// User types as issued by the identity provider
const (
	UserTypeStaff   = "staff"
	UserTypeStudent = "student"
	UserTypeCompany = "company"
)

// Roles used for share-link audience checks
const (
	RoleInternal = "internal"
	RoleStudent  = "student"
	RoleCompany  = "company"
)

// Claims represents the JWT claims issued by the platform's identity provider.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	UserType             string `json:"user_type"` // "staff", "student" or "company"
	Role                 string `json:"role,omitempty"`
	Name                 string `json:"name,omitempty"`
	Email                string `json:"email,omitempty"`
}

// Identity returns the caller identity carried by the token
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:   c.Subject,
		UserType: c.UserType,
		Role:     c.Role,
		Name:     c.Name,
	}
}

// Identity is the resolved caller of a request
type Identity struct {
	UserID   string `json:"user_id"`
	UserType string `json:"user_type"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

// EffectiveRole returns the explicit role, falling back to the role implied by the user type
func (i Identity) EffectiveRole() string {
	if i.Role != "" {
		return i.Role
	}
	switch i.UserType {
	case UserTypeStaff:
		return RoleInternal
	case UserTypeStudent:
		return RoleStudent
	case UserTypeCompany:
		return RoleCompany
	}
	return ""
}

// IsZero reports whether no caller was resolved (anonymous request)
func (i Identity) IsZero() bool {
	return i.UserID == ""
}
