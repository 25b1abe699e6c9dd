package docsystem

import (
	"context"
	"errors"
	"fmt"

	"campusdocs/internal/domain"
	authModels "campusdocs/internal/domain/models"
	models "campusdocs/internal/domain/models/docsystem"
)

// Access rules:
//   - staff may read and change everything
//   - the creator of a document may read and change it
//   - a file whose access level is open to the caller's role is readable
//   - a view grant makes a file readable, an edit grant makes it changeable
//   - folders are readable by every authenticated caller

// isPrivileged reports whether actor bypasses per-document checks
func isPrivileged(actor authModels.Identity) bool {
	return actor.UserType == authModels.UserTypeStaff
}

// levelsFor returns the access levels open to a caller's role
func levelsFor(actor authModels.Identity) []models.AccessLevel {
	switch actor.EffectiveRole() {
	case authModels.RoleStudent:
		return []models.AccessLevel{models.AccessStudents}
	case authModels.RoleCompany:
		return []models.AccessLevel{models.AccessCompanies}
	}
	return nil
}

// Scope returns the listing restriction for actor; nil when actor sees everything
func (v *ResourceValidator) Scope(actor authModels.Identity) *models.Visibility {
	if isPrivileged(actor) {
		return nil
	}
	return &models.Visibility{
		UserID:   actor.UserID,
		UserType: actor.UserType,
		Levels:   levelsFor(actor),
	}
}

// CanView reports whether actor may read doc
func (v *ResourceValidator) CanView(ctx context.Context, actor authModels.Identity, doc *models.Document) (bool, error) {
	if actor.IsZero() {
		return false, nil
	}
	if isPrivileged(actor) || v.Scope(actor).AllowsWithoutGrant(doc) {
		return true, nil
	}
	grant, err := v.grant(ctx, actor, doc.ID)
	if err != nil {
		return false, err
	}
	return grant != nil, nil
}

// CanEdit reports whether actor may change doc
func (v *ResourceValidator) CanEdit(ctx context.Context, actor authModels.Identity, doc *models.Document) (bool, error) {
	if actor.IsZero() {
		return false, nil
	}
	if isPrivileged(actor) || (doc.CreatorID != "" && doc.CreatorID == actor.UserID) {
		return true, nil
	}
	grant, err := v.grant(ctx, actor, doc.ID)
	if err != nil {
		return false, err
	}
	return grant != nil && grant.Access == models.GrantEdit, nil
}

// Viewable loads a document and returns ErrForbidden unless actor may read it
func (v *ResourceValidator) Viewable(ctx context.Context, actor authModels.Identity, id string) (*models.Document, error) {
	doc, err := v.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := v.CanView(ctx, actor, doc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.ForbiddenError{Message: fmt.Sprintf("not allowed to read document %s", id)}
	}
	return doc, nil
}

// Editable loads a document and returns ErrForbidden unless actor may change it
func (v *ResourceValidator) Editable(ctx context.Context, actor authModels.Identity, id string) (*models.Document, error) {
	doc, err := v.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := v.RequireEdit(ctx, actor, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// RequireEdit returns ErrForbidden unless actor may change doc
func (v *ResourceValidator) RequireEdit(ctx context.Context, actor authModels.Identity, doc *models.Document) error {
	ok, err := v.CanEdit(ctx, actor, doc)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.ForbiddenError{Message: fmt.Sprintf("not allowed to change document %s", doc.ID)}
	}
	return nil
}

// grant returns actor's grant on a document, or nil
func (v *ResourceValidator) grant(ctx context.Context, actor authModels.Identity, documentID string) (*models.AccessGrant, error) {
	g, err := v.grants.Get(ctx, documentID, actor.UserID, actor.UserType)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return g, err
}
