package docsystem

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"campusdocs/internal/config"
	"campusdocs/internal/domain"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var (
	noSlash        = validation.Match(regexp.MustCompile(`^[^/]+$`)).Error("cannot contain slashes")
	notRootKeyword = validation.NotIn(models.RootEmplacement).Error(`"root" is reserved`)
)

// ResourceValidator resolves and checks the resources an operation refers to,
// including whether the caller may read or change them
type ResourceValidator struct {
	docRepo docsysRepo.DocumentRepository
	grants  docsysRepo.GrantRepository
}

// NewResourceValidator creates a new resource validator
func NewResourceValidator(docRepo docsysRepo.DocumentRepository, grants docsysRepo.GrantRepository) *ResourceValidator {
	return &ResourceValidator{docRepo: docRepo, grants: grants}
}

// ValidateEmplacement ensures path is root or an existing folder.
// Returns domain.ErrNotFound otherwise.
func (v *ResourceValidator) ValidateEmplacement(ctx context.Context, path string) error {
	if path == models.RootEmplacement {
		return nil
	}
	if _, err := v.docRepo.GetFolderByPath(ctx, path); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("emplacement %q does not exist: %w", path, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

// Document loads a document after checking the id is well formed.
// Malformed ids are reported as not found.
func (v *ResourceValidator) Document(ctx context.Context, id string) (*models.Document, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return v.docRepo.GetByID(ctx, id)
}

// validateID reports whether id is a UUID
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed id %q", domain.ErrValidation, id)
	}
	return nil
}

// titleRules are shared by documents and folders
func titleRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, config.MaxTitleLength),
		noSlash,
	}
}

// validateFolderTitle validates a folder title (files may be titled "root", folders may not)
func validateFolderTitle(title string) error {
	rules := append(titleRules(), notRootKeyword)
	if err := validation.Validate(title, rules...); err != nil {
		return fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
	}
	return nil
}

// validateMetadata validates the optional metadata shared by create and update
func validateMetadata(description, category *string, tags []string, access *models.AccessLevel) error {
	err := validation.Errors{
		"description": validation.Validate(description, validation.NilOrNotEmpty, validation.Length(0, config.MaxDescriptionLength)),
		"category":    validation.Validate(category, validation.Length(0, config.MaxTitleLength)),
		"tags": validation.Validate(tags,
			validation.Length(0, config.MaxTags),
			validation.Each(validation.Required, validation.Length(1, config.MaxTagLength)),
		),
		"accessLevel": validation.Validate(access, validation.By(func(value any) error {
			a, _ := value.(*models.AccessLevel)
			if a != nil && !a.Valid() {
				return fmt.Errorf("must be one of private, students, companies")
			}
			return nil
		})),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// normalizeTags trims, drops empties and de-duplicates tags, keeping first occurrence order
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// trimmedOrNil returns nil for nil or blank strings
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// now returns the current time at database precision (microseconds), so a
// timestamp read back from PostgreSQL compares equal to the one written.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// nextUpdatedAt returns a timestamp strictly after previous, so every write changes the concurrency token
func nextUpdatedAt(clock func() time.Time, previous time.Time) time.Time {
	t := clock()
	if !t.After(previous) {
		t = previous.Add(time.Microsecond)
	}
	return t
}
