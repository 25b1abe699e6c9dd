package docsystem

import (
	"context"

	"campusdocs/internal/domain/models"
	"campusdocs/internal/domain/models/docsystem"
)

// VersionService manages the append-only version chain of files
type VersionService interface {
	// RecordVersion appends a version for an already stored payload
	RecordVersion(ctx context.Context, actor models.Identity, documentID string, payload docsystem.Payload) (*docsystem.DocumentVersion, error)

	// ReplaceFile stores new bytes and records them as the next version
	ReplaceFile(ctx context.Context, actor models.Identity, documentID string, file *UploadedFile) (*docsystem.DocumentVersion, error)

	// ListVersions lists versions newest first
	ListVersions(ctx context.Context, actor models.Identity, documentID string) ([]docsystem.DocumentVersion, error)

	// Restore appends a new version pointing at an older version's payload
	Restore(ctx context.Context, actor models.Identity, documentID, versionID string) (*docsystem.DocumentVersion, error)
}
