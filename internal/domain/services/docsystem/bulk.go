package docsystem

import (
	"context"
	"io"

	"campusdocs/internal/domain/models"
	"campusdocs/internal/domain/models/docsystem"
)

// BulkService runs best-effort multi-item operations.
// When some items fail the result is returned together with a *docsystem.PartialBatchFailure.
type BulkService interface {
	BulkDelete(ctx context.Context, actor models.Identity, ids []string) (*docsystem.BulkResult, error)
	BulkMove(ctx context.Context, actor models.Identity, ids []string, targetPath string) (*docsystem.BulkResult, error)

	// BulkDownload streams a zip archive of the selected documents into w.
	// Nothing is written to w when an error is returned before streaming starts.
	BulkDownload(ctx context.Context, actor models.Identity, ids []string, w io.Writer) (*docsystem.BulkResult, error)
}

// BulkRequest is the body of bulk endpoints
type BulkRequest struct {
	IDs        []string `json:"ids"`
	TargetPath string   `json:"targetPath,omitempty"`
}
