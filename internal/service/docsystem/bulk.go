package docsystem

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"campusdocs/internal/config"
	"campusdocs/internal/domain"
	authModels "campusdocs/internal/domain/models"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	"campusdocs/internal/domain/services"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/metrics"
	"campusdocs/internal/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrorManifestName is the archive entry listing files that could not be included
const ErrorManifestName = "_errors.txt"

const (
	bulkOpDelete   = "delete"
	bulkOpMove     = "move"
	bulkOpDownload = "download"
)

type bulkService struct {
	docs         docsysSvc.DocumentService
	docRepo      docsysRepo.DocumentRepository
	blobs        services.BlobStore
	validator    *ResourceValidator
	audit        docsysSvc.AuditLogger
	fetchTimeout time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewBulkService creates the bulk operation coordinator. Items are processed
// one by one through docs; a failing item never aborts the rest.
func NewBulkService(
	docs docsysSvc.DocumentService,
	docRepo docsysRepo.DocumentRepository,
	validator *ResourceValidator,
	blobs services.BlobStore,
	audit docsysSvc.AuditLogger,
	fetchTimeout time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) docsysSvc.BulkService {
	return &bulkService{
		docs:         docs,
		docRepo:      docRepo,
		blobs:        blobs,
		validator:    validator,
		audit:        audit,
		fetchTimeout: fetchTimeout,
		metrics:      m,
		logger:       logger,
	}
}

// BulkDelete deletes each id. Files go first, then folders deepest first, so
// a folder selected together with its contents is empty by the time it is deleted.
// The batch always runs to completion. When some items fail the result is
// returned together with a *models.PartialBatchFailure describing them, so
// callers must inspect the result even when err is non-nil.
func (s *bulkService) BulkDelete(ctx context.Context, actor authModels.Identity, ids []string) (*models.BulkResult, error) {
	ids, err := validateBulkIDs(ids)
	if err != nil {
		return nil, err
	}

	result := models.NewBulkResult(bulkOpDelete)
	found, err := s.docRepo.ListByIDs(ctx, validIDs(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Document, len(found))
	for _, doc := range found {
		byID[doc.ID] = doc
	}

	var ordered []models.Document
	for _, id := range ids {
		doc, ok := byID[id]
		if !ok {
			result.Fail(id, domain.CodeNotFound, fmt.Errorf("document %s: %w", id, domain.ErrNotFound))
			continue
		}
		ordered = append(ordered, doc)
	}
	slices.SortStableFunc(ordered, func(a, b models.Document) int {
		if a.IsFolder() != b.IsFolder() {
			if a.IsFolder() {
				return 1
			}
			return -1
		}
		if a.IsFolder() {
			return cmp.Compare(pathDepth(b.CanonicalPath()), pathDepth(a.CanonicalPath()))
		}
		return 0
	})

	for _, doc := range ordered {
		if err := s.docs.DeleteDocument(ctx, actor, doc.ID); err != nil {
			s.logger.Warn("bulk delete item failed", "id", doc.ID, "error", err)
			result.Fail(doc.ID, domain.ErrorCode(err), err)
			continue
		}
		result.Succeed(doc.ID)
	}

	s.finish(ctx, actor, models.ActionBulkDelete, result, nil)
	return result, result.Err()
}

// BulkMove moves each id into targetPath. A missing target fails the whole
// request before any item is touched. Item failures are reported the same way
// as BulkDelete: the result comes back together with a *models.PartialBatchFailure.
func (s *bulkService) BulkMove(ctx context.Context, actor authModels.Identity, ids []string, targetPath string) (*models.BulkResult, error) {
	ids, err := validateBulkIDs(ids)
	if err != nil {
		return nil, err
	}
	target := models.NormalizeEmplacement(targetPath)
	if err := s.validator.ValidateEmplacement(ctx, target); err != nil {
		return nil, err
	}

	result := models.NewBulkResult(bulkOpMove)
	for _, id := range ids {
		if _, err := s.docs.MoveDocument(ctx, actor, id, target); err != nil {
			s.logger.Warn("bulk move item failed", "id", id, "target", target, "error", err)
			result.Fail(id, domain.ErrorCode(err), err)
			continue
		}
		result.Succeed(id)
	}

	s.finish(ctx, actor, models.ActionBulkMove, result, map[string]any{"target": target})
	return result, result.Err()
}

type archiveEntry struct {
	doc  models.Document
	name string
}

// BulkDownload streams a zip of the selected files actor may read to w. Folders
// expand to every readable file beneath them; an item inside another selected
// folder is archived once. A file whose bytes cannot be fetched is skipped and
// listed in an error manifest at the end of the archive.
// Returns domain.ErrNotFound without writing anything when no id resolves.
func (s *bulkService) BulkDownload(ctx context.Context, actor authModels.Identity, ids []string, w io.Writer) (*models.BulkResult, error) {
	ids, err := validateBulkIDs(ids)
	if err != nil {
		return nil, err
	}

	result := models.NewBulkResult(bulkOpDownload)
	entries, err := s.planArchive(ctx, actor, ids, result)
	if err != nil {
		return nil, err
	}

	archive := utils.NewArchiveWriter(w)
	var manifest strings.Builder
	for _, id := range ids {
		if item, ok := result.Item(id); ok && !item.OK {
			fmt.Fprintf(&manifest, "%s\t%s\n", id, item.Error)
		}
	}

	for _, entry := range entries {
		if entry.doc.Link == "" {
			err := fmt.Errorf("%w: %q has no stored file", domain.ErrValidation, entry.name)
			result.Fail(entry.doc.ID, domain.CodeValidation, err)
			fmt.Fprintf(&manifest, "%s\t%s\t%v\n", entry.doc.ID, entry.name, err)
			continue
		}

		if err := s.addEntry(ctx, archive, entry); err != nil {
			var writeErr *archiveWriteError
			if errors.As(err, &writeErr) {
				// The response stream itself is broken; nothing more can be delivered
				s.logger.Error("bulk download aborted", "entry", entry.name, "error", err)
				return result, err
			}
			s.logger.Warn("bulk download entry skipped", "id", entry.doc.ID, "entry", entry.name, "error", err)
			result.Fail(entry.doc.ID, domain.ErrorCode(err), err)
			fmt.Fprintf(&manifest, "%s\t%s\t%v\n", entry.doc.ID, entry.name, err)
			continue
		}
		result.Succeed(entry.doc.ID)
	}

	if manifest.Len() > 0 {
		if _, err := archive.AddEntry(ErrorManifestName, now(), strings.NewReader(manifest.String())); err != nil {
			return result, err
		}
	}
	if err := archive.Close(); err != nil {
		return result, fmt.Errorf("finish archive: %w", err)
	}

	s.finish(ctx, actor, models.ActionBulkDownload, result, map[string]any{"entries": archive.Entries()})
	return result, result.Err()
}

// planArchive resolves ids to archive entries with unique names. Ids that do
// not resolve or that actor may not read are recorded as failed; it is an
// error when none is left.
func (s *bulkService) planArchive(ctx context.Context, actor authModels.Identity, ids []string, result *models.BulkResult) ([]archiveEntry, error) {
	var selected []*models.Document
	denied := 0
	for _, id := range ids {
		doc, err := s.validator.Viewable(ctx, actor, id)
		switch {
		case errors.Is(err, domain.ErrForbidden):
			denied++
			result.Fail(id, domain.CodeForbidden, err)
			continue
		case errors.Is(err, domain.ErrNotFound):
			result.Fail(id, domain.CodeNotFound, err)
			continue
		case err != nil:
			return nil, err
		}
		selected = append(selected, doc)
	}
	if len(selected) == 0 {
		if denied == len(ids) {
			return nil, &domain.ForbiddenError{Message: "not allowed to read any of the selected documents"}
		}
		return nil, fmt.Errorf("none of the selected documents exist: %w", domain.ErrNotFound)
	}

	var folders []string
	for _, doc := range selected {
		if doc.IsFolder() {
			folders = append(folders, doc.CanonicalPath())
		}
	}

	used := map[string]bool{ErrorManifestName: true}
	var entries []archiveEntry
	for _, doc := range selected {
		if coveredBy(doc, folders) {
			continue
		}
		if !doc.IsFolder() {
			entries = append(entries, archiveEntry{doc: *doc, name: UniqueArchivePath(ArchiveFileName(doc), used)})
			continue
		}

		within, err := s.docRepo.ListWithin(ctx, doc.CanonicalPath())
		if err != nil {
			return nil, err
		}
		for i := range within {
			if within[i].IsFolder() {
				continue
			}
			ok, err := s.validator.CanView(ctx, actor, &within[i])
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			name := UniqueArchivePath(BuildArchivePath(doc, &within[i]), used)
			entries = append(entries, archiveEntry{doc: within[i], name: name})
		}
	}
	return entries, nil
}

// coveredBy reports whether doc lies beneath one of the folder paths
func coveredBy(doc *models.Document, folders []string) bool {
	for _, path := range folders {
		if models.IsWithin(doc.Emplacement, path) {
			return true
		}
	}
	return false
}

// archiveWriteError marks a failure writing to the archive rather than reading the source
type archiveWriteError struct {
	err error
}

func (e *archiveWriteError) Error() string { return e.err.Error() }
func (e *archiveWriteError) Unwrap() error { return e.err }

// addEntry fetches one file under the fetch timeout and copies it into the archive.
// The entry is created only after the fetch succeeded.
func (s *bulkService) addEntry(ctx context.Context, archive *utils.ArchiveWriter, entry archiveEntry) error {
	fetchCtx, cancel := withOptionalTimeout(ctx, s.fetchTimeout)
	defer cancel()

	rc, err := s.blobs.Fetch(fetchCtx, entry.doc.Link)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", entry.name, err)
	}
	defer rc.Close()

	src := &trackingReader{r: rc}
	if _, err := archive.AddEntry(entry.name, entry.doc.UpdatedAt, src); err != nil {
		if src.err != nil {
			// The entry is already open; it stays in the archive truncated and is listed in the manifest
			return fmt.Errorf("read %s (entry truncated): %w", entry.name, src.err)
		}
		return &archiveWriteError{err: err}
	}
	return nil
}

// trackingReader remembers the first read error that is not io.EOF
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

// finish records metrics and the batch summary audit entry
func (s *bulkService) finish(ctx context.Context, actor authModels.Identity, action string, result *models.BulkResult, extra map[string]any) {
	s.metrics.RecordBulk(result.Operation, result.Succeeded, result.Failed)

	metadata := map[string]any{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}
	for k, v := range extra {
		metadata[k] = v
	}
	s.audit.Append(ctx, auditEntry(actor, action, "", metadata))

	s.logger.Info("bulk operation finished",
		"operation", result.Operation,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
}

// validateBulkIDs checks the batch size and drops duplicate ids, keeping order
func validateBulkIDs(ids []string) ([]string, error) {
	err := validation.Validate(ids,
		validation.Required,
		validation.Length(1, config.MaxBulkItems),
		validation.Each(validation.Required),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: ids: %v", domain.ErrValidation, err)
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// validIDs keeps the well-formed ids; malformed ones simply never match
func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validateID(id) == nil {
			out = append(out, id)
		}
	}
	return out
}

func pathDepth(p string) int {
	return strings.Count(p, "/")
}
