package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"campusdocs/internal/domain"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	"campusdocs/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const versionColumns = `id, document_id, version, link, extension, mime_type, size_bytes, created_at`

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *postgres.RepositoryConfig) docsysRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a version. The (document_id, version) unique key rejects duplicates.
func (r *PostgresVersionRepository) Create(ctx context.Context, v *models.DocumentVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, version, link, extension, mime_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		v.DocumentID, v.Version, v.Link, v.Extension, v.MimeType, v.SizeBytes, v.CreatedAt,
	).Scan(&v.ID)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("version %d of document %s: %w", v.Version, v.DocumentID, domain.ErrConflict)
		}
		return fmt.Errorf("create version: %w", err)
	}
	return nil
}

// GetByID retrieves a version by ID
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id string) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, versionColumns, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	v, err := scanVersion(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.NotFound(err, "version", id, "get version")
	}
	return v, nil
}

// ListByDocument lists versions newest first
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE document_id = $1 ORDER BY version DESC
	`, versionColumns, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	versions := []models.DocumentVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}

// MaxVersion returns the current highest version number (0 when none)
func (r *PostgresVersionRepository) MaxVersion(ctx context.Context, documentID string) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(version), 0) FROM %s WHERE document_id = $1`, r.tables.Versions)

	var max int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, documentID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max version: %w", err)
	}
	return max, nil
}

// DeleteByDocument removes the version chain of a deleted document
func (r *PostgresVersionRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete versions: %w", err)
	}
	return nil
}

func scanVersion(row pgx.Row) (*models.DocumentVersion, error) {
	var v models.DocumentVersion
	err := row.Scan(&v.ID, &v.DocumentID, &v.Version, &v.Link, &v.Extension, &v.MimeType, &v.SizeBytes, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
