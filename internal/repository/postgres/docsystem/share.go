package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campusdocs/internal/domain"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	"campusdocs/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const shareColumns = `id, document_id, token_hash, password_hash, expires_at, access, created_by, created_by_type, created_at, revoked_at`

// PostgresShareRepository implements the ShareRepository interface
type PostgresShareRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewShareRepository creates a new share link repository
func NewShareRepository(config *postgres.RepositoryConfig) docsysRepo.ShareRepository {
	return &PostgresShareRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a share link
func (r *PostgresShareRepository) Create(ctx context.Context, s *models.ShareLink) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, token_hash, password_hash, expires_at, access, created_by, created_by_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		s.DocumentID, s.TokenHash, s.PasswordHash, s.ExpiresAt, s.Access, s.CreatedBy, s.CreatedByType, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("share token collision: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create share: %w", err)
	}
	return nil
}

// GetByID retrieves a share link by ID
func (r *PostgresShareRepository) GetByID(ctx context.Context, id string) (*models.ShareLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, shareColumns, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	s, err := scanShare(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.NotFound(err, "share", id, "get share")
	}
	return s, nil
}

// GetByTokenHash retrieves a share link by its token hash
func (r *PostgresShareRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.ShareLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE token_hash = $1`, shareColumns, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	s, err := scanShare(executor.QueryRow(ctx, query, tokenHash))
	if err != nil {
		// Never echo the hash
		return nil, postgres.NotFound(err, "share", "token", "get share by token")
	}
	return s, nil
}

// ListByDocument lists share links newest first
func (r *PostgresShareRepository) ListByDocument(ctx context.Context, documentID string) ([]models.ShareLink, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE document_id = $1 ORDER BY created_at DESC
	`, shareColumns, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	shares := []models.ShareLink{}
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}
	return shares, nil
}

// Revoke sets revoked_at once; later calls leave the first timestamp in place
func (r *PostgresShareRepository) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("revoke share: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// DeleteByDocument removes every link of a document
func (r *PostgresShareRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}
	return nil
}

func scanShare(row pgx.Row) (*models.ShareLink, error) {
	var s models.ShareLink
	err := row.Scan(&s.ID, &s.DocumentID, &s.TokenHash, &s.PasswordHash, &s.ExpiresAt, &s.Access,
		&s.CreatedBy, &s.CreatedByType, &s.CreatedAt, &s.RevokedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
