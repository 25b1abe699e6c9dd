package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	"campusdocs/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const grantColumns = `id, document_id, user_id, user_type, access, created_at`

// PostgresGrantRepository implements the GrantRepository interface
type PostgresGrantRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(config *postgres.RepositoryConfig) docsysRepo.GrantRepository {
	return &PostgresGrantRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateIfAbsent inserts with ON CONFLICT DO NOTHING and falls back to the existing row
func (r *PostgresGrantRepository) CreateIfAbsent(ctx context.Context, g *models.AccessGrant) (*models.AccessGrant, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, user_id, user_type, access, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (document_id, user_id, user_type) DO NOTHING
		RETURNING id
	`, r.tables.Grants)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, g.DocumentID, g.UserID, g.UserType, g.Access, g.CreatedAt).Scan(&g.ID)
	if err == nil {
		return g, true, nil
	}
	if !postgres.IsPgNoRowsError(err) {
		if postgres.IsPgForeignKeyError(err) {
			return nil, false, postgres.NotFound(pgx.ErrNoRows, "document", g.DocumentID, "create grant")
		}
		return nil, false, fmt.Errorf("create grant: %w", err)
	}

	// Conflict: nothing returned, read the existing grant
	existing, err := r.Get(ctx, g.DocumentID, g.UserID, g.UserType)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Get retrieves the grant for a (document, user, type) tuple
func (r *PostgresGrantRepository) Get(ctx context.Context, documentID, userID, userType string) (*models.AccessGrant, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE document_id = $1 AND user_id = $2 AND user_type = $3
	`, grantColumns, r.tables.Grants)

	executor := postgres.GetExecutor(ctx, r.pool)
	g, err := scanGrant(executor.QueryRow(ctx, query, documentID, userID, userType))
	if err != nil {
		return nil, postgres.NotFound(err, "grant", documentID+"/"+userID, "get grant")
	}
	return g, nil
}

// ListByDocument lists grants on a document
func (r *PostgresGrantRepository) ListByDocument(ctx context.Context, documentID string) ([]models.AccessGrant, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE document_id = $1 ORDER BY created_at
	`, grantColumns, r.tables.Grants)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	grants := []models.AccessGrant{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}
	return grants, nil
}

// ListDocumentsForUser joins grants onto documents for one user
func (r *PostgresGrantRepository) ListDocumentsForUser(ctx context.Context, userID, userType string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT d.id, d.kind, d.emplacement, d.title, d.description, d.category, d.tags, d.link, d.extension,
			d.mime_type, d.size_bytes, d.access_level, d.creator_id, d.creator_name, d.created_at, d.updated_at, d.last_opened_at
		FROM %s d
		JOIN %s g ON g.document_id = d.id
		WHERE g.user_id = $1 AND g.user_type = $2
		ORDER BY g.created_at DESC
	`, r.tables.Documents, r.tables.Grants)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, userType)
	if err != nil {
		return nil, fmt.Errorf("list shared documents: %w", err)
	}
	return collectDocuments(rows)
}

// DeleteByDocument removes all grants on a document
func (r *PostgresGrantRepository) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.Grants)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete grants: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanGrant(row pgx.Row) (*models.AccessGrant, error) {
	var g models.AccessGrant
	if err := row.Scan(&g.ID, &g.DocumentID, &g.UserID, &g.UserType, &g.Access, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}
