package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	"campusdocs/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAuditRepository implements the AuditRepository interface
type PostgresAuditRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(config *postgres.RepositoryConfig) docsysRepo.AuditRepository {
	return &PostgresAuditRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append inserts an entry and, when keep > 0, trims everything older than the
// newest keep entries in the same statement.
func (r *PostgresAuditRepository) Append(ctx context.Context, entry *models.AuditLogEntry, keep int) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	var query string
	args := []any{entry.DocumentID, entry.ActorID, entry.ActorType, entry.Action, metadata, entry.CreatedAt}
	if keep > 0 {
		query = fmt.Sprintf(`
			WITH inserted AS (
				INSERT INTO %[1]s (document_id, actor_id, actor_type, action, metadata, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id
			), trimmed AS (
				DELETE FROM %[1]s
				WHERE id IN (
					SELECT id FROM %[1]s ORDER BY created_at DESC, id DESC OFFSET $7
				)
			)
			SELECT id FROM inserted
		`, r.tables.AuditLogs)
		// The DELETE sees the snapshot before the insert, so keep-1 older rows survive
		args = append(args, keep-1)
	} else {
		query = fmt.Sprintf(`
			INSERT INTO %s (document_id, actor_id, actor_type, action, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, r.tables.AuditLogs)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&entry.ID); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListByDocument returns the newest entries for a document.
// An id that is not a uuid is reported as domain.ErrNotFound.
func (r *PostgresAuditRepository) ListByDocument(ctx context.Context, documentID string, limit int) ([]models.AuditLogEntry, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, actor_id, actor_type, action, metadata, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, r.tables.AuditLogs)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID, limit)
	if err != nil {
		return nil, postgres.NotFound(err, "document", documentID, "list audit entries")
	}
	defer rows.Close()

	entries := []models.AuditLogEntry{}
	for rows.Next() {
		var e models.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.ActorID, &e.ActorType, &e.Action, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.NotFound(err, "document", documentID, "iterate audit entries")
	}
	return entries, nil
}
