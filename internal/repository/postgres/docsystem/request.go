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

const requestColumns = `id, requester_id, requester_type, target_id, target_type, title, message, status,
	due_date, document_id, created_at, updated_at`

// PostgresRequestRepository implements the RequestRepository interface
type PostgresRequestRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewRequestRepository creates a new document request repository
func NewRequestRepository(config *postgres.RepositoryConfig) docsysRepo.RequestRepository {
	return &PostgresRequestRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a request ticket
func (r *PostgresRequestRepository) Create(ctx context.Context, req *models.DocumentRequest) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (requester_id, requester_type, target_id, target_type, title, message, status,
			due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, r.tables.Requests)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		req.RequesterID, req.RequesterType, req.TargetID, req.TargetType, req.Title, req.Message,
		req.Status, req.DueDate, req.CreatedAt, req.UpdatedAt,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("create document request: %w", err)
	}
	return nil
}

// GetByID retrieves a request ticket
func (r *PostgresRequestRepository) GetByID(ctx context.Context, id string) (*models.DocumentRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, requestColumns, r.tables.Requests)

	executor := postgres.GetExecutor(ctx, r.pool)
	req, err := scanRequest(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.NotFound(err, "document request", id, "get document request")
	}
	return req, nil
}

// ListByTarget lists requests addressed to a user
func (r *PostgresRequestRepository) ListByTarget(ctx context.Context, targetID, targetType string) ([]models.DocumentRequest, error) {
	return r.list(ctx, "target_id = $1 AND target_type = $2", targetID, targetType)
}

// ListByRequester lists requests sent by a user
func (r *PostgresRequestRepository) ListByRequester(ctx context.Context, requesterID, requesterType string) ([]models.DocumentRequest, error) {
	return r.list(ctx, "requester_id = $1 AND requester_type = $2", requesterID, requesterType)
}

func (r *PostgresRequestRepository) list(ctx context.Context, where string, args ...any) ([]models.DocumentRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY created_at DESC`, requestColumns, r.tables.Requests, where)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list document requests: %w", err)
	}
	defer rows.Close()

	requests := []models.DocumentRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document requests: %w", err)
	}
	return requests, nil
}

// UpdateStatus is a compare-and-set on status
func (r *PostgresRequestRepository) UpdateStatus(ctx context.Context, req *models.DocumentRequest, expected models.RequestStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $2, document_id = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`, r.tables.Requests)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, req.ID, req.Status, req.DocumentID, req.UpdatedAt, expected)
	if err != nil {
		return fmt.Errorf("update document request: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, req.ID); err != nil {
			return err
		}
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document request is no longer %s", expected),
			ResourceType: "document_request",
			ResourceID:   req.ID,
		}
	}
	return nil
}

func scanRequest(row pgx.Row) (*models.DocumentRequest, error) {
	var req models.DocumentRequest
	err := row.Scan(&req.ID, &req.RequesterID, &req.RequesterType, &req.TargetID, &req.TargetType,
		&req.Title, &req.Message, &req.Status, &req.DueDate, &req.DocumentID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
