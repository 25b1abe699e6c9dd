package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"campusdocs/internal/domain/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Documents string
	Versions  string
	Shares    string
	Grants    string
	AuditLogs string
	Requests  string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents: fmt.Sprintf("%sdocuments", prefix),
		Versions:  fmt.Sprintf("%sdocument_versions", prefix),
		Shares:    fmt.Sprintf("%sdocument_shares", prefix),
		Grants:    fmt.Sprintf("%sdocument_access_grants", prefix),
		AuditLogs: fmt.Sprintf("%sdocument_audit_logs", prefix),
		Requests:  fmt.Sprintf("%sdocument_requests", prefix),
	}
}

// All returns every table, children before parents (drop order)
func (t *TableNames) All() []string {
	return []string{t.AuditLogs, t.Shares, t.Grants, t.Versions, t.Requests, t.Documents}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// Table names are interpolated with fmt.Sprintf before the SQL reaches the
// server, so each environment prefix (dev_, test_, prod_) gets its own cached
// statements. When the URL points at a transaction pooler (port 6543) prepared
// statements are not available and the pool falls back to
// QueryExecModeCacheDescribe, which still encodes map[string]any as JSONB.
// An explicit default_query_exec_mode in the URL takes precedence.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for pooler compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none.
// Repositories call this so they join a surrounding ExecTx automatically.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
