package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the tables and indexes used by the repositories.
// It is idempotent and can be run multiple times safely.
func Migrate(ctx context.Context, pool *pgxpool.Pool, t *TableNames) error {
	schema := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			kind TEXT NOT NULL CHECK (kind IN ('file', 'folder')),
			emplacement TEXT NOT NULL DEFAULT 'root',
			title TEXT NOT NULL,
			description TEXT,
			category TEXT,
			tags TEXT[] NOT NULL DEFAULT '{}',
			link TEXT NOT NULL DEFAULT '',
			extension TEXT,
			mime_type TEXT,
			size_bytes BIGINT,
			access_level TEXT NOT NULL DEFAULT 'private',
			creator_id TEXT NOT NULL,
			creator_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_opened_at TIMESTAMPTZ
		)`, t.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_emplacement_idx ON %s (emplacement)`, t.Documents, t.Documents),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_folder_path_uidx ON %s (emplacement, title) WHERE kind = 'folder'`, t.Documents, t.Documents),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			version INTEGER NOT NULL CHECK (version >= 1),
			link TEXT NOT NULL,
			extension TEXT,
			mime_type TEXT,
			size_bytes BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (document_id, version)
		)`, t.Versions, t.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id)`, t.Versions, t.Versions),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			token_hash TEXT NOT NULL UNIQUE,
			password_hash TEXT,
			expires_at TIMESTAMPTZ,
			access TEXT NOT NULL DEFAULT 'view',
			created_by TEXT NOT NULL,
			created_by_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			revoked_at TIMESTAMPTZ
		)`, t.Shares, t.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id)`, t.Shares, t.Shares),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			user_type TEXT NOT NULL,
			access TEXT NOT NULL DEFAULT 'view',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (document_id, user_id, user_type)
		)`, t.Grants, t.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_user_idx ON %s (user_id, user_type)`, t.Grants, t.Grants),

		// Audit rows outlive their documents: no foreign key
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID,
			actor_id TEXT,
			actor_type TEXT,
			action TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.AuditLogs),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id, created_at DESC)`, t.AuditLogs, t.AuditLogs),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			requester_id TEXT NOT NULL,
			requester_type TEXT NOT NULL,
			target_id TEXT NOT NULL,
			target_type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT,
			status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'fulfilled', 'declined')),
			due_date TIMESTAMPTZ,
			document_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.Requests),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_target_idx ON %s (target_id, target_type)`, t.Requests, t.Requests),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_requester_idx ON %s (requester_id, requester_type)`, t.Requests, t.Requests),
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// DropAll drops every table of the given prefix. Used by `migrate --reset`.
func DropAll(ctx context.Context, pool *pgxpool.Pool, t *TableNames) error {
	for _, table := range t.All() {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
