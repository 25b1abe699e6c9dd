package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campusdocs/internal/domain"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	"campusdocs/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// documentColumns is the select list shared by every document query (scanned by scanDocument)
const documentColumns = `id, kind, emplacement, title, description, category, tags, link, extension,
	mime_type, size_bytes, access_level, creator_id, creator_name, created_at, updated_at, last_opened_at`

// sortColumns maps the closed sort enum onto column names
var sortColumns = map[models.SortField]string{
	models.SortByCreatedAt: "created_at",
	models.SortByTitle:     "lower(title)",
}

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docsysRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (kind, emplacement, title, description, category, tags, link, extension,
			mime_type, size_bytes, access_level, creator_id, creator_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Kind,
		doc.Emplacement,
		doc.Title,
		doc.Description,
		doc.Category,
		tagsOrEmpty(doc.Tags),
		doc.Link,
		doc.Extension,
		doc.MimeType,
		doc.SizeBytes,
		doc.AccessLevel,
		doc.CreatorID,
		doc.CreatorName,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.ID)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.folderConflict(ctx, doc.Emplacement, doc.Title)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.NotFound(err, "document", id, "get document")
	}
	return doc, nil
}

// GetForUpdate retrieves a document and takes a row lock (SELECT ... FOR UPDATE).
// Only meaningful inside ExecTx.
func (r *PostgresDocumentRepository) GetForUpdate(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.NotFound(err, "document", id, "lock document")
	}
	return doc, nil
}

// GetFolderByPath resolves a canonical folder path to its folder row
func (r *PostgresDocumentRepository) GetFolderByPath(ctx context.Context, path string) (*models.Document, error) {
	emplacement, title := models.SplitPath(path)
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE kind = 'folder' AND emplacement = $1 AND title = $2
	`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, emplacement, title))
	if err != nil {
		return nil, postgres.NotFound(err, "folder", path, "get folder by path")
	}
	return doc, nil
}

// UpdateIfUnchanged writes the document only when updated_at still matches expected
func (r *PostgresDocumentRepository) UpdateIfUnchanged(ctx context.Context, doc *models.Document, expected time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET emplacement = $2, title = $3, description = $4, category = $5, tags = $6,
			access_level = $7, updated_at = $8
		WHERE id = $1 AND updated_at = $9
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		doc.ID,
		doc.Emplacement,
		doc.Title,
		doc.Description,
		doc.Category,
		tagsOrEmpty(doc.Tags),
		doc.AccessLevel,
		doc.UpdatedAt,
		expected,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.folderConflict(ctx, doc.Emplacement, doc.Title)
		}
		return fmt.Errorf("update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either gone or modified concurrently
		current, getErr := r.GetByID(ctx, doc.ID)
		if getErr != nil {
			return getErr
		}
		return &domain.StaleUpdateError{ResourceID: doc.ID, Expected: expected, Actual: current.UpdatedAt}
	}

	return nil
}

// Update writes every mutable column unconditionally
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET emplacement = $2, title = $3, description = $4, category = $5, tags = $6,
			link = $7, extension = $8, mime_type = $9, size_bytes = $10,
			access_level = $11, updated_at = $12
		WHERE id = $1
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		doc.ID,
		doc.Emplacement,
		doc.Title,
		doc.Description,
		doc.Category,
		tagsOrEmpty(doc.Tags),
		doc.Link,
		doc.Extension,
		doc.MimeType,
		doc.SizeBytes,
		doc.AccessLevel,
		doc.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.folderConflict(ctx, doc.Emplacement, doc.Title)
		}
		return fmt.Errorf("update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}

	return nil
}

// TouchOpened stamps last_opened_at
func (r *PostgresDocumentRepository) TouchOpened(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET last_opened_at = $2 WHERE id = $1`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("touch document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a document row
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// List returns one page of a folder's direct children plus the total match count
func (r *PostgresDocumentRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Document, int, error) {
	where, args := buildListFilter(opts, r.tables.Documents, r.tables.Grants)

	sortColumn, ok := sortColumns[opts.Sort]
	if !ok {
		return nil, 0, fmt.Errorf("unsupported sort field %q: %w", opts.Sort, domain.ErrValidation)
	}
	direction := "DESC"
	if opts.Order == models.SortAsc {
		direction = "ASC"
	}

	// Folders first, then the requested order; id breaks ties for stable pages
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY (kind = 'folder') DESC, %s %s, id
		LIMIT $%d OFFSET $%d
	`, documentColumns, r.tables.Documents, where, sortColumn, direction, len(args)+1, len(args)+2)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, append(args, opts.PageSize, opts.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.tables.Documents, where)
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	return docs, total, nil
}

// buildListFilter builds the WHERE clause and its positional arguments.
// documents and grants are the prefixed table names used by the visibility clause.
func buildListFilter(opts *models.ListOptions, documents, grants string) (string, []any) {
	conditions := []string{"emplacement = $1"}
	args := []any{opts.Emplacement}

	add := func(format string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if q := strings.TrimSpace(opts.Query); q != "" {
		// Escape LIKE metacharacters so the query is a plain substring
		escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
		add(`(title ILIKE '%%' || $%[1]d || '%%' OR coalesce(description, '') ILIKE '%%' || $%[1]d || '%%')`, escaped)
	}
	if opts.Category != "" {
		add("category = $%d", opts.Category)
	}
	if len(opts.Tags) > 0 {
		add("tags && $%d", opts.Tags)
	}
	if opts.Kind != "" {
		add("kind = $%d", string(opts.Kind))
	}
	if opts.From != nil {
		add("created_at >= $%d", *opts.From)
	}
	if opts.To != nil {
		add("created_at <= $%d", *opts.To)
	}
	if v := opts.Visibility; v != nil {
		args = append(args, v.UserID, v.UserType, v.LevelNames())
		user, userType, levels := len(args)-2, len(args)-1, len(args)
		conditions = append(conditions, fmt.Sprintf(
			`(kind = 'folder' OR creator_id = $%[1]d OR access_level = ANY($%[3]d)`+
				` OR EXISTS (SELECT 1 FROM %[4]s g WHERE g.document_id = %[5]s.id AND g.user_id = $%[1]d AND g.user_type = $%[2]d))`,
			user, userType, levels, grants, documents))
	}

	return strings.Join(conditions, " AND "), args
}

// CountInEmplacement counts the direct children of a folder path
func (r *PostgresDocumentRepository) CountInEmplacement(ctx context.Context, path string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE emplacement = $1`, r.tables.Documents)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, path).Scan(&count); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return count, nil
}

// ListWithin returns every document located in path or any folder below it
func (r *PostgresDocumentRepository) ListWithin(ctx context.Context, path string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE emplacement = $1 OR left(emplacement, length($1) + 1) = $1 || '/'
		ORDER BY emplacement, title
	`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("list subtree: %w", err)
	}
	return collectDocuments(rows)
}

// RewriteEmplacementPrefix moves a whole subtree from oldPath to newPath.
// left() is used instead of LIKE so titles containing % or _ match literally.
func (r *PostgresDocumentRepository) RewriteEmplacementPrefix(ctx context.Context, oldPath, newPath string, at time.Time) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET emplacement = $2 || substr(emplacement, length($1) + 1), updated_at = $3
		WHERE emplacement = $1 OR left(emplacement, length($1) + 1) = $1 || '/'
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, oldPath, newPath, at)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return 0, fmt.Errorf("moving %s to %s collides with an existing folder: %w", oldPath, newPath, domain.ErrConflict)
		}
		return 0, fmt.Errorf("rewrite emplacements: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListByIDs retrieves the documents whose ids are in ids
func (r *PostgresDocumentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return []models.Document{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id::text = ANY($1)`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list documents by id: %w", err)
	}
	return collectDocuments(rows)
}

// folderConflict builds a ConflictError pointing at the existing folder when it can be found
func (r *PostgresDocumentRepository) folderConflict(ctx context.Context, emplacement, title string) error {
	msg := fmt.Sprintf("folder '%s' already exists in '%s'", title, emplacement)
	existing, err := r.GetFolderByPath(ctx, models.JoinPath(emplacement, title))
	if err != nil {
		return fmt.Errorf("%s: %w", msg, domain.ErrConflict)
	}
	return &domain.ConflictError{Message: msg, ResourceType: "folder", ResourceID: existing.ID}
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.Kind,
		&doc.Emplacement,
		&doc.Title,
		&doc.Description,
		&doc.Category,
		&doc.Tags,
		&doc.Link,
		&doc.Extension,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.AccessLevel,
		&doc.CreatorID,
		&doc.CreatorName,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.LastOpenedAt,
	)
	if err != nil {
		return nil, err
	}
	if doc.IsFolder() {
		doc.Path = doc.CanonicalPath()
	}
	return &doc, nil
}

func collectDocuments(rows pgx.Rows) ([]models.Document, error) {
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
