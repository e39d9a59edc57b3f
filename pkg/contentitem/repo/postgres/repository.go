package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/content-parts/pkg/contentitem"
)

// Schema creates the table used by Repository. Parts are kept in a JSONB
// column; header fields have their own columns for filtering.
const Schema = `
CREATE TABLE IF NOT EXISTS content_item (
	id              UUID PRIMARY KEY,
	version_id      UUID NOT NULL,
	content_type    TEXT NOT NULL,
	display_text    TEXT NOT NULL DEFAULT '',
	owner           TEXT NOT NULL DEFAULT '',
	author          TEXT NOT NULL DEFAULT '',
	published       BOOLEAN NOT NULL DEFAULT FALSE,
	latest          BOOLEAN NOT NULL DEFAULT TRUE,
	parts           JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at      TIMESTAMPTZ NOT NULL,
	modified_at     TIMESTAMPTZ NOT NULL,
	published_at    TIMESTAMPTZ,
	deleted_at      TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS content_item_type_idx ON content_item (content_type) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS content_item_owner_idx ON content_item (owner) WHERE deleted_at IS NULL;
`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements contentitem.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) contentitem.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) contentitem.Repository {
	return &Repository{db: pool}
}

// Migrate creates the content_item table if it does not exist
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return contentitem.ErrItemExists
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "22P02": // invalid_text_representation
			return fmt.Errorf("invalid value in %s: %s", operation, pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return contentitem.ErrItemNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const itemColumns = `id, version_id, content_type, display_text, owner, author,
	published, latest, parts, created_at, modified_at, published_at`

func scanItem(row pgx.Row) (*contentitem.ContentItem, error) {
	var (
		item  contentitem.ContentItem
		parts []byte
	)
	err := row.Scan(
		&item.ID, &item.VersionID, &item.ContentType, &item.DisplayText,
		&item.Owner, &item.Author, &item.Published, &item.Latest, &parts,
		&item.CreatedAt, &item.ModifiedAt, &item.PublishedAt)
	if err != nil {
		return nil, err
	}
	if err := item.SetPartsJSON(parts); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *contentitem.ContentItem) error {
	parts, err := item.PartsJSON()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO content_item (
			id, version_id, content_type, display_text, owner, author,
			published, latest, parts, created_at, modified_at, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			version_id = EXCLUDED.version_id, content_type = EXCLUDED.content_type,
			display_text = EXCLUDED.display_text, owner = EXCLUDED.owner,
			author = EXCLUDED.author, published = EXCLUDED.published,
			latest = EXCLUDED.latest, parts = EXCLUDED.parts,
			created_at = EXCLUDED.created_at, modified_at = EXCLUDED.modified_at,
			published_at = EXCLUDED.published_at, deleted_at = NULL
		WHERE content_item.deleted_at IS NOT NULL`

	// A soft-deleted row is revived; a live row leaves nothing affected
	tag, err := r.db.Exec(ctx, query,
		item.ID, item.VersionID, item.ContentType, item.DisplayText,
		item.Owner, item.Author, item.Published, item.Latest, parts,
		item.CreatedAt, item.ModifiedAt, item.PublishedAt)
	if err != nil {
		return r.handlePostgresError("create item", err)
	}
	if tag.RowsAffected() == 0 {
		return contentitem.ErrItemExists
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*contentitem.ContentItem, error) {
	query := `SELECT ` + itemColumns + ` FROM content_item WHERE id = $1 AND deleted_at IS NULL`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get item", err)
	}
	return item, nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *contentitem.ContentItem) error {
	parts, err := item.PartsJSON()
	if err != nil {
		return err
	}

	query := `
		UPDATE content_item SET
			version_id = $2, content_type = $3, display_text = $4, owner = $5,
			author = $6, published = $7, latest = $8, parts = $9,
			modified_at = $10, published_at = $11
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		item.ID, item.VersionID, item.ContentType, item.DisplayText,
		item.Owner, item.Author, item.Published, item.Latest, parts,
		item.ModifiedAt, item.PublishedAt)
	if err != nil {
		return r.handlePostgresError("update item", err)
	}
	if tag.RowsAffected() == 0 {
		return contentitem.ErrItemNotFound
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	// Soft delete: keep the row, hide it from reads
	query := `UPDATE content_item SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return r.handlePostgresError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return contentitem.ErrItemNotFound
	}
	return nil
}

func (r *Repository) ListItems(ctx context.Context, filter contentitem.ListItemsFilter) ([]*contentitem.ContentItem, error) {
	var (
		conditions = []string{"deleted_at IS NULL"}
		args       []interface{}
	)
	if filter.ContentType != "" {
		args = append(args, filter.ContentType)
		conditions = append(conditions, fmt.Sprintf("content_type = $%d", len(args)))
	}
	if filter.Owner != "" {
		args = append(args, filter.Owner)
		conditions = append(conditions, fmt.Sprintf("owner = $%d", len(args)))
	}

	query := `SELECT ` + itemColumns + ` FROM content_item WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list items", err)
	}
	defer rows.Close()

	items := []*contentitem.ContentItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, r.handlePostgresError("list items", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list items", err)
	}
	return items, nil
}
