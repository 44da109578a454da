package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"documind/internal/model"
	"documind/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, user_id, title, content, storage_path, file_type, file_size, status, tags, analysis, created_at, updated_at`

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	var rawTags string
	if err := s.Scan(
		&d.ID,
		&d.UserID,
		&d.Title,
		&d.Content,
		&d.StoragePath,
		&d.FileType,
		&d.FileSize,
		&d.Status,
		&rawTags,
		&d.Analysis,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	tags, err := decodeTags(rawTags)
	if err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	d.Tags = tags
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	rawTags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	const q = `
		INSERT INTO documents (id, user_id, title, content, storage_path, file_type, file_size, status, tags, analysis, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + documentColumns

	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.UserID,
		doc.Title,
		doc.Content,
		doc.StoragePath,
		doc.FileType,
		doc.FileSize,
		doc.Status,
		rawTags,
		doc.Analysis,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document owned by ownerID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id, ownerID string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND user_id = $2
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id, ownerID))
}

// List returns the owner's documents matching the filter, newest-updated first.
func (r *DocumentPostgres) List(ctx context.Context, ownerID string, f repository.Filter) ([]model.Document, error) {
	where := []string{"user_id = $1"}
	args := []any{ownerID}

	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("title ILIKE $%d", len(args)))
	}

	q := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies non-nil patch fields, refreshes updated_at, and returns the
// new row. Returns sql.ErrNoRows when no owned row matched.
func (r *DocumentPostgres) Update(ctx context.Context, id, ownerID string, p repository.Patch) (*model.Document, error) {
	set := []string{}
	args := []any{}

	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Content != nil {
		add("content", *p.Content)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Tags != nil {
		rawTags, err := encodeTags(*p.Tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		add("tags", rawTags)
	}
	if p.Analysis != nil {
		add("analysis", *p.Analysis)
	}
	set = append(set, "updated_at = now()")

	args = append(args, id, ownerID)
	q := fmt.Sprintf(`
		UPDATE documents
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s
	`, strings.Join(set, ", "), len(args)-1, len(args), documentColumns)

	return scanDocument(r.db.QueryRowContext(ctx, q, args...))
}

// Delete removes an owned document. Returns sql.ErrNoRows when nothing matched.
func (r *DocumentPostgres) Delete(ctx context.Context, id, ownerID string) error {
	const q = `DELETE FROM documents WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
