package documents

import (
	"context"
	"database/sql"
	"errors"

	"notes-backend/internal/access"
)

// SQLRepo implements Repo for both the Postgres and SQLite schemas.
type SQLRepo struct {
	DB *sql.DB
}

const selectColumns = `id, file_name, storage_key, mime_type, size_bytes, owner_id, created_at, content_text, has_text`

// Create inserts a new document.
func (r *SQLRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    file_name,
    storage_key,
    mime_type,
    size_bytes,
    owner_id,
    created_at,
    content_text,
    has_text
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.FileName,
		doc.StorageKey,
		doc.MimeType,
		doc.SizeBytes,
		doc.OwnerID,
		doc.CreatedAt,
		nullableText(doc.Text),
		doc.HasText,
	)
	return err
}

// GetByID fetches a document by ID.
func (r *SQLRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `SELECT ` + selectColumns + `
FROM documents
WHERE id = $1
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// List returns visible documents in storage order.
func (r *SQLRepo) List(ctx context.Context, vis access.Visibility) ([]Document, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case vis.All:
		query := `SELECT ` + selectColumns + `
FROM documents
ORDER BY created_at, id`
		rows, err = r.DB.QueryContext(ctx, query)
	case vis.OwnerID != "":
		query := `SELECT ` + selectColumns + `
FROM documents
WHERE owner_id = $1
ORDER BY created_at, id`
		rows, err = r.DB.QueryContext(ctx, query, vis.OwnerID)
	default:
		return []Document{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Delete removes a document record.
func (r *SQLRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM documents WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var text sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.FileName,
		&doc.StorageKey,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.OwnerID,
		&doc.CreatedAt,
		&text,
		&doc.HasText,
	)
	if err != nil {
		return Document{}, err
	}
	if text.Valid {
		doc.Text = text.String
	}
	return doc, nil
}

func nullableText(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*SQLRepo)(nil)
