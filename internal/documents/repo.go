package documents

import (
	"context"
	"errors"

	"notes-backend/internal/access"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = access.ErrForbidden
	ErrTooLarge     = errors.New("file too large")
)

// Repo persists document records.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	// List returns the documents visible under vis in storage order
	// (created_at, then id).
	List(ctx context.Context, vis access.Visibility) ([]Document, error)
	// Delete removes the record; a missing id yields ErrNotFound.
	Delete(ctx context.Context, id string) error
}
