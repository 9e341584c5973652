package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"notes-backend/internal/shared/storage/object"
)

// Store implements object.Store on the local filesystem.
type Store struct {
	baseDir string
}

// New creates a local store rooted at baseDir, creating the directory if absent.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %v", object.ErrUnavailable, baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Put writes data to a fresh key. The file appears under its final name only
// once fully written.
func (s *Store) Put(ctx context.Context, fileName, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: mkdir: %v", object.ErrUnavailable, err)
	}

	key := object.NewKey(fileName)
	tmp, err := os.CreateTemp(s.baseDir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp: %v", object.ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: write: %v", object.ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: close: %v", object.ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.baseDir, key)); err != nil {
		return "", fmt.Errorf("%w: rename: %v", object.ErrUnavailable, err)
	}
	return key, nil
}

// Get reads the whole blob.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, object.ErrNotFound
		}
		return nil, fmt.Errorf("%w: read %s: %v", object.ErrUnavailable, key, err)
	}
	return data, nil
}

// Delete removes the blob.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return object.ErrNotFound
		}
		return fmt.Errorf("%w: remove %s: %v", object.ErrUnavailable, key, err)
	}
	return nil
}

func (s *Store) path(key string) (string, error) {
	if !object.ValidKey(key) {
		return "", object.ErrNotFound
	}
	return filepath.Join(s.baseDir, key), nil
}

var _ object.Store = (*Store)(nil)
