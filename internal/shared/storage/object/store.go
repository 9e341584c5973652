package object

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by Get and Delete when no blob exists for the key.
	ErrNotFound = errors.New("object not found")
	// ErrUnavailable wraps backend I/O failures.
	ErrUnavailable = errors.New("object store unavailable")
)

// Store persists opaque blobs under keys it generates.
type Store interface {
	Put(ctx context.Context, fileName, contentType string, data []byte) (key string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns a random 128-bit hex token (uuid v4, 122 random bits) with the
// original file extension preserved when it is filesystem safe.
func NewKey(fileName string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return token + safeExt(fileName)
}

// ValidKey reports whether key has the shape produced by NewKey.
func ValidKey(key string) bool {
	if len(key) < 32 {
		return false
	}
	for _, ch := range key[:32] {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			return false
		}
	}
	rest := key[32:]
	return rest == "" || rest == safeExt("x"+rest)
}

func safeExt(fileName string) string {
	ext := filepath.Ext(strings.TrimSpace(fileName))
	if len(ext) < 2 || len(ext) > 16 {
		return ""
	}
	for _, ch := range ext[1:] {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')) {
			return ""
		}
	}
	return ext
}
