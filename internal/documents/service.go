package documents

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"notes-backend/internal/access"
	"notes-backend/internal/extract"
	"notes-backend/internal/shared/metrics"
	"notes-backend/internal/shared/storage/object"
	"notes-backend/internal/shared/telemetry"
	"notes-backend/internal/shared/util"
)

// Registrar makes a stored document visible to retrieval.
type Registrar interface {
	Register(ctx context.Context, doc Document) error
}

// UploadInput is a file received from a client.
type UploadInput struct {
	FileName  string
	MediaType string
	Data      []byte
}

// Service contains business logic for documents.
type Service struct {
	Store          object.Store
	Repo           Repo
	Index          Registrar
	MaxUploadBytes int64
	Now            func() time.Time
}

// Upload stores the blob, extracts its text and registers the document.
// The record only exists once the blob has been stored.
func (s *Service) Upload(ctx context.Context, caller access.Identity, in UploadInput) (Document, error) {
	if !access.RequireRole(caller, access.RoleTeacher) {
		return Document{}, ErrForbidden
	}
	name, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: file name is invalid", ErrInvalidInput)
	}
	if len(in.Data) == 0 {
		return Document{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if s.MaxUploadBytes > 0 && int64(len(in.Data)) > s.MaxUploadBytes {
		return Document{}, ErrTooLarge
	}
	mediaType := detectMediaType(name, in.MediaType, in.Data)

	key, err := s.Store.Put(ctx, name, mediaType, in.Data)
	if err != nil {
		return Document{}, fmt.Errorf("store blob: %w", err)
	}

	text := extract.Text(ctx, in.Data, mediaType, name)
	hasText := strings.TrimSpace(text) != ""
	if !hasText {
		text = ""
		if extract.Supported(mediaType, name) {
			text = extract.Sentinel(name)
			metrics.IncExtractEmpty()
		}
	}

	doc := Document{
		ID:         uuid.NewString(),
		FileName:   name,
		StorageKey: key,
		MimeType:   mediaType,
		SizeBytes:  int64(len(in.Data)),
		OwnerID:    caller.UserID,
		CreatedAt:  s.now(),
		Text:       text,
		HasText:    hasText,
	}

	if err := s.Index.Register(ctx, doc); err != nil {
		if delErr := s.Store.Delete(ctx, key); delErr != nil {
			telemetry.Warn("documents.orphan_blob", map[string]any{"storage_key": key, "error": delErr})
		}
		return Document{}, fmt.Errorf("register document: %w", err)
	}

	metrics.IncUpload()
	telemetry.Info("documents.uploaded", map[string]any{
		"document_id": doc.ID,
		"user_id":     caller.UserID,
		"size_bytes":  doc.SizeBytes,
		"mime_type":   doc.MimeType,
		"has_text":    doc.HasText,
	})
	return doc, nil
}

// List returns the caller's visible documents, newest first.
func (s *Service) List(ctx context.Context, caller access.Identity) ([]Document, error) {
	docs, err := s.Repo.List(ctx, access.VisibilityFor(caller))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// Download returns a visible document and its bytes. Documents outside the
// caller's visibility are reported as not found.
func (s *Service) Download(ctx context.Context, caller access.Identity, id string) (Document, []byte, error) {
	doc, err := s.visible(ctx, caller, id)
	if err != nil {
		return Document{}, nil, err
	}
	data, err := s.Store.Get(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Document{}, nil, ErrNotFound
		}
		return Document{}, nil, fmt.Errorf("load blob: %w", err)
	}
	return doc, data, nil
}

// Delete removes a document owned by the calling teacher. Blob removal is
// best-effort: failures are logged and the record is removed regardless.
func (s *Service) Delete(ctx context.Context, caller access.Identity, id string) error {
	doc, err := s.visible(ctx, caller, id)
	if err != nil {
		return err
	}
	if !access.CanMutate(caller, doc.OwnerID) {
		return ErrForbidden
	}

	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
		metrics.IncBlobDeleteFailure()
		telemetry.Warn("documents.blob_delete_failed", map[string]any{
			"document_id": doc.ID,
			"storage_key": doc.StorageKey,
			"error":       err,
		})
	}
	if err := s.Repo.Delete(ctx, doc.ID); err != nil {
		return err
	}

	metrics.IncDelete()
	telemetry.Info("documents.deleted", map[string]any{"document_id": doc.ID, "user_id": caller.UserID})
	return nil
}

func (s *Service) visible(ctx context.Context, caller access.Identity, id string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, ErrNotFound
	}
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !access.VisibilityFor(caller).Allows(doc.OwnerID) {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func detectMediaType(name, declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.EqualFold(declared, "application/octet-stream") {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}
