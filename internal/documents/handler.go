package documents

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/access"
	"notes-backend/internal/shared/server/middleware"
	"notes-backend/internal/shared/server/respond"
	"notes-backend/internal/shared/storage/object"
	"notes-backend/internal/shared/telemetry"
)

// multipartOverhead allows for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to an authenticated router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.POST("/documents", middleware.RequireRole(access.RoleTeacher), h.upload)
	rg.GET("/documents/:id/download", h.download)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	caller, _ := middleware.IdentityFromContext(c)
	if h.Svc.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxUploadBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file too large", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if h.Svc.MaxUploadBytes > 0 && fileHeader.Size > h.Svc.MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	doc, err := h.Svc.Upload(c.Request.Context(), caller, UploadInput{
		FileName:  fileHeader.Filename,
		MediaType: fileHeader.Header.Get("Content-Type"),
		Data:      data,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.Set("documentId", doc.ID)
	respond.Created(c, ToResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	caller, _ := middleware.IdentityFromContext(c)
	docs, err := h.Svc.List(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, ToResponse(doc))
	}
	respond.OK(c, resp)
}

func (h *Handler) download(c *gin.Context) {
	caller, _ := middleware.IdentityFromContext(c)
	id := c.Param("id")
	c.Set("documentId", id)

	doc, data, err := h.Svc.Download(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", contentDisposition(doc.FileName))
	c.Data(http.StatusOK, doc.MimeType, data)
}

func (h *Handler) delete(c *gin.Context) {
	caller, _ := middleware.IdentityFromContext(c)
	id := c.Param("id")
	c.Set("documentId", id)

	if err := h.Svc.Delete(c.Request.Context(), caller, id); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

// writeError maps service errors to the HTTP error envelope.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusBadRequest, "validation_error", "file too large", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed to modify this document", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, object.ErrUnavailable):
		telemetry.Error("documents.storage_unavailable", map[string]any{"error": err})
		respond.Error(c, http.StatusServiceUnavailable, "storage_unavailable", "storage temporarily unavailable", nil)
	default:
		telemetry.Error("documents.internal_error", map[string]any{"error": err})
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	}
}

func contentDisposition(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] >= 0x80 {
			if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
				return v
			}
			return "attachment"
		}
	}
	return fmt.Sprintf("attachment; filename=%q", name)
}
