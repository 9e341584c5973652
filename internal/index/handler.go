package index

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/access"
	"notes-backend/internal/documents"
	"notes-backend/internal/shared/server/middleware"
	"notes-backend/internal/shared/server/respond"
	"notes-backend/internal/shared/telemetry"
)

type Handler struct {
	Index *Index
}

func NewHandler(ix *Index) *Handler {
	return &Handler{Index: ix}
}

type searchResult struct {
	documents.DocumentResponse
	Relevance int `json:"relevance"`
}

// RegisterRoutes attaches the search route to an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/search", h.search)
}

func (h *Handler) search(c *gin.Context) {
	caller, _ := middleware.IdentityFromContext(c)

	limit := DefaultLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	matches, err := h.Index.Search(c.Request.Context(), c.Query("q"), limit, access.VisibilityFor(caller))
	if err != nil {
		telemetry.Error("index.search_failed", map[string]any{"error": err})
		respond.Error(c, http.StatusInternalServerError, "internal", "search failed", nil)
		return
	}

	resp := make([]searchResult, 0, len(matches))
	for _, m := range matches {
		resp = append(resp, searchResult{
			DocumentResponse: documents.ToResponse(m.Document),
			Relevance:        m.Relevance,
		})
	}
	respond.OK(c, resp)
}
