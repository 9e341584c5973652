package answer

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/shared/server/middleware"
	"notes-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type askRequest struct {
	Question string `json:"question"`
}

// RegisterRoutes attaches POST /ask to an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, extra ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, extra...), h.ask)
	rg.POST("/ask", handlers...)
}

func (h *Handler) ask(c *gin.Context) {
	caller, _ := middleware.IdentityFromContext(c)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}

	result, err := h.Svc.Answer(c.Request.Context(), req.Question, caller)
	if err != nil {
		if errors.Is(err, ErrEmptyQuestion) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "question is required", nil)
			return
		}
		respond.OK(c, unavailable())
		return
	}
	respond.OK(c, result)
}
