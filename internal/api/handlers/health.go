package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/statement-reconciler/internal/api/dto"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	extraction bool
}

// NewHealthHandler creates a new health handler. extraction reports whether
// statement extraction is configured.
func NewHealthHandler(extraction bool) *HealthHandler {
	return &HealthHandler{extraction: extraction}
}

// Get handles GET /health.
func (h *HealthHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewHealthResponse(h.extraction))
}
