package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/statement-reconciler/internal/application/service"
)

// StatsHandler handles stats-related HTTP requests.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(svc *service.ReconcileService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		Base: NewBase(svc, logger),
	}
}

// Get handles GET /api/stats - returns counts and totals per status.
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
