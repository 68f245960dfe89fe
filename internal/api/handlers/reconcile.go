package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/statement-reconciler/internal/api/dto"
	"github.com/eshaffer321/statement-reconciler/internal/application/service"
)

// ReconcileHandler handles batch reconciliation.
type ReconcileHandler struct {
	*Base
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(svc *service.ReconcileService, logger *slog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		Base: NewBase(svc, logger),
	}
}

// Auto handles POST /api/reconcile/auto. An empty body uses the configured threshold.
func (h *ReconcileHandler) Auto(c *gin.Context) {
	var req dto.AutoReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid body: "+err.Error()))
		return
	}
	if req.MinScore < 0 {
		h.WriteError(c, http.StatusBadRequest, dto.ValidationError("min_score must not be negative"))
		return
	}

	result, err := h.svc.AutoReconcile(c.Request.Context(), req.MinScore)
	if err != nil {
		h.HandleError(c, err, "transaction")
		return
	}
	c.JSON(http.StatusOK, result)
}
