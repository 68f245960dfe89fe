package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/statement-reconciler/internal/api/dto"
	"github.com/eshaffer321/statement-reconciler/internal/application/service"
)

// DefaultTopVendors is the report size when no limit is given.
const DefaultTopVendors = 10

// ReportsHandler serves the spending reports.
type ReportsHandler struct {
	*Base
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(svc *service.ReconcileService, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{
		Base: NewBase(svc, logger),
	}
}

// Recurring handles GET /api/reports/recurring.
func (h *ReportsHandler) Recurring(c *gin.Context) {
	payments, err := h.svc.RecurringPayments(c.Request.Context())
	if err != nil {
		h.HandleError(c, err, "report")
		return
	}
	c.JSON(http.StatusOK, dto.RecurringResponse{Payments: payments, Count: len(payments)})
}

// TopVendors handles GET /api/reports/top-vendors.
func (h *ReportsHandler) TopVendors(c *gin.Context) {
	limit := ParseIntParam(c, "limit", DefaultTopVendors)
	if limit <= 0 {
		limit = DefaultTopVendors
	}

	vendors, err := h.svc.TopVendors(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err, "report")
		return
	}
	c.JSON(http.StatusOK, dto.TopVendorsResponse{Vendors: vendors, Limit: limit})
}
