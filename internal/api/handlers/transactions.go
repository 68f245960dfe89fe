package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/statement-reconciler/internal/api/dto"
	"github.com/eshaffer321/statement-reconciler/internal/application/service"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/storage"
)

// TransactionsHandler handles transaction reads and status transitions.
type TransactionsHandler struct {
	*Base
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc *service.ReconcileService, logger *slog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		Base: NewBase(svc, logger),
	}
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(c *gin.Context) {
	params := dto.DefaultTransactionListParams()
	params.ImportID = c.Query("import_id")
	params.Limit = ParseIntParam(c, "limit", params.Limit)
	params.Offset = ParseIntParam(c, "offset", params.Offset)
	if params.Limit <= 0 {
		params.Limit = dto.DefaultTransactionListParams().Limit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	filter := storage.TransactionFilter{
		ImportID: params.ImportID,
		Limit:    params.Limit,
		Offset:   params.Offset,
	}
	if raw := c.Query("status"); raw != "" {
		status, err := reconcile.ParseStatus(raw)
		if err != nil {
			h.WriteError(c, http.StatusBadRequest, dto.BadRequestError(err.Error()))
			return
		}
		filter.Status = status
	}

	result, err := h.svc.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err, "transaction")
		return
	}

	c.JSON(http.StatusOK, dto.TransactionListResponse{
		Transactions: result.Transactions,
		TotalCount:   result.TotalCount,
		Limit:        result.Limit,
		Offset:       result.Offset,
	})
}

// Get handles GET /api/transactions/:id.
func (h *TransactionsHandler) Get(c *gin.Context) {
	tx, err := h.svc.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err, "transaction")
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Candidates handles GET /api/transactions/:id/candidates.
func (h *TransactionsHandler) Candidates(c *gin.Context) {
	id := c.Param("id")
	candidates, err := h.svc.Candidates(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err, "transaction")
		return
	}
	c.JSON(http.StatusOK, dto.NewCandidateListResponse(id, candidates))
}

// Match handles POST /api/transactions/:id/match.
func (h *TransactionsHandler) Match(c *gin.Context) {
	var req dto.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("expense_id is required"))
		return
	}

	tx, err := h.svc.ConfirmMatch(c.Request.Context(), c.Param("id"), req.ExpenseID)
	if err != nil {
		h.HandleError(c, err, "transaction")
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Discrepancy handles POST /api/transactions/:id/discrepancy.
func (h *TransactionsHandler) Discrepancy(c *gin.Context) {
	tx, err := h.svc.FlagDiscrepancy(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err, "transaction")
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Unmatch handles POST /api/transactions/:id/unmatch.
func (h *TransactionsHandler) Unmatch(c *gin.Context) {
	tx, err := h.svc.Unmatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err, "transaction")
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Delete handles DELETE /api/transactions/:id.
func (h *TransactionsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err, "transaction")
		return
	}
	c.Status(http.StatusNoContent)
}
