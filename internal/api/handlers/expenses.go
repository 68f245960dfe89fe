package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/statement-reconciler/internal/api/dto"
	"github.com/eshaffer321/statement-reconciler/internal/application/service"
)

// ExpensesHandler handles the ledger side.
type ExpensesHandler struct {
	*Base
}

// NewExpensesHandler creates a new expenses handler.
func NewExpensesHandler(svc *service.ReconcileService, logger *slog.Logger) *ExpensesHandler {
	return &ExpensesHandler{
		Base: NewBase(svc, logger),
	}
}

// List handles GET /api/expenses.
func (h *ExpensesHandler) List(c *gin.Context) {
	expenses, err := h.svc.ListExpenses(c.Request.Context())
	if err != nil {
		h.HandleError(c, err, "expense")
		return
	}
	c.JSON(http.StatusOK, dto.ExpenseListResponse{Expenses: expenses, Count: len(expenses)})
}

// Create handles POST /api/expenses. An existing id updates that entry.
func (h *ExpensesHandler) Create(c *gin.Context) {
	var req dto.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid expense: "+err.Error()))
		return
	}

	exp := req.ToExpense()
	if err := h.svc.SaveExpense(c.Request.Context(), exp); err != nil {
		h.HandleError(c, err, "expense")
		return
	}
	c.JSON(http.StatusCreated, exp)
}
