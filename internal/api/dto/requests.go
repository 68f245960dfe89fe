package dto

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
)

// TransactionListParams represents query parameters for listing transactions.
type TransactionListParams struct {
	Status   string `form:"status"`
	ImportID string `form:"import_id"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// DefaultTransactionListParams returns default values for transaction list params.
func DefaultTransactionListParams() TransactionListParams {
	return TransactionListParams{
		Limit: 50,
	}
}

// MatchRequest is the body of POST /api/transactions/:id/match.
type MatchRequest struct {
	ExpenseID string `json:"expense_id" binding:"required"`
}

// AutoReconcileRequest is the optional body of POST /api/reconcile/auto.
type AutoReconcileRequest struct {
	MinScore int `json:"min_score"`
}

// StatementRequest is the body of POST /api/imports/statement.
type StatementRequest struct {
	Name string `json:"name"`
	Text string `json:"text" binding:"required"`
}

// ExpenseRequest is the body of POST /api/expenses.
type ExpenseRequest struct {
	ID          string          `json:"id"`
	Date        civil.Date      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Vendor      string          `json:"vendor"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// ToExpense converts the request to a ledger entry.
func (r ExpenseRequest) ToExpense() *reconcile.Expense {
	return &reconcile.Expense{
		ID:          r.ID,
		Date:        r.Date,
		Amount:      r.Amount,
		Vendor:      r.Vendor,
		Description: r.Description,
		Category:    r.Category,
	}
}
