package storage

import (
	"context"
	"errors"

	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
)

var (
	// ErrNotFound is returned when a transaction or import run id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrExpenseNotFound is returned when confirming a match against an unknown expense.
	ErrExpenseNotFound = errors.New("expense not found")
	// ErrExpenseClaimed is returned when the expense is already reconciled to another transaction.
	ErrExpenseClaimed = errors.New("expense already reconciled to another transaction")
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	TransactionRepository
	ExpenseRepository
	ImportRunRepository
	Close() error
}

// TransactionRepository handles statement transactions and their status transitions.
// Transitions are conditional updates: they succeed only when the stored
// status allows the event, and fail with reconcile.ErrInvalidTransition otherwise.
type TransactionRepository interface {
	// CreateBatch inserts all transactions or none. IDs, status and
	// timestamps are assigned on the passed values.
	CreateBatch(ctx context.Context, txs []*reconcile.Transaction) error

	// GetTransaction retrieves a transaction by ID
	GetTransaction(ctx context.Context, id string) (*reconcile.Transaction, error)

	// ListTransactions returns transactions matching the filter with pagination
	ListTransactions(ctx context.Context, filter TransactionFilter) (*TransactionListResult, error)

	// ConfirmMatch moves a pending transaction to matched and stamps the expense
	ConfirmMatch(ctx context.Context, txID, expenseID string) (*reconcile.Transaction, error)

	// FlagDiscrepancy moves a pending transaction to discrepancy
	FlagDiscrepancy(ctx context.Context, txID string) (*reconcile.Transaction, error)

	// Unmatch reverts a matched or flagged transaction to pending
	Unmatch(ctx context.Context, txID string) (*reconcile.Transaction, error)

	// DeleteTransaction removes a transaction. Linked expenses are untouched.
	DeleteTransaction(ctx context.Context, id string) error

	// GetStats returns aggregate statistics
	GetStats(ctx context.Context) (*Stats, error)
}

// ExpenseRepository handles the ledger side.
type ExpenseRepository interface {
	// SaveExpense inserts or updates an expense. The reconciliation stamp is never overwritten.
	SaveExpense(ctx context.Context, exp *reconcile.Expense) error

	// GetExpense retrieves an expense by ID
	GetExpense(ctx context.Context, id string) (*reconcile.Expense, error)

	// ListExpenses returns every expense ordered by date
	ListExpenses(ctx context.Context) ([]reconcile.Expense, error)
}

// ImportRunRepository handles import run tracking
type ImportRunRepository interface {
	// StartImportRun records the start of an import and returns the run
	StartImportRun(ctx context.Context, source reconcile.Source, filename string) (*ImportRun, error)

	// CompleteImportRun records a successful import
	CompleteImportRun(ctx context.Context, id string, counts ImportCounts) error

	// FailImportRun records a failed import
	FailImportRun(ctx context.Context, id string, counts ImportCounts, reason string) error

	// GetImportRun retrieves an import run by ID
	GetImportRun(ctx context.Context, id string) (*ImportRun, error)

	// ListImportRuns returns recent import runs, newest first
	ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error)
}
