package storage

import (
	"time"

	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/shopspring/decimal"
)

// TransactionFilter defines filters for listing transactions
type TransactionFilter struct {
	Status   reconcile.Status // Filter by status (empty = all)
	ImportID string           // Filter by import run (empty = all)
	Limit    int              // Max results (0 = no limit)
	Offset   int              // Pagination offset
}

// TransactionListResult contains paginated transaction results
type TransactionListResult struct {
	Transactions []reconcile.Transaction `json:"transactions"`
	TotalCount   int                     `json:"total_count"`
	Limit        int                     `json:"limit"`
	Offset       int                     `json:"offset"`
}

// ImportRunStatus is the lifecycle of an import run.
type ImportRunStatus string

const (
	ImportRunning   ImportRunStatus = "running"
	ImportCompleted ImportRunStatus = "completed"
	ImportFailed    ImportRunStatus = "failed"
)

// ImportRun represents one import batch
type ImportRun struct {
	ID           string           `json:"id"`
	Source       reconcile.Source `json:"source"`
	Filename     string           `json:"filename,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	RowsParsed   int              `json:"rows_parsed"`
	RowsSkipped  int              `json:"rows_skipped"`
	RowsInserted int              `json:"rows_inserted"`
	Status       ImportRunStatus  `json:"status"`
	Error        string           `json:"error,omitempty"`
}

// ImportCounts are the row tallies recorded when an import run finishes.
type ImportCounts struct {
	Parsed   int
	Skipped  int
	Inserted int
}

// Stats contains aggregate statistics
type Stats struct {
	TotalTransactions  int             `json:"total_transactions"`
	PendingCount       int             `json:"pending_count"`
	MatchedCount       int             `json:"matched_count"`
	DiscrepancyCount   int             `json:"discrepancy_count"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	MatchedAmount      decimal.Decimal `json:"matched_amount"`
	PendingAmount      decimal.Decimal `json:"pending_amount"`
	DiscrepancyAmount  decimal.Decimal `json:"discrepancy_amount"`
	ExpenseCount       int             `json:"expense_count"`
	ReconciledExpenses int             `json:"reconciled_expenses"`
	ImportRuns         int             `json:"import_runs"`
}

// add tallies one transaction into the per-status counters.
func (s *Stats) add(status reconcile.Status, amount decimal.Decimal) {
	s.TotalTransactions++
	s.TotalAmount = s.TotalAmount.Add(amount)
	switch status {
	case reconcile.StatusPending:
		s.PendingCount++
		s.PendingAmount = s.PendingAmount.Add(amount)
	case reconcile.StatusMatched:
		s.MatchedCount++
		s.MatchedAmount = s.MatchedAmount.Add(amount)
	case reconcile.StatusDiscrepancy:
		s.DiscrepancyCount++
		s.DiscrepancyAmount = s.DiscrepancyAmount.Add(amount)
	}
}
