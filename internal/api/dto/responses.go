package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/statement-reconciler/internal/domain/matcher"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/eshaffer321/statement-reconciler/internal/domain/recurring"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Extraction bool   `json:"extraction"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse(extraction bool) HealthResponse {
	return HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Extraction: extraction,
	}
}

// TransactionListResponse is returned when listing transactions.
type TransactionListResponse struct {
	Transactions []reconcile.Transaction `json:"transactions"`
	TotalCount   int                     `json:"total_count"`
	Limit        int                     `json:"limit"`
	Offset       int                     `json:"offset"`
}

// CandidateResponse is one shortlisted expense.
type CandidateResponse struct {
	Expense         reconcile.Expense `json:"expense"`
	Score           int               `json:"score"`
	MatchType       matcher.MatchType `json:"match_type"`
	DateDiffDays    int               `json:"date_diff_days"`
	AmountDiffRatio decimal.Decimal   `json:"amount_diff_ratio"`
}

// CandidateListResponse is returned by the shortlist endpoint.
type CandidateListResponse struct {
	TransactionID string              `json:"transaction_id"`
	Candidates    []CandidateResponse `json:"candidates"`
}

// NewCandidateListResponse converts matcher output to the API shape.
func NewCandidateListResponse(txID string, candidates []matcher.MatchCandidate) CandidateListResponse {
	resp := CandidateListResponse{
		TransactionID: txID,
		Candidates:    make([]CandidateResponse, 0, len(candidates)),
	}
	for _, c := range candidates {
		resp.Candidates = append(resp.Candidates, CandidateResponse{
			Expense:         c.Expense,
			Score:           c.Score,
			MatchType:       c.MatchType,
			DateDiffDays:    c.DateDiffDays,
			AmountDiffRatio: c.AmountDiffRatio.Round(4),
		})
	}
	return resp
}

// ImportResponse is returned by every import endpoint.
type ImportResponse struct {
	ImportRun    *storage.ImportRun      `json:"import_run"`
	Inserted     int                     `json:"inserted"`
	Skipped      int                     `json:"skipped"`
	Transactions []reconcile.Transaction `json:"transactions"`
}

// ImportRunListResponse is returned when listing import runs.
type ImportRunListResponse struct {
	Runs  []storage.ImportRun `json:"runs"`
	Count int                 `json:"count"`
}

// ExpenseListResponse is returned when listing the ledger.
type ExpenseListResponse struct {
	Expenses []reconcile.Expense `json:"expenses"`
	Count    int                 `json:"count"`
}

// RecurringResponse is returned by the recurring payments report.
type RecurringResponse struct {
	Payments []recurring.RecurringPayment `json:"payments"`
	Count    int                          `json:"count"`
}

// TopVendorsResponse is returned by the top vendors report.
type TopVendorsResponse struct {
	Vendors []recurring.VendorTotal `json:"vendors"`
	Limit   int                     `json:"limit"`
}
