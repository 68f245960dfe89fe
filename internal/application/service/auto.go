package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eshaffer321/statement-reconciler/internal/domain/matcher"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/storage"
)

// AutoMatch is one confirmation made by AutoReconcile.
type AutoMatch struct {
	TransactionID string            `json:"transaction_id"`
	ExpenseID     string            `json:"expense_id"`
	Score         int               `json:"score"`
	MatchType     matcher.MatchType `json:"match_type"`
}

// AutoReconcileResult summarizes one AutoReconcile run.
type AutoReconcileResult struct {
	MinScore   int         `json:"min_score"`
	Considered int         `json:"considered"`
	Confirmed  int         `json:"confirmed"`
	Unassigned int         `json:"unassigned"`
	Conflicts  int         `json:"conflicts"` // confirmations lost to a concurrent change
	Matches    []AutoMatch `json:"matches"`
}

// AutoReconcile confirms the best candidate of every pending transaction when
// its score is at least minScore. Each expense is confirmed at most once,
// including expenses already held by matched transactions. A minScore of zero
// or less uses the configured default.
func (s *ReconcileService) AutoReconcile(ctx context.Context, minScore int) (*AutoReconcileResult, error) {
	start := time.Now()
	if minScore <= 0 {
		minScore = s.autoMinScore
	}

	pending, err := s.storage.ListTransactions(ctx, storage.TransactionFilter{Status: reconcile.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	matched, err := s.storage.ListTransactions(ctx, storage.TransactionFilter{Status: reconcile.StatusMatched})
	if err != nil {
		return nil, fmt.Errorf("failed to list matched transactions: %w", err)
	}
	expenses, err := s.storage.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	claimed := make(map[string]bool, len(matched.Transactions))
	for _, t := range matched.Transactions {
		claimed[t.MatchedExpenseID] = true
	}

	batch, err := s.matcher.MatchBatch(ctx, pending.Transactions, expenses)
	if err != nil {
		return nil, fmt.Errorf("batch matching failed: %w", err)
	}
	for _, r := range batch {
		s.metrics.RecordShortlist(len(r.Candidates))
	}

	assigned := matcher.Assign(batch, minScore, claimed)

	result := &AutoReconcileResult{
		MinScore:   minScore,
		Considered: len(pending.Transactions),
		Unassigned: assigned.Unassigned,
		Matches:    []AutoMatch{},
	}

	for _, a := range assigned.Assignments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, err := s.ConfirmMatch(ctx, a.TransactionID, a.Candidate.Expense.ID)
		switch {
		case err == nil:
			result.Confirmed++
			result.Matches = append(result.Matches, AutoMatch{
				TransactionID: a.TransactionID,
				ExpenseID:     a.Candidate.Expense.ID,
				Score:         a.Candidate.Score,
				MatchType:     a.Candidate.MatchType,
			})
		case isConflict(err):
			result.Conflicts++
		default:
			return nil, fmt.Errorf("confirm %s: %w", a.TransactionID, err)
		}
	}

	s.metrics.RecordAutoReconcile(result.Confirmed, result.Unassigned, time.Since(start))
	s.logger.Info("auto-reconcile completed",
		"min_score", minScore,
		"considered", result.Considered,
		"confirmed", result.Confirmed,
		"unassigned", result.Unassigned,
		"conflicts", result.Conflicts,
		"duration", time.Since(start),
	)

	return result, nil
}

func isConflict(err error) bool {
	return errors.Is(err, reconcile.ErrInvalidTransition) ||
		errors.Is(err, storage.ErrExpenseClaimed) ||
		errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, storage.ErrExpenseNotFound)
}
