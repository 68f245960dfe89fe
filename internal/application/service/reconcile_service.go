// Package service coordinates statement imports, matching, status
// transitions and reports on top of a storage.Repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/eshaffer321/statement-reconciler/internal/adapters/extractor"
	"github.com/eshaffer321/statement-reconciler/internal/domain/matcher"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/eshaffer321/statement-reconciler/internal/domain/recurring"
	"github.com/eshaffer321/statement-reconciler/internal/domain/statement"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/metrics"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/storage"
)

// DefaultAutoMinScore is the lowest score auto-reconcile will confirm.
const DefaultAutoMinScore = 100

var (
	// ErrExtractorUnavailable is returned by ImportStatement when no extractor is configured.
	ErrExtractorUnavailable = errors.New("statement extraction is not configured")
	// ErrInvalidExpense is returned when a ledger entry fails validation.
	ErrInvalidExpense = errors.New("invalid expense")
)

// ReconcileService manages reconciliation operations.
type ReconcileService struct {
	storage      storage.Repository
	parser       *statement.Parser
	matcher      *matcher.Matcher
	detector     *recurring.Detector
	extractor    extractor.Extractor
	metrics      metrics.Collector
	logger       *slog.Logger
	autoMinScore int

	// Concurrent report requests share one computation
	reports singleflight.Group
}

// Option configures a ReconcileService.
type Option func(*ReconcileService)

// WithParserConfig sets the CSV parser configuration.
func WithParserConfig(cfg statement.Config) Option {
	return func(s *ReconcileService) { s.parser = statement.NewParser(cfg) }
}

// WithMatcherConfig sets the matcher configuration.
func WithMatcherConfig(cfg matcher.Config) Option {
	return func(s *ReconcileService) { s.matcher = matcher.NewMatcher(cfg) }
}

// WithDetectorConfig sets the recurrence detector configuration.
func WithDetectorConfig(cfg recurring.Config) Option {
	return func(s *ReconcileService) { s.detector = recurring.NewDetector(cfg) }
}

// WithExtractor enables ImportStatement.
func WithExtractor(ext extractor.Extractor) Option {
	return func(s *ReconcileService) { s.extractor = ext }
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector metrics.Collector) Option {
	return func(s *ReconcileService) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

// WithAutoMinScore sets the default score threshold for AutoReconcile.
func WithAutoMinScore(score int) Option {
	return func(s *ReconcileService) {
		if score > 0 {
			s.autoMinScore = score
		}
	}
}

// NewReconcileService creates a new reconcile service.
func NewReconcileService(store storage.Repository, logger *slog.Logger, opts ...Option) *ReconcileService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &ReconcileService{
		storage:      store,
		parser:       statement.NewParser(statement.DefaultConfig()),
		matcher:      matcher.NewMatcher(matcher.DefaultConfig()),
		detector:     recurring.NewDetector(recurring.DefaultConfig()),
		metrics:      metrics.NoOpCollector{},
		logger:       logger,
		autoMinScore: DefaultAutoMinScore,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractionEnabled reports whether ImportStatement can run.
func (s *ReconcileService) ExtractionEnabled() bool {
	return s.extractor != nil
}

// GetTransaction returns one transaction.
func (s *ReconcileService) GetTransaction(ctx context.Context, id string) (*reconcile.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// ListTransactions returns transactions matching the filter.
func (s *ReconcileService) ListTransactions(ctx context.Context, filter storage.TransactionFilter) (*storage.TransactionListResult, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", filter.Status)
	}
	return s.storage.ListTransactions(ctx, filter)
}

// Candidates returns the shortlist of ledger expenses for one transaction.
func (s *ReconcileService) Candidates(ctx context.Context, txID string) ([]matcher.MatchCandidate, error) {
	tx, err := s.storage.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.storage.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	candidates := s.matcher.FindCandidates(*tx, expenses)
	s.metrics.RecordShortlist(len(candidates))
	return candidates, nil
}

// ConfirmMatch links a pending transaction to an expense.
func (s *ReconcileService) ConfirmMatch(ctx context.Context, txID, expenseID string) (*reconcile.Transaction, error) {
	tx, err := s.storage.ConfirmMatch(ctx, txID, expenseID)
	s.recordTransition(reconcile.EventConfirm, txID, err, "expense_id", expenseID)
	return tx, err
}

// FlagDiscrepancy marks a pending transaction as having no ledger counterpart.
func (s *ReconcileService) FlagDiscrepancy(ctx context.Context, txID string) (*reconcile.Transaction, error) {
	tx, err := s.storage.FlagDiscrepancy(ctx, txID)
	s.recordTransition(reconcile.EventFlag, txID, err)
	return tx, err
}

// Unmatch reverts a matched or flagged transaction to pending.
func (s *ReconcileService) Unmatch(ctx context.Context, txID string) (*reconcile.Transaction, error) {
	tx, err := s.storage.Unmatch(ctx, txID)
	s.recordTransition(reconcile.EventUnmatch, txID, err)
	return tx, err
}

// Delete removes a transaction in any status.
func (s *ReconcileService) Delete(ctx context.Context, txID string) error {
	err := s.storage.DeleteTransaction(ctx, txID)
	if err != nil {
		s.logger.Warn("delete failed", "transaction_id", txID, "error", err)
		return err
	}
	s.logger.Info("transaction deleted", "transaction_id", txID)
	return nil
}

func (s *ReconcileService) recordTransition(event reconcile.Event, txID string, err error, attrs ...any) {
	result := transitionResult(err)
	s.metrics.RecordTransition(string(event), result)

	attrs = append([]any{"event", event, "transaction_id", txID, "result", result}, attrs...)
	if err != nil {
		s.logger.Warn("transition rejected", append(attrs, "error", err)...)
		return
	}
	s.logger.Info("transition applied", attrs...)
}

func transitionResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, reconcile.ErrInvalidTransition), errors.Is(err, storage.ErrExpenseClaimed):
		return metrics.ResultInvalid
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrExpenseNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}

// SaveExpense validates and stores a ledger entry.
func (s *ReconcileService) SaveExpense(ctx context.Context, exp *reconcile.Expense) error {
	if !exp.Date.IsValid() {
		return fmt.Errorf("%w: invalid date %q", ErrInvalidExpense, exp.Date.String())
	}
	if exp.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must be non-negative, got %s", ErrInvalidExpense, exp.Amount)
	}
	return s.storage.SaveExpense(ctx, exp)
}

// ListExpenses returns the whole ledger ordered by date.
func (s *ReconcileService) ListExpenses(ctx context.Context) ([]reconcile.Expense, error) {
	return s.storage.ListExpenses(ctx)
}

// Stats returns counts and totals per status.
func (s *ReconcileService) Stats(ctx context.Context) (*storage.Stats, error) {
	return s.storage.GetStats(ctx)
}

// ListImportRuns returns recent import runs, newest first.
func (s *ReconcileService) ListImportRuns(ctx context.Context, limit int) ([]storage.ImportRun, error) {
	return s.storage.ListImportRuns(ctx, limit)
}

// GetImportRun returns one import run.
func (s *ReconcileService) GetImportRun(ctx context.Context, id string) (*storage.ImportRun, error) {
	return s.storage.GetImportRun(ctx, id)
}
