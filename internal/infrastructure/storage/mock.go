package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/google/uuid"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It follows the same transition rules as Storage and is safe for concurrent use.
type MockRepository struct {
	mu           sync.Mutex
	transactions map[string]*reconcile.Transaction
	order        []string // insertion order of transaction ids
	expenses     map[string]*reconcile.Expense
	expenseOrder []string
	importRuns   map[string]*ImportRun
	runOrder     []string

	// Hooks for test assertions
	CreateBatchCalls  int
	ConfirmMatchCalls int
	LastImportRun     *ImportRun

	// Error injection for testing error paths
	CreateBatchErr     error
	ListErr            error
	ListExpensesErr    error
	ConfirmMatchErr    error
	StartImportRunErr  error
	FinishImportRunErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		transactions: make(map[string]*reconcile.Transaction),
		expenses:     make(map[string]*reconcile.Expense),
		importRuns:   make(map[string]*ImportRun),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// CreateBatch stores copies of the transactions as pending
func (m *MockRepository) CreateBatch(ctx context.Context, txs []*reconcile.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateBatchCalls++
	if m.CreateBatchErr != nil {
		return m.CreateBatchErr
	}
	for i, t := range txs {
		if t.Amount.IsNegative() {
			return fmt.Errorf("transaction %d: amount must be non-negative, got %s", i, t.Amount)
		}
	}

	now := time.Now().UTC()
	for _, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.Source = sourceOrDefault(t.Source)
		t.Status = reconcile.StatusPending
		t.MatchedExpenseID = ""
		t.CreatedAt = now
		t.UpdatedAt = now

		copied := *t
		m.transactions[t.ID] = &copied
		m.order = append(m.order, t.ID)
	}
	return nil
}

// GetTransaction returns a copy of the stored transaction
func (m *MockRepository) GetTransaction(ctx context.Context, id string) (*reconcile.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	copied := *t
	return &copied, nil
}

// ListTransactions filters in memory, ordered by date then insertion
func (m *MockRepository) ListTransactions(ctx context.Context, filter TransactionFilter) (*TransactionListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}

	matched := []reconcile.Transaction{}
	for _, id := range m.order {
		t, ok := m.transactions[id]
		if !ok {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.ImportID != "" && t.ImportID != filter.ImportID {
			continue
		}
		matched = append(matched, *t)
	}
	slices.SortStableFunc(matched, func(a, b reconcile.Transaction) int {
		return cmp.Compare(a.Date.DaysSince(b.Date), 0)
	})

	result := &TransactionListResult{TotalCount: len(matched), Limit: filter.Limit, Offset: filter.Offset}
	start := min(filter.Offset, len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}
	result.Transactions = matched[start:end]
	return result, nil
}

// ConfirmMatch applies the confirm transition and stamps the expense
func (m *MockRepository) ConfirmMatch(ctx context.Context, txID, expenseID string) (*reconcile.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ConfirmMatchCalls++
	if m.ConfirmMatchErr != nil {
		return nil, m.ConfirmMatchErr
	}

	t, err := m.transitionLocked(txID, reconcile.EventConfirm)
	if err != nil {
		return nil, err
	}
	exp, ok := m.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, ErrExpenseNotFound)
	}
	if owner := exp.ReconciledTransactionID; owner != "" && owner != txID {
		if other, ok := m.transactions[owner]; ok && other.Status == reconcile.StatusMatched && other.MatchedExpenseID == expenseID {
			return nil, fmt.Errorf("expense %s claimed by %s: %w", expenseID, owner, ErrExpenseClaimed)
		}
	}

	t.Status = reconcile.StatusMatched
	t.MatchedExpenseID = expenseID
	t.UpdatedAt = time.Now().UTC()
	exp.ReconciledTransactionID = txID

	copied := *t
	return &copied, nil
}

// FlagDiscrepancy applies the flag transition
func (m *MockRepository) FlagDiscrepancy(ctx context.Context, txID string) (*reconcile.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.transitionLocked(txID, reconcile.EventFlag)
	if err != nil {
		return nil, err
	}
	t.Status = reconcile.StatusDiscrepancy
	t.MatchedExpenseID = ""
	t.UpdatedAt = time.Now().UTC()

	copied := *t
	return &copied, nil
}

// Unmatch reverts to pending and clears the expense stamp
func (m *MockRepository) Unmatch(ctx context.Context, txID string) (*reconcile.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.transitionLocked(txID, reconcile.EventUnmatch)
	if err != nil {
		return nil, err
	}
	for _, exp := range m.expenses {
		if exp.ReconciledTransactionID == txID {
			exp.ReconciledTransactionID = ""
		}
	}
	t.Status = reconcile.StatusPending
	t.MatchedExpenseID = ""
	t.UpdatedAt = time.Now().UTC()

	copied := *t
	return &copied, nil
}

// transitionLocked validates event against the stored status. Callers hold mu.
func (m *MockRepository) transitionLocked(txID string, event reconcile.Event) (*reconcile.Transaction, error) {
	t, ok := m.transactions[txID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", txID, ErrNotFound)
	}
	if _, err := reconcile.Transition(t.Status, event); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", txID, err)
	}
	return t, nil
}

// DeleteTransaction removes the transaction without touching expenses
func (m *MockRepository) DeleteTransaction(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	delete(m.transactions, id)
	return nil
}

// GetStats computes statistics from memory
func (m *MockRepository) GetStats(ctx context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &Stats{}
	for _, t := range m.transactions {
		stats.add(t.Status, t.Amount)
	}
	stats.ExpenseCount = len(m.expenses)
	for _, exp := range m.expenses {
		if exp.Reconciled() {
			stats.ReconciledExpenses++
		}
	}
	stats.ImportRuns = len(m.importRuns)
	return stats, nil
}

// SaveExpense upserts an expense, keeping any existing reconciliation stamp
func (m *MockRepository) SaveExpense(ctx context.Context, exp *reconcile.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exp.Amount.IsNegative() {
		return fmt.Errorf("expense amount must be non-negative, got %s", exp.Amount)
	}
	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}

	copied := *exp
	if existing, ok := m.expenses[exp.ID]; ok {
		copied.ReconciledTransactionID = existing.ReconciledTransactionID
	} else {
		copied.ReconciledTransactionID = ""
		m.expenseOrder = append(m.expenseOrder, exp.ID)
	}
	m.expenses[exp.ID] = &copied
	return nil
}

// GetExpense returns a copy of the stored expense
func (m *MockRepository) GetExpense(ctx context.Context, id string) (*reconcile.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.expenses[id]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", id, ErrExpenseNotFound)
	}
	copied := *exp
	return &copied, nil
}

// ListExpenses returns expenses ordered by date then insertion
func (m *MockRepository) ListExpenses(ctx context.Context) ([]reconcile.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListExpensesErr != nil {
		return nil, m.ListExpensesErr
	}

	expenses := make([]reconcile.Expense, 0, len(m.expenseOrder))
	for _, id := range m.expenseOrder {
		expenses = append(expenses, *m.expenses[id])
	}
	slices.SortStableFunc(expenses, func(a, b reconcile.Expense) int {
		return cmp.Compare(a.Date.DaysSince(b.Date), 0)
	})
	return expenses, nil
}

// StartImportRun records a running import in memory
func (m *MockRepository) StartImportRun(ctx context.Context, source reconcile.Source, filename string) (*ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StartImportRunErr != nil {
		return nil, m.StartImportRunErr
	}

	run := &ImportRun{
		ID:        uuid.NewString(),
		Source:    source,
		Filename:  filename,
		StartedAt: time.Now().UTC(),
		Status:    ImportRunning,
	}
	m.importRuns[run.ID] = run
	m.runOrder = append(m.runOrder, run.ID)
	m.LastImportRun = run

	copied := *run
	return &copied, nil
}

// CompleteImportRun marks an import completed
func (m *MockRepository) CompleteImportRun(ctx context.Context, id string, counts ImportCounts) error {
	return m.finishImportRun(id, ImportCompleted, counts, "")
}

// FailImportRun marks an import failed
func (m *MockRepository) FailImportRun(ctx context.Context, id string, counts ImportCounts, reason string) error {
	return m.finishImportRun(id, ImportFailed, counts, reason)
}

func (m *MockRepository) finishImportRun(id string, status ImportRunStatus, counts ImportCounts, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FinishImportRunErr != nil {
		return m.FinishImportRunErr
	}
	run, ok := m.importRuns[id]
	if !ok {
		return fmt.Errorf("import run %s: %w", id, ErrNotFound)
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.RowsParsed = counts.Parsed
	run.RowsSkipped = counts.Skipped
	run.RowsInserted = counts.Inserted
	run.Status = status
	run.Error = reason
	return nil
}

// GetImportRun returns a copy of the stored run
func (m *MockRepository) GetImportRun(ctx context.Context, id string) (*ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.importRuns[id]
	if !ok {
		return nil, fmt.Errorf("import run %s: %w", id, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// ListImportRuns returns runs newest first
func (m *MockRepository) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	runs := []ImportRun{}
	for i := len(m.runOrder) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, *m.importRuns[m.runOrder[i]])
	}
	return runs, nil
}
