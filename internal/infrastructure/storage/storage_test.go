package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repoFactories runs the same behavioral tests against SQLite and the mock.
func repoFactories() map[string]func(t *testing.T) Repository {
	return map[string]func(t *testing.T) Repository{
		"sqlite": func(t *testing.T) Repository {
			tmpDB := createTempDB(t)
			t.Cleanup(func() { os.Remove(tmpDB) })

			store, err := NewStorage(tmpDB)
			require.NoError(t, err)
			t.Cleanup(func() { store.Close() })
			return store
		},
		"mock": func(t *testing.T) Repository {
			return NewMockRepository()
		},
	}
}

func newTx(date civil.Date, amount, description string) *reconcile.Transaction {
	return &reconcile.Transaction{
		Date:        date,
		Amount:      decimal.RequireFromString(amount),
		Description: description,
	}
}

var day = civil.Date{Year: 2024, Month: time.March, Day: 10}

func seed(t *testing.T, repo Repository) (*reconcile.Transaction, *reconcile.Expense) {
	t.Helper()
	ctx := context.Background()

	tx := newTx(day, "100.00", "Netflix")
	require.NoError(t, repo.CreateBatch(ctx, []*reconcile.Transaction{tx}))

	exp := &reconcile.Expense{
		ID:     "exp-9",
		Date:   day.AddDays(1),
		Amount: decimal.RequireFromString("100.00"),
		Vendor: "Netflix Inc",
	}
	require.NoError(t, repo.SaveExpense(ctx, exp))
	return tx, exp
}

func TestRepository_CreateBatchAndGet(t *testing.T) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			// Arrange
			repo := factory(t)
			ctx := context.Background()
			txs := []*reconcile.Transaction{
				newTx(day, "45.00", "Shell Gas"),
				newTx(day.AddDays(1), "12", "Coffee"),
			}
			txs[1].Source = reconcile.SourceExtracted

			// Act
			err := repo.CreateBatch(ctx, txs)

			// Assert
			require.NoError(t, err)
			for _, tx := range txs {
				assert.NotEmpty(t, tx.ID)
				assert.Equal(t, reconcile.StatusPending, tx.Status)
			}

			got, err := repo.GetTransaction(ctx, txs[0].ID)
			require.NoError(t, err)
			assert.Equal(t, day, got.Date)
			assert.True(t, decimal.RequireFromString("45").Equal(got.Amount))
			assert.Equal(t, "Shell Gas", got.Description)
			assert.Equal(t, reconcile.SourceCSV, got.Source)
			assert.Equal(t, reconcile.StatusPending, got.Status)
			assert.Empty(t, got.MatchedExpenseID)

			got, err = repo.GetTransaction(ctx, txs[1].ID)
			require.NoError(t, err)
			assert.Equal(t, reconcile.SourceExtracted, got.Source)
		})
	}
}

func TestStorage_CreateBatchIsAllOrNothing(t *testing.T) {
	tmpDB := createTempDB(t)
	defer os.Remove(tmpDB)
	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	// the duplicate id makes the second insert fail
	txs := []*reconcile.Transaction{
		{ID: "dup", Date: day, Amount: decimal.NewFromInt(1)},
		{ID: "dup", Date: day, Amount: decimal.NewFromInt(2)},
	}

	err = store.CreateBatch(ctx, txs)
	require.Error(t, err)

	list, err := store.ListTransactions(ctx, TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.TotalCount)
}

func TestRepository_ConfirmThenDelete(t *testing.T) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			// Arrange
			repo := factory(t)
			ctx := context.Background()
			tx, exp := seed(t, repo)

			// Act
			matched, err := repo.ConfirmMatch(ctx, tx.ID, exp.ID)
			require.NoError(t, err)
			deleteErr := repo.DeleteTransaction(ctx, tx.ID)

			// Assert
			assert.Equal(t, reconcile.StatusMatched, matched.Status)
			assert.Equal(t, exp.ID, matched.MatchedExpenseID)
			require.NoError(t, deleteErr)

			_, err = repo.GetTransaction(ctx, tx.ID)
			assert.True(t, errors.Is(err, ErrNotFound))

			stored, err := repo.GetExpense(ctx, exp.ID)
			require.NoError(t, err)
			assert.Equal(t, tx.ID, stored.ReconciledTransactionID, "delete does not cascade to the expense")
		})
	}
}

func TestRepository_Transitions(t *testing.T) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()
			tx, exp := seed(t, repo)

			// re-matching a matched transaction is rejected
			_, err := repo.ConfirmMatch(ctx, tx.ID, exp.ID)
			require.NoError(t, err)
			_, err = repo.ConfirmMatch(ctx, tx.ID, exp.ID)
			assert.ErrorIs(t, err, reconcile.ErrInvalidTransition)
			_, err = repo.FlagDiscrepancy(ctx, tx.ID)
			assert.ErrorIs(t, err, reconcile.ErrInvalidTransition)

			// unmatch clears both sides
			reverted, err := repo.Unmatch(ctx, tx.ID)
			require.NoError(t, err)
			assert.Equal(t, reconcile.StatusPending, reverted.Status)
			assert.Empty(t, reverted.MatchedExpenseID)
			stored, err := repo.GetExpense(ctx, exp.ID)
			require.NoError(t, err)
			assert.False(t, stored.Reconciled())

			// unmatching a pending transaction is rejected
			_, err = repo.Unmatch(ctx, tx.ID)
			assert.ErrorIs(t, err, reconcile.ErrInvalidTransition)

			// flag, then unmatch back
			flagged, err := repo.FlagDiscrepancy(ctx, tx.ID)
			require.NoError(t, err)
			assert.Equal(t, reconcile.StatusDiscrepancy, flagged.Status)
			assert.Empty(t, flagged.MatchedExpenseID)
			_, err = repo.ConfirmMatch(ctx, tx.ID, exp.ID)
			assert.ErrorIs(t, err, reconcile.ErrInvalidTransition)
			reverted, err = repo.Unmatch(ctx, tx.ID)
			require.NoError(t, err)
			assert.Equal(t, reconcile.StatusPending, reverted.Status)
		})
	}
}

func TestRepository_NotFound(t *testing.T) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()
			tx, _ := seed(t, repo)

			_, err := repo.ConfirmMatch(ctx, "missing", "exp-9")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = repo.FlagDiscrepancy(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = repo.Unmatch(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, repo.DeleteTransaction(ctx, "missing"), ErrNotFound)
			_, err = repo.GetTransaction(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			// unknown expense leaves the transaction pending
			_, err = repo.ConfirmMatch(ctx, tx.ID, "no-such-expense")
			assert.ErrorIs(t, err, ErrExpenseNotFound)
			got, err := repo.GetTransaction(ctx, tx.ID)
			require.NoError(t, err)
			assert.Equal(t, reconcile.StatusPending, got.Status)
			assert.Empty(t, got.MatchedExpenseID)
		})
	}
}

func TestRepository_ExpenseClaimedByAnotherTransaction(t *testing.T) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()
			first, exp := seed(t, repo)
			second := newTx(day, "100.00", "Netflix")
			require.NoError(t, repo.CreateBatch(ctx, []*reconcile.Transaction{second}))

			_, err := repo.ConfirmMatch(ctx, first.ID, exp.ID)
			require.NoError(t, err)

			_, err = repo.ConfirmMatch(ctx, second.ID, exp.ID)
			assert.ErrorIs(t, err, ErrExpenseClaimed)

			// once the first transaction is deleted its stamp is stale
			require.NoError(t, repo.DeleteTransaction(ctx, first.ID))
			matched, err := repo.ConfirmMatch(ctx, second.ID, exp.ID)
			require.NoError(t, err)
			assert.Equal(t, exp.ID, matched.MatchedExpenseID)
		})
	}
}

func TestStorage_ConcurrentConfirmAppliesOnce(t *testing.T) {
	tmpDB := createTempDB(t)
	defer os.Remove(tmpDB)
	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	tx, exp := seed(t, store)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = store.ConfirmMatch(ctx, tx.ID, exp.ID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, reconcile.ErrInvalidTransition)
	}
	assert.Equal(t, 1, succeeded)
}

func TestRepository_StateInvariantHolds(t *testing.T) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()
			_, exp := seed(t, repo)

			txs := []*reconcile.Transaction{
				newTx(day, "1", "a"), newTx(day, "2", "b"), newTx(day, "3", "c"),
			}
			require.NoError(t, repo.CreateBatch(ctx, txs))
			_, err := repo.ConfirmMatch(ctx, txs[0].ID, exp.ID)
			require.NoError(t, err)
			_, err = repo.FlagDiscrepancy(ctx, txs[1].ID)
			require.NoError(t, err)

			list, err := repo.ListTransactions(ctx, TransactionFilter{})
			require.NoError(t, err)
			require.Equal(t, 4, list.TotalCount)
			for _, tx := range list.Transactions {
				assert.NoError(t, tx.CheckInvariant())
			}
		})
	}
}

func TestRepository_ListTransactionsFilterAndPaging(t *testing.T) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()
			txs := []*reconcile.Transaction{
				newTx(day.AddDays(2), "3", "third"),
				newTx(day, "1", "first"),
				newTx(day.AddDays(1), "2", "second"),
			}
			require.NoError(t, repo.CreateBatch(ctx, txs))
			_, err := repo.FlagDiscrepancy(ctx, txs[0].ID)
			require.NoError(t, err)

			all, err := repo.ListTransactions(ctx, TransactionFilter{})
			require.NoError(t, err)
			require.Len(t, all.Transactions, 3)
			assert.Equal(t, "first", all.Transactions[0].Description)
			assert.Equal(t, "third", all.Transactions[2].Description)

			pending, err := repo.ListTransactions(ctx, TransactionFilter{Status: reconcile.StatusPending})
			require.NoError(t, err)
			assert.Equal(t, 2, pending.TotalCount)

			page, err := repo.ListTransactions(ctx, TransactionFilter{Limit: 1, Offset: 1})
			require.NoError(t, err)
			assert.Equal(t, 3, page.TotalCount)
			require.Len(t, page.Transactions, 1)
			assert.Equal(t, "second", page.Transactions[0].Description)
		})
	}
}

func TestRepository_Stats(t *testing.T) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()
			tx, exp := seed(t, repo)
			other := newTx(day, "0.50", "gum")
			require.NoError(t, repo.CreateBatch(ctx, []*reconcile.Transaction{other}))
			_, err := repo.ConfirmMatch(ctx, tx.ID, exp.ID)
			require.NoError(t, err)

			stats, err := repo.GetStats(ctx)

			require.NoError(t, err)
			assert.Equal(t, 2, stats.TotalTransactions)
			assert.Equal(t, 1, stats.MatchedCount)
			assert.Equal(t, 1, stats.PendingCount)
			assert.True(t, decimal.RequireFromString("100.50").Equal(stats.TotalAmount))
			assert.True(t, decimal.RequireFromString("0.50").Equal(stats.PendingAmount))
			assert.Equal(t, 1, stats.ExpenseCount)
			assert.Equal(t, 1, stats.ReconciledExpenses)
		})
	}
}

func TestRepository_SaveExpenseKeepsStamp(t *testing.T) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()
			tx, exp := seed(t, repo)
			_, err := repo.ConfirmMatch(ctx, tx.ID, exp.ID)
			require.NoError(t, err)

			exp.Category = "Streaming"
			exp.ReconciledTransactionID = ""
			require.NoError(t, repo.SaveExpense(ctx, exp))

			stored, err := repo.GetExpense(ctx, exp.ID)
			require.NoError(t, err)
			assert.Equal(t, "Streaming", stored.Category)
			assert.Equal(t, tx.ID, stored.ReconciledTransactionID)

			list, err := repo.ListExpenses(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestRepository_ImportRuns(t *testing.T) {
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()

			ok, err := repo.StartImportRun(ctx, reconcile.SourceCSV, "march.csv")
			require.NoError(t, err)
			assert.Equal(t, ImportRunning, ok.Status)
			require.NoError(t, repo.CompleteImportRun(ctx, ok.ID, ImportCounts{Parsed: 3, Skipped: 1, Inserted: 3}))

			bad, err := repo.StartImportRun(ctx, reconcile.SourceCSV, "broken.csv")
			require.NoError(t, err)
			require.NoError(t, repo.FailImportRun(ctx, bad.ID, ImportCounts{}, "missing required columns"))

			got, err := repo.GetImportRun(ctx, ok.ID)
			require.NoError(t, err)
			assert.Equal(t, ImportCompleted, got.Status)
			assert.Equal(t, 3, got.RowsInserted)
			assert.Equal(t, 1, got.RowsSkipped)
			assert.NotNil(t, got.CompletedAt)

			runs, err := repo.ListImportRuns(ctx, 10)
			require.NoError(t, err)
			require.Len(t, runs, 2)
			assert.Equal(t, bad.ID, runs[0].ID, "newest first")
			assert.Equal(t, ImportFailed, runs[0].Status)
			assert.Equal(t, "missing required columns", runs[0].Error)

			_, err = repo.GetImportRun(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, repo.CompleteImportRun(ctx, "missing", ImportCounts{}), ErrNotFound)
		})
	}
}
