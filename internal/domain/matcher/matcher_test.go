package matcher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseDate = civil.Date{Year: 2024, Month: time.March, Day: 10}

// Helper to create test transaction
func makeTransaction(id string, amount string, date civil.Date, description string) reconcile.Transaction {
	return reconcile.Transaction{
		ID:          id,
		Date:        date,
		Amount:      decimal.RequireFromString(amount),
		Description: description,
		Status:      reconcile.StatusPending,
	}
}

// Helper to create test expense
func makeExpense(id string, amount string, date civil.Date, vendor string) reconcile.Expense {
	return reconcile.Expense{
		ID:     id,
		Date:   date,
		Amount: decimal.RequireFromString(amount),
		Vendor: vendor,
	}
}

func TestMatcher_ExactMatchWithinThreeDays(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	tx := makeTransaction("tx1", "100.00", baseDate, "Netflix")
	expenses := []reconcile.Expense{
		makeExpense("exp1", "100.00", baseDate.AddDays(1), "Netflix Inc"),
	}

	// Act
	candidates := matcher.FindCandidates(tx, expenses)

	// Assert
	require.Len(t, candidates, 1)
	assert.Equal(t, "exp1", candidates[0].Expense.ID)
	assert.Equal(t, 100, candidates[0].Score)
	assert.Equal(t, MatchExact, candidates[0].MatchType)
	assert.Equal(t, 1, candidates[0].DateDiffDays)
	assert.True(t, candidates[0].AmountDiffRatio.IsZero())
}

func TestMatcher_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		expense  string
		days     int
		want     int
		wantType MatchType
	}{
		{name: "exact at three days", expense: "100.00", days: 3, want: 100, wantType: MatchExact},
		{name: "exact before the tx date", expense: "100.00", days: -3, want: 100, wantType: MatchExact},
		{name: "amount at five days", expense: "100.00", days: 5, want: 85, wantType: MatchAmount},
		{name: "amount at seven days", expense: "99.50", days: 7, want: 85, wantType: MatchAmount},
		{name: "date tier", expense: "97.00", days: 1, want: 80, wantType: MatchDate},
		{name: "one percent is not exact", expense: "99.00", days: 0, want: 80, wantType: MatchDate},
		{name: "date tier boundary", expense: "95.00", days: 1, want: 80, wantType: MatchDate},
		{name: "fuzzy 70", expense: "92.00", days: 2, want: 70, wantType: MatchFuzzy},
		{name: "fuzzy 70 boundary", expense: "90.00", days: 3, want: 70, wantType: MatchFuzzy},
		{name: "fuzzy 50", expense: "88.00", days: 6, want: 50, wantType: MatchFuzzy},
		{name: "fuzzy 50 boundary", expense: "85.00", days: 7, want: 50, wantType: MatchFuzzy},
		{name: "too far apart", expense: "100.00", days: 8, want: 0},
		{name: "amount too different", expense: "80.00", days: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			matcher := NewMatcher(DefaultConfig())
			tx := makeTransaction("tx1", "100.00", baseDate, "")
			exp := makeExpense("exp1", tt.expense, baseDate.AddDays(tt.days), "")

			// Act
			candidates := matcher.FindCandidates(tx, []reconcile.Expense{exp})

			// Assert
			if tt.want == 0 {
				assert.Empty(t, candidates)
				return
			}
			require.Len(t, candidates, 1)
			assert.Equal(t, tt.want, candidates[0].Score)
			assert.Equal(t, tt.wantType, candidates[0].MatchType)
		})
	}
}

func TestMatcher_TextBonus(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	t.Run("adds ten", func(t *testing.T) {
		tx := makeTransaction("tx1", "100.00", baseDate, "BLUE BOTTLE COFFEE #12")
		exp := makeExpense("exp1", "92.00", baseDate.AddDays(2), "Blue Bottle")

		candidates := matcher.FindCandidates(tx, []reconcile.Expense{exp})

		require.Len(t, candidates, 1)
		assert.Equal(t, 80, candidates[0].Score)
		assert.Equal(t, MatchFuzzy, candidates[0].MatchType)
	})

	t.Run("capped at max score", func(t *testing.T) {
		tx := makeTransaction("tx1", "100.00", baseDate, "Spotify")
		exp := makeExpense("exp1", "100.00", baseDate, "spotify")

		candidates := matcher.FindCandidates(tx, []reconcile.Expense{exp})

		require.Len(t, candidates, 1)
		assert.Equal(t, 100, candidates[0].Score)
	})

	t.Run("empty vendor gets nothing", func(t *testing.T) {
		tx := makeTransaction("tx1", "100.00", baseDate, "Spotify")
		exp := makeExpense("exp1", "92.00", baseDate.AddDays(2), "")

		candidates := matcher.FindCandidates(tx, []reconcile.Expense{exp})

		require.Len(t, candidates, 1)
		assert.Equal(t, 70, candidates[0].Score)
	})

	t.Run("does not rescue an unscored pair", func(t *testing.T) {
		tx := makeTransaction("tx1", "100.00", baseDate, "Spotify")
		exp := makeExpense("exp1", "100.00", baseDate.AddDays(10), "Spotify")

		assert.Empty(t, matcher.FindCandidates(tx, []reconcile.Expense{exp}))
	})
}

func TestMatcher_ZeroAmounts(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	bothZero := matcher.FindCandidates(
		makeTransaction("tx1", "0", baseDate, ""),
		[]reconcile.Expense{makeExpense("exp1", "0.00", baseDate, "")},
	)
	assert.Empty(t, bothZero)

	oneZero := matcher.FindCandidates(
		makeTransaction("tx1", "0", baseDate, ""),
		[]reconcile.Expense{makeExpense("exp1", "5.00", baseDate, "")},
	)
	assert.Empty(t, oneZero)
}

func TestMatcher_ShortlistBound(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	tx := makeTransaction("tx1", "42.00", baseDate, "")

	var expenses []reconcile.Expense
	for i := range 20 {
		expenses = append(expenses, makeExpense(fmt.Sprintf("exp%d", i), "42.00", baseDate.AddDays(i%9), ""))
	}

	// Act
	candidates := matcher.FindCandidates(tx, expenses)

	// Assert
	require.Len(t, candidates, 3)
	for _, c := range candidates {
		assert.GreaterOrEqual(t, c.Score, 50)
		assert.LessOrEqual(t, c.Score, 100)
	}
	assert.Equal(t, []string{"exp0", "exp1", "exp2"}, []string{
		candidates[0].Expense.ID, candidates[1].Expense.ID, candidates[2].Expense.ID,
	})
}

func TestMatcher_StableOrderForTies(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	tx := makeTransaction("tx1", "100.00", baseDate, "")
	expenses := []reconcile.Expense{
		makeExpense("fuzzy-a", "92.00", baseDate.AddDays(2), ""),
		makeExpense("exact", "100.00", baseDate, ""),
		makeExpense("fuzzy-b", "91.00", baseDate.AddDays(-2), ""),
	}

	candidates := matcher.FindCandidates(tx, expenses)

	require.Len(t, candidates, 3)
	assert.Equal(t, "exact", candidates[0].Expense.ID)
	assert.Equal(t, "fuzzy-a", candidates[1].Expense.ID)
	assert.Equal(t, "fuzzy-b", candidates[2].Expense.ID)
}

func TestMatcher_MinScoreConfig(t *testing.T) {
	config := DefaultConfig()
	config.MinScore = 80
	matcher := NewMatcher(config)
	tx := makeTransaction("tx1", "100.00", baseDate, "")
	expenses := []reconcile.Expense{
		makeExpense("fuzzy", "92.00", baseDate.AddDays(2), ""),
		makeExpense("date", "97.00", baseDate.AddDays(1), ""),
	}

	candidates := matcher.FindCandidates(tx, expenses)

	require.Len(t, candidates, 1)
	assert.Equal(t, "date", candidates[0].Expense.ID)
}

func TestMatcher_ScoreMonotonicity(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	tx := makeTransaction("tx1", "100.00", baseDate, "")

	// expense amounts giving increasing ratios against 100.00
	amounts := []string{"100.00", "99.50", "99.00", "97.00", "95.00", "93.00", "90.00", "88.00", "85.00", "80.00"}
	maxDays := 10

	scoreAt := func(days int, amount string) int {
		c, ok := matcher.Score(tx, makeExpense("e", amount, baseDate.AddDays(days), ""))
		if !ok {
			return 0
		}
		return c.Score
	}

	for days := 0; days <= maxDays; days++ {
		for i := 1; i < len(amounts); i++ {
			closer := scoreAt(days, amounts[i-1])
			farther := scoreAt(days, amounts[i])
			assert.GreaterOrEqual(t, closer, farther, "days=%d %s vs %s", days, amounts[i-1], amounts[i])
		}
	}

	for _, amount := range amounts {
		for days := 1; days <= maxDays; days++ {
			closer := scoreAt(days-1, amount)
			farther := scoreAt(days, amount)
			assert.GreaterOrEqual(t, closer, farther, "amount=%s days %d vs %d", amount, days-1, days)
		}
	}
}

func TestMatcher_MatchBatch(t *testing.T) {
	// Arrange
	config := DefaultConfig()
	config.Workers = 2
	matcher := NewMatcher(config)

	var txs []reconcile.Transaction
	for i := range 10 {
		txs = append(txs, makeTransaction(fmt.Sprintf("tx%d", i), fmt.Sprintf("%d.00", 10+i), baseDate, ""))
	}
	expenses := []reconcile.Expense{
		makeExpense("exp-13", "13.00", baseDate, ""),
		makeExpense("exp-17", "17.00", baseDate.AddDays(2), ""),
	}

	// Act
	results, err := matcher.MatchBatch(context.Background(), txs, expenses)

	// Assert
	require.NoError(t, err)
	require.Len(t, results, len(txs))
	for i, r := range results {
		assert.Equal(t, txs[i].ID, r.Transaction.ID, "results keep input order")
	}
	require.NotNil(t, results[3].Best())
	assert.Equal(t, "exp-13", results[3].Best().Expense.ID)
	require.NotNil(t, results[7].Best())
	assert.Equal(t, "exp-17", results[7].Best().Expense.ID)
	assert.Nil(t, results[0].Best())
}

func TestMatcher_MatchBatch_Canceled(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txs := []reconcile.Transaction{
		makeTransaction("tx1", "1.00", baseDate, ""),
		makeTransaction("tx2", "2.00", baseDate, ""),
	}

	results, err := matcher.MatchBatch(ctx, txs, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestAmountDiffRatio(t *testing.T) {
	ratio, ok := AmountDiffRatio(decimal.RequireFromString("50"), decimal.RequireFromString("100"))
	require.True(t, ok)
	assert.True(t, ratio.Equal(decimal.RequireFromString("0.5")))

	_, ok = AmountDiffRatio(decimal.Zero, decimal.Zero)
	assert.False(t, ok)
}
