package recurring

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = civil.Date{Year: 2024, Month: time.January, Day: 15}

func tx(description, amount string, date civil.Date) reconcile.Transaction {
	return reconcile.Transaction{
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		Status:      reconcile.StatusPending,
	}
}

func TestDetector_OutlierExcludesWholeGroup(t *testing.T) {
	// Arrange
	detector := NewDetector(DefaultConfig())
	txs := []reconcile.Transaction{
		tx("Spotify", "9.99", start),
		tx("Spotify", "9.99", start.AddDays(31)),
		tx("Spotify", "15.00", start.AddDays(60)),
	}

	// Act
	payments := detector.Detect(txs)

	// Assert
	assert.Empty(t, payments)
}

func TestDetector_MonthlySubscription(t *testing.T) {
	// Arrange
	detector := NewDetector(DefaultConfig())
	txs := []reconcile.Transaction{
		tx("NETFLIX.COM ", "15.49", start),
		tx("netflix.com", "15.49", start.AddDays(31)),
		tx("Netflix.com", "17.99", start.AddDays(60)),
		tx("Coffee", "4.50", start),
	}

	// Act
	payments := detector.Detect(txs)

	// Assert
	require.Len(t, payments, 1)
	p := payments[0]
	assert.Equal(t, "netflix.com", p.Description)
	assert.Equal(t, 3, p.Occurrences)
	assert.True(t, decimal.RequireFromString("16.32").Equal(p.Amount), "got %s", p.Amount)
	assert.Equal(t, FrequencyMonthly, p.Frequency)
	assert.Equal(t, start, p.FirstSeen)
	assert.Equal(t, start.AddDays(60), p.LastSeen)
}

func TestDetector_BoundaryToleranceIsInclusive(t *testing.T) {
	detector := NewDetector(DefaultConfig())
	// mean 100, members at exactly 15% either side
	txs := []reconcile.Transaction{
		tx("gym", "85", start),
		tx("gym", "115", start.AddDays(7)),
	}

	payments := detector.Detect(txs)

	require.Len(t, payments, 1)
	assert.Equal(t, FrequencyWeekly, payments[0].Frequency)
}

func TestDetector_EmptyDescriptionsShareSentinel(t *testing.T) {
	detector := NewDetector(DefaultConfig())
	txs := []reconcile.Transaction{
		tx("", "20", start),
		tx("   ", "20", start.AddDays(14)),
	}

	payments := detector.Detect(txs)

	require.Len(t, payments, 1)
	assert.Equal(t, NoDescriptionKey, payments[0].Description)
	assert.Equal(t, FrequencyBiweekly, payments[0].Frequency)
}

func TestDetector_SameDayIsIrregular(t *testing.T) {
	detector := NewDetector(DefaultConfig())
	txs := []reconcile.Transaction{
		tx("parking", "3", start),
		tx("parking", "3", start),
	}

	payments := detector.Detect(txs)

	require.Len(t, payments, 1)
	assert.Equal(t, FrequencyIrregular, payments[0].Frequency)
}

func TestDetector_ZeroAmountGroup(t *testing.T) {
	detector := NewDetector(DefaultConfig())
	txs := []reconcile.Transaction{
		tx("fee waiver", "0", start),
		tx("fee waiver", "0.00", start.AddDays(31)),
	}

	payments := detector.Detect(txs)

	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.IsZero())
}

func TestDetector_OrderedByKey(t *testing.T) {
	detector := NewDetector(DefaultConfig())
	txs := []reconcile.Transaction{
		tx("zoom", "15", start),
		tx("apple", "2.99", start),
		tx("zoom", "15", start.AddDays(31)),
		tx("apple", "2.99", start.AddDays(31)),
	}

	payments := detector.Detect(txs)

	require.Len(t, payments, 2)
	assert.Equal(t, "apple", payments[0].Description)
	assert.Equal(t, "zoom", payments[1].Description)
}

func TestClassifyGap(t *testing.T) {
	tests := []struct {
		days int
		want Frequency
	}{
		{7, FrequencyWeekly},
		{10, FrequencyWeekly},
		{11, FrequencyBiweekly},
		{14, FrequencyBiweekly},
		{21, FrequencyMonthly},
		{31, FrequencyMonthly},
		{45, FrequencyMonthly},
		{46, FrequencyQuarterly},
		{91, FrequencyQuarterly},
		{120, FrequencyQuarterly},
		{200, FrequencyIrregular},
		{365, FrequencyYearly},
		{500, FrequencyIrregular},
		{0, FrequencyIrregular},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyGap(tt.days), "days=%d", tt.days)
	}
}

func TestClassifyDates_UsesMedianGap(t *testing.T) {
	// gaps 30, 31, 90: the single quarter-long gap does not dominate
	dates := []civil.Date{
		start,
		start.AddDays(30),
		start.AddDays(61),
		start.AddDays(151),
	}

	assert.Equal(t, FrequencyMonthly, ClassifyDates(dates))
	assert.Equal(t, FrequencyIrregular, ClassifyDates(dates[:1]))
}

func TestDetector_TopVendors(t *testing.T) {
	// Arrange
	detector := NewDetector(DefaultConfig())
	txs := []reconcile.Transaction{
		tx("Rent", "1500", start),
		tx("Groceries", "80", start),
		tx("groceries", "120", start.AddDays(7)),
		tx("Coffee", "4", start),
		tx("Books", "200", start),
	}

	// Act
	top := detector.TopVendors(txs, 0)
	limited := detector.TopVendors(txs, 2)

	// Assert
	require.Len(t, top, 4)
	assert.Equal(t, "rent", top[0].Vendor)
	// groceries and books both total 200; key order breaks the tie
	assert.Equal(t, "books", top[1].Vendor)
	assert.Equal(t, "groceries", top[2].Vendor)
	assert.Equal(t, 2, top[2].Count)
	assert.True(t, decimal.NewFromInt(200).Equal(top[2].Total))
	assert.Equal(t, "coffee", top[3].Vendor)

	require.Len(t, limited, 2)
	assert.Equal(t, "rent", limited[0].Vendor)
}

func TestDetector_TopVendorsDefaultLimit(t *testing.T) {
	detector := NewDetector(DefaultConfig())
	var txs []reconcile.Transaction
	for i := range 15 {
		txs = append(txs, tx(string(rune('a'+i)), "1", start))
	}

	assert.Len(t, detector.TopVendors(txs, 0), 10)
}
