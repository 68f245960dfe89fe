// Package recurring finds repeated, stable-amount payments in a transaction
// history and ranks vendors by spend.
//
// Transactions are grouped by their lower-cased, trimmed description. A group
// is recurring when it has at least two members and every member is within
// the tolerance (15% by default) of the group mean. One outlier disqualifies
// the whole group.
package recurring

import (
	"cmp"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/shopspring/decimal"
)

// NoDescriptionKey groups transactions with an empty description.
const NoDescriptionKey = "(no description)"

// Config holds detector configuration
type Config struct {
	Tolerance      decimal.Decimal // Max |amount-mean|/mean per member (default: 0.15)
	MinOccurrences int             // Default: 2
	TopVendors     int             // Default n for TopVendors (default: 10)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Tolerance:      decimal.RequireFromString("0.15"),
		MinOccurrences: 2,
		TopVendors:     10,
	}
}

// RecurringPayment is a description group with stable amounts.
type RecurringPayment struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // group mean, rounded to cents
	Occurrences int             `json:"occurrences"`
	Frequency   Frequency       `json:"frequency"`
	FirstSeen   civil.Date      `json:"first_seen"`
	LastSeen    civil.Date      `json:"last_seen"`
}

// VendorTotal is the spend attributed to one description group.
type VendorTotal struct {
	Vendor string          `json:"vendor"`
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
}

// Detector runs recurrence and vendor reports. It holds no state between calls.
type Detector struct {
	config Config
}

// NewDetector creates a detector, filling zero-valued config fields with defaults
func NewDetector(config Config) *Detector {
	defaults := DefaultConfig()
	if config.Tolerance.IsZero() {
		config.Tolerance = defaults.Tolerance
	}
	if config.MinOccurrences < 2 {
		config.MinOccurrences = defaults.MinOccurrences
	}
	if config.TopVendors <= 0 {
		config.TopVendors = defaults.TopVendors
	}
	return &Detector{config: config}
}

// GroupKey normalizes a description into its grouping key.
func GroupKey(description string) string {
	key := strings.ToLower(strings.TrimSpace(description))
	if key == "" {
		return NoDescriptionKey
	}
	return key
}

type group struct {
	key     string
	members []reconcile.Transaction
}

func groupByKey(txs []reconcile.Transaction) []group {
	index := make(map[string]int)
	var groups []group
	for _, tx := range txs {
		key := GroupKey(tx.Description)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key})
		}
		groups[i].members = append(groups[i].members, tx)
	}
	slices.SortFunc(groups, func(a, b group) int {
		return strings.Compare(a.key, b.key)
	})
	return groups
}

// Detect returns qualifying groups ordered by key.
func (d *Detector) Detect(txs []reconcile.Transaction) []RecurringPayment {
	out := []RecurringPayment{}

	for _, g := range groupByKey(txs) {
		if len(g.members) < d.config.MinOccurrences {
			continue
		}

		mean := meanAmount(g.members)
		if !d.withinTolerance(g.members, mean) {
			continue
		}

		dates := distinctDates(g.members)
		out = append(out, RecurringPayment{
			Description: g.key,
			Amount:      mean.Round(2),
			Occurrences: len(g.members),
			Frequency:   ClassifyDates(dates),
			FirstSeen:   dates[0],
			LastSeen:    dates[len(dates)-1],
		})
	}
	return out
}

// TopVendors ranks every group by total spend. n <= 0 uses the configured default.
// Ties are broken by vendor key so output is deterministic.
func (d *Detector) TopVendors(txs []reconcile.Transaction, n int) []VendorTotal {
	if n <= 0 {
		n = d.config.TopVendors
	}

	groups := groupByKey(txs)
	totals := make([]VendorTotal, 0, len(groups))
	for _, g := range groups {
		total := decimal.Zero
		for _, tx := range g.members {
			total = total.Add(tx.Amount)
		}
		totals = append(totals, VendorTotal{Vendor: g.key, Total: total, Count: len(g.members)})
	}

	slices.SortStableFunc(totals, func(a, b VendorTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Vendor, b.Vendor)
	})

	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

func (d *Detector) withinTolerance(members []reconcile.Transaction, mean decimal.Decimal) bool {
	if mean.IsZero() {
		// non-negative amounts averaging zero are all zero
		return true
	}
	for _, tx := range members {
		deviation := tx.Amount.Sub(mean).Abs().Div(mean)
		if deviation.GreaterThan(d.config.Tolerance) {
			return false
		}
	}
	return true
}

func meanAmount(members []reconcile.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range members {
		sum = sum.Add(tx.Amount)
	}
	return sum.Div(decimal.NewFromInt(int64(len(members))))
}

func distinctDates(members []reconcile.Transaction) []civil.Date {
	dates := make([]civil.Date, 0, len(members))
	for _, tx := range members {
		dates = append(dates, tx.Date)
	}
	slices.SortFunc(dates, func(a, b civil.Date) int {
		return cmp.Compare(a.DaysSince(b), 0)
	})
	return slices.Compact(dates)
}
