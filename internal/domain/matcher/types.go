package matcher

import (
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/shopspring/decimal"
)

// MatchType classifies why an expense was shortlisted.
type MatchType string

const (
	MatchExact  MatchType = "exact"
	MatchAmount MatchType = "amount"
	MatchDate   MatchType = "date"
	MatchFuzzy  MatchType = "fuzzy"
)

// Tier is one scoring rule. A candidate qualifies when its day gap is at most
// MaxDays and its amount ratio is below (or, when RatioInclusive, at most) MaxRatio.
type Tier struct {
	Score          int
	Type           MatchType
	MaxDays        int
	MaxRatio       decimal.Decimal
	RatioInclusive bool
}

func (t Tier) accepts(days int, ratio decimal.Decimal) bool {
	if days > t.MaxDays {
		return false
	}
	if t.RatioInclusive {
		return ratio.LessThanOrEqual(t.MaxRatio)
	}
	return ratio.LessThan(t.MaxRatio)
}

// Config holds matcher configuration
type Config struct {
	Tiers         []Tier // Checked in order; first match wins
	TextBonus     int    // Added when description and vendor contain one another (default: 10)
	MaxScore      int    // Bonus cap (default: 100)
	MinScore      int    // Candidates below this are dropped (default: 50)
	MaxCandidates int    // Shortlist length (default: 3)
	Workers       int    // Parallelism for MatchBatch (default: 4)
}

// DefaultTiers is the scoring ladder, strongest evidence first.
func DefaultTiers() []Tier {
	return []Tier{
		{Score: 100, Type: MatchExact, MaxDays: 3, MaxRatio: decimal.RequireFromString("0.01")},
		{Score: 85, Type: MatchAmount, MaxDays: 7, MaxRatio: decimal.RequireFromString("0.01")},
		{Score: 80, Type: MatchDate, MaxDays: 1, MaxRatio: decimal.RequireFromString("0.05"), RatioInclusive: true},
		{Score: 70, Type: MatchFuzzy, MaxDays: 3, MaxRatio: decimal.RequireFromString("0.10"), RatioInclusive: true},
		{Score: 50, Type: MatchFuzzy, MaxDays: 7, MaxRatio: decimal.RequireFromString("0.15"), RatioInclusive: true},
	}
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Tiers:         DefaultTiers(),
		TextBonus:     10,
		MaxScore:      100,
		MinScore:      50,
		MaxCandidates: 3,
		Workers:       4,
	}
}

// MatchCandidate is one shortlisted expense for a transaction.
type MatchCandidate struct {
	Expense         reconcile.Expense `json:"expense"`
	Score           int               `json:"score"`
	MatchType       MatchType         `json:"match_type"`
	DateDiffDays    int               `json:"date_diff_days"`
	AmountDiffRatio decimal.Decimal   `json:"amount_diff_ratio"`
}

// BatchResult is the shortlist for one transaction of a batch.
type BatchResult struct {
	Transaction reconcile.Transaction
	Candidates  []MatchCandidate
}

// Best returns the top candidate, or nil when the shortlist is empty.
func (r BatchResult) Best() *MatchCandidate {
	if len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0]
}
