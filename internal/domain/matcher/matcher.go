// Package matcher scores ledger expenses against an imported statement
// transaction and returns a ranked shortlist.
//
// Each expense is scored independently against a ladder of tiers:
//   - Amount within 1% and date within 3 days is an exact match (100)
//   - Wider date or amount windows give lower scores, down to 50
//   - A vendor that appears in the description (or vice versa) adds 10
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	candidates := m.FindCandidates(tx, expenses)
//	if len(candidates) > 0 {
//		best := candidates[0]
//	}
package matcher

import (
	"context"
	"slices"
	"strings"

	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Matcher matches statement transactions with ledger expenses
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	defaults := DefaultConfig()
	if len(config.Tiers) == 0 {
		config.Tiers = defaults.Tiers
	}
	if config.MaxScore <= 0 {
		config.MaxScore = defaults.MaxScore
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = defaults.MaxCandidates
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	return &Matcher{
		config: config,
	}
}

// Config returns the effective configuration.
func (m *Matcher) Config() Config {
	return m.config
}

// FindCandidates returns up to MaxCandidates expenses scoring at least
// MinScore, best first. Equal scores keep the order of expenses.
func (m *Matcher) FindCandidates(tx reconcile.Transaction, expenses []reconcile.Expense) []MatchCandidate {
	var candidates []MatchCandidate

	for _, exp := range expenses {
		candidate, ok := m.score(tx, exp)
		if !ok || candidate.Score < m.config.MinScore {
			continue
		}
		candidates = append(candidates, candidate)
	}

	slices.SortStableFunc(candidates, func(a, b MatchCandidate) int {
		return b.Score - a.Score
	})

	if len(candidates) > m.config.MaxCandidates {
		candidates = candidates[:m.config.MaxCandidates]
	}
	return candidates
}

// Score evaluates a single pair without applying MinScore. ok is false when
// no tier accepts the pair.
func (m *Matcher) Score(tx reconcile.Transaction, exp reconcile.Expense) (MatchCandidate, bool) {
	return m.score(tx, exp)
}

func (m *Matcher) score(tx reconcile.Transaction, exp reconcile.Expense) (MatchCandidate, bool) {
	ratio, ok := AmountDiffRatio(tx.Amount, exp.Amount)
	if !ok {
		return MatchCandidate{}, false
	}
	days := DateDiffDays(tx, exp)

	for _, tier := range m.config.Tiers {
		if !tier.accepts(days, ratio) {
			continue
		}

		score := tier.Score
		if textOverlap(tx.Description, exp.Vendor) {
			score = min(score+m.config.TextBonus, m.config.MaxScore)
		}

		return MatchCandidate{
			Expense:         exp,
			Score:           score,
			MatchType:       tier.Type,
			DateDiffDays:    days,
			AmountDiffRatio: ratio,
		}, true
	}
	return MatchCandidate{}, false
}

// MatchBatch shortlists every transaction, fanning out across transactions.
// Results are in input order. The expense slice is shared read-only.
func (m *Matcher) MatchBatch(ctx context.Context, txs []reconcile.Transaction, expenses []reconcile.Expense) ([]BatchResult, error) {
	results := make([]BatchResult, len(txs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.Workers)

	for i := range txs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = BatchResult{
				Transaction: txs[i],
				Candidates:  m.FindCandidates(txs[i], expenses),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DateDiffDays is the absolute number of calendar days between the two records.
func DateDiffDays(tx reconcile.Transaction, exp reconcile.Expense) int {
	days := tx.Date.DaysSince(exp.Date)
	if days < 0 {
		return -days
	}
	return days
}

// AmountDiffRatio is |a-b| / max(a, b). ok is false when both amounts are zero.
func AmountDiffRatio(a, b decimal.Decimal) (decimal.Decimal, bool) {
	a, b = a.Abs(), b.Abs()
	larger := decimal.Max(a, b)
	if larger.IsZero() {
		return decimal.Zero, false
	}
	return a.Sub(b).Abs().Div(larger), true
}

func textOverlap(description, vendor string) bool {
	d := strings.ToLower(strings.TrimSpace(description))
	v := strings.ToLower(strings.TrimSpace(vendor))
	if d == "" || v == "" {
		return false
	}
	return strings.Contains(d, v) || strings.Contains(v, d)
}
