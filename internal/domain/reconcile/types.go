package reconcile

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Source records how a transaction entered the system.
type Source string

const (
	SourceCSV       Source = "csv"
	SourceExtracted Source = "extracted"
)

// Transaction is a bank statement line awaiting reconciliation.
type Transaction struct {
	ID               string          `json:"id"`
	ImportID         string          `json:"import_id,omitempty"`
	Source           Source          `json:"source"`
	Date             civil.Date      `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
	Status           Status          `json:"status"`
	MatchedExpenseID string          `json:"matched_expense_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CheckInvariant verifies that a matched expense is linked exactly when the
// transaction is matched.
func (t *Transaction) CheckInvariant() error {
	if !t.Status.Valid() {
		return fmt.Errorf("transaction %s: unknown status %q", t.ID, t.Status)
	}
	linked := t.MatchedExpenseID != ""
	if (t.Status == StatusMatched) != linked {
		return fmt.Errorf("transaction %s: status %s with matched expense %q", t.ID, t.Status, t.MatchedExpenseID)
	}
	return nil
}

// Expense is a ledger entry entered by the user. The matcher only reads it.
type Expense struct {
	ID          string          `json:"id"`
	Date        civil.Date      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Vendor      string          `json:"vendor,omitempty"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`

	// ReconciledTransactionID is stamped when a match is confirmed.
	// Deleting the transaction leaves it in place.
	ReconciledTransactionID string `json:"reconciled_transaction_id,omitempty"`
}

// Reconciled reports whether the expense has been claimed by a confirmed match.
func (e *Expense) Reconciled() bool {
	return e.ReconciledTransactionID != ""
}
