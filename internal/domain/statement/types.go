package statement

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Sentinel errors returned (wrapped in *ParseError) by the parser.
var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoValidRows    = errors.New("no valid rows found")
)

// ParseError describes why a whole statement was rejected.
// Individual malformed rows never produce a ParseError; they are counted in Result.SkippedCount.
type ParseError struct {
	Err    error  // ErrMissingColumns or ErrNoValidRows
	Detail string // human readable context, e.g. the header that was seen
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("parse statement: %v", e.Err)
	}
	return fmt.Sprintf("parse statement: %v: %s", e.Err, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParsedTransaction is one normalized statement row.
// Amount is always an absolute value; direction is not modeled.
type ParsedTransaction struct {
	Date        civil.Date      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Validate checks records that did not come through the CSV parser
// (for example model-extracted rows).
func (p ParsedTransaction) Validate() error {
	if !p.Date.IsValid() {
		return fmt.Errorf("invalid date %q", p.Date.String())
	}
	if p.Amount.IsNegative() {
		return fmt.Errorf("amount must be non-negative, got %s", p.Amount.String())
	}
	return nil
}

// Normalize trims the description and forces a non-negative amount.
func (p ParsedTransaction) Normalize() ParsedTransaction {
	p.Description = strings.TrimSpace(p.Description)
	p.Amount = p.Amount.Abs()
	return p
}

// Result is the outcome of parsing one statement.
type Result struct {
	Transactions []ParsedTransaction
	SkippedCount int // rows dropped for a bad date or amount
}
