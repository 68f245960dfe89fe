// Package statement parses bank statement exports into normalized transactions.
//
// The parser is forgiving at the row level:
//   - The header row decides which columns hold the date, amount and description
//   - Rows with an unreadable date or amount are dropped and counted, not fatal
//   - Amounts lose their sign; a statement line is reconciled by magnitude only
//
// Example usage:
//
//	p := statement.NewParser(statement.DefaultConfig())
//	result, err := p.Parse(csvText)
//	if err != nil {
//		// errors.Is(err, statement.ErrMissingColumns) etc.
//	}
//	fmt.Println(len(result.Transactions), result.SkippedCount)
package statement

import (
	"iter"
	"strings"
	"time"
	"unicode"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DateLayouts are tried in order; the first layout that consumes the whole token wins.
var DateLayouts = []string{
	"2006-01-02", // YYYY-MM-DD
	"01/02/2006", // MM/DD/YYYY
	"02-01-2006", // DD-MM-YYYY
}

// Config holds parser configuration
type Config struct {
	Delimiter rune
	Rules     []ColumnRule
}

// DefaultConfig returns comma-delimited parsing with the standard header vocabulary
func DefaultConfig() Config {
	return Config{
		Delimiter: ',',
		Rules:     DefaultColumnRules,
	}
}

// Parser turns delimited statement text into ParsedTransactions.
// It holds no per-call state and is safe for concurrent use.
type Parser struct {
	config Config
}

// NewParser creates a parser, filling zero-valued config fields with defaults
func NewParser(config Config) *Parser {
	if config.Delimiter == 0 {
		config.Delimiter = ','
	}
	if len(config.Rules) == 0 {
		config.Rules = DefaultColumnRules
	}
	return &Parser{config: config}
}

// Parse reads the whole statement. It fails when the header lacks a date or
// amount column, or when no data row survives.
func (p *Parser) Parse(raw string) (*Result, error) {
	layout, body, err := p.header(raw)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for line := range body {
		tx, ok := p.parseRow(line, layout)
		if !ok {
			result.SkippedCount++
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}

	if len(result.Transactions) == 0 {
		return result, &ParseError{Err: ErrNoValidRows}
	}
	return result, nil
}

// Transactions resolves the header eagerly and returns the data rows as a
// lazy sequence in file order. Ranging over it again re-reads the text from
// the start, so the sequence is restartable. Malformed rows are skipped silently.
func (p *Parser) Transactions(raw string) (iter.Seq[ParsedTransaction], error) {
	layout, body, err := p.header(raw)
	if err != nil {
		return nil, err
	}

	return func(yield func(ParsedTransaction) bool) {
		for line := range body {
			tx, ok := p.parseRow(line, layout)
			if !ok {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}, nil
}

// header resolves the column layout from the first non-blank line and returns
// an iterator over the remaining non-blank lines.
func (p *Parser) header(raw string) (columnLayout, iter.Seq[string], error) {
	var headerLine string
	found := false
	for line := range lines(raw) {
		headerLine = line
		found = true
		break
	}
	if !found {
		return columnLayout{}, nil, &ParseError{Err: ErrMissingColumns, Detail: "empty input"}
	}

	layout, missing := resolveColumns(p.split(headerLine), p.config.Rules)
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = f.String()
		}
		return columnLayout{}, nil, &ParseError{
			Err:    ErrMissingColumns,
			Detail: "no " + strings.Join(names, ", ") + " column in header " + strings.TrimSpace(headerLine),
		}
	}

	body := func(yield func(string) bool) {
		first := true
		for line := range lines(raw) {
			if first {
				first = false
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
	return layout, body, nil
}

func (p *Parser) parseRow(line string, layout columnLayout) (ParsedTransaction, bool) {
	fields := p.split(line)

	dateIdx := layout.index(FieldDate)
	amountIdx := layout.index(FieldAmount)
	if dateIdx >= len(fields) || amountIdx >= len(fields) {
		return ParsedTransaction{}, false
	}

	date, ok := ParseDate(fields[dateIdx])
	if !ok {
		return ParsedTransaction{}, false
	}
	amount, ok := ParseAmount(fields[amountIdx])
	if !ok {
		return ParsedTransaction{}, false
	}

	var description string
	if descIdx := layout.index(FieldDescription); descIdx >= 0 && descIdx < len(fields) {
		description = fields[descIdx]
	}

	return ParsedTransaction{
		Date:        date,
		Amount:      amount,
		Description: description,
	}, true
}

// split tokenizes one line. A double quote toggles quoted mode; the delimiter
// inside quotes is kept as text. Quote characters themselves are dropped, so
// escaped quotes ("") are not supported.
func (p *Parser) split(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == p.config.Delimiter && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// lines yields non-blank lines without their line terminators.
func lines(raw string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.Lines(raw) {
			line = strings.TrimRight(line, "\r\n")
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// ParseDate tries each of DateLayouts against the whole token.
func ParseDate(token string) (civil.Date, bool) {
	token = strings.TrimSpace(token)
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, token)
		if err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// ParseAmount normalizes an amount token: currency symbols, ISO currency codes,
// whitespace and thousands separators are removed, sign markers ("-", "+",
// parentheses) are discarded and the absolute value is returned.
func ParseAmount(token string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(token)
	s = trimCurrencyCode(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Sc, r), unicode.IsSpace(r), r == ',':
			// currency symbol, padding or thousands separator
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "+")
	s = strings.TrimSuffix(s, "-")
	if s == "" {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return amount.Abs(), true
}

// trimCurrencyCode removes a leading or trailing three-letter uppercase code like "USD".
func trimCurrencyCode(s string) string {
	isCode := func(c string) bool {
		if len(c) != 3 {
			return false
		}
		for _, r := range c {
			if r < 'A' || r > 'Z' {
				return false
			}
		}
		return true
	}

	if len(s) > 3 && isCode(s[:3]) {
		s = strings.TrimSpace(s[3:])
	}
	if len(s) > 3 && isCode(s[len(s)-3:]) {
		s = strings.TrimSpace(s[:len(s)-3])
	}
	return s
}
