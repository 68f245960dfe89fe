package statement

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m int, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParser_MixedDateFormatsAndQuotes(t *testing.T) {
	// Arrange
	raw := "date,amount,description\n2024-01-05,45.00,\"Shell Gas\"\n01/06/2024,12,Coffee\n"
	p := NewParser(DefaultConfig())

	// Act
	result, err := p.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, 0, result.SkippedCount)

	first := result.Transactions[0]
	assert.Equal(t, date(2024, 1, 5), first.Date)
	assert.True(t, dec("45.00").Equal(first.Amount))
	assert.Equal(t, "Shell Gas", first.Description)

	second := result.Transactions[1]
	assert.Equal(t, date(2024, 1, 6), second.Date)
	assert.True(t, dec("12").Equal(second.Amount))
	assert.Equal(t, "Coffee", second.Description)
}

func TestParser_Idempotent(t *testing.T) {
	raw := "Posted Date,Memo,Amount\n2024-02-01,Rent,\"1,500.00\"\n2024-02-03,Groceries,-82.10\nbad,row,1\n"
	p := NewParser(DefaultConfig())

	first, err := p.Parse(raw)
	require.NoError(t, err)
	second, err := p.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParser_MissingColumns(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		detail string
	}{
		{name: "no amount", raw: "date,description\n2024-01-01,Coffee\n", detail: "amount"},
		{name: "no date", raw: "amount,description\n5,Coffee\n", detail: "date"},
		{name: "empty input", raw: "\n\n", detail: "empty input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(DefaultConfig()).Parse(tt.raw)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingColumns))
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Contains(t, parseErr.Detail, tt.detail)
		})
	}
}

func TestParser_NoValidRows(t *testing.T) {
	raw := "date,amount\nyesterday,5\n2024-01-01,abc\n"

	result, err := NewParser(DefaultConfig()).Parse(raw)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoValidRows))
	require.NotNil(t, result)
	assert.Equal(t, 2, result.SkippedCount)
}

func TestParser_SkipsMalformedRows(t *testing.T) {
	// Arrange
	raw := "date,amount,description\n" +
		"2024-01-01,10.00,ok\n" +
		"2024/01/02,10.00,slash year first\n" +
		"2024-01-03,ten,word amount\n" +
		"\n" +
		"2024-01-04\n" +
		"04-01-2024,7.50,day first\n"

	// Act
	result, err := NewParser(DefaultConfig()).Parse(raw)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, 3, result.SkippedCount, "blank lines are not counted")
	assert.Equal(t, "ok", result.Transactions[0].Description)
	assert.Equal(t, date(2024, 1, 4), result.Transactions[1].Date)
}

func TestParser_SynonymsAndColumnOrder(t *testing.T) {
	raw := "Descripcion;Fecha;Monto\nCafé;2024-05-02;3,50\n"
	p := NewParser(Config{Delimiter: ';'})

	result, err := p.Parse(raw)

	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	tx := result.Transactions[0]
	assert.Equal(t, date(2024, 5, 2), tx.Date)
	assert.Equal(t, "Café", tx.Description)
	// comma is treated as a thousands separator, never a decimal mark
	assert.True(t, dec("350").Equal(tx.Amount))
}

func TestParser_ExactDateSynonymWinsOverSubstring(t *testing.T) {
	raw := "Update Date,Transaction Date,Amount\n2020-01-01,2024-06-30,1\n"

	result, err := NewParser(DefaultConfig()).Parse(raw)

	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, date(2024, 6, 30), result.Transactions[0].Date)
}

func TestParser_DescriptionOptional(t *testing.T) {
	raw := "date,debit\n2024-01-01,5\n"

	result, err := NewParser(DefaultConfig()).Parse(raw)

	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Empty(t, result.Transactions[0].Description)
}

func TestParser_Transactions_LazyAndRestartable(t *testing.T) {
	raw := "date,amount,description\n2024-01-01,1,a\n2024-01-02,2,b\n2024-01-03,3,c\n"
	p := NewParser(DefaultConfig())

	seq, err := p.Transactions(raw)
	require.NoError(t, err)

	var firstPass []string
	for tx := range seq {
		firstPass = append(firstPass, tx.Description)
		if len(firstPass) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, firstPass)

	var secondPass []string
	for tx := range seq {
		secondPass = append(secondPass, tx.Description)
	}
	assert.Equal(t, []string{"a", "b", "c"}, secondPass)
}

func TestParser_Transactions_HeaderErrorIsEager(t *testing.T) {
	seq, err := NewParser(DefaultConfig()).Transactions("foo,bar\n1,2\n")

	assert.Nil(t, seq)
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{token: "$1,234.56", want: "1234.56", ok: true},
		{token: "(12.00)", want: "12", ok: true},
		{token: "-5", want: "5", ok: true},
		{token: "5-", want: "5", ok: true},
		{token: "€ 9.99", want: "9.99", ok: true},
		{token: "USD 20.00", want: "20", ok: true},
		{token: "20.00 EUR", want: "20", ok: true},
		{token: "+3.10", want: "3.1", ok: true},
		{token: "", want: "", ok: false},
		{token: "abc", want: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ParseAmount(tt.token)

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, dec(tt.want).Equal(got), "got %s", got)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		token string
		want  civil.Date
		ok    bool
	}{
		{token: "2024-01-05", want: date(2024, 1, 5), ok: true},
		{token: "01/06/2024", want: date(2024, 1, 6), ok: true},
		{token: "31-12-2023", want: date(2023, 12, 31), ok: true},
		{token: "2024-01-05T10:00:00Z", ok: false},
		{token: "13/01/2024", ok: false},
		{token: "2024-02-30", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ParseDate(tt.token)

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsedTransaction_ValidateAndNormalize(t *testing.T) {
	valid := ParsedTransaction{Date: date(2024, 1, 1), Amount: dec("1"), Description: "x"}
	assert.NoError(t, valid.Validate())

	negative := ParsedTransaction{Date: date(2024, 1, 1), Amount: dec("-1")}
	assert.Error(t, negative.Validate())
	assert.NoError(t, negative.Normalize().Validate())

	badDate := ParsedTransaction{Date: civil.Date{Year: 2024, Month: 2, Day: 30}, Amount: dec("1")}
	assert.Error(t, badDate.Validate())

	trimmed := ParsedTransaction{Date: date(2024, 1, 1), Amount: dec("1"), Description: "  Netflix "}.Normalize()
	assert.Equal(t, "Netflix", trimmed.Description)
}
