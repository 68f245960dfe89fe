package statement

import "strings"

// Field is a statement column the parser knows how to read.
type Field int

const (
	FieldDate Field = iota
	FieldAmount
	FieldDescription
)

func (f Field) String() string {
	switch f {
	case FieldDate:
		return "date"
	case FieldAmount:
		return "amount"
	case FieldDescription:
		return "description"
	default:
		return "unknown"
	}
}

// Synonym is one header spelling for a field. Exact synonyms must equal the
// whole (lower-cased, trimmed) header cell; the rest match as substrings.
type Synonym struct {
	Text  string
	Exact bool
}

// ColumnRule lists the synonyms for one field, most specific first.
type ColumnRule struct {
	Field    Field
	Required bool
	Synonyms []Synonym
}

// DefaultColumnRules is the header vocabulary, evaluated top to bottom.
// Within a rule, synonyms are tried in order and the first header cell that
// matches wins. A column claimed by an earlier rule is never reused.
var DefaultColumnRules = []ColumnRule{
	{
		Field:    FieldDate,
		Required: true,
		Synonyms: []Synonym{
			{Text: "posted date", Exact: true},
			{Text: "transaction date", Exact: true},
			{Text: "date"},
			{Text: "fecha"},
		},
	},
	{
		Field:    FieldAmount,
		Required: true,
		Synonyms: []Synonym{
			{Text: "amount"},
			{Text: "monto"},
			{Text: "importe"},
			{Text: "debit"},
			{Text: "credit"},
		},
	},
	{
		Field: FieldDescription,
		Synonyms: []Synonym{
			{Text: "description"},
			{Text: "descripcion"},
			{Text: "memo"},
			{Text: "details"},
		},
	},
}

// columnLayout maps fields to header indexes. -1 means absent.
type columnLayout struct {
	date        int
	amount      int
	description int
}

func (l columnLayout) index(f Field) int {
	switch f {
	case FieldDate:
		return l.date
	case FieldAmount:
		return l.amount
	case FieldDescription:
		return l.description
	}
	return -1
}

func (l *columnLayout) set(f Field, idx int) {
	switch f {
	case FieldDate:
		l.date = idx
	case FieldAmount:
		l.amount = idx
	case FieldDescription:
		l.description = idx
	}
}

// resolveColumns applies rules to a header row.
func resolveColumns(header []string, rules []ColumnRule) (columnLayout, []Field) {
	layout := columnLayout{date: -1, amount: -1, description: -1}
	claimed := make(map[int]bool, len(header))

	normalized := make([]string, len(header))
	for i, cell := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	var missing []Field
	for _, rule := range rules {
		idx := findColumn(normalized, rule.Synonyms, claimed)
		if idx >= 0 {
			claimed[idx] = true
			layout.set(rule.Field, idx)
			continue
		}
		if rule.Required {
			missing = append(missing, rule.Field)
		}
	}
	return layout, missing
}

func findColumn(header []string, synonyms []Synonym, claimed map[int]bool) int {
	for _, syn := range synonyms {
		for i, cell := range header {
			if claimed[i] || cell == "" {
				continue
			}
			if syn.Exact && cell == syn.Text {
				return i
			}
			if !syn.Exact && strings.Contains(cell, syn.Text) {
				return i
			}
		}
	}
	return -1
}
