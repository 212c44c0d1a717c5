package generator

import (
	"strings"

	"github.com/ginjaninja78/plant-tag-generator/internal/keyword"
	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
	"github.com/ginjaninja78/plant-tag-generator/internal/template"
)

// Substituter fills placeholders for one row.
type Substituter interface {
	Replace(text string) string
}

// Target is one logical output type of a converter, e.g. the "DI" lines of
// a PLC tag list or the "ALM" lines of an alarm import.
type Target interface {
	// Type is the record type whose template groups apply.
	Type() string

	// Accept reports whether a row belongs to this output type.
	Accept(row *sheet.Row) bool

	// Subtype derives the row's subtype token.
	Subtype(row *sheet.Row) string

	// Table starts a fresh substitution table for row.
	Table(row *sheet.Row) Substituter
}

// Output is the standard Target: a keyword engine plus the classification
// fields and row filter of one output type.
type Output struct {
	// Name identifies the output; RecordType selects template groups and
	// defaults to Name.
	Name          string
	RecordType    string
	Engine        *keyword.Engine
	SubtypeFields []string

	// Filter selects the rows of this type. Nil accepts every row.
	Filter func(row *sheet.Row) bool
}

// Type implements Target.
func (o *Output) Type() string {
	if o.RecordType != "" {
		return o.RecordType
	}
	return o.Name
}

// Accept implements Target.
func (o *Output) Accept(row *sheet.Row) bool {
	return o.Filter == nil || o.Filter(row)
}

// Subtype implements Target.
func (o *Output) Subtype(row *sheet.Row) string {
	values := make([]string, len(o.SubtypeFields))
	for i, f := range o.SubtypeFields {
		values[i] = row.String(f)
	}
	return template.SubtypeToken(values...)
}

// Table implements Target.
func (o *Output) Table(row *sheet.Row) Substituter {
	return o.Engine.Table(row)
}

// FieldEquals returns a filter accepting rows whose field equals value,
// ignoring case and surrounding blanks. When value is a boolean spelling
// ("yes", "false", "x", ...) and the row holds one too, both are compared
// as booleans, so "yes" matches a cell written "TRUE" and "no" matches a
// blank cell.
func FieldEquals(field, value string) func(row *sheet.Row) bool {
	value = strings.TrimSpace(value)
	want, wantErr := sheet.ParseBool(value)
	return func(row *sheet.Row) bool {
		if wantErr == nil {
			if v, ok := row.Value(field); ok && v.Kind == sheet.KindBool {
				return v.Bool == want
			}
			if got, err := sheet.ParseBool(row.String(field)); err == nil {
				return got == want
			}
		}
		return strings.EqualFold(strings.TrimSpace(row.String(field)), value)
	}
}
