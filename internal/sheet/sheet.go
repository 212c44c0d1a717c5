// =============================================================================
// Plant Tag Generator - Row Source
// =============================================================================
//
// This package holds the in-memory engineering data that every converter
// reads from. A Workbook is a set of named Sheets, each Sheet an ordered list
// of typed Rows.
//
// LIFECYCLE:
//   1. Loaders (xlsx.go, csv.go) build Sheets from files
//   2. Sheets are added to a Workbook
//   3. Relations are linked (Workbook.Link), setting Row.Related
//   4. From then on the Workbook is read-only and may be shared by any
//      number of converters running in parallel
//
// FIELD KINDS:
//   - string       : text as found in the cell
//   - int          : whole number, blank is an error
//   - optional_int : whole number or blank; zero and blank both mean "unset"
//   - bool         : true/false, yes/no, 1/0, x/blank
//
// =============================================================================

package sheet

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSheet is returned when a sheet name is not in the workbook.
var ErrUnknownSheet = errors.New("unknown sheet")

// =============================================================================
// ROW
// =============================================================================

// Row is one record of a source sheet (one alarm, one I/O point, ...).
type Row struct {
	// Sheet is the name of the sheet the row belongs to.
	Sheet string

	// Index is the 0-based position of the row in its sheet.
	// Row order is significant: targets map point numbers to line numbers.
	Index int

	// Related is the row another sheet refers to, e.g. the status point of
	// an alarm. It is set once by Workbook.Link and never owned by this row.
	Related *Row

	values map[string]Value
}

// NewRow creates a row from already parsed values.
func NewRow(sheetName string, index int, values map[string]Value) *Row {
	if values == nil {
		values = make(map[string]Value)
	}
	return &Row{Sheet: sheetName, Index: index, values: values}
}

// Value returns the named field.
func (r *Row) Value(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether the row carries the named field.
func (r *Row) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// String returns the canonical text of a field, or "" when it is missing.
func (r *Row) String(name string) string {
	return r.values[name].String()
}

// Int returns an integer field. The second result is false when the field
// is missing or holds no number.
func (r *Row) Int(name string) (int, bool) {
	v, ok := r.values[name]
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

// OptionalInt returns the field as an OptionalInt.
// A missing field is reported as unset.
func (r *Row) OptionalInt(name string) OptionalInt {
	v, ok := r.values[name]
	if !ok {
		return OptionalInt{}
	}
	n, ok := v.AsInt()
	return OptionalInt{Value: n, Valid: ok}
}

// Bool returns a boolean field; missing fields are false.
func (r *Row) Bool(name string) bool {
	v := r.values[name]
	switch v.Kind {
	case KindBool:
		return v.Bool
	default:
		b, err := ParseBool(v.Text)
		return err == nil && b
	}
}

// =============================================================================
// SHEET
// =============================================================================

// Column describes one column of a sheet.
type Column struct {
	Name string
	Kind Kind
}

// Sheet is an ordered, typed table.
type Sheet struct {
	// Name is the logical name used by converter configurations.
	Name string

	// Source is the file the sheet was loaded from (for messages only).
	Source string

	// Columns lists the columns in file order.
	Columns []Column

	// Rows holds the data rows in source order.
	Rows []*Row
}

// Column returns the column definition for name.
func (s *Sheet) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// FromTable builds a sheet from a header and raw string records.
//
// PARAMETERS:
//   - name: The logical sheet name.
//   - header: The header cells; blank headers become "Column_N".
//   - records: The data records, shorter records are padded with blanks.
//   - kinds: Declared kinds per column; undeclared columns are strings.
//
// RETURNS:
//   - The sheet with one Row per non-empty record.
//   - An error if a declared column is missing or a cell does not parse.
func FromTable(name string, header []string, records [][]string, kinds map[string]Kind) (*Sheet, error) {
	s := &Sheet{Name: name}

	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		if seen[h] {
			return nil, fmt.Errorf("sheet %s: duplicate column %q", name, h)
		}
		seen[h] = true

		kind := KindString
		if k, ok := kinds[h]; ok {
			kind = k
		}
		s.Columns = append(s.Columns, Column{Name: h, Kind: kind})
	}

	for col := range kinds {
		if !seen[col] {
			return nil, fmt.Errorf("sheet %s: declared column %q not found in header", name, col)
		}
	}

	for recordIndex, record := range records {
		if isRecordEmpty(record) {
			continue
		}

		values := make(map[string]Value, len(s.Columns))
		for i, c := range s.Columns {
			raw := ""
			if i < len(record) {
				raw = record[i]
			}
			v, err := ParseValue(c.Kind, raw)
			if err != nil {
				return nil, fmt.Errorf("sheet %s record %d column %s: %w", name, recordIndex+1, c.Name, err)
			}
			values[c.Name] = v
		}

		s.Rows = append(s.Rows, NewRow(name, len(s.Rows), values))
	}

	return s, nil
}

// isRecordEmpty checks if a record contains only blank cells.
func isRecordEmpty(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// WORKBOOK
// =============================================================================

// Workbook is the set of sheets shared by all converters of a run.
type Workbook struct {
	sheets map[string]*Sheet
	order  []string
}

// NewWorkbook creates an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{sheets: make(map[string]*Sheet)}
}

// Add registers a sheet under its name.
func (w *Workbook) Add(s *Sheet) error {
	if _, exists := w.sheets[s.Name]; exists {
		return fmt.Errorf("sheet %s loaded twice", s.Name)
	}
	w.sheets[s.Name] = s
	w.order = append(w.order, s.Name)
	return nil
}

// Sheet returns the named sheet.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	s, ok := w.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSheet, name)
	}
	return s, nil
}

// Names returns the sheet names in load order.
func (w *Workbook) Names() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}
