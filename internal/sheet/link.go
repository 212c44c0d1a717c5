package sheet

import (
	"fmt"
	"strings"
)

// Relation declares that a field of one sheet refers to a row of another,
// e.g. the StatusPoint column of the alarm list naming a tag of the I/O list.
type Relation struct {
	// Sheet and Field identify the referring column.
	Sheet string
	Field string

	// Target and Key identify the referenced column.
	Target string
	Key    string
}

// Link resolves a relation and sets Row.Related on the referring rows.
//
// Blank references and optional integers that are not Present are left
// unlinked. Duplicate keys in the target resolve to the first row.
//
// RETURNS:
//   - The number of non-blank references that found no target row.
//   - An error if a sheet or column does not exist.
func (w *Workbook) Link(rel Relation) (int, error) {
	from, err := w.Sheet(rel.Sheet)
	if err != nil {
		return 0, err
	}
	to, err := w.Sheet(rel.Target)
	if err != nil {
		return 0, err
	}
	if _, ok := from.Column(rel.Field); !ok {
		return 0, fmt.Errorf("relation %s.%s: no such column", rel.Sheet, rel.Field)
	}
	if _, ok := to.Column(rel.Key); !ok {
		return 0, fmt.Errorf("relation %s.%s: no such column", rel.Target, rel.Key)
	}

	index := make(map[string]*Row, len(to.Rows))
	for _, row := range to.Rows {
		k := strings.TrimSpace(row.String(rel.Key))
		if _, exists := index[k]; !exists {
			index[k] = row
		}
	}

	missing := 0
	for _, row := range from.Rows {
		v, _ := row.Value(rel.Field)
		if v.Kind == KindOptionalInt && !row.OptionalInt(rel.Field).Present() {
			continue
		}
		ref := strings.TrimSpace(v.String())
		if ref == "" {
			continue
		}
		target, ok := index[ref]
		if !ok {
			missing++
			continue
		}
		row.Related = target
	}

	return missing, nil
}
