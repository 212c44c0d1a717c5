// =============================================================================
// Plant Tag Generator - Cross-Sheet Lookup
// =============================================================================
//
// Some source columns hold an index into another sheet instead of a name,
// e.g. an alarm row carrying the point number of its status input. An Index
// resolves such an identifier to the referenced row.
//
// A miss is not an error: source data legitimately omits references. The
// caller decides what to do (the keyword engine blanks the value and logs a
// warning).
//
// =============================================================================

package lookup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
)

// Index finds rows of one sheet by the value of a key column.
// It is built once and read-only afterwards.
type Index struct {
	sheet string
	key   string
	rows  map[string]*sheet.Row
}

// New builds an index over s keyed by the canonical text of column key.
// When several rows share a key, the first one wins.
func New(s *sheet.Sheet, key string) (*Index, error) {
	if _, ok := s.Column(key); !ok {
		return nil, fmt.Errorf("lookup %s.%s: no such column", s.Name, key)
	}

	idx := &Index{sheet: s.Name, key: key, rows: make(map[string]*sheet.Row, len(s.Rows))}
	for _, row := range s.Rows {
		k := strings.TrimSpace(row.String(key))
		if k == "" {
			continue
		}
		if _, exists := idx.rows[k]; !exists {
			idx.rows[k] = row
		}
	}
	return idx, nil
}

// Sheet returns the name of the indexed sheet.
func (i *Index) Sheet() string { return i.sheet }

// Key returns the name of the key column.
func (i *Index) Key() string { return i.key }

// Find returns the row whose key equals id.
func (i *Index) Find(id string) (*sheet.Row, bool) {
	row, ok := i.rows[strings.TrimSpace(id)]
	return row, ok
}

// FindInt returns the row whose key equals the integer id.
func (i *Index) FindInt(id int) (*sheet.Row, bool) {
	return i.Find(strconv.Itoa(id))
}

// FindOptional looks up an optional index. Zero or unset never triggers a
// lookup; the second result then reports false with attempted == false.
func (i *Index) FindOptional(id sheet.OptionalInt) (row *sheet.Row, found bool, attempted bool) {
	if !id.Present() {
		return nil, false, false
	}
	row, found = i.FindInt(id.Value)
	return row, found, true
}
