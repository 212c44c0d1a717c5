// =============================================================================
// Plant Tag Generator - Keyword Substitution Engine
// =============================================================================
//
// Template text carries placeholder tokens such as "{Tag}" or "{Timer}".
// The keyword engine replaces them with values derived from one data row.
//
// KEYWORD SOURCES:
//   - field   : a column of the row itself
//   - related : a column of the row linked at load time (blank when unlinked)
//   - lookup  : a column of another sheet, found through an index column of
//               the row (zero or blank index means "no reference": blank)
//   - literal : a fixed value
//   - subtype : the row's computed subtype token
//   - row     : the 1-based position of the row in its sheet
//
// NUMERIC FORMATTING:
//   Any numeric source may add an Offset and render with zero Padding or a
//   Go format verb:
//     Index=7,  pad 3              -> "007"
//     Index=12, offset 500         -> "512"
//     Index=12, offset 10000, %05d -> "10012"
//
// REPLACEMENT:
//   Replacement is literal, case-sensitive and single-pass. When two tokens
//   could match at the same position, the longer token wins, so "{Tag}" can
//   never eat the start of "{TagAlias}". Tokens the engine does not know are
//   left in place.
//
// =============================================================================

package keyword

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/plant-tag-generator/internal/lookup"
	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
	"github.com/ginjaninja78/plant-tag-generator/internal/template"
)

// =============================================================================
// KEYWORD DEFINITION
// =============================================================================

// Source selects where a keyword value comes from.
type Source string

const (
	SourceField   Source = "field"
	SourceRelated Source = "related"
	SourceLookup  Source = "lookup"
	SourceLiteral Source = "literal"
	SourceSubtype Source = "subtype"
	SourceRow     Source = "row"
)

// Keyword defines one placeholder token and how to compute its value.
type Keyword struct {
	// Token is the literal placeholder text, e.g. "{Tag}".
	Token string `yaml:"token"`

	// Source selects the value source. Default: field.
	Source Source `yaml:"source"`

	// Field is the column read from the row (field), the related row
	// (related) or the looked-up row (lookup).
	Field string `yaml:"field"`

	// Index is the optional-integer column of the row holding the lookup
	// identifier (lookup only).
	Index string `yaml:"index"`

	// Sheet and Key identify the looked-up sheet and its key column
	// (lookup only).
	Sheet string `yaml:"sheet"`
	Key   string `yaml:"key"`

	// Value is the fixed text of a literal keyword.
	Value string `yaml:"value"`

	// Offset is added to numeric values before formatting.
	Offset int `yaml:"offset"`

	// Pad renders numeric values zero-padded to this width.
	Pad int `yaml:"pad"`

	// Format is a Go format verb for numeric values, e.g. "%05d".
	// It wins over Pad.
	Format string `yaml:"format"`

	// Transforms post-process the value, in order.
	Transforms []Transform `yaml:"transforms"`
}

// numeric reports whether the keyword renders its value as a number.
func (k Keyword) numeric() bool {
	return k.Offset != 0 || k.Pad > 0 || k.Format != ""
}

// IndexResolver returns the lookup index for sheet/key.
type IndexResolver func(sheetName, key string) (*lookup.Index, error)

// MissHandler is called when a lookup finds no row.
type MissHandler func(token string, row *sheet.Row)

// =============================================================================
// ENGINE
// =============================================================================

// Engine substitutes the keywords of one output type.
// It holds no per-row state and is safe for concurrent use.
type Engine struct {
	keywords      []Keyword
	indexes       map[string]*lookup.Index
	subtypeFields []string
	logger        *zap.Logger
	onMiss        MissHandler
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for lookup-miss warnings.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSubtypeFields sets the classification fields used by subtype keywords.
func WithSubtypeFields(fields []string) Option {
	return func(e *Engine) { e.subtypeFields = fields }
}

// WithMissHandler registers a callback for lookup misses.
func WithMissHandler(h MissHandler) Option {
	return func(e *Engine) { e.onMiss = h }
}

// NewEngine validates the keywords and resolves their lookup indexes.
//
// PARAMETERS:
//   - keywords: The keyword table of the output type.
//   - resolve: Provides lookup indexes; may be nil if no keyword is a lookup.
//   - opts: Optional settings.
//
// RETURNS:
//   - The engine.
//   - An error for duplicate tokens, unknown sources, unresolvable lookups,
//     bad numeric formats or bad transforms.
func NewEngine(keywords []Keyword, resolve IndexResolver, opts ...Option) (*Engine, error) {
	e := &Engine{
		indexes: make(map[string]*lookup.Index),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		if k.Token == "" {
			return nil, fmt.Errorf("keyword with empty token")
		}
		if seen[k.Token] {
			return nil, fmt.Errorf("keyword %s defined twice", k.Token)
		}
		seen[k.Token] = true

		if k.Source == "" {
			k.Source = SourceField
		}

		switch k.Source {
		case SourceField, SourceRelated:
			if k.Field == "" {
				return nil, fmt.Errorf("keyword %s: field is required", k.Token)
			}
		case SourceLookup:
			if k.Field == "" || k.Index == "" || k.Sheet == "" || k.Key == "" {
				return nil, fmt.Errorf("keyword %s: lookup needs field, index, sheet and key", k.Token)
			}
			if resolve == nil {
				return nil, fmt.Errorf("keyword %s: no lookup resolver", k.Token)
			}
			idx, err := resolve(k.Sheet, k.Key)
			if err != nil {
				return nil, fmt.Errorf("keyword %s: %w", k.Token, err)
			}
			e.indexes[k.Token] = idx
		case SourceLiteral, SourceSubtype, SourceRow:
		default:
			return nil, fmt.Errorf("keyword %s: unknown source %q", k.Token, k.Source)
		}

		if k.Format != "" && strings.Contains(fmt.Sprintf(k.Format, 0), "%!") {
			return nil, fmt.Errorf("keyword %s: format %q does not render one integer", k.Token, k.Format)
		}

		for _, tr := range k.Transforms {
			if err := tr.validate(); err != nil {
				return nil, fmt.Errorf("keyword %s: %w", k.Token, err)
			}
		}

		e.keywords = append(e.keywords, k)
	}

	// Longest token first; declaration order breaks ties.
	sort.SliceStable(e.keywords, func(i, j int) bool {
		return len(e.keywords[i].Token) > len(e.keywords[j].Token)
	})

	return e, nil
}

// Keywords returns the keywords in replacement order.
func (e *Engine) Keywords() []Keyword {
	return e.keywords
}

// Table starts a fresh, row-scoped substitution table.
func (e *Engine) Table(row *sheet.Row) *Table {
	return &Table{engine: e, row: row, values: make(map[string]string)}
}

// Substitute replaces every known token in text with its value for row.
func (e *Engine) Substitute(row *sheet.Row, text string) string {
	return e.Table(row).Replace(text)
}

// =============================================================================
// SUBSTITUTION TABLE
// =============================================================================

// Table maps tokens to values for one row. Values are computed on first use
// and kept for the lifetime of the table, so a rule and its line share one
// lookup (and one warning on a miss). A Table is not safe for concurrent use.
type Table struct {
	engine *Engine
	row    *sheet.Row
	values map[string]string
}

// Value returns the value of token for the table's row.
func (t *Table) Value(token string) (string, bool) {
	for _, k := range t.engine.keywords {
		if k.Token == token {
			return t.value(k), true
		}
	}
	return "", false
}

// Replace substitutes all known tokens present in text.
func (t *Table) Replace(text string) string {
	var pairs []string
	for _, k := range t.engine.keywords {
		if !strings.Contains(text, k.Token) {
			continue
		}
		pairs = append(pairs, k.Token, t.value(k))
	}
	if len(pairs) == 0 {
		return text
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func (t *Table) value(k Keyword) string {
	if v, ok := t.values[k.Token]; ok {
		return v
	}
	v := t.engine.compute(k, t.row)
	t.values[k.Token] = v
	return v
}

// =============================================================================
// VALUE COMPUTATION
// =============================================================================

func (e *Engine) compute(k Keyword, row *sheet.Row) string {
	var raw string

	switch k.Source {
	case SourceLiteral:
		raw = k.Value

	case SourceSubtype:
		values := make([]string, len(e.subtypeFields))
		for i, f := range e.subtypeFields {
			values[i] = row.String(f)
		}
		raw = template.SubtypeToken(values...)

	case SourceRow:
		raw = formatInt(k, row.Index+1)

	case SourceRelated:
		if row.Related != nil {
			raw = formatField(k, row.Related)
		}

	case SourceLookup:
		idx := e.indexes[k.Token]
		target, found, attempted := idx.FindOptional(row.OptionalInt(k.Index))
		switch {
		case found:
			raw = formatField(k, target)
		case attempted:
			e.logger.Warn("cross-sheet lookup found no row",
				zap.String("token", k.Token),
				zap.String("sheet", row.Sheet),
				zap.Int("row", row.Index+1),
				zap.String("lookup_sheet", idx.Sheet()),
				zap.String("lookup_key", idx.Key()),
				zap.String("id", row.String(k.Index)),
			)
			if e.onMiss != nil {
				e.onMiss(k.Token, row)
			}
		}

	default:
		raw = formatField(k, row)
	}

	// Blank values from unset relations and lookups go through the
	// transforms too, so a "default" transform can fill them.
	out, _ := applyTransforms(raw, k.Transforms)
	return out
}

// formatField renders a column of row, honouring numeric formatting.
func formatField(k Keyword, row *sheet.Row) string {
	v, ok := row.Value(k.Field)
	if !ok {
		return ""
	}
	if !k.numeric() {
		return v.String()
	}
	n, ok := v.AsInt()
	if !ok {
		return ""
	}
	return formatInt(k, n)
}

// formatInt applies offset, format verb and padding to n.
func formatInt(k Keyword, n int) string {
	n += k.Offset
	switch {
	case k.Format != "":
		return fmt.Sprintf(k.Format, n)
	case k.Pad > 0:
		return fmt.Sprintf("%0*d", k.Pad, n)
	default:
		return strconv.Itoa(n)
	}
}

// =============================================================================
// UNRESOLVED TOKENS
// =============================================================================

var tokenPattern = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_.]*\}`)

// Unresolved lists brace tokens still present in text after substitution.
// Such tokens are left as literal text on purpose; callers may report them.
func Unresolved(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}
