package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/plant-tag-generator/internal/lookup"
	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
)

func alarmSheet(t *testing.T) *sheet.Sheet {
	t.Helper()
	s, err := sheet.FromTable("Alarms",
		[]string{"Tag", "Addr", "Index", "StatusPoint", "Class", "Level"},
		[][]string{
			{"X1", "I0.0", "7", "1", "DI", "ALARM"},
			{"X2", "I0.1", "12", "0", "DI", ""},
			{"X3", "I0.2", "13", "42", "AI", "HIGH"},
		},
		map[string]sheet.Kind{"Index": sheet.KindInt, "StatusPoint": sheet.KindOptionalInt},
	)
	require.NoError(t, err)
	return s
}

func pointResolver(t *testing.T) IndexResolver {
	t.Helper()
	points, err := sheet.FromTable("Points",
		[]string{"Number", "Name"},
		[][]string{{"1", "PT-100"}, {"2", "PT-200"}},
		map[string]sheet.Kind{"Number": sheet.KindInt},
	)
	require.NoError(t, err)
	return func(sheetName, key string) (*lookup.Index, error) {
		return lookup.New(points, key)
	}
}

func TestSubstituteFields(t *testing.T) {
	e, err := NewEngine([]Keyword{
		{Token: "{Tag}", Field: "Tag"},
		{Token: "{Addr}", Field: "Addr"},
	}, nil)
	require.NoError(t, err)

	row := alarmSheet(t).Rows[0]
	assert.Equal(t, "X1=I0.0", e.Substitute(row, "{Tag}={Addr}"))
	assert.Equal(t, "{Foo} X1", e.Substitute(row, "{Foo} {Tag}"), "unknown tokens are left in place")
	assert.Equal(t, "no tokens", e.Substitute(row, "no tokens"))
}

func TestNumericFormatting(t *testing.T) {
	e, err := NewEngine([]Keyword{
		{Token: "{Idx}", Field: "Index", Pad: 3},
		{Token: "{Timer}", Field: "Index", Offset: 500},
		{Token: "{Long}", Field: "Index", Offset: 10000, Format: "%05d"},
		{Token: "{Line}", Source: SourceRow, Pad: 2},
	}, nil)
	require.NoError(t, err)

	rows := alarmSheet(t).Rows
	assert.Equal(t, "007", e.Substitute(rows[0], "{Idx}"))
	assert.Equal(t, "512", e.Substitute(rows[1], "{Timer}"))
	assert.Equal(t, "10012", e.Substitute(rows[1], "{Long}"))
	assert.Equal(t, "03", e.Substitute(rows[2], "{Line}"))
}

func TestLookupZeroOrUnsetIsBlankWithoutLookup(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	misses := 0

	e, err := NewEngine([]Keyword{
		{Token: "{Status}", Source: SourceLookup, Field: "Name", Index: "StatusPoint", Sheet: "Points", Key: "Number"},
	}, pointResolver(t),
		WithLogger(zap.New(core)),
		WithMissHandler(func(string, *sheet.Row) { misses++ }),
	)
	require.NoError(t, err)

	rows := alarmSheet(t).Rows
	assert.Equal(t, "PT-100", e.Substitute(rows[0], "{Status}"))
	assert.Equal(t, "", e.Substitute(rows[1], "{Status}"))
	assert.Equal(t, 0, logs.Len())
	assert.Equal(t, 0, misses)
}

func TestLookupMissWarnsAndBlanks(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var missed []string

	e, err := NewEngine([]Keyword{
		{Token: "{Status}", Source: SourceLookup, Field: "Name", Index: "StatusPoint", Sheet: "Points", Key: "Number"},
	}, pointResolver(t),
		WithLogger(zap.New(core)),
		WithMissHandler(func(token string, _ *sheet.Row) { missed = append(missed, token) }),
	)
	require.NoError(t, err)

	table := e.Table(alarmSheet(t).Rows[2])
	assert.Equal(t, "[]", table.Replace("[{Status}]"))
	assert.Equal(t, "x", table.Replace("x{Status}"), "values are cached per row")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "cross-sheet lookup found no row", entry.Message)
	assert.Equal(t, "42", entry.ContextMap()["id"])
	assert.Equal(t, []string{"{Status}"}, missed)
}

func TestRelatedBlankWhenUnlinked(t *testing.T) {
	e, err := NewEngine([]Keyword{{Token: "{Rel}", Source: SourceRelated, Field: "Tag"}}, nil)
	require.NoError(t, err)

	rows := alarmSheet(t).Rows
	rows[0].Related = rows[2]
	assert.Equal(t, "X3", e.Substitute(rows[0], "{Rel}"))
	assert.Equal(t, "", e.Substitute(rows[1], "{Rel}"))
}

func TestDefaultTransformFillsBlankLookupsAndRelations(t *testing.T) {
	e, err := NewEngine([]Keyword{
		{Token: "{Status}", Source: SourceLookup, Field: "Name", Index: "StatusPoint", Sheet: "Points", Key: "Number",
			Transforms: []Transform{{Type: "default", Value: "NONE"}}},
		{Token: "{Rel}", Source: SourceRelated, Field: "Tag",
			Transforms: []Transform{{Type: "default", Value: "-"}}},
	}, pointResolver(t))
	require.NoError(t, err)

	rows := alarmSheet(t).Rows
	rows[0].Related = rows[2]
	assert.Equal(t, "PT-100/X3", e.Substitute(rows[0], "{Status}/{Rel}"))
	assert.Equal(t, "NONE/-", e.Substitute(rows[1], "{Status}/{Rel}"), "lookup not attempted, relation unset")
	assert.Equal(t, "NONE/-", e.Substitute(rows[2], "{Status}/{Rel}"), "lookup miss")
}

func TestLongestTokenWins(t *testing.T) {
	e, err := NewEngine([]Keyword{
		{Token: "{Tag}", Field: "Tag"},
		{Token: "{Tag}Alias", Source: SourceLiteral, Value: "ALIAS"},
	}, nil)
	require.NoError(t, err)

	row := alarmSheet(t).Rows[0]
	assert.Equal(t, "ALIAS X1", e.Substitute(row, "{Tag}Alias {Tag}"))
	assert.Equal(t, "{Tag}Alias", e.Keywords()[0].Token)
}

func TestSubtypeAndLiteral(t *testing.T) {
	e, err := NewEngine([]Keyword{
		{Token: "{SubType}", Source: SourceSubtype},
		{Token: "{Plant}", Source: SourceLiteral, Value: "P1"},
	}, nil, WithSubtypeFields([]string{"Class", "Level"}))
	require.NoError(t, err)

	rows := alarmSheet(t).Rows
	assert.Equal(t, "P1/DI_ALARM", e.Substitute(rows[0], "{Plant}/{SubType}"))
	assert.Equal(t, "P1/DI", e.Substitute(rows[1], "{Plant}/{SubType}"))
}

func TestTransformsChain(t *testing.T) {
	e, err := NewEngine([]Keyword{
		{Token: "{Tag}", Field: "Tag", Transforms: []Transform{
			{Type: "lower"},
			{Type: "prepend", Value: "dev_"},
			{Type: "map", Map: map[string]string{"dev_x2": "spare"}},
		}},
	}, nil)
	require.NoError(t, err)

	rows := alarmSheet(t).Rows
	assert.Equal(t, "dev_x1", e.Substitute(rows[0], "{Tag}"))
	assert.Equal(t, "spare", e.Substitute(rows[1], "{Tag}"))
}

func TestNewEngineRejectsBadKeywords(t *testing.T) {
	cases := map[string][]Keyword{
		"empty token":    {{Field: "Tag"}},
		"duplicate":      {{Token: "{A}", Field: "Tag"}, {Token: "{A}", Field: "Addr"}},
		"no field":       {{Token: "{A}"}},
		"unknown source": {{Token: "{A}", Source: "magic"}},
		"lookup parts":   {{Token: "{A}", Source: SourceLookup, Field: "Name"}},
		"bad transform":  {{Token: "{A}", Field: "Tag", Transforms: []Transform{{Type: "rot13"}}}},
		"bad pad":        {{Token: "{A}", Field: "Tag", Transforms: []Transform{{Type: "pad_zeros", Value: "x"}}}},
		"string verb":    {{Token: "{A}", Field: "Index", Format: "%s"}},
		"two verbs":      {{Token: "{A}", Field: "Index", Format: "%d-%d"}},
	}
	for name, kws := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewEngine(kws, pointResolver(t))
			assert.Error(t, err)
		})
	}
}

func TestApplyTransforms(t *testing.T) {
	tests := []struct {
		tr   Transform
		in   string
		want string
	}{
		{Transform{Type: "append", Value: "-00"}, "123", "123-00"},
		{Transform{Type: "trim"}, "  a ", "a"},
		{Transform{Type: "upper"}, "ab", "AB"},
		{Transform{Type: "replace", Find: "-", Value: "_"}, "a-b-c", "a_b_c"},
		{Transform{Type: "regex_replace", Find: "[A-Z]+", Value: "X"}, "ABC-123-DEF", "X-123-X"},
		{Transform{Type: "substring", Value: "2,5"}, "ABCDEFGH", "CDE"},
		{Transform{Type: "substring", Value: "6,20"}, "ABCDEFGH", "GH"},
		{Transform{Type: "pad_zeros", Value: "8"}, "123", "00000123"},
		{Transform{Type: "pad_spaces", Value: "4"}, "ab", "ab  "},
		{Transform{Type: "ensure_length", Value: "3"}, "12345", "123"},
		{Transform{Type: "remove_leading_zeros"}, "000", "0"},
		{Transform{Type: "extract_digits"}, "AB-12-C3", "123"},
		{Transform{Type: "map_with_default", Value: "?", Map: map[string]string{"1": "one"}}, "2", "?"},
		{Transform{Type: "default", Value: "N/A"}, " ", "N/A"},
	}
	for _, tt := range tests {
		got, err := tt.tr.Apply(tt.in)
		require.NoError(t, err, tt.tr.Type)
		assert.Equal(t, tt.want, got, tt.tr.Type)
	}
}

func TestUnresolved(t *testing.T) {
	assert.Equal(t, []string{"{Foo}", "{Bar.Baz}"}, Unresolved("a {Foo} b {Bar.Baz} {1x}"))
	assert.Empty(t, Unresolved("plain"))
}
