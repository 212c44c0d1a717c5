package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
)

func pointSheet(t *testing.T) *sheet.Sheet {
	t.Helper()
	s, err := sheet.FromTable("Points",
		[]string{"Number", "Tag"},
		[][]string{{"1", "PT-100"}, {"2", "PT-200"}, {"2", "DUPLICATE"}, {"", "NO-KEY"}},
		map[string]sheet.Kind{"Number": sheet.KindOptionalInt},
	)
	require.NoError(t, err)
	return s
}

func TestFind(t *testing.T) {
	idx, err := New(pointSheet(t), "Number")
	require.NoError(t, err)

	row, ok := idx.FindInt(2)
	require.True(t, ok)
	assert.Equal(t, "PT-200", row.String("Tag"), "first row wins")

	_, ok = idx.Find("99")
	assert.False(t, ok)

	row, ok = idx.Find(" 1 ")
	require.True(t, ok)
	assert.Equal(t, "PT-100", row.String("Tag"))

	assert.Equal(t, "Points", idx.Sheet())
	assert.Equal(t, "Number", idx.Key())
}

func TestFindOptionalZeroOrUnsetNeverLooksUp(t *testing.T) {
	idx, err := New(pointSheet(t), "Number")
	require.NoError(t, err)

	for _, id := range []sheet.OptionalInt{{}, {Value: 0, Valid: true}, {Value: -3, Valid: true}} {
		row, found, attempted := idx.FindOptional(id)
		assert.Nil(t, row)
		assert.False(t, found)
		assert.False(t, attempted)
	}

	row, found, attempted := idx.FindOptional(sheet.OptionalInt{Value: 1, Valid: true})
	assert.True(t, attempted)
	assert.True(t, found)
	assert.Equal(t, "PT-100", row.String("Tag"))

	_, found, attempted = idx.FindOptional(sheet.OptionalInt{Value: 42, Valid: true})
	assert.True(t, attempted)
	assert.False(t, found)
}

func TestNewRejectsUnknownKey(t *testing.T) {
	_, err := New(pointSheet(t), "Nope")
	assert.ErrorContains(t, err, "no such column")
}
