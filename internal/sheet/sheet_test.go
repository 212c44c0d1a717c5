package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ioSheet(t *testing.T) *Sheet {
	t.Helper()
	s, err := FromTable("IO",
		[]string{"Tag", "Index", "StatusIndex", "Vented"},
		[][]string{
			{"X1", "7", "", "yes"},
			{"", "", "", ""},
			{"X2", "12.0", "0", "no"},
			{"X3", "13", "2"},
		},
		map[string]Kind{"Index": KindInt, "StatusIndex": KindOptionalInt, "Vented": KindBool},
	)
	require.NoError(t, err)
	return s
}

func TestFromTableParsesTypedColumns(t *testing.T) {
	s := ioSheet(t)

	require.Len(t, s.Rows, 3, "blank record is skipped")
	assert.Equal(t, []int{0, 1, 2}, []int{s.Rows[0].Index, s.Rows[1].Index, s.Rows[2].Index})

	n, ok := s.Rows[1].Int("Index")
	assert.True(t, ok)
	assert.Equal(t, 12, n)
	assert.Equal(t, "12", s.Rows[1].String("Index"))

	assert.True(t, s.Rows[0].Bool("Vented"))
	assert.False(t, s.Rows[1].Bool("Vented"))
	assert.False(t, s.Rows[2].Bool("Vented"), "short record pads with blanks")
	assert.Equal(t, "false", s.Rows[2].String("Vented"))
}

func TestOptionalIntPresent(t *testing.T) {
	s := ioSheet(t)

	assert.False(t, s.Rows[0].OptionalInt("StatusIndex").Present(), "blank")
	assert.False(t, s.Rows[1].OptionalInt("StatusIndex").Present(), "zero")
	assert.True(t, s.Rows[2].OptionalInt("StatusIndex").Present())
	assert.False(t, s.Rows[2].OptionalInt("Missing").Present())
	assert.Equal(t, "", s.Rows[0].String("StatusIndex"))
}

func TestFromTableErrors(t *testing.T) {
	_, err := FromTable("IO", []string{"Tag"}, nil, map[string]Kind{"Index": KindInt})
	assert.ErrorContains(t, err, `declared column "Index"`)

	_, err = FromTable("IO", []string{"Index"}, [][]string{{"abc"}}, map[string]Kind{"Index": KindInt})
	assert.ErrorContains(t, err, "not an integer")

	_, err = FromTable("IO", []string{"A", "A"}, nil, nil)
	assert.ErrorContains(t, err, "duplicate column")
}

func TestFromTableNamesBlankHeaders(t *testing.T) {
	s, err := FromTable("IO", []string{"Tag", ""}, [][]string{{"a", "b"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", s.Rows[0].String("Column_2"))
}

func TestWorkbookLink(t *testing.T) {
	io := ioSheet(t)
	alarms, err := FromTable("Alarms",
		[]string{"Name", "StatusPoint"},
		[][]string{{"A1", "X2"}, {"A2", ""}, {"A3", "NOPE"}},
		nil,
	)
	require.NoError(t, err)

	wb := NewWorkbook()
	require.NoError(t, wb.Add(io))
	require.NoError(t, wb.Add(alarms))
	assert.Error(t, wb.Add(io))

	missing, err := wb.Link(Relation{Sheet: "Alarms", Field: "StatusPoint", Target: "IO", Key: "Tag"})
	require.NoError(t, err)
	assert.Equal(t, 1, missing)

	require.NotNil(t, alarms.Rows[0].Related)
	assert.Equal(t, "X2", alarms.Rows[0].Related.String("Tag"))
	assert.Nil(t, alarms.Rows[1].Related)
	assert.Nil(t, alarms.Rows[2].Related)

	_, err = wb.Link(Relation{Sheet: "Nope", Field: "x", Target: "IO", Key: "Tag"})
	assert.True(t, errors.Is(err, ErrUnknownSheet))

	_, err = wb.Link(Relation{Sheet: "Alarms", Field: "Missing", Target: "IO", Key: "Tag"})
	assert.ErrorContains(t, err, "no such column")

	assert.Equal(t, []string{"IO", "Alarms"}, wb.Names())
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "io.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "IO"))
	require.NoError(t, f.SetSheetRow("IO", "A1", &[]interface{}{"I/O list rev 3"}))
	require.NoError(t, f.SetSheetRow("IO", "A2", &[]interface{}{"Tag", "Index"}))
	require.NoError(t, f.SetSheetRow("IO", "A3", &[]interface{}{"X1", 7}))
	require.NoError(t, f.SetSheetRow("IO", "A4", &[]interface{}{"X2", 8}))
	require.NoError(t, f.SaveAs(path))

	s, err := Load("IO", path, Options{HeaderRow: 2, Kinds: map[string]Kind{"Index": KindInt}})
	require.NoError(t, err)

	assert.Equal(t, path, s.Source)
	require.Len(t, s.Rows, 2)
	assert.Equal(t, "X2", s.Rows[1].String("Tag"))
	n, _ := s.Rows[1].Int("Index")
	assert.Equal(t, 8, n)
}

func TestLoadCSVWithEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "io.csv")
	require.NoError(t, os.WriteFile(path, []byte("Tag;Unit\nTT100;\xB0C\n"), 0644))

	s, err := Load("IO", path, Options{Delimiter: ";", Encoding: "windows-1252"})
	require.NoError(t, err)

	require.Len(t, s.Rows, 1)
	assert.Equal(t, "°C", s.Rows[0].String("Unit"))
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := Load("IO", "io.json", Options{})
	assert.ErrorContains(t, err, "unsupported source file type")
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("optional_int")
	require.NoError(t, err)
	assert.Equal(t, KindOptionalInt, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindString, k)

	_, err = ParseKind("date")
	assert.Error(t, err)
}
