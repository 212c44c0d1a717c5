package template

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestModelGroupsKeepDeclarationOrder(t *testing.T) {
	m := NewModel("mem")
	m.Add("DI", "", Line{Raw: "a"})
	m.Add("DI", "DI_ALARM", Line{Raw: "b"})
	m.Add("DI", "", Line{Raw: "c"})
	m.Add("AI", "", Line{Raw: "d"})

	require.Len(t, m.Groups(), 3)
	assert.Equal(t, []string{"a", "c"}, rawOf(m.Groups()[0].Lines))
	assert.Equal(t, []string{"DI", "AI"}, m.RecordTypes())
	assert.Len(t, m.Lines("DI"), 3)
}

func TestMatchingBlankSubtypeIsUniversal(t *testing.T) {
	m := NewModel("mem")
	m.Add("DI", "", Line{Raw: "any"})
	m.Add("DI", "DI_ALARM", Line{Raw: "alarm"})
	m.Add("AI", "", Line{Raw: "other"})

	assert.Len(t, m.Matching("DI", "DI_ALARM"), 2)
	assert.Len(t, m.Matching("DI", "DI_CRITICAL"), 1)
	assert.Len(t, m.Matching("DI", ""), 1)
	assert.Empty(t, m.Matching("DO", ""))
}

func TestLineText(t *testing.T) {
	assert.Equal(t, "{Tag};{Addr}", Line{Columns: []string{"{Tag}", "{Addr}"}}.Text(";"))
	assert.Equal(t, "raw {Tag}", Line{Raw: "raw {Tag}"}.Text(";"))
	assert.False(t, Line{Rule: "  "}.HasRule())
	assert.True(t, Line{Rule: "1 == 1"}.HasRule())
}

func TestParseXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plc.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Tags"))
	require.NoError(t, f.SetSheetRow("Tags", "A1", &[]interface{}{"Type", "SubType", "Rule", "Name", "Address", "Comment"}))
	require.NoError(t, f.SetSheetRow("Tags", "A2", &[]interface{}{"DI", "", "", "{Tag}", "{Addr}", "plain"}))
	require.NoError(t, f.SetSheetRow("Tags", "A3", &[]interface{}{"# disabled", "", "", "x", "y"}))
	require.NoError(t, f.SetSheetRow("Tags", "A4", &[]interface{}{"DI", "DI_ALARM", "{Priority} > 1", "{Tag}_AL"}))

	_, err := f.NewSheet("AI")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("AI", "A1", &[]interface{}{"Rule", "Raw"}))
	require.NoError(t, f.SetSheetRow("AI", "A2", &[]interface{}{"", "AI {Tag}"}))

	_, err = f.NewSheet("_notes")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("_notes", "A1", &[]interface{}{"anything"}))
	require.NoError(t, f.SaveAs(path))

	m, err := Load(dir, "plc.xlsx")
	require.NoError(t, err)

	assert.Equal(t, path, m.Source)
	require.Len(t, m.Groups(), 3)

	di := m.Groups()[0]
	assert.Equal(t, "DI", di.RecordType)
	assert.Equal(t, []string{"{Tag}", "{Addr}"}, di.Lines[0].Columns)

	alarm := m.Groups()[1]
	assert.Equal(t, "DI_ALARM", alarm.SubType)
	assert.Equal(t, "{Priority} > 1", alarm.Lines[0].Rule)
	assert.Equal(t, []string{"{Tag}_AL", ""}, alarm.Lines[0].Columns, "short rows are padded to the header width")

	ai := m.Groups()[2]
	assert.Equal(t, "AI", ai.RecordType, "worksheet name is the record type")
	assert.Nil(t, ai.Lines[0].Columns)
	assert.Equal(t, "AI {Tag}", ai.Lines[0].Raw)
}

func TestParseYAML(t *testing.T) {
	doc := []byte(`
groups:
  - type: ALM
    lines:
      - columns: ["{Tag}", "{Timer}"]
      - raw: "ALIAS {Tag}"
        rule: "{Critical}"
  - type: ALM
    subtype: ALM_HIGH
    lines:
      - raw: "HIGH {Tag}"
`)
	m, err := ParseYAML("mem.yaml", doc)
	require.NoError(t, err)

	require.Len(t, m.Groups(), 2)
	assert.Equal(t, "{Critical}", m.Groups()[0].Lines[1].Rule)
	assert.Equal(t, "ALM_HIGH", m.Groups()[1].SubType)
}

func TestParseYAMLRejectsAmbiguousLine(t *testing.T) {
	_, err := ParseYAML("mem.yaml", []byte(`
groups:
  - type: ALM
    lines:
      - raw: "x"
        columns: ["y"]
`))
	assert.ErrorContains(t, err, "both columns and raw")

	_, err = ParseYAML("mem.yaml", []byte("groups:\n  - lines: []\n"))
	assert.ErrorContains(t, err, "no type")
}

func TestLoadMissingTemplateIsFatal(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing"), "plc.xlsx")
	assert.True(t, errors.Is(err, ErrTemplateNotFound))

	_, err = Load(dir, "plc.xlsx")
	assert.True(t, errors.Is(err, ErrTemplateNotFound))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "plc.json"), []byte("{}"), 0644))
	_, err = Load(dir, "plc.json")
	assert.ErrorContains(t, err, "unsupported template file type")
}

func rawOf(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Raw
	}
	return out
}

func TestSubtypeToken(t *testing.T) {
	assert.Equal(t, "DI_ALARM_CRITICAL", SubtypeToken("DI", "ALARM", "CRITICAL"))
	assert.Equal(t, "DI_CRITICAL", SubtypeToken("DI", "", "CRITICAL"))
	assert.Equal(t, "DI", SubtypeToken("DI", "", ""))
	assert.Equal(t, "", SubtypeToken("", "", ""))
	assert.Equal(t, "", SubtypeToken())
	assert.Equal(t, "A_B", SubtypeToken("_A_", "", "B__"))
}
