package validation

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/plant-tag-generator/internal/config"
	"github.com/ginjaninja78/plant-tag-generator/internal/keyword"
	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
)

const motorTemplate = `
groups:
  - type: MOTOR
    lines:
      - columns: ["{Tag}", "{Feedback}"]
      - raw: "REM {Comment}"
`

func testValidator(t *testing.T) *Validator {
	t.Helper()

	wb := sheet.NewWorkbook()
	motors, err := sheet.FromTable("Motors",
		[]string{"Tag", "Class", "FbIndex", "Spare", "Area"},
		[][]string{{"M-1", "DOL", "1", "false", "A1"}},
		map[string]sheet.Kind{"FbIndex": sheet.KindOptionalInt, "Spare": sheet.KindBool})
	require.NoError(t, err)
	require.NoError(t, wb.Add(motors))

	io, err := sheet.FromTable("IO",
		[]string{"Index", "Tag"},
		[][]string{{"1", "ZS-1"}},
		map[string]sheet.Kind{"Index": sheet.KindInt})
	require.NoError(t, err)
	require.NoError(t, wb.Add(io))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "motors.yaml"), []byte(motorTemplate), 0644))

	return NewValidator(wb, dir)
}

func motorConfig() *config.ConverterConfig {
	return &config.ConverterConfig{
		Name:      "motors",
		Template:  "motors.yaml",
		Separator: ";",
		Encoding:  "utf-8",
		Outputs: []config.OutputConfig{{
			Type:          "MOTOR",
			Sheet:         "Motors",
			SubtypeFields: []string{"Class"},
			Filter:        &config.FilterConfig{Field: "Spare", Equals: "false"},
			Keywords: []keyword.Keyword{
				{Token: "{Tag}", Field: "Tag"},
				{Token: "{Feedback}", Source: keyword.SourceLookup, Field: "Tag", Index: "FbIndex", Sheet: "IO", Key: "Index"},
				{Token: "{Comment}", Source: keyword.SourceLiteral, Value: "motor"},
			},
		}},
	}
}

func messages(result *ValidationResult) []string {
	var out []string
	for _, e := range result.Errors {
		out = append(out, e.Message)
	}
	return out
}

func TestValidateConverterClean(t *testing.T) {
	result := testValidator(t).ValidateConverter(motorConfig())

	assert.True(t, result.IsValid())
	assert.Empty(t, result.Errors)
}

func TestValidateConverterReportsBrokenReferences(t *testing.T) {
	cfg := motorConfig()
	cfg.Separator = ""
	cfg.Encoding = "klingon"
	out := &cfg.Outputs[0]
	out.SubtypeFields = []string{"Class", "Size"}
	out.Filter = &config.FilterConfig{Field: "Vented", Equals: "true"}
	out.Keywords[0].Field = "Name"
	out.Keywords[1].Key = "Idx"

	result := testValidator(t).ValidateConverter(cfg)

	assert.False(t, result.IsValid())
	assert.Equal(t, 6, result.ErrorCount, messages(result))
	assert.Contains(t, messages(result), "separator is empty")
	assert.Contains(t, messages(result), "filter field Vented not found in sheet Motors")
	assert.Contains(t, messages(result), "subtype field Size not found in sheet Motors")
	assert.Contains(t, messages(result), "keyword {Tag}: field Name not found in sheet Motors")
	assert.Contains(t, messages(result), "keyword {Feedback}: key column Idx not found in sheet IO")
}

func TestValidateConverterBoolFilterValue(t *testing.T) {
	cfg := motorConfig()
	cfg.Outputs[0].Filter.Equals = "yes"
	assert.True(t, testValidator(t).ValidateConverter(cfg).IsValid())

	cfg.Outputs[0].Filter.Equals = "maybe"
	result := testValidator(t).ValidateConverter(cfg)
	require.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, `filter value "maybe" of bool field Spare is not a boolean`, result.Errors[0].Message)
}

func TestValidateConverterUnknownSheets(t *testing.T) {
	cfg := motorConfig()
	cfg.Outputs[0].Keywords[1].Sheet = "Nope"
	cfg.Outputs = append(cfg.Outputs, config.OutputConfig{Type: "VALVE", Sheet: "Valves"})

	result := testValidator(t).ValidateConverter(cfg)

	require.Equal(t, 2, result.ErrorCount, messages(result))
	assert.Equal(t, "MOTOR", result.Errors[0].Output)
	assert.Equal(t, "VALVE", result.Errors[1].Output)
}

func TestValidateConverterMissingTemplate(t *testing.T) {
	cfg := motorConfig()
	cfg.Template = "pumps.yaml"

	result := testValidator(t).ValidateConverter(cfg)

	require.Equal(t, 1, result.ErrorCount)
	assert.Contains(t, result.Errors[0].Message, "template not found")
}

func TestValidateConverterWarnings(t *testing.T) {
	cfg := motorConfig()
	cfg.Outputs[0].Keywords = cfg.Outputs[0].Keywords[:2]
	cfg.Outputs = append(cfg.Outputs, config.OutputConfig{
		Type:   "PUMP",
		Sheet:  "Motors",
		Filter: &config.FilterConfig{Field: "Area", Equals: "A1"},
	})

	result := testValidator(t).ValidateConverter(cfg)

	assert.True(t, result.IsValid())
	assert.Equal(t, 3, result.WarningCount)
	assert.Equal(t, []string{
		"template token {Comment} is not declared and will be left as is",
		"filter field Area is not declared bool in sheet Motors",
		"template motors.yaml has no lines for type PUMP",
	}, messages(result))
}

func TestValidateConverterKeywordErrors(t *testing.T) {
	cfg := motorConfig()
	cfg.Outputs[0].Keywords = append(cfg.Outputs[0].Keywords,
		keyword.Keyword{Token: "{Tag}", Field: "Tag"})

	result := testValidator(t).ValidateConverter(cfg)

	require.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, "keyword {Tag} defined twice", result.Errors[0].Message)
}

func TestValidateAllAndReport(t *testing.T) {
	bad := motorConfig()
	bad.Name = "broken"
	bad.Separator = ""

	result := testValidator(t).ValidateAll([]*config.ConverterConfig{motorConfig(), bad})

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, result))
	assert.Equal(t, "[ERROR] broken: separator is empty\n\n1 error(s), 0 warning(s)\n", buf.String())
}
