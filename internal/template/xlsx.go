// =============================================================================
// Plant Tag Generator - XLSX Template Parser
// =============================================================================
//
// Every worksheet of a template workbook contributes lines to the model.
// The first row of a worksheet is the header; control columns are found by
// name (case-insensitive), every other column is an output segment:
//
//   | Column   | Meaning                                                  |
//   |----------|----------------------------------------------------------|
//   | Type     | Record type. If the column is absent, the worksheet name |
//   | SubType  | Optional subtype token                                   |
//   | Rule     | Optional inclusion rule                                  |
//   | Raw      | Complete line text; when present, segments are ignored   |
//   | Comment  | Ignored                                                  |
//   | (other)  | Output segments, in column order                         |
//
// Worksheets whose name starts with "_" are skipped, as are rows whose Type
// starts with "#".
//
// =============================================================================

package template

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// columnLayout records where the control columns of a worksheet are.
// A value of -1 means "absent".
type columnLayout struct {
	typeCol    int
	subTypeCol int
	ruleCol    int
	rawCol     int
	segments   []int
}

// ParseXLSX reads a template workbook.
func ParseXLSX(path string) (*Model, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer f.Close()

	model := NewModel(path)

	for _, sheetName := range f.GetSheetList() {
		if strings.HasPrefix(sheetName, "_") {
			continue
		}

		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read worksheet %s: %w", sheetName, err)
		}

		if err := parseWorksheet(model, sheetName, rows); err != nil {
			return nil, fmt.Errorf("error parsing worksheet '%s': %w", sheetName, err)
		}
	}

	return model, nil
}

// parseWorksheet adds the lines of one worksheet to the model.
func parseWorksheet(model *Model, sheetName string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	layout := detectLayout(rows[0])
	if layout.rawCol < 0 && len(layout.segments) == 0 {
		return fmt.Errorf("header has neither a Raw column nor segment columns")
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		getCell := func(index int) string {
			if index >= 0 && index < len(row) {
				return row[index]
			}
			return ""
		}

		recordType := sheetName
		if layout.typeCol >= 0 {
			recordType = strings.TrimSpace(getCell(layout.typeCol))
		}
		if recordType == "" || strings.HasPrefix(recordType, "#") {
			continue
		}

		line := Line{Rule: strings.TrimSpace(getCell(layout.ruleCol))}
		if layout.rawCol >= 0 {
			line.Raw = getCell(layout.rawCol)
		} else {
			line.Columns = make([]string, len(layout.segments))
			for j, col := range layout.segments {
				line.Columns[j] = getCell(col)
			}
		}

		model.Add(recordType, getCell(layout.subTypeCol), line)
	}

	return nil
}

// detectLayout maps header names to column positions.
func detectLayout(header []string) columnLayout {
	layout := columnLayout{typeCol: -1, subTypeCol: -1, ruleCol: -1, rawCol: -1}

	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "type", "recordtype", "record type":
			layout.typeCol = i
		case "subtype", "sub type", "sub_type":
			layout.subTypeCol = i
		case "rule", "condition":
			layout.ruleCol = i
		case "raw", "text", "line":
			layout.rawCol = i
		case "comment", "comments", "note":
		default:
			layout.segments = append(layout.segments, i)
		}
	}

	return layout
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
