// =============================================================================
// Plant Tag Generator - Sheet Loaders
// =============================================================================
//
// Sheets are loaded either from an XLSX workbook (one worksheet per sheet)
// or from a delimited text export. Both loaders end in FromTable, so typed
// parsing and blank-row handling are identical for the two formats.
//
// =============================================================================

package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/plant-tag-generator/internal/charset"
	"github.com/xuri/excelize/v2"
)

// Options controls how a file is turned into a sheet.
type Options struct {
	// Worksheet is the XLSX worksheet to read. Default: the first one.
	Worksheet string

	// HeaderRow is the 1-based row holding column names. Default: 1.
	// Data starts on the row after it.
	HeaderRow int

	// Delimiter separates fields in text exports. Default: ",".
	Delimiter string

	// Encoding of text exports. Default: UTF-8 (a BOM always wins).
	Encoding string

	// Kinds declares typed columns; everything else is a string.
	Kinds map[string]Kind
}

// Load reads a sheet, choosing the loader by file extension.
//
// PARAMETERS:
//   - name: The logical sheet name used by converters.
//   - path: The source file (.xlsx, .xlsm, .csv, .txt, .tsv).
//   - opts: Loader options.
//
// RETURNS:
//   - The loaded sheet.
//   - An error if the file cannot be read or a typed cell does not parse.
func Load(name, path string, opts Options) (*Sheet, error) {
	if opts.HeaderRow <= 0 {
		opts.HeaderRow = 1
	}

	var (
		s   *Sheet
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		s, err = LoadXLSX(name, path, opts)
	case ".csv", ".txt", ".tsv":
		if opts.Delimiter == "" && strings.EqualFold(filepath.Ext(path), ".tsv") {
			opts.Delimiter = "\t"
		}
		s, err = LoadCSV(name, path, opts)
	default:
		return nil, fmt.Errorf("unsupported source file type: %s", path)
	}
	if err != nil {
		return nil, err
	}

	s.Source = path
	return s, nil
}

// LoadXLSX reads one worksheet of an XLSX workbook.
func LoadXLSX(name, path string, opts Options) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	worksheet := opts.Worksheet
	if worksheet == "" {
		worksheet = f.GetSheetName(0)
	}
	if worksheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(worksheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", worksheet, err)
	}

	return fromRecords(name, rows, opts)
}

// LoadCSV reads a delimited text export.
func LoadCSV(name, path string, opts Options) (*Sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader, err := charset.NewReader(file, opts.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiterRune(opts.Delimiter)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return fromRecords(name, records, opts)
}

// fromRecords splits header and data according to opts.HeaderRow.
func fromRecords(name string, records [][]string, opts Options) (*Sheet, error) {
	headerIndex := opts.HeaderRow - 1
	if headerIndex < 0 {
		headerIndex = 0
	}
	if headerIndex >= len(records) {
		return nil, fmt.Errorf("sheet %s: header row %d not found", name, opts.HeaderRow)
	}
	return FromTable(name, records[headerIndex], records[headerIndex+1:], opts.Kinds)
}

// delimiterRune maps configuration spellings to the reader's rune.
func delimiterRune(d string) rune {
	switch d {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "pipe", "PIPE":
		return '|'
	case "semicolon":
		return ';'
	case "":
		return ','
	default:
		return []rune(d)[0]
	}
}
