package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTemplateNotFound is returned when the template directory or file does
// not exist. Converters treat it as fatal.
var ErrTemplateNotFound = errors.New("template not found")

// Load reads a template from dir/name, choosing the parser by extension
// (.xlsx/.xlsm workbook, .yaml/.yml document).
//
// RETURNS:
//   - The loaded model.
//   - ErrTemplateNotFound (wrapped) if the directory or file is missing.
//   - A parse error otherwise.
func Load(dir, name string) (*Model, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: directory %s does not exist", ErrTemplateNotFound, dir)
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("failed to access template %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(path)
	case ".yaml", ".yml":
		return ParseYAMLFile(path)
	default:
		return nil, fmt.Errorf("unsupported template file type: %s", path)
	}
}
