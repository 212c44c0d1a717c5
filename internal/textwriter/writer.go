// =============================================================================
// Plant Tag Generator - Text Writer Module
// =============================================================================
//
// This module turns generated lines into target files. Target systems are
// picky about bytes on disk, so the writer controls:
//   - the character encoding (utf-8, utf-8-bom, utf-16, windows-1252, ...)
//   - the line terminator (CRLF or LF), written after every line
//
// FILE LAYOUT:
//   A converter either writes one file holding all output types in
//   declaration order, or (split_by_type) one file per output type. Empty
//   output types produce no file when splitting.
//
// Files are written to a temporary name and renamed into place, so a reader
// never sees a half-written file.
//
// =============================================================================

package textwriter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/plant-tag-generator/internal/charset"
)

// =============================================================================
// DOCUMENTS
// =============================================================================

// Section is the output of one output type.
type Section struct {
	Type  string
	Lines []string
}

// Document is one target file before encoding.
type Document struct {
	// Type is the output type of a split document, or "all".
	Type  string
	Lines []string
}

// AllTypes names a document holding every output type.
const AllTypes = "all"

// Arrange groups sections into documents.
//
// PARAMETERS:
//   - sections: Output sections in declaration order.
//   - split: One document per non-empty section instead of one overall.
//
// RETURNS:
//   - The documents in declaration order.
func Arrange(sections []Section, split bool) []Document {
	if !split {
		var lines []string
		for _, s := range sections {
			lines = append(lines, s.Lines...)
		}
		return []Document{{Type: AllTypes, Lines: lines}}
	}

	var docs []Document
	for _, s := range sections {
		if len(s.Lines) == 0 {
			continue
		}
		docs = append(docs, Document{Type: s.Type, Lines: s.Lines})
	}
	return docs
}

// =============================================================================
// WRITER
// =============================================================================

// Options contains options for text rendering.
type Options struct {
	// Encoding is a charset name. Default: "utf-8"
	Encoding string

	// LineSeparator terminates every line. Default: "\r\n"
	LineSeparator string
}

// Writer renders and writes documents.
type Writer struct {
	opts Options
}

// New creates a writer, rejecting unknown encodings up front.
func New(opts Options) (*Writer, error) {
	if opts.Encoding == "" {
		opts.Encoding = charset.DefaultName
	}
	if opts.LineSeparator == "" {
		opts.LineSeparator = "\r\n"
	}
	if _, err := charset.Lookup(opts.Encoding); err != nil {
		return nil, err
	}
	return &Writer{opts: opts}, nil
}

// Render joins lines with the line separator and encodes the result.
func (w *Writer) Render(lines []string) ([]byte, error) {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString(w.opts.LineSeparator)
	}
	data, err := charset.Encode(b.String(), w.opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	return data, nil
}

// WriteFile renders lines into path.
//
// RETURNS:
//   - The number of bytes written.
//   - An error if encoding or writing fails.
func (w *Writer) WriteFile(path string, lines []string) (int, error) {
	data, err := w.Render(lines)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to set output file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to move output file into place: %w", err)
	}

	return len(data), nil
}
