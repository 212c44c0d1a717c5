// =============================================================================
// Plant Tag Generator - Character Set Handling
// =============================================================================
//
// Engineering lists arrive in whatever encoding the exporting tool used, and
// the target systems are just as inconsistent: some PLC tag importers want
// Windows-1252, most HMI symbol importers want UTF-16 with a BOM.
//
// This package maps the encoding names used in the configuration files to
// golang.org/x/text encodings and wraps readers and byte slices accordingly.
//
// =============================================================================

package charset

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultName is used when a configuration leaves the encoding blank.
const DefaultName = "utf-8"

// Lookup resolves an encoding name.
//
// Recognised names (case-insensitive):
//   - "utf-8", "utf8"                 : UTF-8 without BOM
//   - "utf-8-bom", "utf8bom"          : UTF-8 with BOM on output
//   - "utf-16", "utf-16le", "unicode" : UTF-16 little endian with BOM
//   - "utf-16be"                      : UTF-16 big endian with BOM
//   - "windows-1252", "cp1252", "ansi"
//   - "iso-8859-1", "latin1"
//
// Anything else is looked up in the IANA index.
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "utf-8-bom", "utf8bom", "utf-8bom":
		return unicode.UTF8BOM, nil
	case "utf-16", "utf-16le", "utf16", "unicode":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case "windows-1252", "cp1252", "ansi":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// NewReader returns a reader producing UTF-8 from r.
// A leading BOM overrides the configured encoding.
func NewReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// Encode converts UTF-8 text to the named encoding.
//
// RETURNS:
//   - The encoded bytes.
//   - An error if the encoding is unknown or a character cannot be
//     represented (e.g. a CJK character in Windows-1252).
func Encode(text string, name string) ([]byte, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := transform.NewWriter(&buf, enc.NewEncoder())
	if _, err := io.WriteString(w, text); err != nil {
		return nil, fmt.Errorf("failed to encode as %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode as %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
