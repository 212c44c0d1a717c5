package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the declared type of a column.
type Kind string

const (
	KindString      Kind = "string"
	KindInt         Kind = "int"
	KindOptionalInt Kind = "optional_int"
	KindBool        Kind = "bool"
)

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string", "text", "str":
		return KindString, nil
	case "int", "integer", "number":
		return KindInt, nil
	case "optional_int", "int?", "nullable_int":
		return KindOptionalInt, nil
	case "bool", "boolean", "flag":
		return KindBool, nil
	default:
		return "", fmt.Errorf("unknown column kind %q", s)
	}
}

// OptionalInt is a nullable integer. Zero and unset share one meaning:
// "feature off" (no cross reference, no timer, ...).
type OptionalInt struct {
	Value int
	Valid bool
}

// Present reports whether the value is set and greater than zero.
func (o OptionalInt) Present() bool {
	return o.Valid && o.Value > 0
}

// Value is one parsed cell.
type Value struct {
	Kind Kind

	// Text is the trimmed cell text, kept for every kind.
	Text string

	Int   int
	Valid bool
	Bool  bool
}

// String renders the value in canonical form: integers without decimals,
// unset optionals as "", booleans as "true"/"false".
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindOptionalInt:
		if !v.Valid {
			return ""
		}
		return strconv.Itoa(v.Int)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

// AsInt returns the numeric value. String columns are parsed on demand so
// keywords may format numeric text even when the column was not declared.
func (v Value) AsInt() (int, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindOptionalInt:
		return v.Int, v.Valid
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		n, err := parseInt(v.Text)
		if err != nil {
			return 0, false
		}
		return n, true
	}
}

// ParseValue parses raw cell text as the given kind.
func ParseValue(kind Kind, raw string) (Value, error) {
	text := strings.TrimSpace(raw)
	v := Value{Kind: kind, Text: text}

	switch kind {
	case KindInt:
		n, err := parseInt(text)
		if err != nil {
			return Value{}, err
		}
		v.Int, v.Valid = n, true
	case KindOptionalInt:
		if text == "" {
			return v, nil
		}
		n, err := parseInt(text)
		if err != nil {
			return Value{}, err
		}
		v.Int, v.Valid = n, true
	case KindBool:
		b, err := ParseBool(text)
		if err != nil {
			return Value{}, err
		}
		v.Bool, v.Valid = b, true
	case KindString, "":
		v.Kind = KindString
	default:
		return Value{}, fmt.Errorf("unknown column kind %q", kind)
	}

	return v, nil
}

// parseInt accepts "12" as well as spreadsheet renderings like "12.0".
func parseInt(text string) (int, error) {
	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", text)
	}
	return int(f), nil
}

// ParseBool accepts the spellings engineering sheets use for flags:
// true/false, yes/no, y/n, 1/0, x/blank and on/off.
func ParseBool(text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "yes", "y", "1", "x", "on":
		return true, nil
	case "false", "no", "n", "0", "", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", text)
	}
}
