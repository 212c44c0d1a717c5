// =============================================================================
// Plant Tag Generator - Keyword Value Transforms
// =============================================================================
//
// Transforms post-process a keyword value after it was read and formatted.
// A keyword may chain several; they run in declaration order.
//
// SUPPORTED TRANSFORMS:
//   - prepend / append          : add Value before / after
//   - trim, trim_left, trim_right
//   - upper / lower
//   - replace                   : replace Find with Value
//   - regex_replace             : replace regexp Find with Value
//   - substring                 : Value "start,end" (0-based, end exclusive)
//   - pad_zeros                 : left-pad with zeros to length Value
//   - pad_spaces                : right-pad with spaces to length Value
//   - ensure_length             : truncate or zero-pad to length Value
//   - remove_leading_zeros
//   - extract_digits
//   - map                       : replace through the Map table, else keep
//   - map_with_default          : replace through the Map table, else Value
//   - default                   : use Value when the value is blank
//
// =============================================================================

package keyword

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Transform is one post-processing step of a keyword value.
type Transform struct {
	Type  string            `yaml:"type"`
	Value string            `yaml:"value"`
	Find  string            `yaml:"find"`
	Map   map[string]string `yaml:"map"`
}

var digitsPattern = regexp.MustCompile(`\d+`)

// validate checks the transform before any row is processed, so a bad
// configuration fails the converter instead of every line.
func (t Transform) validate() error {
	switch t.Type {
	case "prepend", "append", "trim", "trim_left", "trim_right", "upper", "lower",
		"replace", "remove_leading_zeros", "extract_digits", "map", "map_with_default", "default":
		return nil
	case "regex_replace":
		if _, err := regexp.Compile(t.Find); err != nil {
			return fmt.Errorf("transform regex_replace: invalid pattern: %w", err)
		}
		return nil
	case "substring":
		if _, _, err := substringBounds(t.Value); err != nil {
			return fmt.Errorf("transform substring: %w", err)
		}
		return nil
	case "pad_zeros", "pad_spaces", "ensure_length":
		if n, err := strconv.Atoi(t.Value); err != nil || n <= 0 {
			return fmt.Errorf("transform %s: length must be a positive integer, got %q", t.Type, t.Value)
		}
		return nil
	default:
		return fmt.Errorf("unknown transform type: %s", t.Type)
	}
}

// applyTransforms runs the chain over value.
func applyTransforms(value string, chain []Transform) (string, error) {
	result := value
	for _, t := range chain {
		var err error
		result, err = t.Apply(result)
		if err != nil {
			return value, fmt.Errorf("transform '%s' failed: %w", t.Type, err)
		}
	}
	return result, nil
}

// Apply runs a single transform.
//
// PARAMETERS:
//   - value: The current value.
//
// RETURNS:
//   - The transformed value.
//   - An error for unknown or misconfigured transforms.
func (t Transform) Apply(value string) (string, error) {
	switch t.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend":
		return t.Value + value, nil

	case "append":
		return value + t.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "trim_left":
		if t.Value != "" {
			return strings.TrimLeft(value, t.Value), nil
		}
		return strings.TrimLeft(value, " \t\n\r"), nil

	case "trim_right":
		if t.Value != "" {
			return strings.TrimRight(value, t.Value), nil
		}
		return strings.TrimRight(value, " \t\n\r"), nil

	case "upper":
		return strings.ToUpper(value), nil

	case "lower":
		return strings.ToLower(value), nil

	case "replace":
		if t.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, t.Find, t.Value), nil

	case "regex_replace":
		if t.Find == "" {
			return value, nil
		}
		re, err := regexp.Compile(t.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		return re.ReplaceAllString(value, t.Value), nil

	case "substring":
		start, end, err := substringBounds(t.Value)
		if err != nil {
			return "", err
		}
		if end > len(value) {
			end = len(value)
		}
		if start >= end {
			return "", nil
		}
		return value[start:end], nil

	// =========================================================================
	// LENGTH AND NUMBERS
	// =========================================================================

	case "pad_zeros":
		n, err := strconv.Atoi(t.Value)
		if err != nil {
			return "", fmt.Errorf("invalid length %q", t.Value)
		}
		return PadLeft(value, n, '0'), nil

	case "pad_spaces":
		n, err := strconv.Atoi(t.Value)
		if err != nil {
			return "", fmt.Errorf("invalid length %q", t.Value)
		}
		return PadRight(value, n, ' '), nil

	case "ensure_length":
		n, err := strconv.Atoi(t.Value)
		if err != nil {
			return "", fmt.Errorf("invalid length %q", t.Value)
		}
		if len(value) > n {
			return value[:n], nil
		}
		return PadLeft(value, n, '0'), nil

	case "remove_leading_zeros":
		result := strings.TrimLeft(value, "0")
		if result == "" && value != "" {
			return "0", nil
		}
		return result, nil

	case "extract_digits":
		return strings.Join(digitsPattern.FindAllString(value, -1), ""), nil

	// =========================================================================
	// TABLES AND DEFAULTS
	// =========================================================================

	case "map":
		if replacement, ok := t.Map[value]; ok {
			return replacement, nil
		}
		return value, nil

	case "map_with_default":
		if replacement, ok := t.Map[value]; ok {
			return replacement, nil
		}
		return t.Value, nil

	case "default":
		if strings.TrimSpace(value) == "" {
			return t.Value, nil
		}
		return value, nil

	default:
		return "", fmt.Errorf("unknown transform type: %s", t.Type)
	}
}

func substringBounds(bounds string) (int, int, error) {
	parts := strings.Split(bounds, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"start,end\", got %q", bounds)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("invalid start in %q", bounds)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || end < start {
		return 0, 0, fmt.Errorf("invalid end in %q", bounds)
	}
	return start, end, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads s on the left with padChar up to length bytes.
func PadLeft(s string, length int, padChar rune) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-len(s)) + s
}

// PadRight pads s on the right with padChar up to length bytes.
func PadRight(s string, length int, padChar rune) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(string(padChar), length-len(s))
}
