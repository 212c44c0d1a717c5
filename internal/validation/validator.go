// =============================================================================
// Plant Tag Generator - Configuration Validation
// =============================================================================
//
// This module checks converter definitions against the loaded workbook and
// the templates directory before anything is generated. It backs the
// "validate" command and can be used as a pre-flight step by "generate".
//
// CHECKS PER CONVERTER:
//   - The template file exists and parses
//   - The separator is not empty
//   - The output encoding is known
//   - Every output sheet exists
//   - Keyword fields and index columns exist in the output sheet
//   - Lookup sheets and their key columns exist
//   - Filter and subtype fields exist, filter fields are bool (warning)
//   - Template lines only use tokens the output declares (warning)
//   - The template has lines for every output type (warning)
//
// ERROR HANDLING:
//   - Problems are collected, not returned one at a time
//   - "error" findings make a converter unusable
//   - "warning" findings are reported and generation continues
//
// =============================================================================

package validation

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ginjaninja78/plant-tag-generator/internal/charset"
	"github.com/ginjaninja78/plant-tag-generator/internal/config"
	"github.com/ginjaninja78/plant-tag-generator/internal/keyword"
	"github.com/ginjaninja78/plant-tag-generator/internal/lookup"
	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
	"github.com/ginjaninja78/plant-tag-generator/internal/template"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Converter is the converter name.
	Converter string

	// Output is the output type, blank for converter-level findings.
	Output string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	where := e.Converter
	if e.Output != "" {
		where += "/" + e.Output
	}
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), where, e.Message)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the findings of one or more converters.
type ValidationResult struct {
	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	// ErrorCount is the number of findings with SeverityError.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int
}

// IsValid is true if there are no errors.
func (r *ValidationResult) IsValid() bool { return r.ErrorCount == 0 }

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
	} else {
		r.WarningCount++
	}
}

// Merge appends the findings of other.
func (r *ValidationResult) Merge(other *ValidationResult) {
	for _, e := range other.Errors {
		r.add(e)
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks converter definitions.
type Validator struct {
	workbook     *sheet.Workbook
	templatesDir string
}

// NewValidator creates a Validator for a loaded workbook.
func NewValidator(workbook *sheet.Workbook, templatesDir string) *Validator {
	return &Validator{workbook: workbook, templatesDir: templatesDir}
}

// ValidateAll validates every converter.
func (v *Validator) ValidateAll(configs []*config.ConverterConfig) *ValidationResult {
	result := &ValidationResult{}
	for _, cfg := range configs {
		result.Merge(v.ValidateConverter(cfg))
	}
	return result
}

// ValidateConverter validates one converter definition.
//
// PARAMETERS:
//   - cfg: The converter definition, with defaults applied.
//
// RETURNS:
//   - The findings, empty when the converter is usable as configured.
func (v *Validator) ValidateConverter(cfg *config.ConverterConfig) *ValidationResult {
	result := &ValidationResult{}
	report := func(severity, output, format string, args ...interface{}) {
		result.add(&ValidationError{
			Severity:  severity,
			Converter: cfg.Name,
			Output:    output,
			Message:   fmt.Sprintf(format, args...),
		})
	}

	if cfg.Separator == "" {
		report(SeverityError, "", "separator is empty")
	}
	if _, err := charset.Lookup(cfg.Encoding); err != nil {
		report(SeverityError, "", "%v", err)
	}

	model, err := template.Load(v.templatesDir, cfg.Template)
	if err != nil {
		report(SeverityError, "", "template: %v", err)
	}

	for _, oc := range cfg.Outputs {
		s, err := v.workbook.Sheet(oc.Sheet)
		if err != nil {
			report(SeverityError, oc.Type, "%v", err)
			continue
		}

		v.checkFields(s, oc,
			func(format string, args ...interface{}) { report(SeverityError, oc.Type, format, args...) },
			func(format string, args ...interface{}) { report(SeverityWarning, oc.Type, format, args...) },
		)

		if model == nil {
			continue
		}
		recordType := oc.RecordType
		if recordType == "" {
			recordType = oc.Type
		}
		lines := model.Lines(recordType)
		if len(lines) == 0 {
			report(SeverityWarning, oc.Type, "template %s has no lines for type %s", cfg.Template, recordType)
		}
		for _, token := range undeclaredTokens(oc, lines) {
			report(SeverityWarning, oc.Type, "template token %s is not declared and will be left as is", token)
		}
	}

	return result
}

// checkFields reports every column reference of oc that sheet s or the
// referenced lookup sheets do not have.
func (v *Validator) checkFields(s *sheet.Sheet, oc config.OutputConfig, fail, warn func(format string, args ...interface{})) {
	has := func(name string) bool {
		_, ok := s.Column(name)
		return ok
	}

	if oc.Filter != nil {
		if col, ok := s.Column(oc.Filter.Field); !ok {
			fail("filter field %s not found in sheet %s", oc.Filter.Field, s.Name)
		} else if col.Kind != sheet.KindBool {
			warn("filter field %s is not declared bool in sheet %s", oc.Filter.Field, s.Name)
		} else if _, err := sheet.ParseBool(oc.Filter.Equals); err != nil {
			fail("filter value %q of bool field %s is not a boolean", oc.Filter.Equals, oc.Filter.Field)
		}
	}
	for _, f := range oc.SubtypeFields {
		if !has(f) {
			fail("subtype field %s not found in sheet %s", f, s.Name)
		}
	}

	for _, k := range oc.Keywords {
		source := k.Source
		if source == "" {
			source = keyword.SourceField
		}
		switch source {
		case keyword.SourceField:
			if k.Field != "" && !has(k.Field) {
				fail("keyword %s: field %s not found in sheet %s", k.Token, k.Field, s.Name)
			}
		case keyword.SourceLookup:
			if k.Index != "" && !has(k.Index) {
				fail("keyword %s: index column %s not found in sheet %s", k.Token, k.Index, s.Name)
			}
			target, err := v.workbook.Sheet(k.Sheet)
			if err != nil {
				fail("keyword %s: %v", k.Token, err)
				continue
			}
			if _, ok := target.Column(k.Key); !ok {
				fail("keyword %s: key column %s not found in sheet %s", k.Token, k.Key, target.Name)
			}
			if _, ok := target.Column(k.Field); k.Field != "" && !ok {
				fail("keyword %s: field %s not found in sheet %s", k.Token, k.Field, target.Name)
			}
		}
	}

	// The engine checks the remaining keyword rules (duplicates, sources,
	// transforms). Lookup targets were checked above.
	noIndex := func(string, string) (*lookup.Index, error) { return nil, nil }
	if _, err := keyword.NewEngine(oc.Keywords, noIndex); err != nil {
		fail("%v", err)
	}
}

// undeclaredTokens lists the brace tokens used by lines that oc does not
// declare as keywords, sorted.
func undeclaredTokens(oc config.OutputConfig, lines []template.Line) []string {
	declared := make(map[string]bool, len(oc.Keywords))
	for _, k := range oc.Keywords {
		declared[k.Token] = true
	}

	found := make(map[string]bool)
	for _, l := range lines {
		for _, text := range append([]string{l.Raw, l.Rule}, l.Columns...) {
			for _, token := range keyword.Unresolved(text) {
				if !declared[token] {
					found[token] = true
				}
			}
		}
	}

	out := make([]string, 0, len(found))
	for token := range found {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// ERROR REPORTING
// =============================================================================

// FormatErrors formats findings for display, one per line.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors.\n"
	}

	var b strings.Builder
	for _, e := range errors {
		b.WriteString(e.Error())
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteReport writes the findings and a closing count line to w.
func WriteReport(w io.Writer, result *ValidationResult) error {
	_, err := fmt.Fprintf(w, "%s\n%d error(s), %d warning(s)\n",
		FormatErrors(result.Errors), result.ErrorCount, result.WarningCount)
	return err
}
