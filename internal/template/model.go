// =============================================================================
// Plant Tag Generator - Template Model
// =============================================================================
//
// A template describes, per record type, which text lines a data row turns
// into. Lines are grouped by record type and an optional subtype:
//
//   | Type | SubType      | Rule              | Col 1     | Col 2    | ... |
//   |------|--------------|-------------------|-----------|----------|-----|
//   | DI   |              |                   | {Tag}     | {Addr}   |     |
//   | DI   | DI_ALARM     | {Priority} > 1    | {Tag}_AL  | {Timer}  |     |
//   | AI   |              |                   | {Tag}     | {Addr}   |     |
//
// A blank subtype applies to every row of the record type. A line without a
// rule is emitted for every matching row. Group order and line order are the
// declaration order of the template and are preserved in the output.
//
// =============================================================================

package template

import (
	"strings"
)

// =============================================================================
// TEMPLATE LINE
// =============================================================================

// Line is one emittable text unit.
type Line struct {
	// Columns are the placeholder-bearing segments, joined by the converter
	// separator. Nil when the line is supplied as raw text.
	Columns []string

	// Raw is the complete templated record, used when Columns is nil.
	Raw string

	// Rule is an optional inclusion expression, evaluated after placeholder
	// substitution. Blank means "always".
	Rule string
}

// Text returns the line text before substitution.
func (l Line) Text(separator string) string {
	if l.Columns == nil {
		return l.Raw
	}
	return strings.Join(l.Columns, separator)
}

// HasRule reports whether the line carries a non-blank rule.
func (l Line) HasRule() bool {
	return strings.TrimSpace(l.Rule) != ""
}

// =============================================================================
// TEMPLATE LINE GROUP
// =============================================================================

// Group holds the lines of one record type and subtype.
type Group struct {
	RecordType string
	SubType    string
	Lines      []Line
}

// Matches reports whether the group applies to a row of recordType whose
// computed subtype token is subtype.
func (g *Group) Matches(recordType, subtype string) bool {
	if g.RecordType != recordType {
		return false
	}
	return g.SubType == "" || g.SubType == subtype
}

// =============================================================================
// MODEL
// =============================================================================

type groupKey struct {
	recordType string
	subType    string
}

// Model is an ordered collection of groups.
type Model struct {
	// Source is the file the model was loaded from.
	Source string

	groups []*Group
	index  map[groupKey]*Group
}

// NewModel creates an empty model.
func NewModel(source string) *Model {
	return &Model{Source: source, index: make(map[groupKey]*Group)}
}

// Add appends a line to the group for recordType/subType, creating the group
// on first use. Lines of one group keep their declaration order even when the
// template interleaves groups.
func (m *Model) Add(recordType, subType string, line Line) {
	key := groupKey{recordType: strings.TrimSpace(recordType), subType: strings.TrimSpace(subType)}

	g, ok := m.index[key]
	if !ok {
		g = &Group{RecordType: key.recordType, SubType: key.subType}
		m.index[key] = g
		m.groups = append(m.groups, g)
	}
	g.Lines = append(g.Lines, line)
}

// Groups returns all groups in declaration order.
func (m *Model) Groups() []*Group {
	return m.groups
}

// Matching returns the groups that apply to a row, in declaration order.
func (m *Model) Matching(recordType, subtype string) []*Group {
	var out []*Group
	for _, g := range m.groups {
		if g.Matches(recordType, subtype) {
			out = append(out, g)
		}
	}
	return out
}

// RecordTypes lists the distinct record types in declaration order.
func (m *Model) RecordTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range m.groups {
		if !seen[g.RecordType] {
			seen[g.RecordType] = true
			out = append(out, g.RecordType)
		}
	}
	return out
}

// Lines returns every line of every group, used by validation to collect
// placeholders.
func (m *Model) Lines(recordType string) []Line {
	var out []Line
	for _, g := range m.groups {
		if g.RecordType == recordType {
			out = append(out, g.Lines...)
		}
	}
	return out
}
