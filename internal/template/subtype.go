package template

import "strings"

// SubtypeSeparator joins classification fields into a subtype token.
const SubtypeSeparator = "_"

// SubtypeToken builds the canonical subtype key of a row from its
// classification fields: values are joined with "_", doubled separators are
// collapsed and leading/trailing separators trimmed.
//
// EXAMPLES:
//   ("DI", "ALARM", "CRITICAL") -> "DI_ALARM_CRITICAL"
//   ("DI", "", "CRITICAL")      -> "DI_CRITICAL"
//   ("DI", "", "")              -> "DI"
//   ("", "", "")                -> ""
func SubtypeToken(values ...string) string {
	token := strings.Join(values, SubtypeSeparator)
	for strings.Contains(token, SubtypeSeparator+SubtypeSeparator) {
		token = strings.ReplaceAll(token, SubtypeSeparator+SubtypeSeparator, SubtypeSeparator)
	}
	return strings.Trim(token, SubtypeSeparator)
}
