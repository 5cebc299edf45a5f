// Package shellescape quotes values for safe interpolation into POSIX shell
// command strings.
//
// Remote commands are assembled as plain strings and executed through the
// remote shell, so any caller-supplied value (paths, URLs, names) must be
// quoted before it is spliced in.
package shellescape

import "strings"

// Quote returns s wrapped in single quotes, with embedded single quotes
// escaped so the result is a single shell word.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteJoin quotes each value and joins them with single spaces.
func QuoteJoin(values ...string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = Quote(v)
	}
	return strings.Join(quoted, " ")
}
