// Package sanitize cleans free-text fields of lab records (names, owners,
// notes) before they are stored. Stored text is rendered by the dashboard and
// returned verbatim over the API, so control characters and markup tags are
// stripped and lengths are capped.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxNotesLength is the maximum stored length of a notes field.
const MaxNotesLength = 2000

// MaxLabelLength is the maximum stored length of a single-line label.
const MaxLabelLength = 120

var (
	// reMarkupTag matches XML/HTML tags including those with attributes and
	// self-closing tags, plus processing instructions like <?xml ...?>.
	reMarkupTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reExcessiveNewlines matches 3 or more consecutive newlines.
	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)

	// reWhitespaceRun matches any run of whitespace.
	reWhitespaceRun = regexp.MustCompile(`\s+`)
)

// Notes sanitizes multi-line free text.
//
// The pipeline runs in this order:
//  1. Strip null bytes and ASCII control characters (except \n, \t)
//  2. Strip markup tags
//  3. Collapse excessive newlines (3+ -> 2)
//  4. Trim leading/trailing whitespace
//  5. Truncate to MaxNotesLength
func Notes(input string) string {
	if input == "" {
		return ""
	}
	s := stripControlChars(input, true)
	s = reMarkupTag.ReplaceAllString(s, "")
	s = reExcessiveNewlines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	return truncate(s, MaxNotesLength)
}

// Label sanitizes a single-line value such as an experiment name or owner.
// Newlines and tabs become spaces and whitespace runs collapse to one space.
func Label(input string) string {
	if input == "" {
		return ""
	}
	s := stripControlChars(input, false)
	s = reMarkupTag.ReplaceAllString(s, "")
	s = reWhitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return truncate(s, MaxLabelLength)
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !isRuneStart(s[max]) {
		max--
	}
	return strings.TrimSpace(s[:max])
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// stripControlChars removes ASCII control characters (0x00-0x1F, 0x7F).
// With keepLayout, newline and tab are preserved; otherwise they become spaces.
func stripControlChars(s string, keepLayout bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			if keepLayout {
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
		case r < 0x20 || r == 0x7F:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
