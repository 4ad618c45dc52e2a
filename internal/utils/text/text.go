// Package text provides rune-aware helpers shared by the sanitizer and validator.
// All lengths are counted in runes, never bytes, so multi-byte input is never split mid-character.
package text

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis marks truncated free text.
const Ellipsis = "…"

// CountRunes counts the Unicode characters in s.
func CountRunes(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// TruncateWithEllipsis cuts s so that the result, including a trailing
// Ellipsis, is at most max runes. It reports whether s was shortened.
func TruncateWithEllipsis(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	if max <= 1 {
		return Truncate(Ellipsis, max), true
	}
	return strings.TrimRightFunc(Truncate(s, max-1), isSpace) + Ellipsis, true
}

// CollapseWhitespace replaces every run of whitespace with a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
