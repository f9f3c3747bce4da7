// Package emailparser validates and normalizes faculty email addresses found in
// directory markup.
package emailparser

import (
	"regexp"
	"strings"
)

// reAddress is the directory's acceptance pattern: word characters, dots and
// dashes on both sides of the @, and a word-character top-level label.
var reAddress = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// Valid reports whether s is an acceptable email address.
func Valid(s string) bool {
	return reAddress.MatchString(s)
}

// Normalize turns a raw href or text value into a bare address.
//
// A leading "mailto:" (any case) and a trailing "?subject=..." query are
// dropped. The result is "" when what remains is not Valid, so a malformed
// address degrades to an empty field instead of failing its record.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= len("mailto:") && strings.EqualFold(s[:len("mailto:")], "mailto:") {
		s = s[len("mailto:"):]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if !Valid(s) {
		return ""
	}
	return s
}
