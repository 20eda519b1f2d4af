package tally

import (
	"regexp"
	"strings"
)

// Placeholder is substituted for any text that sanitizes to nothing.
const Placeholder = "Unknown"

// maxFieldLen is TallyPrime's limit for name-like fields.
const maxFieldLen = 99

var (
	forbiddenChars = regexp.MustCompile(`[<>"]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Sanitize normalizes free text so it can be embedded verbatim as element
// text in a Tally XML request: surrounding whitespace is trimmed, ampersands
// become the word "and", angle brackets and double quotes are removed, and
// whitespace runs collapse to a single space. Results longer than 99
// characters are truncated to 96 plus "...". Empty input (or input that
// sanitizes to nothing) yields "Unknown".
//
// Note this is not grammar-safe XML escaping: the ampersand is replaced, not
// entity-escaped, which matches what the Tally gateway accepts.
func Sanitize(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return Placeholder
	}

	s = strings.ReplaceAll(s, "&", "and")
	s = forbiddenChars.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")

	// The limit counts characters, not bytes: slicing bytes could split a
	// multibyte rune and emit invalid UTF-8 into a ledger name.
	if runes := []rune(s); len(runes) > maxFieldLen {
		s = string(runes[:maxFieldLen-3]) + "..."
	}

	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
