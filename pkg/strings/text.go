package strings

import (
	"strings"
	"unicode"
)

// MinTruncateLen is the smallest maxLen Truncate honors; anything smaller
// would leave no room for content plus "...".
const MinTruncateLen = 4

// Truncate collapses all whitespace runs in s to single spaces and cuts the
// result to maxLen runes, ending it with "..." when something was removed.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// Compact removes every whitespace rune from s.
func Compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// LooseEqual reports whether a and b are equal ignoring case and, failing
// that, ignoring case and all whitespace. "Test QA Client(Sabre)" and
// "test qa client (sabre)" match.
func LooseEqual(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if strings.EqualFold(a, b) {
		return true
	}
	return strings.EqualFold(Compact(a), Compact(b))
}
