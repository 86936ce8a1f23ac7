package strings

import (
	"strings"
)

// DefaultColumnWidth is the widest a free-form table cell may grow before
// it is truncated.
const DefaultColumnWidth = 48

// MinTruncateLen is the minimum maxLen accepted by Truncate and TruncateLeft.
// Smaller values would not leave room for one character plus "...".
const MinTruncateLen = 4

// Truncate collapses s onto a single line and cuts it to maxLen runes,
// ending with "..." when anything was removed.
func Truncate(s string, maxLen int) string {
	runes, maxLen := prepare(s, maxLen)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes)
}

// TruncateLeft is like Truncate but keeps the end of s, which is the
// informative part of a file path.
func TruncateLeft(s string, maxLen int) string {
	runes, maxLen := prepare(s, maxLen)
	if len(runes) > maxLen {
		return "..." + string(runes[len(runes)-maxLen+3:])
	}
	return string(runes)
}

func prepare(s string, maxLen int) ([]rune, int) {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	return []rune(strings.Join(strings.Fields(s), " ")), maxLen
}
