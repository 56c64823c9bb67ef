// Package strutil provides string helpers shared by the AI pipeline and the conversation store.
package strutil

// Truncate truncates a string to a maximum length.
// Uses rune-level truncation so multi-byte characters are never split.
// Returns empty string if maxLen <= 0.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// TruncateRunes cuts s to at most maxLen runes without adding an ellipsis.
func TruncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
