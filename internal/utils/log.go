package utils

import "strings"

// TruncateForLog shortens s to limit runes, appending an ellipsis when truncated.
// Line breaks are flattened so previews stay on one log line.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
