package strutil

import (
	"encoding/json"
	"strings"
)

// maxScanWork bounds the bytes ExtractJSONObject inspects across all candidates,
// so unbalanced input costs linear time instead of quadratic.
const maxScanWork = 4 << 20

// ExtractJSONObject returns the first balanced {...} block in s that is valid JSON.
//
// Braces inside string literals are ignored. A balanced block that fails to parse
// is skipped and the scan resumes at the next opening brace, so prose such as
// "use {x} like this: {\"a\":1}" still yields the real object.
func ExtractJSONObject(s string) (string, bool) {
	s = stripCodeFence(s)
	budget := maxScanWork
	for start := strings.IndexByte(s, '{'); start >= 0 && budget > 0; {
		end, scanned := matchBrace(s, start, budget)
		budget -= scanned
		if end > start {
			candidate := s[start : end+1]
			budget -= len(candidate)
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at start, or -1 when
// it is not found within limit bytes, along with the number of bytes inspected.
func matchBrace(s string, start, limit int) (int, int) {
	depth := 0
	inString := false
	escaped := false
	stop := len(s)
	if start+limit < stop {
		stop = start + limit
	}
	for i := start; i < stop; i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, i - start + 1
			}
		}
	}
	return -1, stop - start
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	return strings.TrimSuffix(s, "```")
}
