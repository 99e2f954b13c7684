package notes

import "strings"

// Split extracts individual notes from raw text using the bracketed-list
// convention: one note per line in the form "N] text" (optional leading "[").
// A line qualifies when it contains "]" and everything before the first "]"
// (after stripping a leading "[") is digits. The number is only a delimiter
// signal; notes are emitted in line order, never sorted by the number itself.
// When no line in the input qualifies, the whole trimmed input is returned as
// a single note.
func Split(raw string) []string {
	var parsed []string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, "]")
		if idx < 0 {
			continue
		}

		prefix := strings.TrimPrefix(line[:idx], "[")
		if !isDigits(prefix) {
			continue
		}

		text := strings.TrimSpace(line[idx+1:])
		if text == "" {
			continue
		}

		parsed = append(parsed, text)
	}

	if len(parsed) == 0 {
		return []string{strings.TrimSpace(raw)}
	}

	return parsed
}

// Limit truncates notes to at most max entries. Split performs no truncation
// itself so parsing and limiting stay independently testable; callers apply
// Limit with the requested note count.
func Limit(parsed []string, max int) []string {
	if max < 0 {
		return nil
	}
	if len(parsed) <= max {
		return parsed
	}
	return parsed[:max]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
