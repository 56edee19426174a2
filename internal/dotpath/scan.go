package dotpath

import "strings"

// scanState is the transient state of a single boundary scan.
// Both depths stay non-negative: a closer seen at depth zero ends the value
// instead of being counted.
type scanState struct {
	objectDepth int
	arrayDepth  int
	inQuote     bool
}

func (s *scanState) topLevel() bool {
	return s.objectDepth == 0 && s.arrayDepth == 0
}

// scanValue returns the value that starts at the beginning of data
// (after leading whitespace), trimmed. It runs in a single forward pass.
func scanValue(data string) string {
	s := trimLeftSpace(data)
	if s == "" {
		return ""
	}

	var state scanState
	for i := 0; i < len(s); i++ {
		b := s[i]

		if b == '"' && !escapedAt(s, i) {
			state.inQuote = !state.inQuote
			continue
		}
		if state.inQuote {
			continue
		}

		switch b {
		case '{':
			state.objectDepth++
		case '}':
			if state.objectDepth == 0 {
				return strings.TrimSpace(s[:i])
			}
			state.objectDepth--
		case '[':
			state.arrayDepth++
		case ']':
			if state.arrayDepth == 0 {
				return strings.TrimSpace(s[:i])
			}
			state.arrayDepth--
		case ',':
			if state.topLevel() {
				return strings.TrimSpace(s[:i])
			}
		default:
			if i > 0 && state.topLevel() && isSpace(b) {
				return strings.TrimSpace(s[:i])
			}
		}
	}

	// No boundary before the end of the text: drop trailing delimiters.
	return strings.TrimSpace(strings.Trim(s, ",}]"))
}

// escapedAt reports whether the byte at i is preceded by an odd run of
// backslashes.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func trimLeftSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}
