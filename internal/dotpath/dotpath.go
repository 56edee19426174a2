// Package dotpath extracts values from JSON-shaped text by dot-delimited
// paths such as "crate.max_version" or "versions.0.num".
//
// Values are located by their textual span; no document tree is built.
// Every lookup failure (missing key, index out of range, empty segment,
// malformed brackets) yields the NotFound sentinel, and the typed
// accessors degrade to their zero value. Callers cannot and should not
// tell those cases apart.
//
// Key lookup is a raw forward search for the quoted key within the current
// scope, so the first occurrence wins even when it sits inside an unrelated
// nested value. For example, searching "id" in {"owner":{"id":1},"id":2}
// yields 1. Prefix the path with the enclosing keys when that matters.
package dotpath

import (
	"strconv"
	"strings"
)

// NotFound is returned by Extract when the path does not resolve.
const NotFound = "N/A"

// Extract returns the value addressed by path, with surrounding quotes
// removed from string values, or NotFound. The result never aliases body.
func Extract(body, path string) string {
	value, ok := lookup(body, path)
	if !ok {
		return NotFound
	}
	return strings.Clone(unquote(value))
}

// ExtractInt returns the value at path as an int64, or 0.
func ExtractInt(body, path string) int64 {
	n, err := strconv.ParseInt(Extract(body, path), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ExtractUint64 returns the value at path as a uint64, or 0.
func ExtractUint64(body, path string) uint64 {
	n, err := strconv.ParseUint(Extract(body, path), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ExtractFloat returns the value at path as a float64, or 0.
func ExtractFloat(body, path string) float64 {
	f, err := strconv.ParseFloat(Extract(body, path), 64)
	if err != nil {
		return 0
	}
	return f
}

// ExtractBool reports whether the value at path is "true", ignoring case.
func ExtractBool(body, path string) bool {
	return strings.EqualFold(Extract(body, path), "true")
}

// Len returns the number of elements of the array at path, or 0 when the
// path does not resolve to an array.
func Len(body, path string) int {
	value, ok := lookup(body, path)
	if !ok {
		return 0
	}

	n := 0
	walkArray(value, func(int, string) bool {
		n++
		return true
	})
	return n
}

// lookup narrows body segment by segment and returns the raw span.
func lookup(body, path string) (string, bool) {
	current := body
	for segment := range strings.SplitSeq(path, ".") {
		if segment == "" {
			return "", false
		}

		var ok bool
		if index, isIndex := parseIndex(segment); isIndex {
			current, ok = arrayElement(current, index)
		} else {
			current, ok = keyValue(current, segment)
		}
		if !ok {
			return "", false
		}
	}
	return current, true
}

// keyValue finds the first occurrence of "key" and scans the value after
// the following colon.
func keyValue(scope, key string) (string, bool) {
	pattern := `"` + key + `"`
	at := strings.Index(scope, pattern)
	if at < 0 {
		return "", false
	}

	rest := scope[at+len(pattern):]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return "", false
	}

	value := scanValue(rest[colon+1:])
	return value, value != ""
}

func arrayElement(scope string, target int) (string, bool) {
	var found string
	walkArray(scope, func(i int, element string) bool {
		if i == target {
			found = element
			return false
		}
		return true
	})
	return found, found != ""
}

// walkArray calls fn with each element of the array at the start of scope
// until fn returns false or the elements run out.
func walkArray(scope string, fn func(i int, element string) bool) {
	content, ok := strings.CutPrefix(trimLeftSpace(scope), "[")
	if !ok {
		return
	}

	for i := 0; ; i++ {
		content = trimLeftSpace(content)
		element := scanValue(content)
		if element == "" {
			return
		}
		if !fn(i, element) {
			return
		}

		content, ok = strings.CutPrefix(trimLeftSpace(content[len(element):]), ",")
		if !ok {
			return
		}
	}
}

// parseIndex accepts only plain decimal digits.
func parseIndex(segment string) (int, bool) {
	for i := 0; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return n, true
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}
