// Package extract pulls usable payloads out of free-form model output.
package extract

import (
	"errors"
	"strings"
)

const fence = "```"

// ErrNoObject is returned when the text holds no balanced {...} span.
var ErrNoObject = errors.New("no JSON object found")

// StripFences removes one markdown code fence wrapping text: a leading
// "```lang" line and a trailing "```". Text that neither starts nor ends with
// a fence marker is returned unchanged. Nested fences lose only the outer layer.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	leading := strings.HasPrefix(trimmed, fence)
	trailing := strings.HasSuffix(trimmed, fence)
	if !leading && !trailing {
		return text
	}

	if leading {
		if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
			trimmed = trimmed[i+1:]
		} else {
			trimmed = strings.TrimPrefix(trimmed, fence)
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	if strings.HasSuffix(trimmed, fence) {
		trimmed = strings.TrimSuffix(trimmed, fence)
	}
	return strings.TrimSpace(trimmed)
}

// ScrubFences drops every line that is only a fence marker ("```" or "```go")
// and trims the result. It catches fences that survive StripFences, such as
// several fenced blocks in one reply.
func ScrubFences(text string) string {
	if !strings.Contains(text, fence) {
		return strings.TrimSpace(text)
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isFenceLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isFenceLine(line string) bool {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, fence) {
		return false
	}
	rest := strings.TrimPrefix(t, fence)
	for _, r := range rest {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+') {
			return false
		}
	}
	return true
}

// FirstObject returns the first balanced {...} span in text.
// Braces inside JSON string literals are ignored. An opening brace that is
// never closed is skipped and scanning resumes after it.
func FirstObject(text string) (string, error) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end, ok := matchBrace(text, start); ok {
			return text[start : end+1], nil
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoObject
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
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
				return i, true
			}
		}
	}
	return 0, false
}
