package llm

import (
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

var codeFenceRe = regexp.MustCompile("```(?:json|JSON)?\\s*([\\s\\S]*?)```")

// ExtractJSON returns the first JSON object found in s: a fenced code block
// first, then the first balanced {...} that parses. It returns "" when none is
// found.
func ExtractJSON(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed
	}
	if strings.Contains(s, "```") {
		if m := codeFenceRe.FindStringSubmatch(s); len(m) > 1 {
			candidate := strings.TrimSpace(m[1])
			if strings.HasPrefix(candidate, "{") && json.Valid([]byte(candidate)) {
				return candidate
			}
		}
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		if end := matchBrace(s, i); end > 0 {
			candidate := s[i : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
	}
	return ""
}

// matchBrace returns the index of the brace closing the one at start, skipping
// braces inside strings, or -1.
func matchBrace(s string, start int) int {
	level := 0
	inString := false
	escaped := false
	for j := start; j < len(s); j++ {
		c := s[j]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				level++
			}
		case '}':
			if !inString {
				level--
				if level == 0 {
					return j
				}
			}
		}
	}
	return -1
}
