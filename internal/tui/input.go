package tui

import (
	"strings"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes accepted in the search box
const maxInputLen = 200

// editRune applies one keystroke to the search text. Non-printable keys leave
// it unchanged.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// parseQuery splits the search text on commas and whitespace. One name means
// a profile lookup; more mean a comparison.
func parseQuery(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// truncateToHeight limits output to maxLines lines
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}
