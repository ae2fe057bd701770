package utils

import "strings"

// ContainsAny checks if the text contains any of the given keywords
func ContainsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// CollapseSpace replaces runs of whitespace with a single space and trims the result.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SanitizeText removes the characters <, >, $ and ; then trims and caps the
// result to max runes.
func SanitizeText(s string, max int) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '$', ';':
			return -1
		}
		return r
	}, s)
	return Truncate(strings.TrimSpace(cleaned), max)
}
