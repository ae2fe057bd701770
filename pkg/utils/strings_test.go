package utils

import (
	"testing"
)

func TestContainsAny(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		expected bool
	}{
		{
			name:     "Contains one keyword",
			text:     "This is a test message with error",
			keywords: []string{"error", "warning", "failure"},
			expected: true,
		},
		{
			name:     "Contains multiple keywords",
			text:     "System failure detected with error code",
			keywords: []string{"error", "warning", "failure"},
			expected: true,
		},
		{
			name:     "Contains no keywords",
			text:     "This is a normal message",
			keywords: []string{"error", "warning", "failure"},
			expected: false,
		},
		{
			name:     "Case sensitive match",
			text:     "This has ERROR in caps",
			keywords: []string{"error", "warning", "failure"},
			expected: false,
		},
		{
			name:     "Case sensitive match - exact case",
			text:     "This has error in lowercase",
			keywords: []string{"error", "warning", "failure"},
			expected: true,
		},
		{
			name:     "Empty keywords",
			text:     "Any text here",
			keywords: []string{},
			expected: false,
		},
		{
			name:     "Empty text",
			text:     "",
			keywords: []string{"error", "warning"},
			expected: false,
		},
		{
			name:     "Partial word match",
			text:     "This is an errors message",
			keywords: []string{"error"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ContainsAny(tt.text, tt.keywords)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{name: "Strips markup characters", input: "<script>alert(1)</script>", max: 100, expected: "scriptalert(1)/script"},
		{name: "Strips dollar and semicolon", input: "rm -rf $HOME; echo", max: 100, expected: "rm -rf HOME echo"},
		{name: "Trims whitespace", input: "  slack  ", max: 100, expected: "slack"},
		{name: "Caps length", input: "abcdefgh", max: 3, expected: "abc"},
		{name: "Caps by rune", input: "世界世界", max: 2, expected: "世界"},
		{name: "Empty input", input: "", max: 10, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeText(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestCollapseSpace(t *testing.T) {
	result := CollapseSpace("  a\n\tb   c ")
	if result != "a b c" {
		t.Errorf("Expected %q, got %q", "a b c", result)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Expected hello, got %s", got)
	}
	if got := Truncate("hello", 0); got != "" {
		t.Errorf("Expected empty string, got %s", got)
	}
}

func BenchmarkContainsAny(b *testing.B) {
	text := "This is a long text message that contains various keywords and phrases that we need to search through for performance testing"
	keywords := []string{"error", "warning", "failure", "critical", "emergency", "alert", "issue", "problem"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ContainsAny(text, keywords)
	}
}
