package strings

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "/blog",
			maxLen:   10,
			expected: "/blog",
		},
		{
			name:     "exact length unchanged",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "long string truncated",
			input:    "/docs/guides/getting-started/install",
			maxLen:   15,
			expected: "/docs/guides...",
		},
		{
			name:     "whitespace collapsed",
			input:    "build\n\n  failed",
			maxLen:   20,
			expected: "build failed",
		},
		{
			name:     "small maxLen clamped",
			input:    "abcdefgh",
			maxLen:   1,
			expected: "a...",
		},
		{
			name:     "unicode counted by rune",
			input:    "héllo wörld",
			maxLen:   8,
			expected: "héllo...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestTruncateLeft(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short path unchanged",
			input:    "routes/index.tsx",
			maxLen:   20,
			expected: "routes/index.tsx",
		},
		{
			name:     "keeps file name",
			input:    "routes/admin/settings/profile.tsx",
			maxLen:   20,
			expected: "...tings/profile.tsx",
		},
		{
			name:     "small maxLen clamped",
			input:    "abcdefgh",
			maxLen:   0,
			expected: "...h",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateLeft(tt.input, tt.maxLen)
			if got != tt.expected {
				t.Errorf("TruncateLeft(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
			if n := len([]rune(got)); n > tt.maxLen && n > MinTruncateLen {
				t.Errorf("TruncateLeft(%q, %d) has %d runes", tt.input, tt.maxLen, n)
			}
		})
	}
}
