package utils

import "testing"

// TestCleanJsonBlock verifies markdown fence stripping around JSON.
func TestCleanJsonBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "json fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "plain fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "uppercase fence",
			input: "```JSON\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "no fence",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "surrounding whitespace",
			input: "  \n{\"a\": 1}\n  ",
			want:  `{"a": 1}`,
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJsonBlock(tt.input); got != tt.want {
				t.Errorf("CleanJsonBlock(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestCleanMarkdownCode verifies code block removal from mixed text.
func TestCleanMarkdownCode(t *testing.T) {
	input := "Intro\n```json\n{\"a\": 1}\n```\nOutro"
	want := "Intro\nOutro"
	if got := CleanMarkdownCode(input); got != want {
		t.Errorf("CleanMarkdownCode() = %q, want %q", got, want)
	}
}

// TestExtractJSON verifies JSON object extraction from explanatory text.
func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "object with prefix text",
			input: `The result is {"a": {"b": 2}} as requested`,
			want:  `{"a": {"b": 2}}`,
		},
		{
			name:  "no object",
			input: "just text",
			want:  "",
		},
		{
			name:  "unbalanced returns tail",
			input: `text {"a": 1`,
			want:  `{"a": 1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.input); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestTruncate verifies rune-safe truncation.
func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate long = %q", got)
	}
	if got := Truncate("привет мир", 6); got != "привет..." {
		t.Errorf("Truncate unicode = %q", got)
	}
}
