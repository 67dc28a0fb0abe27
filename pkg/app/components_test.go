package app

import "testing"

// TestTokenizerModel verifies the namespace prefix is stripped before the
// model name reaches the token counter.
func TestTokenizerModel(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{ref: "openai:gpt-4o", want: "gpt-4o"},
		{ref: "ollama:qwen3:8b", want: "qwen3:8b"},
		{ref: "gpt-4o", want: "gpt-4o"}, // без namespace — как есть
		{ref: "", want: ""},
	}
	for _, tt := range tests {
		if got := tokenizerModel(tt.ref); got != tt.want {
			t.Errorf("tokenizerModel(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
