package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkarpenko/echo-ai/pkg/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveSystemPrompt(t *testing.T) {
	yamlPath := writeFile(t, "agent.yaml", `
messages:
  - role: system
    content: "You are a weather expert."
`)
	textPath := writeFile(t, "agent.txt", "You answer in haiku.\n")

	tests := []struct {
		name string
		cfg  config.AgentConfig
		want string
	}{
		{"inline wins", config.AgentConfig{SystemPrompt: "inline", SystemPromptFile: yamlPath}, "inline"},
		{"yaml file", config.AgentConfig{SystemPromptFile: yamlPath}, "You are a weather expert."},
		{"text file", config.AgentConfig{SystemPromptFile: textPath}, "You answer in haiku."},
		{"default", config.AgentConfig{}, DefaultSystemPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSystemPrompt(&config.AppConfig{Agent: tt.cfg})
			if err != nil {
				t.Fatalf("ResolveSystemPrompt() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveSystemPrompt() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		cfg := &config.AppConfig{Agent: config.AgentConfig{SystemPromptFile: "/no/such/file.yaml"}}
		if _, err := ResolveSystemPrompt(cfg); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestRenderMessages(t *testing.T) {
	pf := &PromptFile{Messages: []Message{
		{Role: "system", Content: "Assist {{.User}} with {{.Topic}}."},
	}}

	rendered, err := pf.RenderMessages(map[string]string{"User": "Alex", "Topic": "weather"})
	if err != nil {
		t.Fatalf("RenderMessages() error = %v", err)
	}
	if rendered[0].Content != "Assist Alex with weather." {
		t.Errorf("rendered = %q", rendered[0].Content)
	}

	bad := &PromptFile{Messages: []Message{{Role: "system", Content: "{{.Broken"}}}
	if _, err := bad.RenderMessages(nil); err == nil {
		t.Error("expected parse error")
	}
	if !strings.Contains(DefaultSystemPrompt, "assistant") {
		t.Error("default prompt should describe an assistant")
	}
}
