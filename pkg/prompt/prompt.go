// Package prompt предоставляет загрузку и рендеринг системных промптов.
package prompt

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/mkarpenko/echo-ai/pkg/config"
)

// DefaultSystemPrompt используется, когда конфигурация не задаёт свой.
const DefaultSystemPrompt = "You are a helpful assistant. Only call tools if one is applicable."

// PromptFile описывает структуру YAML-файла с промптом.
type PromptFile struct {
	Messages []Message `yaml:"messages"`
}

// Message — одно сообщение промпта.
type Message struct {
	Role    string `yaml:"role"`
	Content string `yaml:"content"` // Шаблон с {{.Variables}}
}

// Load загружает и парсит YAML файл промпта.
func Load(path string) (*PromptFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("prompt file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	var pf PromptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}
	return &pf, nil
}

// RenderMessages подставляет данные во все {{.Field}} шаблонов.
func (pf *PromptFile) RenderMessages(data any) ([]Message, error) {
	rendered := make([]Message, len(pf.Messages))

	for i, msg := range pf.Messages {
		tmpl, err := template.New("msg").Parse(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("template parse error in message #%d (%s): %w", i, msg.Role, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("template execute error in message #%d: %w", i, err)
		}

		rendered[i] = Message{Role: msg.Role, Content: buf.String()}
	}
	return rendered, nil
}

// ResolveSystemPrompt выбирает системный промпт по приоритету:
// inline из конфига → файл → дефолт.
//
// YAML файлы читаются как PromptFile (берётся первое system-сообщение),
// всё остальное — как обычный текст.
func ResolveSystemPrompt(cfg *config.AppConfig) (string, error) {
	if cfg.Agent.SystemPrompt != "" {
		return cfg.Agent.SystemPrompt, nil
	}

	path := cfg.Agent.SystemPromptFile
	if path == "" {
		return DefaultSystemPrompt, nil
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		pf, err := Load(path)
		if err != nil {
			return "", err
		}
		for _, msg := range pf.Messages {
			if msg.Role == "system" && msg.Content != "" {
				return msg.Content, nil
			}
		}
		return "", fmt.Errorf("prompt file %s has no system message", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	return text, nil
}
