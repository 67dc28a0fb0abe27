package std

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mkarpenko/echo-ai/pkg/config"
	"github.com/mkarpenko/echo-ai/pkg/tools"
)

const (
	// maxBodyBytes ограничивает читаемый объём страницы
	maxBodyBytes = 2 << 20

	// maxTextChars ограничивает текст, возвращаемый модели
	maxTextChars = 8000
)

// WebsiteTool — инструмент извлечения текста веб-страницы.
//
// Скачивает страницу, убирает разметку и служебные блоки (script, style,
// nav, footer, header) и возвращает нормализованный текст.
type WebsiteTool struct {
	client      *http.Client
	description string
}

var _ tools.Tool = (*WebsiteTool)(nil)

// NewWebsiteTool создает инструмент извлечения текста страниц.
func NewWebsiteTool(cfg config.ToolConfig) *WebsiteTool {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	description := cfg.Description
	if description == "" {
		description = "Extract all viewable text from a webpage given a URL."
	}

	return &WebsiteTool{
		client:      &http.Client{Timeout: timeout},
		description: description,
	}
}

// Definition возвращает определение инструмента для function calling.
func (t *WebsiteTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "get_website_data",
		Description: t.description,
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "The URL of the webpage to extract text from",
				},
			},
			"required": []string{"url"},
		},
	}
}

type websiteArgs struct {
	URL string `json:"url"`
}

// Execute выполняет инструмент согласно контракту "Raw In, String Out".
func (t *WebsiteTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args websiteArgs
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if args.URL == "" {
		return "", fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(args.URL, "http://") && !strings.HasPrefix(args.URL, "https://") {
		return "", fmt.Errorf("url must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch webpage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webpage returned status %d", resp.StatusCode)
	}

	text, err := extractText(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse webpage: %w", err)
	}
	if len(text) > maxTextChars {
		text = text[:maxTextChars] + "..."
	}

	result := map[string]any{
		"status": "success",
		"text":   text,
		"url":    args.URL,
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// skippedTags — элементы, текст которых не несёт полезного содержимого.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"noscript": true,
}

// extractText собирает видимый текст документа, нормализуя пробелы.
func extractText(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)

	var parts []string
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return strings.Join(parts, " "), nil
			}
			return "", tokenizer.Err()

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedTags[string(name)] {
				skipDepth++
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skippedTags[string(name)] && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			fields := strings.Fields(string(tokenizer.Text()))
			if len(fields) > 0 {
				parts = append(parts, strings.Join(fields, " "))
			}
		}
	}
}
