package openai

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkarpenko/echo-ai/pkg/llm"
	"github.com/mkarpenko/echo-ai/pkg/tools"
)

// TestMapToOpenAI verifies role-specific field mapping.
func TestMapToOpenAI(t *testing.T) {
	tests := []struct {
		name string
		in   llm.Message
		chk  func(t *testing.T, got openai.ChatCompletionMessage)
	}{
		{
			name: "user message",
			in:   llm.Message{Role: llm.RoleUser, Content: "hi"},
			chk: func(t *testing.T, got openai.ChatCompletionMessage) {
				if got.Role != "user" || got.Content != "hi" {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name: "tool message carries call id",
			in: llm.Message{
				Role:       llm.RoleTool,
				Content:    `{"ok":true}`,
				ToolCallID: "call_1",
				Name:       "get_current_weather",
			},
			chk: func(t *testing.T, got openai.ChatCompletionMessage) {
				if got.ToolCallID != "call_1" || got.Name != "get_current_weather" {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name: "assistant with tool calls",
			in: llm.Message{
				Role:      llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "f", Args: `{"a":1}`}},
			},
			chk: func(t *testing.T, got openai.ChatCompletionMessage) {
				if len(got.ToolCalls) != 1 {
					t.Fatalf("ToolCalls = %+v", got.ToolCalls)
				}
				tc := got.ToolCalls[0]
				if tc.ID != "call_1" || tc.Function.Name != "f" || tc.Function.Arguments != `{"a":1}` {
					t.Errorf("ToolCalls[0] = %+v", tc)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.chk(t, mapToOpenAI(tt.in))
		})
	}
}

// TestNormalizeChoice verifies the sync path matches assembler output.
func TestNormalizeChoice(t *testing.T) {
	choice := openai.ChatCompletionChoice{
		Message: openai.ChatCompletionMessage{
			Role:    "assistant",
			Content: "checking",
			ToolCalls: []openai.ToolCall{
				{ID: "call_1", Function: openai.FunctionCall{Name: "f", Arguments: ""}},
				{ID: "call_2", Function: openai.FunctionCall{Name: "g", Arguments: `{"x":1}`}},
			},
		},
		FinishReason: openai.FinishReasonToolCalls,
	}

	got := normalizeChoice(choice)

	if got.Role != llm.RoleAssistant || got.Content != "checking" {
		t.Errorf("message = %+v", got)
	}
	if len(got.ToolCalls) != 2 {
		t.Fatalf("ToolCalls = %+v", got.ToolCalls)
	}
	// Пустые аргументы нормализуются так же, как в потоковом режиме
	if got.ToolCalls[0].Args != "{}" {
		t.Errorf("ToolCalls[0].Args = %q, want {}", got.ToolCalls[0].Args)
	}
	if got.ToolCalls[1].Args != `{"x":1}` {
		t.Errorf("ToolCalls[1].Args = %q", got.ToolCalls[1].Args)
	}
}

// TestConvertToolsToOpenAI verifies definitions survive the conversion.
func TestConvertToolsToOpenAI(t *testing.T) {
	defs := []tools.ToolDefinition{
		{
			Name:        "get_current_weather",
			Description: "Gets weather",
			Parameters:  tools.JSONSchema{"type": "object"},
		},
	}

	got := convertToolsToOpenAI(defs)
	if len(got) != 1 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Type != openai.ToolTypeFunction || got[0].Function.Name != "get_current_weather" {
		t.Errorf("got[0] = %+v", got[0])
	}
}

// TestIsRetryable verifies only rate limits and server errors retry.
func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate limit", err: &openai.APIError{HTTPStatusCode: 429}, want: true},
		{name: "server error", err: &openai.APIError{HTTPStatusCode: 502}, want: true},
		{name: "bad request", err: &openai.APIError{HTTPStatusCode: 400}, want: false},
		{name: "plain error", err: errPlain, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

var errPlain = &plainError{}

type plainError struct{}

func (*plainError) Error() string { return "plain" }
