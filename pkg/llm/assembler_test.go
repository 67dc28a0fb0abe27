package llm

import (
	"reflect"
	"testing"
)

// feedAll прогоняет дельты через свежий Assembler и возвращает результат.
func feedAll(deltas []StreamDelta) Message {
	a := NewAssembler()
	for _, d := range deltas {
		a.Feed(d)
	}
	return a.Message()
}

// TestAssemblerContentAccumulation verifies plain content chunks concatenate in order.
func TestAssemblerContentAccumulation(t *testing.T) {
	msg := feedAll([]StreamDelta{
		{Content: "Hel"},
		{Content: "lo, "},
		{Content: ""},
		{Content: "world"},
		{FinishReason: "stop"},
	})

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", msg.Role, RoleAssistant)
	}
	if msg.Content != "Hello, world" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hello, world")
	}
	if len(msg.ToolCalls) != 0 {
		t.Errorf("ToolCalls = %d, want 0", len(msg.ToolCalls))
	}
}

// TestAssemblerToolCallFragments verifies id/name fix once and args concatenate.
func TestAssemblerToolCallFragments(t *testing.T) {
	msg := feedAll([]StreamDelta{
		{ToolCalls: []ToolCallDelta{{Index: 0, ID: "call_1", Name: "get_current_weather"}}},
		{ToolCalls: []ToolCallDelta{{Index: 0, Args: `{"loca`}}},
		{ToolCalls: []ToolCallDelta{{Index: 0, Args: `tion": "Bos`}}},
		{ToolCalls: []ToolCallDelta{{Index: 0, Args: `ton"}`}}},
		{FinishReason: "tool_calls"},
	})

	want := []ToolCall{{ID: "call_1", Name: "get_current_weather", Args: `{"location": "Boston"}`}}
	if !reflect.DeepEqual(msg.ToolCalls, want) {
		t.Errorf("ToolCalls = %+v, want %+v", msg.ToolCalls, want)
	}
}

// TestAssemblerInterleavedIndexes verifies independent accumulation per index
// and ascending index order in the final message.
func TestAssemblerInterleavedIndexes(t *testing.T) {
	msg := feedAll([]StreamDelta{
		{ToolCalls: []ToolCallDelta{{Index: 1, ID: "call_b", Name: "beta"}}},
		{ToolCalls: []ToolCallDelta{{Index: 0, ID: "call_a", Name: "alpha", Args: `{"x"`}}},
		{ToolCalls: []ToolCallDelta{
			{Index: 1, Args: `{"y":2}`},
			{Index: 0, Args: `:1}`},
		}},
	})

	want := []ToolCall{
		{ID: "call_a", Name: "alpha", Args: `{"x":1}`},
		{ID: "call_b", Name: "beta", Args: `{"y":2}`},
	}
	if !reflect.DeepEqual(msg.ToolCalls, want) {
		t.Errorf("ToolCalls = %+v, want %+v", msg.ToolCalls, want)
	}
}

// TestAssemblerEmptyArgsNormalized verifies no-argument calls finalize to "{}".
func TestAssemblerEmptyArgsNormalized(t *testing.T) {
	msg := feedAll([]StreamDelta{
		{ToolCalls: []ToolCallDelta{{Index: 0, ID: "call_1", Name: "list_models"}}},
	})

	if got := msg.ToolCalls[0].Args; got != "{}" {
		t.Errorf("Args = %q, want %q", got, "{}")
	}
}

// TestAssemblerMixedChunk verifies content and tool deltas in one chunk.
func TestAssemblerMixedChunk(t *testing.T) {
	msg := feedAll([]StreamDelta{
		{
			Content:   "Let me check.",
			ToolCalls: []ToolCallDelta{{Index: 0, ID: "call_1", Name: "get_website_data", Args: `{"url":"a"}`}},
		},
	})

	if msg.Content != "Let me check." {
		t.Errorf("Content = %q", msg.Content)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].Name != "get_website_data" {
		t.Errorf("ToolCalls = %+v", msg.ToolCalls)
	}
}

// TestAssemblerChunkingInvariance verifies every split of the same logical
// stream produces an identical message.
func TestAssemblerChunkingInvariance(t *testing.T) {
	tests := []struct {
		name   string
		deltas []StreamDelta
	}{
		{
			name: "single chunk",
			deltas: []StreamDelta{{
				Content: "Checking",
				ToolCalls: []ToolCallDelta{
					{Index: 0, ID: "call_1", Name: "alpha", Args: `{"a":1}`},
					{Index: 1, ID: "call_2", Name: "beta", Args: `{"b":2}`},
				},
				FinishReason: "tool_calls",
			}},
		},
		{
			name: "per-field chunks",
			deltas: []StreamDelta{
				{Content: "Check"},
				{Content: "ing"},
				{ToolCalls: []ToolCallDelta{{Index: 0, ID: "call_1", Name: "alpha"}}},
				{ToolCalls: []ToolCallDelta{{Index: 0, Args: `{"a":1}`}}},
				{ToolCalls: []ToolCallDelta{{Index: 1, ID: "call_2", Name: "beta"}}},
				{ToolCalls: []ToolCallDelta{{Index: 1, Args: `{"b"`}}},
				{ToolCalls: []ToolCallDelta{{Index: 1, Args: `:2}`}}},
				{FinishReason: "tool_calls"},
			},
		},
		{
			name: "byte-level args",
			deltas: func() []StreamDelta {
				ds := []StreamDelta{
					{Content: "Checking"},
					{ToolCalls: []ToolCallDelta{{Index: 0, ID: "call_1", Name: "alpha"}}},
				}
				for _, ch := range `{"a":1}` {
					ds = append(ds, StreamDelta{ToolCalls: []ToolCallDelta{{Index: 0, Args: string(ch)}}})
				}
				ds = append(ds, StreamDelta{ToolCalls: []ToolCallDelta{{Index: 1, ID: "call_2", Name: "beta"}}})
				for _, ch := range `{"b":2}` {
					ds = append(ds, StreamDelta{ToolCalls: []ToolCallDelta{{Index: 1, Args: string(ch)}}})
				}
				ds = append(ds, StreamDelta{FinishReason: "tool_calls"})
				return ds
			}(),
		},
	}

	var first Message
	for i, tt := range tests {
		got := feedAll(tt.deltas)
		if i == 0 {
			first = got
			continue
		}
		if !reflect.DeepEqual(got, first) {
			t.Errorf("%s: message = %+v, want %+v", tt.name, got, first)
		}
	}
}

// TestAssemblerFinishReason verifies the terminal marker is retained.
func TestAssemblerFinishReason(t *testing.T) {
	a := NewAssembler()
	a.Feed(StreamDelta{Content: "hi"})
	if a.FinishReason() != "" {
		t.Errorf("FinishReason = %q before terminal chunk", a.FinishReason())
	}
	a.Feed(StreamDelta{FinishReason: "stop"})
	if a.FinishReason() != "stop" {
		t.Errorf("FinishReason = %q, want stop", a.FinishReason())
	}
}
