package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpenko/echo-ai/pkg/events"
)

func newTestChat(t *testing.T) *ChatTui {
	t.Helper()
	emitter := events.NewChanEmitter(16)
	t.Cleanup(emitter.Close)
	return NewChatTui(emitter.Subscribe(), ChatConfig{ModelName: "gpt-4o"})
}

func TestNewChatTuiDefaults(t *testing.T) {
	chat := newTestChat(t)

	assert.Equal(t, "Echo AI", chat.config.Title)
	assert.Equal(t, "> ", chat.config.InputPrompt)
	assert.NotNil(t, chat.Init(), "Init should return a valid command")

	// Приветственная строка в логе
	lines := chat.log.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Session started")
}

func TestChatHandlesWindowResize(t *testing.T) {
	chat := newTestChat(t)

	model, _ := chat.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	require.NotNil(t, model)

	view := chat.View()
	assert.Contains(t, view, "gpt-4o")
}

func TestChatStreamingAccumulation(t *testing.T) {
	chat := newTestChat(t)

	chat.handleEvent(events.Event{Type: events.EventThinking, Data: events.ThinkingData{Query: "hi"}})
	assert.True(t, chat.processing())

	chat.handleEvent(events.Event{
		Type: events.EventContentChunk,
		Data: events.ContentChunkData{Chunk: "Hel", Accumulated: "Hel"},
	})
	chat.handleEvent(events.Event{
		Type: events.EventContentChunk,
		Data: events.ContentChunkData{Chunk: "lo", Accumulated: "Hello"},
	})

	// Чанки обновляют одну строку, а не плодят новые
	lines := chat.log.Lines()
	var aiLines int
	for _, l := range lines {
		if strings.Contains(l, "Hel") {
			aiLines++
		}
	}
	assert.Equal(t, 1, aiLines)
	assert.Contains(t, chat.log.LastLine(), "Hello")

	chat.handleEvent(events.Event{Type: events.EventDone, Data: events.MessageData{Content: "Hello!"}})
	assert.False(t, chat.processing())
	assert.Contains(t, chat.log.LastLine(), "Hello!")
	assert.Equal(t, aiLines, 1, "Done replaces the streamed line")
}

func TestChatToolEvents(t *testing.T) {
	chat := newTestChat(t)

	chat.handleEvent(events.Event{
		Type: events.EventToolCall,
		Data: events.ToolCallData{ID: "call_1", ToolName: "get_current_weather", Args: `{"location":"Boston"}`},
	})
	assert.Contains(t, chat.log.LastLine(), "get_current_weather")

	chat.handleEvent(events.Event{
		Type: events.EventToolResult,
		Data: events.ToolResultData{ID: "call_1", ToolName: "get_current_weather", Duration: 120 * time.Millisecond},
	})
	assert.Contains(t, chat.log.LastLine(), "Result: get_current_weather")
}

func TestChatErrorEvent(t *testing.T) {
	chat := newTestChat(t)
	chat.setProcessing(true)

	chat.handleEvent(events.Event{
		Type: events.EventError,
		Data: events.ErrorData{Err: errors.New("connection refused")},
	})

	assert.Contains(t, chat.log.LastLine(), "connection refused")
	assert.False(t, chat.processing())
}

func TestChatEnterInvokesCallback(t *testing.T) {
	chat := newTestChat(t)
	chat.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	inputCh := make(chan string, 1)
	chat.OnInput(func(input string) { inputCh <- input })

	chat.textarea.SetValue("hello there")
	chat.handleKeyPress(tea.KeyMsg{Type: tea.KeyEnter}, nil)

	select {
	case got := <-inputCh:
		assert.Equal(t, "hello there", got)
	case <-time.After(time.Second):
		t.Fatal("OnInput callback was not invoked")
	}

	// Ввод очищен, сообщение пользователя в логе
	assert.Empty(t, chat.textarea.Value())
	assert.Contains(t, chat.log.LastLine(), "hello there")
}

func TestChatIgnoresInputWhileProcessing(t *testing.T) {
	chat := newTestChat(t)
	chat.setProcessing(true)

	called := false
	chat.OnInput(func(string) { called = true })

	chat.textarea.SetValue("impatient")
	chat.handleKeyPress(tea.KeyMsg{Type: tea.KeyEnter}, nil)

	time.Sleep(10 * time.Millisecond)
	assert.False(t, called, "input during processing should be ignored")
}

func TestLogViewWrapAndScroll(t *testing.T) {
	lv := newLogView()
	lv.Resize(tea.WindowSizeMsg{Width: 30, Height: 10}, 1, 4)

	long := strings.Repeat("word ", 20)
	lv.Append(long)

	// Исходная строка хранится без переносов
	lines := lv.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, long, lines[0])

	lv.ReplaceLast("short")
	assert.Equal(t, "short", lv.LastLine())
}
