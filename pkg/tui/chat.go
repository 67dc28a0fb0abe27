package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mkarpenko/echo-ai/pkg/events"
	"github.com/mkarpenko/echo-ai/pkg/utils"
)

// ChatConfig конфигурирует ChatTui. Пустые поля получают дефолты.
type ChatConfig struct {
	Colors        ColorScheme
	Title         string
	ModelName     string
	Streaming     bool
	InputPrompt   string
	InputHeight   int
	ShowTimestamp bool
}

// ChatTui — терминальный чат с ассистентом.
//
// UI-компонент без логики диалога: события оркестратора приходят
// через events.Subscriber, ввод пользователя уходит в callback OnInput.
// Thread-safe.
type ChatTui struct {
	config     ChatConfig
	subscriber events.Subscriber

	log      *logView
	textarea textarea.Model

	mu           sync.RWMutex
	onInput      func(input string)
	isProcessing bool
	streamOpen   bool // последняя строка лога — стриминговый ответ
	modelName    string
}

var _ tea.Model = (*ChatTui)(nil)

// NewChatTui создаёт чат поверх подписчика на события оркестратора.
func NewChatTui(subscriber events.Subscriber, config ChatConfig) *ChatTui {
	if config.Colors.StatusForeground == "" {
		config.Colors = DefaultColorScheme()
	}
	if config.Title == "" {
		config.Title = "Echo AI"
	}
	if config.InputPrompt == "" {
		config.InputPrompt = "> "
	}
	if config.InputHeight == 0 {
		config.InputHeight = 3
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Focus()
	ta.Prompt = config.InputPrompt
	ta.CharLimit = 2000
	ta.SetHeight(config.InputHeight)
	ta.ShowLineNumbers = false

	log := newLogView()
	log.Append(config.Colors.SystemStyle("Session started. Type a message, Ctrl+C to quit."))

	return &ChatTui{
		config:     config,
		subscriber: subscriber,
		log:        log,
		textarea:   ta,
		modelName:  config.ModelName,
	}
}

// OnInput устанавливает callback для пользовательского ввода.
//
// Вызывается на каждый Enter; callback исполняется в отдельной горутине.
func (t *ChatTui) OnInput(handler func(input string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onInput = handler
}

// SetModelName обновляет имя модели в статус-баре.
func (t *ChatTui) SetModelName(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modelName = name
}

// Run запускает TUI (блокирующий вызов).
func (t *ChatTui) Run() error {
	p := tea.NewProgram(t, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// Init реализует tea.Model.
func (t *ChatTui) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, ReceiveEventCmd(t.subscriber))
}

// Update реализует tea.Model.
func (t *ChatTui) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var taCmd tea.Cmd
	t.textarea, taCmd = t.textarea.Update(msg)
	vpCmd := t.log.Update(msg)

	switch msg := msg.(type) {
	case EventMsg:
		t.handleEvent(events.Event(msg))
		return t, tea.Batch(taCmd, vpCmd, ReceiveEventCmd(t.subscriber))

	case tea.WindowSizeMsg:
		t.log.Resize(msg, 1, t.textarea.Height()+1)
		t.textarea.SetWidth(msg.Width)
		return t, nil

	case tea.KeyMsg:
		return t.handleKeyPress(msg, taCmd)
	}

	return t, tea.Batch(taCmd, vpCmd)
}

// handleEvent рендерит событие оркестратора в лог.
func (t *ChatTui) handleEvent(event events.Event) {
	colors := t.config.Colors

	switch event.Type {
	case events.EventThinking:
		t.setProcessing(true)
		t.log.Append(colors.SystemStyle("Thinking..."))

	case events.EventContentChunk:
		data, ok := event.Data.(events.ContentChunkData)
		if !ok {
			return
		}
		line := colors.AssistantStyle("AI: ") + data.Accumulated
		t.mu.Lock()
		open := t.streamOpen
		t.streamOpen = true
		t.mu.Unlock()
		if open {
			t.log.ReplaceLast(line)
		} else {
			t.log.Append(line)
		}

	case events.EventToolCall:
		t.closeStream()
		if data, ok := event.Data.(events.ToolCallData); ok {
			t.log.Append(colors.ToolCallStyle(
				fmt.Sprintf("Tool: %s(%s)", data.ToolName, utils.Truncate(data.Args, 120))))
		}

	case events.EventToolResult:
		if data, ok := event.Data.(events.ToolResultData); ok {
			line := fmt.Sprintf("Result: %s (%dms)", data.ToolName, data.Duration.Milliseconds())
			if data.IsError {
				t.log.Append(colors.ErrorStyle(line))
			} else {
				t.log.Append(colors.ToolResultStyle(line))
			}
		}

	case events.EventError:
		t.closeStream()
		if data, ok := event.Data.(events.ErrorData); ok {
			t.log.Append(colors.ErrorStyle("ERROR: " + data.Err.Error()))
		}
		t.setProcessing(false)
		t.textarea.Focus()

	case events.EventDone:
		data, _ := event.Data.(events.MessageData)
		final := colors.AssistantStyle("AI: ") + data.Content
		t.mu.Lock()
		open := t.streamOpen
		t.streamOpen = false
		t.mu.Unlock()
		if data.Content != "" {
			// Стриминговая строка уже содержит текст — заменяем финальной версией
			if open {
				t.log.ReplaceLast(t.stamp(final))
			} else {
				t.log.Append(t.stamp(final))
			}
		}
		t.setProcessing(false)
		t.textarea.Focus()
	}
}

func (t *ChatTui) handleKeyPress(msg tea.KeyMsg, taCmd tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return t, tea.Quit

	case tea.KeyEnter:
		input := strings.TrimSpace(t.textarea.Value())
		if input == "" {
			return t, nil
		}
		if t.processing() {
			return t, nil
		}

		t.textarea.Reset()
		t.log.Append(t.stamp(t.config.Colors.UserStyle("You: ") + input))

		t.mu.RLock()
		handler := t.onInput
		t.mu.RUnlock()
		if handler != nil {
			go handler(input)
		}
		return t, nil
	}

	return t, taCmd
}

// View реализует tea.Model.
func (t *ChatTui) View() string {
	streaming := "OFF"
	if t.config.Streaming {
		streaming = "ON"
	}
	if t.processing() {
		streaming = "THINKING"
	}

	t.mu.RLock()
	model := t.modelName
	t.mu.RUnlock()

	return fmt.Sprintf("%s\n%s\n%s",
		RenderStatusBar(t.config.Title, model, streaming, t.config.Colors),
		t.log.View(),
		t.textarea.View(),
	)
}

func (t *ChatTui) stamp(line string) string {
	if !t.config.ShowTimestamp {
		return line
	}
	return fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), line)
}

func (t *ChatTui) setProcessing(v bool) {
	t.mu.Lock()
	t.isProcessing = v
	t.mu.Unlock()
}

func (t *ChatTui) processing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isProcessing
}

func (t *ChatTui) closeStream() {
	t.mu.Lock()
	t.streamOpen = false
	t.mu.Unlock()
}
