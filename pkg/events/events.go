// Package events предоставляет Port & Adapter интерфейсы для событий ассистента.
//
// Port — интерфейсы Emitter и Subscriber, определённые здесь.
// Adapter — реализация под конкретный UI (TUI, CLI): ядро зависит от
// интерфейса и ничего не знает об отрисовке.
//
// # Basic Usage
//
//	emitter := events.NewChanEmitter(100)
//	sub := emitter.Subscribe()
//	for event := range sub.Events() {
//	    switch event.Type {
//	    case events.EventContentChunk:
//	        ui.appendDelta(event.Data)
//	    case events.EventToolCall:
//	        ui.showToolCall(event.Data)
//	    }
//	}
//
// Все реализации интерфейсов должны быть thread-safe.
package events

import (
	"context"
	"time"
)

// EventType представляет тип события от ассистента.
type EventType string

const (
	// EventThinking — ассистент принял запрос и ждёт ответа модели.
	EventThinking EventType = "thinking"

	// EventContentChunk — порция потокового контента ответа.
	EventContentChunk EventType = "content_chunk"

	// EventToolCall — модель запросила вызов инструмента.
	EventToolCall EventType = "tool_call"

	// EventToolResult — инструмент вернул результат.
	EventToolResult EventType = "tool_result"

	// EventError — ошибка взаимодействия.
	EventError EventType = "error"

	// EventDone — взаимодействие завершено, финальный ответ готов.
	EventDone EventType = "done"
)

// EventData — sealed interface для данных события.
//
// Только типы этого пакета реализуют интерфейс: компилятор гарантирует,
// что в Event.Data не попадёт произвольное значение.
type EventData interface {
	eventData()
}

// ThinkingData содержит данные для EventThinking.
type ThinkingData struct {
	Query string
}

func (ThinkingData) eventData() {}

// ContentChunkData — порция потокового ответа.
type ContentChunkData struct {
	// Chunk — инкрементальная дельта
	Chunk string

	// Accumulated — весь контент, накопленный к этому моменту
	Accumulated string
}

func (ContentChunkData) eventData() {}

// ToolCallData содержит данные о вызове инструмента.
type ToolCallData struct {
	ID       string
	ToolName string
	Args     string
}

func (ToolCallData) eventData() {}

// ToolResultData содержит результат выполнения инструмента.
type ToolResultData struct {
	ID       string
	ToolName string
	Result   string
	IsError  bool
	Duration time.Duration
}

func (ToolResultData) eventData() {}

// MessageData содержит данные для EventDone (финальный ответ).
type MessageData struct {
	Content string
}

func (MessageData) eventData() {}

// ErrorData содержит данные для EventError.
type ErrorData struct {
	Err error
}

func (ErrorData) eventData() {}

// Event представляет одно событие от ассистента.
//
// Соответствие типов данных:
//   - EventThinking: ThinkingData
//   - EventContentChunk: ContentChunkData
//   - EventToolCall: ToolCallData
//   - EventToolResult: ToolResultData
//   - EventError: ErrorData
//   - EventDone: MessageData
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// Emitter — Port для отправки событий.
//
// Инвертирует зависимость: ядро зависит от интерфейса, а не от UI.
type Emitter interface {
	// Emit отправляет событие. При отменённом context операция прерывается.
	Emit(ctx context.Context, event Event)
}

// Subscriber позволяет читать события из канала.
type Subscriber interface {
	// Events возвращает read-only канал событий.
	// Канал закрывается при вызове Close() у эмиттера.
	Events() <-chan Event

	// Close освобождает ресурсы подписчика.
	Close()
}
