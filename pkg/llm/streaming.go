// Абстракции потоковой передачи (streaming) ответов от LLM.
package llm

import "context"

// StreamingProvider — интерфейс провайдера с поддержкой стриминга.
//
// Отдельный интерфейс от Provider: провайдеры могут реализовать оба
// или только синхронный Provider, вызывающий код проверяет через type assertion.
type StreamingProvider interface {
	Provider

	// GenerateStream выполняет запрос с потоковой передачей ответа.
	//
	// Callback вызывается для каждой порции данных по мере поступления
	// (контент, reasoning, ошибка, завершение). Фрагменты tool-вызовов
	// в callback не попадают: они накапливаются внутри и возвращаются
	// уже собранными в финальном Message.
	//
	// Финальный Message идентичен тому, что вернул бы синхронный Generate
	// для того же ответа — один путь нормализации для обоих режимов.
	//
	// Callback может вызываться из другой goroutine, должен быть thread-safe.
	GenerateStream(
		ctx context.Context,
		messages []Message,
		callback func(StreamChunk),
		opts ...any,
	) (Message, error)
}

// StreamChunk — одна порция данных потокового ответа для подписчиков UI.
//
// Содержит как инкрементальное изменение (Delta), так и накопленное
// состояние (Content) — удобно и для плавной отрисовки, и для замены целиком.
type StreamChunk struct {
	// Type определяет тип чанка
	Type ChunkType

	// Content — накопленный текстовый контент на данный момент
	Content string

	// ReasoningContent — накопленный reasoning из thinking-режима модели
	ReasoningContent string

	// Delta — инкрементальное изменение этого чанка
	Delta string

	// Done — флаг завершения стриминга
	Done bool

	// Error — ошибка стриминга (только при Type == ChunkError)
	Error error
}

// ChunkType определяет тип стримингового чанка.
type ChunkType string

const (
	// ChunkThinking — reasoning_content из thinking-режима.
	ChunkThinking ChunkType = "thinking"

	// ChunkContent — обычный контент ответа.
	ChunkContent ChunkType = "content"

	// ChunkError — ошибка стриминга.
	ChunkError ChunkType = "error"

	// ChunkDone — все данные получены.
	ChunkDone ChunkType = "done"
)
