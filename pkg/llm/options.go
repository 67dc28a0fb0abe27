// Package llm предоставляет функциональные опции параметров генерации.
//
// Опции задаются при инициализации (из config.yaml) и могут
// переопределяться в рантайме при конкретном вызове.
package llm

// GenerateOptions — параметры одного запроса генерации.
type GenerateOptions struct {
	// Model — идентификатор модели (например "gpt-4o", "qwen3:latest")
	Model string

	// Temperature управляет случайностью ответа (0.0 = детерминированный)
	Temperature float64

	// MaxTokens ограничивает длину ответа
	MaxTokens int

	// ToolChoice — режим выбора инструментов ("auto" по умолчанию,
	// когда инструменты переданы; "none" чтобы запретить вызовы)
	ToolChoice string
}

// GenerateOption — функциональная опция для GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithModel переопределяет модель для конкретного запроса.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithTemperature переопределяет температуру генерации.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens переопределяет лимит токенов ответа.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// WithToolChoice задаёт режим выбора инструментов.
func WithToolChoice(choice string) GenerateOption {
	return func(o *GenerateOptions) {
		o.ToolChoice = choice
	}
}

// StreamOptions — параметры стриминга.
type StreamOptions struct {
	// Enabled — включен ли стриминг (default: true, opt-out).
	// false — GenerateStream делает fallback на синхронный Generate.
	Enabled bool
}

// StreamOption — функциональная опция стриминга.
type StreamOption func(*StreamOptions)

// WithStream включает или выключает стриминг.
func WithStream(enabled bool) StreamOption {
	return func(o *StreamOptions) {
		o.Enabled = enabled
	}
}

// IsStreamingMode проверяет, включен ли стриминг в опциях.
//
// По умолчанию true (opt-out дизайн): стриминг включён,
// если явно не выключен через WithStream(false).
func IsStreamingMode(opts ...any) bool {
	for _, opt := range opts {
		if streamOpt, ok := opt.(StreamOption); ok {
			so := StreamOptions{Enabled: true}
			streamOpt(&so)
			return so.Enabled
		}
	}
	return true
}
