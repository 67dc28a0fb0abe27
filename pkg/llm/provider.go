// Интерфейс провайдера, через который работает всё приложение.
package llm

import "context"

// Provider — контракт для любого AI-сервиса.
//
// Работаем только через интерфейс: конкретные реализации
// (OpenAI-совместимые API, моки в тестах) скрыты за этой абстракцией.
//
// Все методы уважают context.Context и прерывают операцию при отмене.
type Provider interface {
	// Generate выполняет синхронный запрос и возвращает нормализованный ответ.
	//
	// opts принимает:
	//   - []tools.Definition — определения инструментов для Function Calling
	//   - GenerateOption — переопределение параметров генерации
	//
	// ToolCalls в ответе уже извлечены из wire-формата провайдера:
	// вызывающему коду не нужно знать, пришёл ответ стримом или синхронно.
	Generate(ctx context.Context, messages []Message, opts ...any) (Message, error)
}
