// Базовые типы — универсальный язык общения с моделями.
package llm

// Role — роль участника диалога в терминах chat-completion протокола.
type Role string

// Роли сообщений.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message — одно сообщение истории диалога.
//
// Структура покрывает все четыре роли протокола:
//   - system/user: заполнен только Content
//   - assistant: Content и/или ToolCalls (решение модели вызвать инструменты)
//   - tool: Content (результат инструмента) + ToolCallID вызова, на который отвечаем
type Message struct {
	Role    Role
	Content string

	// ToolCalls — запросы модели на вызов инструментов.
	// Непустой только для assistant-сообщений.
	ToolCalls []ToolCall

	// ToolCallID связывает tool-сообщение с конкретным вызовом
	// из предыдущего assistant-сообщения. На каждый ToolCall истории
	// приходится ровно одно tool-сообщение с совпадающим ID.
	ToolCallID string

	// Name — имя инструмента для tool-сообщений (опционально по протоколу).
	Name string
}

// ToolCall — один запрос модели на вызов инструмента.
type ToolCall struct {
	ID   string
	Name string
	Args string // сырой JSON аргументов, как его прислала модель
}

// HasToolCalls сообщает, требует ли сообщение выполнения инструментов.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
