// Package state предоставляет thread-safe историю диалога ассистента.
//
// История append-only: сообщения добавляются в хвост и не переписываются.
// Единственное исключение — тримминг под бюджет контекстного окна,
// который выбрасывает самые старые сообщения целыми группами.
package state

import (
	"sync"

	"github.com/mkarpenko/echo-ai/pkg/llm"
)

// History — thread-safe история диалога.
//
// Системный промпт хранится отдельно от сообщений: он не участвует
// в тримминге и всегда идёт первым в собранном контексте.
type History struct {
	mu       sync.RWMutex
	system   string
	messages []llm.Message
}

// NewHistory создает пустую историю.
func NewHistory() *History {
	return &History{}
}

// SetSystemPrompt устанавливает системный промпт.
func (h *History) SetSystemPrompt(prompt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.system = prompt
}

// SystemPrompt возвращает текущий системный промпт.
func (h *History) SystemPrompt() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.system
}

// Append добавляет сообщение в хвост истории.
func (h *History) Append(msg llm.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// GetHistory возвращает копию сообщений без системного промпта.
func (h *History) GetHistory() []llm.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]llm.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// BuildContext собирает полный контекст запроса к модели:
// системный промпт (если задан) + копия истории.
func (h *History) BuildContext() []llm.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]llm.Message, 0, len(h.messages)+1)
	if h.system != "" {
		out = append(out, llm.Message{Role: llm.RoleSystem, Content: h.system})
	}
	out = append(out, h.messages...)
	return out
}

// Len возвращает количество сообщений (без системного промпта).
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear очищает историю, сохраняя системный промпт.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// Replace заменяет историю целиком (загрузка сохранённой сессии).
func (h *History) Replace(messages []llm.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make([]llm.Message, len(messages))
	copy(h.messages, messages)
}

// TrimToBudget выбрасывает старейшие сообщения, пока суммарный размер
// контекста не уложится в budget токенов. Возвращает число удалённых.
//
// budget <= 0 отключает тримминг. Последнее сообщение не выбрасывается
// никогда: текущий запрос пользователя должен дойти до модели.
//
// Assistant-сообщение с tool-вызовами и следующие за ним tool-результаты
// удаляются одной группой — иначе в истории остались бы tool-сообщения
// без вызова, на который они отвечают.
func (h *History) TrimToBudget(counter TokenCounter, budget int) int {
	if budget <= 0 || counter == nil {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for len(h.messages) > 1 && h.countLocked(counter) > budget {
		n := groupLen(h.messages)
		if n >= len(h.messages) {
			break
		}
		h.messages = h.messages[n:]
		dropped += n
	}
	return dropped
}

// countLocked считает токены системного промпта и всех сообщений.
// Вызывается только под мьютексом.
func (h *History) countLocked(counter TokenCounter) int {
	total := counter.Count(h.system)
	for _, m := range h.messages {
		total += CountMessage(counter, m)
	}
	return total
}

// groupLen возвращает размер неделимой группы в начале среза:
// assistant с tool-вызовами тянет за собой свои tool-результаты.
func groupLen(messages []llm.Message) int {
	if len(messages) == 0 {
		return 0
	}
	if !messages[0].HasToolCalls() {
		return 1
	}
	n := 1
	for n < len(messages) && messages[n].Role == llm.RoleTool {
		n++
	}
	return n
}
