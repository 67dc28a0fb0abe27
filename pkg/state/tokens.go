// Подсчёт токенов для тримминга истории под контекстное окно.
package state

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/mkarpenko/echo-ai/pkg/llm"
)

// TokenCounter считает токены в тексте.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter — точный подсчёт через BPE-кодировку модели.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

var _ TokenCounter = (*TiktokenCounter)(nil)

// NewTiktokenCounter создает счётчик для указанной модели.
//
// Неизвестная модель получает кодировку cl100k_base — для бюджетирования
// контекста важен порядок величины, а не точное совпадение токенизатора.
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count возвращает число токенов в тексте.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// HeuristicCounter — грубая оценка ~4 байта на токен.
//
// Fallback на случай, когда BPE-словарь недоступен (офлайн-окружение):
// NewTiktokenCounter скачивает словарь при первом использовании.
type HeuristicCounter struct{}

var _ TokenCounter = HeuristicCounter{}

// Count оценивает число токенов по длине текста.
func (HeuristicCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

// NewCounter возвращает точный счётчик, а при его недоступности — эвристику.
func NewCounter(model string) TokenCounter {
	if c, err := NewTiktokenCounter(model); err == nil {
		return c
	}
	return HeuristicCounter{}
}

// CountMessage считает токены одного сообщения: роль, контент
// и аргументы tool-вызовов.
func CountMessage(counter TokenCounter, m llm.Message) int {
	total := counter.Count(string(m.Role)) + counter.Count(m.Content)
	for _, tc := range m.ToolCalls {
		total += counter.Count(tc.Name) + counter.Count(tc.Args)
	}
	return total
}
