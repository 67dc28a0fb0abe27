// Утилиты очистки вывода LLM от markdown-обёртки и мусора форматирования.
package utils

import (
	"strings"
)

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// Модели часто возвращают аргументы инструментов обёрнутыми в кодовые блоки:
//
//	```json
//	{"key": "value"}
//	```
//
// Функция снимает такую обёртку, возвращая чистый JSON.
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```Json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// CleanMarkdownCode удаляет все markdown code blocks из текста,
// оставляя только обычный текст между ними.
func CleanMarkdownCode(s string) string {
	lines := strings.Split(s, "\n")
	var result []string

	inCodeBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if !inCodeBlock {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// ExtractJSON извлекает первый JSON-объект из строки с пояснительным текстом.
//
// Возвращает пустую строку если объект не найден. Не валидирует JSON,
// только находит его по балансу скобок — валидация через json.Unmarshal.
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	// Элемент массива не считаем самостоятельным объектом
	if start > 0 && s[start-1] == '[' {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return s[start:]
}

// Truncate обрезает строку до limit рун, добавляя многоточие.
// Для логирования длинных аргументов и результатов инструментов.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
