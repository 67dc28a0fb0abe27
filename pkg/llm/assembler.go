// Сборка фрагментированного потокового ответа в нормализованное сообщение.
package llm

import "strings"

// StreamDelta — один сырой чанк потокового ответа в wire-формате.
//
// Провайдерские адаптеры конвертируют SDK-специфичные дельты в эту
// структуру и скармливают Assembler'у. В одном чанке могут одновременно
// присутствовать и контент, и фрагменты tool-вызовов.
type StreamDelta struct {
	// Content — очередной фрагмент текстового контента (возможно пустой)
	Content string

	// ReasoningContent — фрагмент reasoning из thinking-режима
	ReasoningContent string

	// ToolCalls — фрагменты tool-вызовов этого чанка
	ToolCalls []ToolCallDelta

	// FinishReason — терминальный маркер ("stop", "tool_calls", ...),
	// пустой для промежуточных чанков
	FinishReason string
}

// ToolCallDelta — фрагмент одного tool-вызова.
//
// По протоколу chat-completion стрима ID и имя функции приходят один раз
// в первом фрагменте с данным Index, аргументы размазаны по многим
// фрагментам и конкатенируются в порядке прихода.
type ToolCallDelta struct {
	// Index — позиция вызова в ответе. Ключ накопления: фрагменты
	// разных вызовов могут чередоваться в потоке.
	Index int

	ID   string
	Name string

	// Args — очередной фрагмент JSON-аргументов
	Args string
}

// toolCallAccum — накопитель одного tool-вызова.
type toolCallAccum struct {
	id   string
	name string
	args strings.Builder
	seen bool
}

// Assembler накапливает потоковые дельты в одно нормализованное Message.
//
// Гарантия инвариантности к нарезке: любой способ разбиения одного и
// того же логического ответа на чанки даёт идентичный результат Message().
//
// Не thread-safe: один стрим обрабатывается одной goroutine.
type Assembler struct {
	content      strings.Builder
	reasoning    strings.Builder
	calls        []toolCallAccum // индекс слайса == Index вызова
	finishReason string
}

// NewAssembler создаёт пустой накопитель для одного потокового ответа.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Feed обрабатывает очередную дельту потока.
//
// Контент дописывается в хвост. Фрагменты tool-вызовов сливаются по Index:
// непустые ID/Name фиксируются (повторный непустой перезаписывает —
// по контракту протокола они приходят однажды), аргументы конкатенируются.
func (a *Assembler) Feed(d StreamDelta) {
	a.content.WriteString(d.Content)
	a.reasoning.WriteString(d.ReasoningContent)

	for _, tc := range d.ToolCalls {
		if tc.Index < 0 {
			continue
		}
		a.grow(tc.Index)

		acc := &a.calls[tc.Index]
		acc.seen = true
		if tc.ID != "" {
			acc.id = tc.ID
		}
		if tc.Name != "" {
			acc.name = tc.Name
		}
		acc.args.WriteString(tc.Args)
	}

	if d.FinishReason != "" {
		a.finishReason = d.FinishReason
	}
}

// grow расширяет слайс накопителей до index включительно.
func (a *Assembler) grow(index int) {
	for len(a.calls) <= index {
		a.calls = append(a.calls, toolCallAccum{})
	}
}

// Content возвращает накопленный на данный момент текстовый контент.
func (a *Assembler) Content() string {
	return a.content.String()
}

// ReasoningContent возвращает накопленный reasoning.
func (a *Assembler) ReasoningContent() string {
	return a.reasoning.String()
}

// FinishReason возвращает терминальный маркер завершения потока.
func (a *Assembler) FinishReason() string {
	return a.finishReason
}

// Message финализирует накопленное в нормализованное assistant-сообщение.
//
// Tool-вызовы выдаются в порядке возрастания Index. Пустые аргументы
// нормализуются в "{}" — валидный JSON для инструментов без параметров.
func (a *Assembler) Message() Message {
	msg := Message{
		Role:    RoleAssistant,
		Content: a.content.String(),
	}

	for i := range a.calls {
		acc := &a.calls[i]
		if !acc.seen {
			continue
		}
		args := acc.args.String()
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:   acc.id,
			Name: acc.name,
			Args: args,
		})
	}

	return msg
}
