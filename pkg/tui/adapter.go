// Package tui реализует терминальный интерфейс ассистента на Bubble Tea.
//
// Пакет не содержит логики диалога: он подписывается на события
// оркестратора (Port & Adapter) и рендерит их, а пользовательский ввод
// отдаёт наружу через callback.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mkarpenko/echo-ai/pkg/events"
)

// EventMsg конвертирует events.Event в Bubble Tea сообщение.
type EventMsg events.Event

// ReceiveEventCmd возвращает Cmd, читающий одно событие из подписчика.
//
// Закрытие канала событий завершает программу.
func ReceiveEventCmd(sub events.Subscriber) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub.Events()
		if !ok {
			return tea.QuitMsg{}
		}
		return EventMsg(event)
	}
}
