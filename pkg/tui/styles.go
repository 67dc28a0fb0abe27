package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ColorScheme определяет цвета элементов TUI.
//
// Каждое поле — lipgloss.Color (hex, ANSI или имя цвета).
type ColorScheme struct {
	StatusBackground lipgloss.Color
	StatusForeground lipgloss.Color

	SystemMessage    lipgloss.Color
	UserMessage      lipgloss.Color
	AssistantMessage lipgloss.Color
	ErrorMessage     lipgloss.Color
	Thinking         lipgloss.Color
	ToolCall         lipgloss.Color
	ToolResult       lipgloss.Color

	Border lipgloss.Color
}

// ColorSchemes — предустановленные цветовые схемы.
var ColorSchemes = map[string]ColorScheme{
	"default": {
		StatusBackground: lipgloss.Color("235"),
		StatusForeground: lipgloss.Color("252"),
		SystemMessage:    lipgloss.Color("242"),
		UserMessage:      lipgloss.Color("226"),
		AssistantMessage: lipgloss.Color("86"),
		ErrorMessage:     lipgloss.Color("196"),
		Thinking:         lipgloss.Color("99"),
		ToolCall:         lipgloss.Color("228"),
		ToolResult:       lipgloss.Color("154"),
		Border:           lipgloss.Color("240"),
	},
	"dark": {
		StatusBackground: lipgloss.Color("0"),
		StatusForeground: lipgloss.Color("15"),
		SystemMessage:    lipgloss.Color("8"),
		UserMessage:      lipgloss.Color("11"),
		AssistantMessage: lipgloss.Color("14"),
		ErrorMessage:     lipgloss.Color("9"),
		Thinking:         lipgloss.Color("13"),
		ToolCall:         lipgloss.Color("3"),
		ToolResult:       lipgloss.Color("10"),
		Border:           lipgloss.Color("7"),
	},
}

// DefaultColorScheme возвращает схему "default".
func DefaultColorScheme() ColorScheme {
	return ColorSchemes["default"]
}

func styled(color lipgloss.Color, bold bool, str string) string {
	style := lipgloss.NewStyle().Foreground(color)
	if bold {
		style = style.Bold(true)
	}
	return style.Render(str)
}

// SystemStyle — серые служебные сообщения.
func (c ColorScheme) SystemStyle(str string) string { return styled(c.SystemMessage, false, str) }

// UserStyle — ввод пользователя.
func (c ColorScheme) UserStyle(str string) string { return styled(c.UserMessage, true, str) }

// AssistantStyle — ответы модели.
func (c ColorScheme) AssistantStyle(str string) string { return styled(c.AssistantMessage, true, str) }

// ErrorStyle — ошибки.
func (c ColorScheme) ErrorStyle(str string) string { return styled(c.ErrorMessage, true, str) }

// ThinkingStyle — reasoning content.
func (c ColorScheme) ThinkingStyle(str string) string { return styled(c.Thinking, false, str) }

// ToolCallStyle — вызовы инструментов.
func (c ColorScheme) ToolCallStyle(str string) string { return styled(c.ToolCall, false, str) }

// ToolResultStyle — результаты инструментов.
func (c ColorScheme) ToolResultStyle(str string) string { return styled(c.ToolResult, false, str) }

// Divider — горизонтальная разделительная линия.
func (c ColorScheme) Divider(width int) string {
	return styled(c.Border, false, strings.Repeat("─", width))
}

// RenderStatusBar рендерит статус-бар с моделью и режимом стриминга.
func RenderStatusBar(title, model, streaming string, colors ColorScheme) string {
	if model == "" {
		model = "N/A"
	}
	if streaming == "" {
		streaming = "OFF"
	}

	content := " " + title + " | Model: " + model + " | Streaming: " + streaming + " "

	return lipgloss.NewStyle().
		Foreground(colors.StatusForeground).
		Background(colors.StatusBackground).
		Bold(true).
		Render(content)
}
