package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wrap"
)

// logView управляет viewport с переносом строк и умной прокруткой.
//
// Исходные строки хранятся без переносов: при ресайзе контент
// переносится заново под новую ширину. Позиция пользователя
// сохраняется, если он прокрутил вверх для просмотра истории.
type logView struct {
	viewport viewport.Model
	lines    []string
	mu       sync.Mutex
}

func newLogView() *logView {
	return &logView{viewport: viewport.New(0, 0)}
}

// Resize подгоняет размеры и заново переносит контент.
func (lv *logView) Resize(msg tea.WindowSizeMsg, headerHeight, footerHeight int) {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	height := msg.Height - headerHeight - footerHeight
	if height < 1 {
		height = 1
	}
	width := msg.Width
	if width < 20 {
		width = 20
	}

	// Позицию фиксируем до смены размеров
	wasAtBottom := lv.atBottom()

	lv.viewport.Height = height
	lv.viewport.Width = width
	lv.viewport.SetContent(lv.wrapped())

	if wasAtBottom {
		lv.viewport.GotoBottom()
		return
	}
	maxOffset := lv.viewport.TotalLineCount() - lv.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if lv.viewport.YOffset > maxOffset {
		lv.viewport.YOffset = maxOffset
	}
}

// Append добавляет строку в лог.
func (lv *logView) Append(line string) {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	lv.lines = append(lv.lines, line)
	lv.refresh()
}

// ReplaceLast заменяет последнюю строку лога (стриминговое обновление).
func (lv *logView) ReplaceLast(line string) {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	if len(lv.lines) == 0 {
		lv.lines = []string{line}
	} else {
		lv.lines[len(lv.lines)-1] = line
	}
	lv.refresh()
}

// LastLine возвращает последнюю строку лога.
func (lv *logView) LastLine() string {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	if len(lv.lines) == 0 {
		return ""
	}
	return lv.lines[len(lv.lines)-1]
}

// Lines возвращает копию исходных строк.
func (lv *logView) Lines() []string {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return append([]string(nil), lv.lines...)
}

// View делегирует рендеринг viewport.
func (lv *logView) View() string {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.viewport.View()
}

// Update пробрасывает сообщения (прокрутка колесом и клавишами).
func (lv *logView) Update(msg tea.Msg) tea.Cmd {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	var cmd tea.Cmd
	lv.viewport, cmd = lv.viewport.Update(msg)
	return cmd
}

func (lv *logView) refresh() {
	wasAtBottom := lv.atBottom()
	lv.viewport.SetContent(lv.wrapped())
	if wasAtBottom {
		lv.viewport.GotoBottom()
	}
}

func (lv *logView) atBottom() bool {
	return lv.viewport.YOffset+lv.viewport.Height >= lv.viewport.TotalLineCount()
}

func (lv *logView) wrapped() string {
	if lv.viewport.Width <= 0 {
		return strings.Join(lv.lines, "\n")
	}
	var out []string
	for _, line := range lv.lines {
		out = append(out, strings.Split(wrap.String(line, lv.viewport.Width), "\n")...)
	}
	return strings.Join(out, "\n")
}
