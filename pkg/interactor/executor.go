// Выполнение tool-вызовов одного assistant-хода.
package interactor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mkarpenko/echo-ai/pkg/events"
	"github.com/mkarpenko/echo-ai/pkg/llm"
	"github.com/mkarpenko/echo-ai/pkg/tools"
	"github.com/mkarpenko/echo-ai/pkg/utils"
)

// cancelledPayload — ответ модели на отклонённый пользователем вызов.
// Текст фиксирован: модель учится не повторять отклонённое действие.
const cancelledPayload = `{"status": "cancelled", "message": "Tool call aborted by user"}`

// runToolCall выполняет один вызов и добавляет tool-сообщение в историю.
//
// Никогда не прерывает цикл: любой исход (ошибка парсинга, неизвестный
// инструмент, panic, отказ пользователя) сериализуется в payload и уходит
// модели обычным tool-результатом с ID исходного вызова.
func (it *Interactor) runToolCall(ctx context.Context, tc llm.ToolCall) {
	startTime := time.Now()

	it.emit(ctx, events.Event{
		Type: events.EventToolCall,
		Data: events.ToolCallData{ID: tc.ID, ToolName: tc.Name, Args: tc.Args},
	})

	payload, isError := it.executeToolCall(ctx, tc)

	it.append(llm.Message{
		Role:       llm.RoleTool,
		Content:    payload,
		ToolCallID: tc.ID,
		Name:       tc.Name,
	})

	it.emit(ctx, events.Event{
		Type: events.EventToolResult,
		Data: events.ToolResultData{
			ID:       tc.ID,
			ToolName: tc.Name,
			Result:   payload,
			IsError:  isError,
			Duration: time.Since(startTime),
		},
	})

	utils.Info("tool call finished",
		"tool", tc.Name,
		"is_error", isError,
		"duration_ms", time.Since(startTime).Milliseconds(),
		"result", utils.Truncate(payload, 200))
}

// executeToolCall возвращает сериализованный результат вызова.
func (it *Interactor) executeToolCall(ctx context.Context, tc llm.ToolCall) (payload string, isError bool) {
	tool, err := it.tools.Get(tc.Name)
	if err != nil {
		return errorPayload(err.Error()), true
	}

	// Модели заворачивают аргументы в markdown-блоки — снимаем обёртку
	args := utils.CleanJsonBlock(tc.Args)
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}

	if it.cfg.SafeMode && it.confirmer != nil && !it.confirmer.Confirm(tc.Name, args) {
		utils.Info("tool call declined by user", "tool", tc.Name)
		return cancelledPayload, false
	}

	if !json.Valid([]byte(args)) {
		return errorPayload(fmt.Sprintf("malformed tool arguments: %s", utils.Truncate(args, 200))), true
	}

	output, err := it.runWithTimeout(ctx, tool, args)
	if err != nil {
		return errorPayload(err.Error()), true
	}
	return output, false
}

// runWithTimeout выполняет инструмент с лимитом времени и перехватом panic.
func (it *Interactor) runWithTimeout(ctx context.Context, tool tools.Tool, args string) (string, error) {
	execCtx := ctx
	cancel := func() {}
	if it.cfg.ToolTimeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, it.cfg.ToolTimeout)
	}
	defer cancel()

	type outcome struct {
		out string
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		out, err := tool.Execute(execCtx, args)
		ch <- outcome{out: out, err: err}
	}()

	select {
	case o := <-ch:
		return o.out, o.err
	case <-execCtx.Done():
		return "", fmt.Errorf("tool execution aborted: %w", execCtx.Err())
	}
}

// errorPayload сериализует ошибку в JSON для модели.
func errorPayload(msg string) string {
	raw, err := json.Marshal(map[string]string{
		"status": "error",
		"error":  msg,
	})
	if err != nil {
		return `{"status": "error", "error": "internal error"}`
	}
	return string(raw)
}
