// Проба поддержки Function Calling у модели.
package models

import (
	"context"

	"github.com/mkarpenko/echo-ai/pkg/llm"
	"github.com/mkarpenko/echo-ai/pkg/tools"
	"github.com/mkarpenko/echo-ai/pkg/utils"
)

// probeTool — фиктивный инструмент для пробного запроса.
// Модель никогда его не выполняет: нас интересует только то,
// примет ли API определения tools и вернёт ли tool_calls.
var probeTool = []tools.ToolDefinition{{
	Name:        "get_current_weather",
	Description: "Get the current weather for a location",
	Parameters: tools.JSONSchema{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "City name",
			},
		},
		"required": []any{"location"},
	},
}}

// probePrompt сформулирован так, чтобы модель с поддержкой инструментов
// почти наверняка решила вызвать фиктивную функцию.
const probePrompt = "What's the weather like in Boston right now?"

// ProbeToolSupport выполняет один пробный запрос с фиктивным инструментом.
//
// Модель поддерживает инструменты, если запрос прошёл и в ответе есть
// tool_calls. Любая ошибка трактуется как отсутствие поддержки: endpoint,
// отвергающий параметр tools, отвечает протокольной ошибкой, а не флагом.
func ProbeToolSupport(ctx context.Context, provider llm.Provider) bool {
	messages := []llm.Message{{Role: llm.RoleUser, Content: probePrompt}}

	resp, err := provider.Generate(ctx, messages, probeTool)
	if err != nil {
		utils.Debug("tool support probe failed", "error", err)
		return false
	}

	return resp.HasToolCalls()
}
