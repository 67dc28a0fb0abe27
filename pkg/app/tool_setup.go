package app

import (
	"fmt"

	"github.com/mkarpenko/echo-ai/pkg/config"
	"github.com/mkarpenko/echo-ai/pkg/memory"
	"github.com/mkarpenko/echo-ai/pkg/tools"
	"github.com/mkarpenko/echo-ai/pkg/tools/std"
)

// SetupTools регистрирует стандартные инструменты согласно конфигурации.
//
// Инструмент попадает в реестр, только если его секция в cfg.Tools
// включена (отсутствие секции — инструмент включён по умолчанию).
// Инструменты памяти требуют включённой векторной памяти.
func SetupTools(registry *tools.Registry, cfg *config.AppConfig, mem *memory.Store) error {
	if toolEnabled(cfg, "get_current_weather") {
		if err := registry.Register(std.NewWeatherTool(cfg.Tools["get_current_weather"])); err != nil {
			return fmt.Errorf("failed to register weather tool: %w", err)
		}
	}

	if toolEnabled(cfg, "get_website_data") {
		if err := registry.Register(std.NewWebsiteTool(cfg.Tools["get_website_data"])); err != nil {
			return fmt.Errorf("failed to register website tool: %w", err)
		}
	}

	if mem != nil {
		if toolEnabled(cfg, "memory_save") {
			if err := registry.Register(std.NewMemorySaveTool(mem)); err != nil {
				return fmt.Errorf("failed to register memory_save tool: %w", err)
			}
		}
		if toolEnabled(cfg, "memory_search") {
			if err := registry.Register(std.NewMemorySearchTool(mem, cfg.Memory.TopK)); err != nil {
				return fmt.Errorf("failed to register memory_search tool: %w", err)
			}
		}
	}

	return nil
}

// toolEnabled проверяет флаг enabled секции инструмента.
func toolEnabled(cfg *config.AppConfig, name string) bool {
	tc, ok := cfg.Tools[name]
	if !ok {
		return true
	}
	return tc.Enabled
}
