package app

import (
	"testing"

	"github.com/mkarpenko/echo-ai/pkg/config"
	"github.com/mkarpenko/echo-ai/pkg/tools"
)

func TestSetupToolsRespectsConfig(t *testing.T) {
	cfg := &config.AppConfig{
		Tools: map[string]config.ToolConfig{
			"get_current_weather": {Enabled: false},
		},
	}

	registry := tools.NewRegistry()
	if err := SetupTools(registry, cfg, nil); err != nil {
		t.Fatalf("SetupTools() error = %v", err)
	}

	names := registry.Names()
	for _, name := range names {
		if name == "get_current_weather" {
			t.Error("disabled tool was registered")
		}
	}

	// Без секции — включён по умолчанию
	found := false
	for _, name := range names {
		if name == "get_website_data" {
			found = true
		}
	}
	if !found {
		t.Error("get_website_data not registered by default")
	}

	// Память выключена — memory-инструментов нет
	for _, name := range names {
		if name == "memory_save" || name == "memory_search" {
			t.Errorf("memory tool %s registered without memory store", name)
		}
	}
}
