// Package factory создает LLM провайдеров по транспортной конфигурации.
package factory

import (
	"fmt"

	"github.com/mkarpenko/echo-ai/pkg/config"
	"github.com/mkarpenko/echo-ai/pkg/llm"
	"github.com/mkarpenko/echo-ai/pkg/llm/openai"
)

// NewLLMProvider создает провайдера на основе конфигурации модели.
//
// Все поддерживаемые namespace'ы (openai, ollama, nvidia, google и любые
// пользовательские) говорят на OpenAI-совместимом wire-протоколе и
// различаются только BaseURL/ключом, поэтому адаптер один.
func NewLLMProvider(modelDef config.ModelDef) (llm.Provider, error) {
	if modelDef.Provider == "" {
		return nil, fmt.Errorf("empty provider namespace")
	}
	if modelDef.ModelName == "" {
		return nil, fmt.Errorf("empty model name for provider '%s'", modelDef.Provider)
	}
	return openai.NewClient(modelDef), nil
}
