// Package memory реализует долговременную векторную память ассистента.
//
// Заметки хранятся в SQLite вместе с эмбеддингами; поиск — косинусная
// близость по всем записям. Дедупликация по SHA-256 от нормализованного
// текста защищает от повторного сохранения одной и той же заметки.
package memory

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkarpenko/echo-ai/pkg/config"
)

// Embedder переводит текст в векторное представление.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder — эмбеддинги через OpenAI-совместимый endpoint.
type OpenAIEmbedder struct {
	api   *openai.Client
	model string
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder создает эмбеддер поверх настроенного провайдера.
func NewOpenAIEmbedder(def config.ModelDef, model string) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(def.APIKey)
	if def.BaseURL != "" {
		clientConfig.BaseURL = def.BaseURL
	}
	return &OpenAIEmbedder{
		api:   openai.NewClientWithConfig(clientConfig),
		model: model,
	}
}

// Embed возвращает вектор для одного текста.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}
	return resp.Data[0].Embedding, nil
}
