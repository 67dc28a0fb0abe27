// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Один адаптер обслуживает все namespace'ы (openai, ollama, nvidia, google):
// они различаются только BaseURL и ключом. Поддерживает Function Calling
// и потоковую генерацию; оба режима нормализуются через llm.Assembler,
// поэтому вызывающий код получает одинаковый Message вне зависимости
// от транспортного пути.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/mkarpenko/echo-ai/pkg/config"
	"github.com/mkarpenko/echo-ai/pkg/llm"
	"github.com/mkarpenko/echo-ai/pkg/tools"
	"github.com/mkarpenko/echo-ai/pkg/utils"
)

// retryAttempts — попытки запроса при 429/5xx, с экспоненциальной паузой.
const retryAttempts = 3

// Client реализует llm.Provider и llm.StreamingProvider
// для OpenAI-совместимых API.
type Client struct {
	api     *openai.Client
	model   string
	def     config.ModelDef
	limiter *rate.Limiter
}

var _ llm.Provider = (*Client)(nil)
var _ llm.StreamingProvider = (*Client)(nil)

// NewClient создает клиент на основе транспортной конфигурации модели.
//
// Все настройки из конфигурации, никакого хардкода: BaseURL переключает
// namespace, RateLimit ограничивает частоту запросов к API.
func NewClient(modelDef config.ModelDef) *Client {
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}

	var limiter *rate.Limiter
	if modelDef.RateLimit > 0 {
		burst := modelDef.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(modelDef.RateLimit), burst)
	}

	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   modelDef.ModelName,
		def:     modelDef,
		limiter: limiter,
	}
}

// Generate выполняет синхронный запрос и возвращает нормализованный ответ.
//
// opts принимает []tools.ToolDefinition (инструменты для Function Calling)
// и llm.GenerateOption (переопределение параметров).
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	startTime := time.Now()

	req, err := c.buildRequest(messages, opts...)
	if err != nil {
		return llm.Message{}, err
	}

	utils.Debug("LLM request started",
		"model", req.Model,
		"messages_count", len(messages),
		"tools_count", len(req.Tools))

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	var resp openai.ChatCompletionResponse
	err = c.doWithRetry(ctx, func() error {
		var callErr error
		resp, callErr = c.api.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", req.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("no choices in response")
	}

	result := normalizeChoice(resp.Choices[0])

	utils.Info("LLM response received",
		"model", req.Model,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// GenerateStream выполняет потоковый запрос.
//
// Контент и reasoning уходят в callback по мере поступления; фрагменты
// tool-вызовов накапливаются в Assembler и возвращаются собранными
// в финальном Message. При выключенном стриминге (WithStream(false))
// делает fallback на синхронный Generate.
func (c *Client) GenerateStream(
	ctx context.Context,
	messages []llm.Message,
	callback func(llm.StreamChunk),
	opts ...any,
) (llm.Message, error) {
	if !llm.IsStreamingMode(opts...) {
		msg, err := c.Generate(ctx, messages, opts...)
		if err != nil {
			callback(llm.StreamChunk{Type: llm.ChunkError, Error: err})
			return llm.Message{}, err
		}
		if msg.Content != "" {
			callback(llm.StreamChunk{Type: llm.ChunkContent, Delta: msg.Content, Content: msg.Content})
		}
		callback(llm.StreamChunk{Type: llm.ChunkDone, Content: msg.Content, Done: true})
		return msg, nil
	}

	startTime := time.Now()

	req, err := c.buildRequest(messages, opts...)
	if err != nil {
		return llm.Message{}, err
	}
	req.Stream = true

	utils.Debug("LLM stream started",
		"model", req.Model,
		"messages_count", len(messages),
		"tools_count", len(req.Tools))

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	var stream *openai.ChatCompletionStream
	err = c.doWithRetry(ctx, func() error {
		var callErr error
		stream, callErr = c.api.CreateChatCompletionStream(ctx, req)
		return callErr
	})
	if err != nil {
		callback(llm.StreamChunk{Type: llm.ChunkError, Error: err})
		utils.Error("LLM stream open failed", "error", err, "model", req.Model)
		return llm.Message{}, fmt.Errorf("openai stream error: %w", err)
	}
	defer stream.Close()

	asm := llm.NewAssembler()
	for {
		resp, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			callback(llm.StreamChunk{Type: llm.ChunkError, Error: recvErr})
			utils.Error("LLM stream recv failed",
				"error", recvErr,
				"model", req.Model,
				"duration_ms", time.Since(startTime).Milliseconds())
			return llm.Message{}, fmt.Errorf("openai stream error: %w", recvErr)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		choice := resp.Choices[0]
		delta := llm.StreamDelta{
			Content:          choice.Delta.Content,
			ReasoningContent: choice.Delta.ReasoningContent,
			FinishReason:     string(choice.FinishReason),
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			delta.ToolCalls = append(delta.ToolCalls, llm.ToolCallDelta{
				Index: idx,
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Args:  tc.Function.Arguments,
			})
		}
		asm.Feed(delta)

		if delta.ReasoningContent != "" {
			callback(llm.StreamChunk{
				Type:             llm.ChunkThinking,
				Delta:            delta.ReasoningContent,
				ReasoningContent: asm.ReasoningContent(),
			})
		}
		if delta.Content != "" {
			callback(llm.StreamChunk{
				Type:    llm.ChunkContent,
				Delta:   delta.Content,
				Content: asm.Content(),
			})
		}
	}

	result := asm.Message()
	callback(llm.StreamChunk{Type: llm.ChunkDone, Content: result.Content, Done: true})

	utils.Info("LLM stream finished",
		"model", req.Model,
		"finish_reason", asm.FinishReason(),
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// buildRequest собирает запрос из сообщений и опций.
func (c *Client) buildRequest(messages []llm.Message, opts ...any) (openai.ChatCompletionRequest, error) {
	genOpts := llm.GenerateOptions{
		Model:       c.model,
		Temperature: c.def.Temperature,
		MaxTokens:   c.def.MaxTokens,
	}

	var toolDefs []tools.ToolDefinition
	for _, opt := range opts {
		switch v := opt.(type) {
		case []tools.ToolDefinition:
			toolDefs = v
		case llm.GenerateOption:
			v(&genOpts)
		case llm.StreamOption:
			// обрабатывается в GenerateStream
		default:
			return openai.ChatCompletionRequest{}, fmt.Errorf("unsupported option type: %T", opt)
		}
	}

	openaiMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		openaiMsgs[i] = mapToOpenAI(m)
	}

	req := openai.ChatCompletionRequest{
		Model:       genOpts.Model,
		Messages:    openaiMsgs,
		Temperature: float32(genOpts.Temperature),
		MaxTokens:   genOpts.MaxTokens,
	}

	if len(toolDefs) > 0 {
		req.Tools = convertToolsToOpenAI(toolDefs)
		// Автоматический режим: модель сама решает когда вызывать tools
		req.ToolChoice = "auto"
		if genOpts.ToolChoice != "" {
			req.ToolChoice = genOpts.ToolChoice
		}
	}

	return req, nil
}

// requestContext навешивает таймаут одного запроса, если он задан.
func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.def.Timeout > 0 {
		return context.WithTimeout(ctx, c.def.Timeout)
	}
	return ctx, func() {}
}

// doWithRetry повторяет вызов при 429 и 5xx с экспоненциальной паузой.
func (c *Client) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < retryAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		backoff := time.Duration(1<<attempt) * 500 * time.Millisecond
		utils.Warn("LLM request retrying",
			"model", c.model,
			"attempt", attempt+1,
			"backoff_ms", backoff.Milliseconds(),
			"error", lastErr)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// isRetryable: rate limit и ошибки на стороне сервиса.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
}

// normalizeChoice прогоняет синхронный ответ через Assembler.
//
// Единый путь нормализации: синхронный ответ представляется как поток
// из одной дельты, поэтому извлечение tool-вызовов и нормализация
// пустых аргументов идентичны потоковому режиму.
func normalizeChoice(choice openai.ChatCompletionChoice) llm.Message {
	delta := llm.StreamDelta{
		Content:          choice.Message.Content,
		ReasoningContent: choice.Message.ReasoningContent,
		FinishReason:     string(choice.FinishReason),
	}
	for i, tc := range choice.Message.ToolCalls {
		delta.ToolCalls = append(delta.ToolCalls, llm.ToolCallDelta{
			Index: i,
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Args:  tc.Function.Arguments,
		})
	}

	asm := llm.NewAssembler()
	asm.Feed(delta)
	return asm.Message()
}

// mapToOpenAI конвертирует внутреннее сообщение в формат SDK.
func mapToOpenAI(m llm.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:    string(m.Role),
		Content: m.Content,
	}

	if m.Role == llm.RoleTool {
		msg.ToolCallID = m.ToolCallID
		msg.Name = m.Name
	}

	if len(m.ToolCalls) > 0 {
		msg.ToolCalls = make([]openai.ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			msg.ToolCalls[i] = openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Args,
				},
			}
		}
	}

	return msg
}

// convertToolsToOpenAI конвертирует определения инструментов в формат
// OpenAI Function Calling.
//
// ToolDefinition.Parameters уже является JSON Schema объектом,
// поэтому передаётся в SDK напрямую.
func convertToolsToOpenAI(defs []tools.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(defs))

	for i, def := range defs {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}

	return result
}
