// Package config загружает и валидирует конфигурацию приложения из YAML.
//
// Все настройки берутся из файла, секреты подставляются из переменных
// окружения через ${VAR} — никакого хардкода ключей в коде.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig — корневая структура конфигурации.
// Зеркалит структуру config.yaml.
type AppConfig struct {
	Agent     AgentConfig            `yaml:"agent"`
	Providers map[string]ProviderDef `yaml:"providers"`
	Model     ModelParams            `yaml:"model"`
	Tools     map[string]ToolConfig  `yaml:"tools"`
	Storage   StorageConfig          `yaml:"storage"`
	Memory    MemoryConfig           `yaml:"memory"`
	Logging   LoggingConfig          `yaml:"logging"`
}

// AgentConfig — поведение диалогового цикла.
type AgentConfig struct {
	// DefaultModel — ссылка вида "namespace:model_name", например "openai:gpt-4o"
	DefaultModel string `yaml:"default_model"`

	// SystemPrompt — текст системного промпта (приоритет над файлом)
	SystemPrompt string `yaml:"system_prompt"`

	// SystemPromptFile — путь к файлу с системным промптом
	SystemPromptFile string `yaml:"system_prompt_file"`

	// MaxRounds — лимит раундов модель→инструменты за одно взаимодействие
	MaxRounds int `yaml:"max_rounds"`

	// SafeMode — запрашивать подтверждение перед каждым вызовом инструмента
	SafeMode bool `yaml:"safe_mode"`

	// Streaming — потоковый режим ответов (opt-out)
	Streaming *bool `yaml:"streaming"`

	// ToolsEnabled — передавать ли модели определения инструментов
	ToolsEnabled *bool `yaml:"tools_enabled"`

	// ToolTimeout — лимит на выполнение одного инструмента, 0 = без лимита
	ToolTimeout time.Duration `yaml:"tool_timeout"`

	// ContextLength — бюджет истории в токенах, 0 = без тримминга
	ContextLength int `yaml:"context_length"`
}

// ProviderDef — OpenAI-совместимый endpoint одного namespace.
type ProviderDef struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // поддерживает ${VAR}
}

// ModelParams — параметры генерации, общие для всех моделей.
type ModelParams struct {
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`    // на один запрос к API
	RateLimit   float64       `yaml:"rate_limit"` // запросов в секунду, 0 = без лимита
	Burst       int           `yaml:"burst"`
}

// ModelDef — собранные параметры конкретной модели для транспорта.
//
// Строится из ProviderDef + ModelParams в момент резолва ссылки
// "namespace:model_name"; транспортный клиент получает её целиком.
type ModelDef struct {
	Provider    string
	ModelName   string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	RateLimit   float64
	Burst       int
}

// ToolConfig — настройки отдельного инструмента.
type ToolConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`

	// Description переопределяет описание инструмента для модели
	Description string `yaml:"description"`

	// Endpoint переопределяет базовый URL внешнего API
	Endpoint string `yaml:"endpoint"`

	// RateLimit — запросов в секунду к внешнему API (0 — без лимита)
	RateLimit int `yaml:"rate_limit"`
	Burst     int `yaml:"burst"`
}

// StorageConfig — локальное и объектное хранилища.
type StorageConfig struct {
	// SQLitePath — файл базы сессий и памяти
	SQLitePath string `yaml:"sqlite_path"`

	S3 S3Config `yaml:"s3"`
}

// S3Config — настройки объектного хранилища для экспорта сессий.
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
}

// MemoryConfig — векторная память ассистента.
type MemoryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Model — ссылка на embedding-модель, например "openai:text-embedding-3-small"
	Model string `yaml:"model"`

	// TopK — сколько ближайших воспоминаний возвращать при поиске
	TopK int `yaml:"top_k"`

	// AutoRecall — подмешивать найденные воспоминания в контекст каждого запроса
	AutoRecall bool `yaml:"auto_recall"`
}

// LoggingConfig — файловое логирование.
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Debug bool   `yaml:"debug"`
}

// DefaultProviders — namespace'ы, известные из коробки.
// Пользовательская секция providers дополняет и переопределяет их.
func DefaultProviders() map[string]ProviderDef {
	return map[string]ProviderDef{
		"openai": {BaseURL: "https://api.openai.com/v1", APIKey: "${OPENAI_API_KEY}"},
		"ollama": {BaseURL: "http://localhost:11434/v1", APIKey: "ollama"},
		"nvidia": {BaseURL: "https://integrate.api.nvidia.com/v1", APIKey: "${NVIDIA_API_KEY}"},
		"google": {BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai", APIKey: "${GEMINI_API_KEY}"},
	}
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из окружения.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults заполняет незаданные поля рабочими значениями.
func (c *AppConfig) applyDefaults() {
	defaults := DefaultProviders()
	if c.Providers == nil {
		c.Providers = defaults
	} else {
		for ns, def := range defaults {
			if _, ok := c.Providers[ns]; !ok {
				c.Providers[ns] = def
			}
		}
	}

	if c.Agent.DefaultModel == "" {
		c.Agent.DefaultModel = "openai:gpt-4o"
	}
	if c.Agent.MaxRounds == 0 {
		c.Agent.MaxRounds = 10
	}
	if c.Agent.ToolTimeout == 0 {
		c.Agent.ToolTimeout = 30 * time.Second
	}
	if c.Model.Timeout == 0 {
		c.Model.Timeout = 120 * time.Second
	}
	if c.Model.Burst == 0 {
		c.Model.Burst = 1
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "echoai.db"
	}
	if c.Memory.Model == "" {
		c.Memory.Model = "openai:text-embedding-3-small"
	}
	if c.Memory.TopK == 0 {
		c.Memory.TopK = 5
	}
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	ns, _, err := SplitModelRef(c.Agent.DefaultModel)
	if err != nil {
		return fmt.Errorf("agent.default_model: %w", err)
	}
	if _, ok := c.Providers[ns]; !ok {
		return fmt.Errorf("agent.default_model references unknown provider namespace '%s'", ns)
	}

	if c.Storage.S3.Enabled {
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when s3 is enabled")
		}
		if c.Storage.S3.Endpoint == "" {
			return fmt.Errorf("storage.s3.endpoint is required when s3 is enabled")
		}
	}

	return nil
}

// SplitModelRef разбирает ссылку "namespace:model_name".
//
// Имя модели само может содержать двоеточия (теги ollama вида
// "qwen3:latest"), поэтому делим по первому.
func SplitModelRef(ref string) (namespace, model string, err error) {
	idx := strings.Index(ref, ":")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", fmt.Errorf("invalid model reference '%s': want 'namespace:model_name'", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}

// ResolveModelDef собирает транспортную конфигурацию для ссылки на модель.
func (c *AppConfig) ResolveModelDef(ref string) (ModelDef, error) {
	ns, model, err := SplitModelRef(ref)
	if err != nil {
		return ModelDef{}, err
	}
	provider, ok := c.Providers[ns]
	if !ok {
		return ModelDef{}, fmt.Errorf("unknown provider namespace '%s'", ns)
	}

	return ModelDef{
		Provider:    ns,
		ModelName:   model,
		APIKey:      provider.APIKey,
		BaseURL:     provider.BaseURL,
		MaxTokens:   c.Model.MaxTokens,
		Temperature: c.Model.Temperature,
		Timeout:     c.Model.Timeout,
		RateLimit:   c.Model.RateLimit,
		Burst:       c.Model.Burst,
	}, nil
}

// StreamingEnabled — дефолт true (opt-out).
func (c *AgentConfig) StreamingEnabled() bool {
	if c.Streaming == nil {
		return true
	}
	return *c.Streaming
}

// ToolsAllowed — дефолт true (opt-out).
func (c *AgentConfig) ToolsAllowed() bool {
	if c.ToolsEnabled == nil {
		return true
	}
	return *c.ToolsEnabled
}
