// Package app предоставляет переиспользуемые компоненты для инициализации
// ассистента в разных контекстах (TUI, однострочный CLI, экспорт).
//
// Вся логика инициализации инкапсулирована здесь: entry points в cmd/
// занимаются только разбором флагов и оркестрацией.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mkarpenko/echo-ai/pkg/config"
	"github.com/mkarpenko/echo-ai/pkg/events"
	"github.com/mkarpenko/echo-ai/pkg/interactor"
	"github.com/mkarpenko/echo-ai/pkg/memory"
	"github.com/mkarpenko/echo-ai/pkg/models"
	"github.com/mkarpenko/echo-ai/pkg/prompt"
	"github.com/mkarpenko/echo-ai/pkg/session"
	"github.com/mkarpenko/echo-ai/pkg/state"
	"github.com/mkarpenko/echo-ai/pkg/tools"
	"github.com/mkarpenko/echo-ai/pkg/utils"
)

// Components содержит все компоненты приложения.
//
// Структура переиспользуется между TUI и CLI версиями, чтобы не
// дублировать код инициализации.
type Components struct {
	Config     *config.AppConfig
	Models     *models.Registry
	Tools      *tools.Registry
	History    *state.History
	Emitter    *events.ChanEmitter
	Sessions   *session.Store
	Memory     *memory.Store
	Interactor *interactor.Interactor

	db *sql.DB
}

// ConfigPathFinder определяет стратегию поиска пути к config.yaml.
type ConfigPathFinder interface {
	FindConfigPath() string
}

// DefaultConfigPathFinder ищет config.yaml рядом с процессом.
//
// Порядок: флаг -config, текущая директория, директория бинарника.
type DefaultConfigPathFinder struct {
	ConfigFlag string
}

// FindConfigPath находит путь к config.yaml.
func (f *DefaultConfigPathFinder) FindConfigPath() string {
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		return resolveAbsPath("config.yaml")
	}

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	// Дефолтный путь, даже если файла нет — Load вернёт понятную ошибку
	return resolveAbsPath("config.yaml")
}

func resolveAbsPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// InitializeConfig загружает конфигурацию по найденному пути.
func InitializeConfig(finder ConfigPathFinder) (*config.AppConfig, string, error) {
	cfgPath := finder.FindConfigPath()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// Initialize создаёт и связывает все компоненты приложения.
func Initialize(ctx context.Context, cfg *config.AppConfig) (*Components, error) {
	// 1. Логгер
	if err := utils.InitLogger(cfg.Logging.Dir, cfg.Logging.Debug); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	utils.Info("initializing components", "default_model", cfg.Agent.DefaultModel)

	// 2. Локальная база (сессии + память)
	db, err := sql.Open("sqlite3", cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	c := &Components{
		Config:  cfg,
		History: state.NewHistory(),
		Emitter: events.NewChanEmitter(64),
		db:      db,
	}

	c.Sessions, err = session.NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	// 3. Векторная память (опционально)
	if cfg.Memory.Enabled {
		def, err := cfg.ResolveModelDef(cfg.Memory.Model)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("invalid memory model: %w", err)
		}
		embedder := memory.NewOpenAIEmbedder(def, def.ModelName)
		c.Memory, err = memory.NewStore(db, embedder)
		if err != nil {
			db.Close()
			return nil, err
		}
		utils.Info("vector memory enabled", "model", cfg.Memory.Model, "top_k", cfg.Memory.TopK)
	}

	// 4. Инструменты
	c.Tools = tools.NewRegistry()
	if err := SetupTools(c.Tools, cfg, c.Memory); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	utils.Info("tools registered", "names", c.Tools.Names())

	// 5. Реестр моделей
	c.Models = models.NewRegistry(cfg)

	// 6. Системный промпт
	systemPrompt, err := prompt.ResolveSystemPrompt(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.History.SetSystemPrompt(systemPrompt)

	// 7. Оркестратор
	opts := []interactor.Option{
		interactor.WithEmitter(c.Emitter),
		interactor.WithTokenCounter(state.NewCounter(tokenizerModel(cfg.Agent.DefaultModel))),
	}
	if cfg.Memory.Enabled && cfg.Memory.AutoRecall {
		opts = append(opts, interactor.WithRecaller(c.Memory))
	}

	c.Interactor = interactor.New(interactor.Config{
		DefaultModel:  cfg.Agent.DefaultModel,
		MaxRounds:     cfg.Agent.MaxRounds,
		Streaming:     cfg.Agent.StreamingEnabled(),
		ToolsEnabled:  cfg.Agent.ToolsAllowed(),
		SafeMode:      cfg.Agent.SafeMode,
		ToolTimeout:   cfg.Agent.ToolTimeout,
		ContextBudget: cfg.Agent.ContextLength,
		MemoryTopK:    cfg.Memory.TopK,
	}, c.Models, c.Tools, c.History, opts...)

	// Прогреваем дефолтную модель, чтобы probe не задерживал первый запрос
	if _, err := c.Models.Resolve(ctx, cfg.Agent.DefaultModel); err != nil {
		utils.Warn("default model resolve failed, will retry on first request",
			"model", cfg.Agent.DefaultModel, "error", err)
	}

	return c, nil
}

// tokenizerModel извлекает голое имя модели из ссылки "namespace:model".
// Счётчик токенов подбирает BPE-кодировку по имени модели, префикс
// namespace сломал бы подбор.
func tokenizerModel(ref string) string {
	if _, model, err := config.SplitModelRef(ref); err == nil {
		return model
	}
	return ref
}

// AttachSession направляет записи истории в именованную сессию.
func (c *Components) AttachSession(sessionID string) {
	c.Interactor.SetRecorder(session.NewRecorder(c.Sessions, sessionID))
}

// Close освобождает ресурсы компонентов.
func (c *Components) Close() error {
	c.Emitter.Close()
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
