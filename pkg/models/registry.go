// Package models предоставляет централизованный реестр LLM провайдеров.
//
// Реестр резолвит ссылки вида "namespace:model_name" лениво: провайдер
// создаётся при первом обращении, результат (включая вердикт пробы
// поддержки инструментов) кешируется на время жизни процесса.
//
// Thread-safe через sync.Mutex. Явная инстанцируемая структура,
// никаких глобальных синглтонов.
package models

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mkarpenko/echo-ai/pkg/config"
	"github.com/mkarpenko/echo-ai/pkg/factory"
	"github.com/mkarpenko/echo-ai/pkg/llm"
	"github.com/mkarpenko/echo-ai/pkg/utils"
)

// Entry — резолвленная модель: провайдер, конфигурация и вердикт пробы.
type Entry struct {
	Ref           string
	Provider      llm.Provider
	Def           config.ModelDef
	SupportsTools bool
}

// ProviderFactory создает провайдера по транспортной конфигурации.
// Подменяется в тестах на мок.
type ProviderFactory func(config.ModelDef) (llm.Provider, error)

// Registry — потокобезопасный кеш резолвленных моделей.
type Registry struct {
	mu      sync.Mutex
	cfg     *config.AppConfig
	factory ProviderFactory
	entries map[string]*Entry
}

// NewRegistry создаёт реестр поверх конфигурации приложения.
func NewRegistry(cfg *config.AppConfig) *Registry {
	return &Registry{
		cfg:     cfg,
		factory: factory.NewLLMProvider,
		entries: make(map[string]*Entry),
	}
}

// SetFactory подменяет фабрику провайдеров (для тестов).
func (r *Registry) SetFactory(f ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factory = f
}

// Resolve возвращает провайдера для ссылки "namespace:model_name".
//
// Первый резолв создаёт клиента и выполняет пробу поддержки инструментов;
// повторные обращения отдают кешированную запись.
func (r *Registry) Resolve(ctx context.Context, ref string) (*Entry, error) {
	r.mu.Lock()
	if entry, ok := r.entries[ref]; ok {
		r.mu.Unlock()
		return entry, nil
	}
	f := r.factory
	cfg := r.cfg
	r.mu.Unlock()

	def, err := cfg.ResolveModelDef(ref)
	if err != nil {
		return nil, err
	}

	provider, err := f(def)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider for '%s': %w", ref, err)
	}

	entry := &Entry{
		Ref:           ref,
		Provider:      provider,
		Def:           def,
		SupportsTools: ProbeToolSupport(ctx, provider),
	}

	utils.Info("model resolved",
		"ref", ref,
		"supports_tools", entry.SupportsTools)

	r.mu.Lock()
	// Параллельный резолв той же ссылки мог успеть раньше — его запись главнее
	if existing, ok := r.entries[ref]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.entries[ref] = entry
	r.mu.Unlock()

	return entry, nil
}

// Register вручную добавляет резолвленную модель (тесты, кастомные провайдеры).
// Повторная регистрация той же ссылки — ошибка.
func (r *Registry) Register(ref string, provider llm.Provider, supportsTools bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[ref]; exists {
		return fmt.Errorf("model '%s' already registered", ref)
	}
	r.entries[ref] = &Entry{
		Ref:           ref,
		Provider:      provider,
		SupportsTools: supportsTools,
	}
	return nil
}

// ListResolved возвращает отсортированные ссылки из кеша.
func (r *Registry) ListResolved() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs := make([]string, 0, len(r.entries))
	for ref := range r.entries {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Namespaces возвращает отсортированные namespace'ы из конфигурации.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.cfg.Providers))
	for ns := range r.cfg.Providers {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}
