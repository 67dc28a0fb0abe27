// Package interactor реализует диалоговый цикл ассистента.
//
// Цикл повторяет state machine взаимодействия с tool-calling моделью:
// запрос → ответ → (финальный текст | выполнение инструментов → запрос...).
// История append-only: сообщения добавляются и никогда не переписываются,
// каждый tool-результат ссылается на ID вызова из предыдущего
// assistant-сообщения.
//
// Транспортные сбои посреди диалога не роняют взаимодействие: ошибка
// сворачивается в текст ответа, история остаётся валидной для следующего
// запроса. Ошибку возвращают только некорректные вызовы (пустой ввод,
// нерезолвящаяся модель) — до того, как история будет затронута.
package interactor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mkarpenko/echo-ai/pkg/events"
	"github.com/mkarpenko/echo-ai/pkg/llm"
	"github.com/mkarpenko/echo-ai/pkg/models"
	"github.com/mkarpenko/echo-ai/pkg/state"
	"github.com/mkarpenko/echo-ai/pkg/tools"
	"github.com/mkarpenko/echo-ai/pkg/utils"
)

// DefaultMaxRounds — лимит раундов модель→инструменты по умолчанию.
const DefaultMaxRounds = 10

// Sentinel-ошибки некорректного использования.
var (
	ErrEmptyInput = errors.New("empty user input")
)

// Confirmer подтверждает выполнение инструмента (safe mode).
type Confirmer interface {
	// Confirm возвращает true если вызов разрешён.
	Confirm(toolName, argsJSON string) bool
}

// ConfirmFunc — адаптер функции под интерфейс Confirmer.
type ConfirmFunc func(toolName, argsJSON string) bool

func (f ConfirmFunc) Confirm(toolName, argsJSON string) bool { return f(toolName, argsJSON) }

// Recorder получает каждое новое сообщение истории (персистентность сессий).
type Recorder interface {
	Record(msg llm.Message)
}

// Recaller ищет релевантные воспоминания для запроса (векторная память).
type Recaller interface {
	Recall(ctx context.Context, query string, k int) ([]string, error)
}

// Config — поведение диалогового цикла.
type Config struct {
	// DefaultModel — ссылка "namespace:model_name", резолвится при первом запросе
	DefaultModel string

	// MaxRounds — лимит раундов за одно взаимодействие; 0 = DefaultMaxRounds.
	// Превышение не ошибка: цикл принудительно завершается диагностическим
	// сообщением, частичный прогресс сохраняется в истории.
	MaxRounds int

	// Streaming — использовать потоковый режим, когда провайдер его умеет
	Streaming bool

	// ToolsEnabled — передавать ли модели определения инструментов
	ToolsEnabled bool

	// SafeMode — спрашивать подтверждение перед каждым вызовом инструмента
	SafeMode bool

	// ToolTimeout — лимит на выполнение одного инструмента, 0 = без лимита
	ToolTimeout time.Duration

	// ContextBudget — бюджет истории в токенах, 0 = без тримминга
	ContextBudget int

	// MemoryTopK — сколько воспоминаний подмешивать в контекст
	MemoryTopK int
}

// Interactor владеет историей диалога и управляет циклом.
//
// Thread-safe: mu сериализует взаимодействия, история защищена своим мьютексом.
type Interactor struct {
	mu sync.Mutex

	cfg      Config
	registry *models.Registry
	tools    *tools.Registry
	history  *state.History

	emitter   events.Emitter
	confirmer Confirmer
	recorder  Recorder
	recaller  Recaller
	counter   state.TokenCounter

	current    *models.Entry
	currentRef string
}

// Option — опциональная зависимость Interactor.
type Option func(*Interactor)

// WithEmitter подключает шину событий для UI.
func WithEmitter(e events.Emitter) Option {
	return func(it *Interactor) { it.emitter = e }
}

// WithConfirmer подключает подтверждение вызовов (safe mode).
func WithConfirmer(c Confirmer) Option {
	return func(it *Interactor) { it.confirmer = c }
}

// WithRecorder подключает персистентность сообщений.
func WithRecorder(r Recorder) Option {
	return func(it *Interactor) { it.recorder = r }
}

// WithRecaller подключает векторную память.
func WithRecaller(r Recaller) Option {
	return func(it *Interactor) { it.recaller = r }
}

// WithTokenCounter задаёт счётчик токенов для тримминга истории.
func WithTokenCounter(c state.TokenCounter) Option {
	return func(it *Interactor) { it.counter = c }
}

// New создает Interactor поверх реестров и истории.
func New(cfg Config, registry *models.Registry, toolRegistry *tools.Registry, history *state.History, opts ...Option) *Interactor {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if history == nil {
		history = state.NewHistory()
	}

	it := &Interactor{
		cfg:      cfg,
		registry: registry,
		tools:    toolRegistry,
		history:  history,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// History возвращает историю диалога.
func (it *Interactor) History() *state.History {
	return it.history
}

// Model возвращает ссылку текущей модели.
func (it *Interactor) Model() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.currentRef
}

// SetRecorder переключает персистентность на другую сессию.
//
// nil отключает запись.
func (it *Interactor) SetRecorder(r Recorder) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.recorder = r
}

// SwitchModel переключает модель посреди сессии.
//
// Новая ссылка резолвится и пробуется на поддержку инструментов
// (кеш реестра делает повторные переключения мгновенными).
// История не затрагивается: следующий запрос продолжит тот же диалог.
func (it *Interactor) SwitchModel(ctx context.Context, ref string) error {
	entry, err := it.registry.Resolve(ctx, ref)
	if err != nil {
		return fmt.Errorf("switch model: %w", err)
	}

	it.mu.Lock()
	it.current = entry
	it.currentRef = ref
	it.mu.Unlock()

	utils.Info("model switched", "ref", ref, "supports_tools", entry.SupportsTools)
	return nil
}

// Interact выполняет одно взаимодействие: вопрос пользователя → финальный ответ.
//
// Раунды с tool-вызовами прозрачны для вызывающего: цикл сам выполняет
// инструменты и повторяет запрос, пока модель не ответит текстом.
// Контент накапливается по раундам; финальный текст добавляется
// в историю assistant-сообщением и возвращается.
//
// Ошибка возвращается только при некорректном использовании. Сбой
// транспорта или стрима превращается в текст "Error during interaction: ..."
// в накопленном ответе.
func (it *Interactor) Interact(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyInput
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	entry, err := it.resolveCurrent(ctx)
	if err != nil {
		return "", err
	}

	it.emit(ctx, events.Event{Type: events.EventThinking, Data: events.ThinkingData{Query: input}})

	it.append(llm.Message{Role: llm.RoleUser, Content: input})
	it.history.TrimToBudget(it.counter, it.cfg.ContextBudget)

	var content strings.Builder
	rounds := 0

	for {
		if rounds >= it.cfg.MaxRounds {
			diag := fmt.Sprintf("Interaction stopped after reaching the limit of %d tool rounds. The answer above may be incomplete.", it.cfg.MaxRounds)
			if content.Len() > 0 {
				content.WriteString("\n")
			}
			content.WriteString(diag)
			utils.Warn("round limit reached", "max_rounds", it.cfg.MaxRounds, "model", it.currentRef)
			break
		}
		rounds++

		response, genErr := it.generate(ctx, entry)
		if genErr != nil {
			if content.Len() > 0 {
				content.WriteString("\n")
			}
			content.WriteString("Error during interaction: " + genErr.Error())
			it.emit(ctx, events.Event{Type: events.EventError, Data: events.ErrorData{Err: genErr}})
			break
		}

		if response.Content != "" {
			content.WriteString(response.Content)
		}

		if !response.HasToolCalls() {
			break
		}

		// Раунд с инструментами: фиксируем решение модели, выполняем
		// каждый вызов по порядку и отвечаем отдельным tool-сообщением.
		it.append(llm.Message{Role: llm.RoleAssistant, ToolCalls: response.ToolCalls})
		for _, tc := range response.ToolCalls {
			it.runToolCall(ctx, tc)
		}
	}

	final := content.String()
	if final != "" {
		it.append(llm.Message{Role: llm.RoleAssistant, Content: final})
	}

	it.emit(ctx, events.Event{Type: events.EventDone, Data: events.MessageData{Content: final}})
	return final, nil
}

// resolveCurrent лениво резолвит дефолтную модель при первом запросе.
func (it *Interactor) resolveCurrent(ctx context.Context) (*models.Entry, error) {
	if it.current != nil {
		return it.current, nil
	}
	if it.cfg.DefaultModel == "" {
		return nil, fmt.Errorf("no model configured")
	}
	entry, err := it.registry.Resolve(ctx, it.cfg.DefaultModel)
	if err != nil {
		return nil, err
	}
	it.current = entry
	it.currentRef = it.cfg.DefaultModel
	return entry, nil
}

// generate выполняет один запрос к модели: стримом, если доступно.
func (it *Interactor) generate(ctx context.Context, entry *models.Entry) (llm.Message, error) {
	messages := it.buildMessages(ctx)

	var opts []any
	if it.toolsActive(entry) {
		opts = append(opts, it.tools.GetDefinitions())
	}

	if it.cfg.Streaming {
		if sp, ok := entry.Provider.(llm.StreamingProvider); ok {
			return sp.GenerateStream(ctx, messages, func(chunk llm.StreamChunk) {
				if chunk.Type == llm.ChunkContent {
					it.emit(ctx, events.Event{
						Type: events.EventContentChunk,
						Data: events.ContentChunkData{Chunk: chunk.Delta, Accumulated: chunk.Content},
					})
				}
			}, opts...)
		}
	}

	return entry.Provider.Generate(ctx, messages, opts...)
}

// toolsActive: инструменты включены, модель их поддерживает и есть что передавать.
func (it *Interactor) toolsActive(entry *models.Entry) bool {
	return it.cfg.ToolsEnabled && entry.SupportsTools && it.tools != nil && it.tools.Len() > 0
}

// buildMessages собирает контекст запроса, подмешивая найденные
// воспоминания отдельным system-сообщением (в историю они не пишутся).
func (it *Interactor) buildMessages(ctx context.Context) []llm.Message {
	messages := it.history.BuildContext()

	if it.recaller == nil {
		return messages
	}

	query := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			query = messages[i].Content
			break
		}
	}
	if query == "" {
		return messages
	}

	topK := it.cfg.MemoryTopK
	if topK <= 0 {
		topK = 5
	}
	memories, err := it.recaller.Recall(ctx, query, topK)
	if err != nil {
		utils.Warn("memory recall failed", "error", err)
		return messages
	}
	if len(memories) == 0 {
		return messages
	}

	note := "Relevant memories from previous conversations:\n- " + strings.Join(memories, "\n- ")
	withNote := make([]llm.Message, 0, len(messages)+1)
	insertAt := 0
	if len(messages) > 0 && messages[0].Role == llm.RoleSystem {
		insertAt = 1
	}
	withNote = append(withNote, messages[:insertAt]...)
	withNote = append(withNote, llm.Message{Role: llm.RoleSystem, Content: note})
	withNote = append(withNote, messages[insertAt:]...)
	return withNote
}

// append пишет сообщение в историю и в Recorder.
func (it *Interactor) append(msg llm.Message) {
	it.history.Append(msg)
	if it.recorder != nil {
		it.recorder.Record(msg)
	}
}

// emit отправляет событие, если шина подключена.
func (it *Interactor) emit(ctx context.Context, event events.Event) {
	if it.emitter != nil {
		it.emitter.Emit(ctx, event)
	}
}
