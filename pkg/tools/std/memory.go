package std

import (
	"context"
	"fmt"

	"github.com/mkarpenko/echo-ai/pkg/tools"
)

// MemoryStore — долговременная память, доступная инструментам.
//
// Реализуется pkg/memory; интерфейс объявлен на стороне потребителя.
type MemoryStore interface {
	Save(ctx context.Context, text string) error
	Search(ctx context.Context, query string, k int) ([]string, error)
}

type memorySaveArgs struct {
	Text string `json:"text" jsonschema:"description=The fact or note to remember"`
}

type memorySearchArgs struct {
	Query string `json:"query" jsonschema:"description=What to look for in saved memories"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of memories to return"`
}

// NewMemorySaveTool создает инструмент сохранения заметки в память.
func NewMemorySaveTool(store MemoryStore) tools.Tool {
	return tools.MustFunc("memory_save",
		"Save a fact or note to long-term memory so it can be recalled in future conversations.",
		func(ctx context.Context, args memorySaveArgs) (any, error) {
			if args.Text == "" {
				return nil, fmt.Errorf("text is required")
			}
			if err := store.Save(ctx, args.Text); err != nil {
				return nil, fmt.Errorf("failed to save memory: %w", err)
			}
			return map[string]string{"status": "saved"}, nil
		})
}

// NewMemorySearchTool создает инструмент поиска по памяти.
func NewMemorySearchTool(store MemoryStore, defaultLimit int) tools.Tool {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	return tools.MustFunc("memory_search",
		"Search long-term memory for facts and notes relevant to a query.",
		func(ctx context.Context, args memorySearchArgs) (any, error) {
			if args.Query == "" {
				return nil, fmt.Errorf("query is required")
			}
			limit := args.Limit
			if limit <= 0 {
				limit = defaultLimit
			}
			hits, err := store.Search(ctx, args.Query, limit)
			if err != nil {
				return nil, fmt.Errorf("failed to search memory: %w", err)
			}
			return map[string]any{"memories": hits, "count": len(hits)}, nil
		})
}
