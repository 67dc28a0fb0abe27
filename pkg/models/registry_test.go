package models

import (
	"context"
	"errors"
	"testing"

	"github.com/mkarpenko/echo-ai/pkg/config"
	"github.com/mkarpenko/echo-ai/pkg/llm"
)

// probeProvider — мок провайдера с управляемым ответом пробы.
type probeProvider struct {
	response  llm.Message
	err       error
	callCount int
	lastOpts  []any
}

func (p *probeProvider) Generate(_ context.Context, _ []llm.Message, opts ...any) (llm.Message, error) {
	p.callCount++
	p.lastOpts = opts
	if p.err != nil {
		return llm.Message{}, p.err
	}
	return p.response, nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Providers: map[string]config.ProviderDef{
			"openai": {BaseURL: "https://api.openai.com/v1", APIKey: "sk-test"},
		},
	}
}

// TestRegistryResolveCachesProbe verifies one probe per reference.
func TestRegistryResolveCachesProbe(t *testing.T) {
	provider := &probeProvider{
		response: llm.Message{
			Role:      llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "get_current_weather", Args: "{}"}},
		},
	}

	r := NewRegistry(testConfig())
	r.SetFactory(func(_ config.ModelDef) (llm.Provider, error) {
		return provider, nil
	})

	ctx := context.Background()
	entry, err := r.Resolve(ctx, "openai:gpt-4o")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !entry.SupportsTools {
		t.Error("SupportsTools = false, want true")
	}
	if provider.callCount != 1 {
		t.Errorf("probe calls = %d, want 1", provider.callCount)
	}

	// Повторный резолв не делает новую пробу
	if _, err := r.Resolve(ctx, "openai:gpt-4o"); err != nil {
		t.Fatalf("Resolve() second error = %v", err)
	}
	if provider.callCount != 1 {
		t.Errorf("probe calls after cached resolve = %d, want 1", provider.callCount)
	}
}

// TestRegistryResolveProbeVerdicts verifies probe interpretation.
func TestRegistryResolveProbeVerdicts(t *testing.T) {
	tests := []struct {
		name     string
		provider *probeProvider
		want     bool
	}{
		{
			name: "tool calls returned",
			provider: &probeProvider{response: llm.Message{
				ToolCalls: []llm.ToolCall{{ID: "c", Name: "f", Args: "{}"}},
			}},
			want: true,
		},
		{
			name:     "plain text answer",
			provider: &probeProvider{response: llm.Message{Content: "It is sunny."}},
			want:     false,
		},
		{
			name:     "protocol error",
			provider: &probeProvider{err: errors.New("tools are not supported")},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProbeToolSupport(context.Background(), tt.provider); got != tt.want {
				t.Errorf("ProbeToolSupport() = %v, want %v", got, tt.want)
			}
			if tt.provider.callCount != 1 {
				t.Errorf("probe calls = %d, want 1", tt.provider.callCount)
			}
		})
	}
}

// TestRegistryResolveUnknownNamespace verifies resolution errors.
func TestRegistryResolveUnknownNamespace(t *testing.T) {
	r := NewRegistry(testConfig())
	if _, err := r.Resolve(context.Background(), "nosuch:model"); err == nil {
		t.Error("Resolve() expected error for unknown namespace")
	}
	if _, err := r.Resolve(context.Background(), "bare-model"); err == nil {
		t.Error("Resolve() expected error for ref without namespace")
	}
}

// TestRegistryRegisterDuplicate verifies manual registration conflicts.
func TestRegistryRegisterDuplicate(t *testing.T) {
	r := NewRegistry(testConfig())
	p := &probeProvider{}

	if err := r.Register("mock:m", p, true); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("mock:m", p, true); err == nil {
		t.Error("Register() expected duplicate error")
	}

	refs := r.ListResolved()
	if len(refs) != 1 || refs[0] != "mock:m" {
		t.Errorf("ListResolved() = %v", refs)
	}
}
