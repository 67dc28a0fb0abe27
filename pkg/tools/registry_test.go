package tools

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// stubTool — минимальный инструмент для тестов реестра.
type stubTool struct {
	def ToolDefinition
}

func (s *stubTool) Definition() ToolDefinition { return s.def }

func (s *stubTool) Execute(_ context.Context, _ string) (string, error) {
	return `{"ok":true}`, nil
}

func validDef(name string) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: "test tool",
		Parameters: JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{"type": "string"},
			},
			"required": []any{"location"},
		},
	}
}

// TestRegistryRegisterValidation verifies schema validation at registration time.
func TestRegistryRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		def     ToolDefinition
		wantErr bool
	}{
		{
			name:    "valid definition",
			def:     validDef("get_current_weather"),
			wantErr: false,
		},
		{
			name:    "empty name",
			def:     ToolDefinition{Parameters: JSONSchema{"type": "object"}},
			wantErr: true,
		},
		{
			name:    "nil parameters",
			def:     ToolDefinition{Name: "broken"},
			wantErr: true,
		},
		{
			name: "parameters without type",
			def: ToolDefinition{
				Name:       "broken",
				Parameters: JSONSchema{"properties": map[string]any{}},
			},
			wantErr: true,
		},
		{
			name: "non-object type",
			def: ToolDefinition{
				Name:       "broken",
				Parameters: JSONSchema{"type": "string"},
			},
			wantErr: true,
		},
		{
			name: "required not an array",
			def: ToolDefinition{
				Name:       "broken",
				Parameters: JSONSchema{"type": "object", "required": "location"},
			},
			wantErr: true,
		},
		{
			name: "required with non-string element",
			def: ToolDefinition{
				Name:       "broken",
				Parameters: JSONSchema{"type": "object", "required": []any{42}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(&stubTool{def: tt.def})
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestRegistryReRegisterReplaces verifies re-registration by name is idempotent.
func TestRegistryReRegisterReplaces(t *testing.T) {
	r := NewRegistry()

	first := &stubTool{def: validDef("get_current_weather")}
	second := &stubTool{def: validDef("get_current_weather")}

	if err := r.Register(first); err != nil {
		t.Fatalf("Register(first) error = %v", err)
	}
	if err := r.Register(second); err != nil {
		t.Fatalf("Register(second) error = %v", err)
	}

	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	got, err := r.Get("get_current_weather")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != Tool(second) {
		t.Error("Get() returned first registration, want replacement")
	}
}

// TestRegistryGetNotFound verifies the sentinel error for unknown tools.
func TestRegistryGetNotFound(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("nonexistent")
	if err == nil {
		t.Fatal("Get() expected error for unknown tool")
	}
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Get() error = %v, want ErrToolNotFound", err)
	}
}

// TestRegistryDefinitionsSorted verifies deterministic definition order.
func TestRegistryDefinitionsSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&stubTool{def: validDef(name)}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	var names []string
	for _, def := range r.GetDefinitions() {
		names = append(names, def.Name)
	}
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("GetDefinitions() order = %v, want %v", names, want)
	}
	if !reflect.DeepEqual(r.Names(), want) {
		t.Errorf("Names() = %v, want %v", r.Names(), want)
	}
}
