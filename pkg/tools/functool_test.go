package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

type weatherArgs struct {
	Location string `json:"location" jsonschema:"description=City name"`
	Unit     string `json:"unit,omitempty" jsonschema:"description=Temperature unit"`
}

// TestFuncSchemaDerivation verifies the derived schema shape and required fields.
func TestFuncSchemaDerivation(t *testing.T) {
	tool, err := NewFunc("get_current_weather", "Gets weather", func(_ context.Context, args weatherArgs) (any, error) {
		return map[string]string{"location": args.Location}, nil
	})
	if err != nil {
		t.Fatalf("NewFunc() error = %v", err)
	}

	def := tool.Definition()
	if def.Name != "get_current_weather" {
		t.Errorf("Name = %q", def.Name)
	}
	if def.Parameters["type"] != "object" {
		t.Errorf("Parameters.type = %v, want object", def.Parameters["type"])
	}

	props, ok := def.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("Parameters.properties missing: %v", def.Parameters)
	}
	loc, ok := props["location"].(map[string]any)
	if !ok || loc["type"] != "string" {
		t.Errorf("properties.location = %v, want string schema", props["location"])
	}

	// location обязателен (нет omitempty), unit — нет
	raw, _ := json.Marshal(def.Parameters["required"])
	required := string(raw)
	if !strings.Contains(required, "location") {
		t.Errorf("required = %s, want location present", required)
	}
	if strings.Contains(required, "unit") {
		t.Errorf("required = %s, want unit absent", required)
	}
}

// TestFuncExecute verifies the parse -> validate -> call -> marshal pipeline.
func TestFuncExecute(t *testing.T) {
	tool := MustFunc("get_current_weather", "Gets weather", func(_ context.Context, args weatherArgs) (any, error) {
		return map[string]any{"location": args.Location, "temperature": 20}, nil
	})

	tests := []struct {
		name       string
		argsJSON   string
		wantErr    bool
		wantClient bool
		wantSubstr string
	}{
		{
			name:       "valid args",
			argsJSON:   `{"location": "Boston"}`,
			wantSubstr: `"location":"Boston"`,
		},
		{
			name:       "empty args normalized",
			argsJSON:   "",
			wantErr:    true, // location обязателен
			wantClient: true,
		},
		{
			name:       "malformed json",
			argsJSON:   `{"location": `,
			wantErr:    true,
			wantClient: true,
		},
		{
			name:       "missing required field",
			argsJSON:   `{"unit": "celsius"}`,
			wantErr:    true,
			wantClient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tool.Execute(context.Background(), tt.argsJSON)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantClient && !IsClientError(err) {
				t.Errorf("Execute() error = %v, want ClientError", err)
			}
			if tt.wantSubstr != "" && !strings.Contains(out, tt.wantSubstr) {
				t.Errorf("Execute() = %s, want substring %s", out, tt.wantSubstr)
			}
		})
	}
}

// TestFuncExecuteNoParams verifies tools with an empty argument struct accept "{}".
func TestFuncExecuteNoParams(t *testing.T) {
	type noArgs struct{}
	tool := MustFunc("list_models", "Lists models", func(_ context.Context, _ noArgs) (any, error) {
		return []string{"openai:gpt-4o"}, nil
	})

	out, err := tool.Execute(context.Background(), "{}")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != `["openai:gpt-4o"]` {
		t.Errorf("Execute() = %s", out)
	}
}
