// Типизированные инструменты: схема выводится из Go-структуры аргументов.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	invopop "github.com/invopop/jsonschema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Func — инструмент, построенный вокруг типизированного callback.
//
// Одна Go-структура T задаёт одновременно и JSON Schema параметров
// (выводится рефлексией при создании), и разбор аргументов перед вызовом.
// Генерация и валидация схемы выполняются один раз в NewFunc — fail fast.
type Func[T any] struct {
	def      ToolDefinition
	compiled *jsonschema.Schema
	fn       func(ctx context.Context, args T) (any, error)
}

var _ Tool = (*Func[struct{}])(nil)

// NewFunc создает типизированный инструмент.
//
// Маппинг типов Go → JSON Schema: числа → number/integer, string → string,
// bool → boolean, слайсы → array, структуры и map → object. Поле считается
// обязательным, если его json-тег не содержит omitempty.
//
// Описания полей задаются тегом jsonschema:"description=...".
func NewFunc[T any](name, description string, fn func(ctx context.Context, args T) (any, error)) (*Func[T], error) {
	if fn == nil {
		return nil, fmt.Errorf("tool '%s': fn cannot be nil", name)
	}

	params, err := deriveSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("tool '%s': schema derivation failed: %w", name, err)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("tool '%s': failed to marshal schema: %w", name, err)
	}
	compiled, err := compileSchemaResolved(string(raw))
	if err != nil {
		return nil, fmt.Errorf("tool '%s': schema does not compile: %w", name, err)
	}

	return &Func[T]{
		def: ToolDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		compiled: compiled,
		fn:       fn,
	}, nil
}

// MustFunc — NewFunc с panic на ошибке. Для статически известных
// инструментов, где битая схема — ошибка программиста.
func MustFunc[T any](name, description string, fn func(ctx context.Context, args T) (any, error)) *Func[T] {
	t, err := NewFunc(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// Definition возвращает описание инструмента для LLM.
func (f *Func[T]) Definition() ToolDefinition {
	return f.def
}

// Execute парсит и валидирует аргументы, затем вызывает callback.
//
// Ошибки парсинга и валидации возвращаются как ClientError: их текст
// уходит модели для самокоррекции. Результат callback сериализуется в JSON.
func (f *Func[T]) Execute(ctx context.Context, argsJSON string) (string, error) {
	if strings.TrimSpace(argsJSON) == "" {
		argsJSON = "{}"
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(argsJSON))
	if err != nil {
		return "", &ClientError{Reason: "json parse error: " + err.Error(), Err: ErrValidation}
	}
	if err := f.compiled.Validate(doc); err != nil {
		return "", &ClientError{Reason: "schema validation: " + err.Error(), Err: ErrValidation}
	}

	var args T
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", &ClientError{Reason: "json parse error: " + err.Error(), Err: ErrValidation}
	}

	result, err := f.fn(ctx, args)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", &SystemError{Err: fmt.Errorf("marshal result: %w", err)}
	}
	return string(out), nil
}

// deriveSchema выводит JSON Schema объекта аргументов из структуры T.
func deriveSchema[T any]() (JSONSchema, error) {
	reflector := invopop.Reflector{
		DoNotReference: true, // inline, без $defs — Function Calling API не резолвит ссылки
		ExpandedStruct: true,
		Anonymous:      true,
	}

	schema := reflector.Reflect(new(T))
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	var params JSONSchema
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}

	// Служебные ключи рефлектора не нужны в определении инструмента.
	delete(params, "$schema")
	delete(params, "$id")

	if _, ok := params["type"]; !ok {
		params["type"] = "object"
	}
	return params, nil
}

// compileSchemaResolved компилирует схему и возвращает её для валидации аргументов.
func compileSchemaResolved(raw string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("arguments.json", doc); err != nil {
		return nil, err
	}
	return compiler.Compile("arguments.json")
}
