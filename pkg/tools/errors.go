// Таксономия ошибок инструментов.
package tools

import (
	"errors"
	"fmt"
)

// Sentinel-ошибки пакета. Проверять через errors.Is.
var (
	ErrToolNotFound = errors.New("tool not found")
	ErrValidation   = errors.New("validation failed")
)

// ClientError — ошибка, которую имеет смысл вернуть LLM для самокоррекции
// (невалидный JSON, нарушение схемы, неизвестное значение enum).
//
// Не содержит внутренних деталей и стектрейсов: модель видит только Reason.
type ClientError struct {
	Reason string
	Err    error // опционально оборачивает sentinel для errors.Is/As
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

func (e *ClientError) Unwrap() error { return e.Err }

// SystemError — внутренний сбой (недоступная БД, panic и т.п.).
// LLM не должна видеть исходное сообщение ошибки.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError сообщает, является ли err (или её обёртка) ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}
