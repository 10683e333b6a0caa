package prefect

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки клиента движка.
var (
	// ErrRequest — запрос не дошёл до движка (сеть, таймаут, некорректный URL).
	ErrRequest = errors.New("engine request failed")

	// ErrStatus — движок ответил кодом >= 400.
	ErrStatus = errors.New("engine returned error status")

	// ErrDecode — ответ движка не удалось разобрать.
	ErrDecode = errors.New("engine response decode failed")

	// ErrNoBlockSchema — у типа блока в движке нет схемы, документ не создать.
	ErrNoBlockSchema = errors.New("engine has no schema for block type")
)

// StatusError — ответ движка с кодом >= 400.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %s: HTTP %d: %s", ErrStatus, e.Method, e.Path, e.Code, e.Body)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrStatus).
func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// IsNotFound проверяет, что движок ответил 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
