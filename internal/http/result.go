package httpapi

import "labcatalog/internal/domain"

// Result response envelope of every JSON endpoint
// - code: 2000 on success, -1 on error
// - type: 'success' | 'error' | 'warning'
// - message: human readable
// - result: payload
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

// Warn successful payload that resolved only partially. A nil warning is a
// plain Ok.
func Warn[T any](result T, w *domain.PartialResolutionWarning) Result[T] {
	if w == nil {
		return Ok(result)
	}
	return Result[T]{Code: ResultSuccess, Type: "warning", Message: w.Error(), Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}
