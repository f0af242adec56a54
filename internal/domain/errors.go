package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by repositories, services and the HTTP layer.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation error")
	ErrUpstream         = errors.New("upstream failure")
)

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Upstream wraps a store or transport failure.
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

// PartialResolutionWarning reports fan-out references that did not resolve.
// It travels next to a successful payload and is never returned as an error.
type PartialResolutionWarning struct {
	Kind       string   `json:"kind"`
	Unresolved []string `json:"unresolved"`
}

func (w *PartialResolutionWarning) Error() string {
	return fmt.Sprintf("%d unresolved %s reference(s): %s", len(w.Unresolved), w.Kind, strings.Join(w.Unresolved, ", "))
}
