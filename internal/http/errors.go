package httpapi

import (
	"errors"
	"net/http"

	"labcatalog/internal/auth"
	"labcatalog/internal/domain"

	"go.uber.org/zap"
)

const genericErrorMessage = "internal server error"

// ErrorWriter turns service errors into status codes and a Fail envelope.
// In production the message of a 500 is replaced by a generic one.
type ErrorWriter struct {
	Logger     *zap.Logger
	Production bool
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (e ErrorWriter) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		e.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if e.Production {
			msg = genericErrorMessage
		}
	} else {
		e.Logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, Fail(msg))
}
