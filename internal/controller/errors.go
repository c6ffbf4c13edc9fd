package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"agriland/internal/apperr"

	"github.com/gin-gonic/gin"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// statusOf maps an error kind to its HTTP status and title
func statusOf(err error) (int, string) {
	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest, "Invalid request"
	case apperr.ErrNotFound:
		return http.StatusNotFound, "Not found"
	case apperr.ErrConflict:
		return http.StatusConflict, "Conflict"
	case apperr.ErrUnavailable:
		return http.StatusServiceUnavailable, "Service unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// respondError writes err as JSON and logs it. Client errors are logged as
// warnings, the rest as errors with their full chain.
func respondError(ctx *gin.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	status, title := statusOf(err)
	body := errorResponse{Error: title, Message: err.Error()}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Field = appErr.Field
	}

	attrs = append(attrs, "error", err.Error(), "status_code", status)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error(msg, attrs...)
		if status == http.StatusInternalServerError {
			body.Message = "An unexpected error occurred"
		}
		if status == http.StatusServiceUnavailable {
			body.Message = "A backing service is unavailable, retry later"
		}
	default:
		logger.Warn(msg, attrs...)
	}

	ctx.JSON(status, body)
}

// badRequest rejects malformed input that never reached a service
func badRequest(ctx *gin.Context, title, message string) {
	ctx.JSON(http.StatusBadRequest, errorResponse{Error: title, Message: message})
}
