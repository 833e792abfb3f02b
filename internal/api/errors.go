package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attrition/internal/features"
	"attrition/internal/predict"
)

// ErrInvalidJSON wraps request bodies that are empty or not JSON objects.
var ErrInvalidJSON = errors.New("invalid JSON body")

// ErrorResponse is the body of every failed call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MapError picks the HTTP status and client message for err.
func MapError(err error) (int, string) {
	var (
		item     *predict.ItemError
		missing  *features.MissingFieldsError
		coercion *features.CoercionError
	)
	switch {
	case errors.As(err, &item):
		status, msg := MapError(item.Err)
		return status, fmt.Sprintf("item %d: %s", item.Index, msg)
	case errors.Is(err, predict.ErrServiceUnavailable):
		return http.StatusInternalServerError, "Model not loaded. Please check server logs."
	case errors.Is(err, predict.ErrInvalidRequest):
		return http.StatusBadRequest, "No data provided in request"
	case errors.Is(err, ErrInvalidJSON):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &missing):
		return http.StatusBadRequest, missing.Error()
	case errors.As(err, &coercion):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status, msg := MapError(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(requestIDKey)),
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", fields...)
	} else {
		h.log.Warn("request rejected", fields...)
	}
	c.JSON(status, ErrorResponse{Error: msg})
}
