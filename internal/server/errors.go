package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/payflow/internal/fault"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware serializes the last collected error after the
// handler chain runs. Handlers push errors with AbortWithError and never
// write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, fault.ErrValidation):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    fault.CodeOf(err),
			Message: fault.MessageOf(err),
		}
	case errors.Is(err, fault.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Code:    fault.CodeOf(err),
			Message: "unauthorized",
		}
	case errors.Is(err, fault.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    fault.CodeOf(err),
			Message: messageOr(err, "not found"),
		}
	case errors.Is(err, fault.ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    fault.CodeOf(err),
			Message: fault.MessageOf(err),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func messageOr(err error, fallback string) string {
	if msg := fault.MessageOf(err); msg != "" {
		return msg
	}
	return fallback
}

// classifyErrorForLog feeds the request-log middleware without leaking
// internal error text into log cardinality.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case errors.Is(err, fault.ErrValidation):
		return "validation_error", fault.CodeOf(err)
	case errors.Is(err, fault.ErrUnauthorized):
		return "unauthorized", fault.CodeOf(err)
	case errors.Is(err, fault.ErrNotFound):
		return "not_found", fault.CodeOf(err)
	case errors.Is(err, fault.ErrConflict):
		return "conflict", fault.CodeOf(err)
	default:
		return "internal_error", ""
	}
}
