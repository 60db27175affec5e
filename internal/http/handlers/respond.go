package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/amnii/internal/http/middlewares"
	"github.com/geocoder89/amnii/internal/validation"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

// RespondValidation reports the first violation as the message and all of
// them under details.fields.
func RespondValidation(ctx *gin.Context, err *validation.Error) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", err.Error(), gin.H{"fields": err.Fields})
}

// respondInputError answers a *validation.Error and reports whether err was one.
func respondInputError(ctx *gin.Context, err error) bool {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		RespondValidation(ctx, vErr)
		return true
	}
	return false
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}
