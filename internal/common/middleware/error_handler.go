package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"noz-miniapp-backend/internal/common/errors"
	"noz-miniapp-backend/internal/common/logger"
)

// RequestIDCtxKey is the context key under which the request id is stored.
const RequestIDCtxKey = "request_id"

// RequestID assigns each request a unique id, honoring an incoming
// X-Request-ID header when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDCtxKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// ErrorHandler recovers from panics and renders them as structured internal
// errors instead of letting gin print a stack to the client.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString(RequestIDCtxKey)

		logger.Error().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		appErr := errors.New(errors.ErrCodeInternal, "Internal server error").
			WithRequestID(requestID).
			WithDetail("panic", fmt.Sprintf("%v", recovered))

		RespondError(c, appErr)
	})
}

// ErrorResponse is the uniform error envelope sent to clients.
type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
}

// RespondError renders an AppError with its mapped HTTP status. Handlers call
// it for every ledger rejection so clients always see the same envelope.
func RespondError(c *gin.Context, appErr *errors.AppError) {
	requestID := c.GetString(RequestIDCtxKey)
	appErr.WithRequestID(requestID)

	c.AbortWithStatusJSON(httpStatusFor(appErr), ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
	})
}

func httpStatusFor(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeValidation, errors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeUserNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeInsufficientFunds, errors.ErrCodeBelowMinimum, errors.ErrCodeWalletNotBound:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeDuplicateReferral, errors.ErrCodeAdCooldown:
		return http.StatusConflict
	case errors.ErrCodeProviderBlocked:
		return http.StatusForbidden
	case errors.ErrCodeProviderTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeProviderUnavailable, errors.ErrCodeProviderMisconfigured, errors.ErrCodeTelegramAPI:
		return http.StatusBadGateway
	case errors.ErrCodeDatabaseError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
