package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorHandler catches panics and returns a structured 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   "internal_error",
					Message: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response. Server errors are
// logged at error level, client errors at debug.
func JSONError(c *gin.Context, logger *zap.Logger, status int, code, message string) {
	if logger == nil {
		logger = GetLogger()
	}
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("path", c.Request.URL.Path),
	}
	if status >= http.StatusInternalServerError {
		logger.Error(message, fields...)
	} else {
		logger.Debug(message, fields...)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}
