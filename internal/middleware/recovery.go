package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/pkg/middleware/requestid"
)

// APIRecovery converts panics in the camera-facing routes into the same
// {status, message, error} body the handlers use for persistence failures.
func APIRecovery(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", requestid.Value(c)),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"status":  "error",
					"message": "Internal server error",
					"error":   fmt.Sprint(rec),
				})
			}
		}()
		c.Next()
	}
}
