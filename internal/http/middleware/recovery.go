package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"bisage.dev/gateway/common/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 response instead of
// crashing the process. The stack goes to the log, never to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			slog.ErrorContext(c.Request.Context(), "panic recovered",
				"error", r,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", logger.Truncate(string(debug.Stack()), 4000),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
			})
		}()
		c.Next()
	}
}
