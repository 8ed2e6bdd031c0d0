package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS allows only frontendURL as an origin. An empty frontendURL
// mirrors whatever Origin the browser sent, which is only acceptable in
// local development.
func CORS(frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		allowed := frontendURL
		if allowed == "" {
			allowed = origin
		}
		if origin != "" && origin == allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Trace-Id")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
