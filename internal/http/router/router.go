// Package router wires the gateway's HTTP surface onto a gin.Engine:
// one entrypoint function handed a *gin.Engine and a small typed
// handler bundle.
package router

import (
	"bisage.dev/gateway/internal/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every handler SetupRoutes wires onto the engine.
type Handlers struct {
	Chat    *handler.ChatHandler
	Queries *handler.QueriesHandler
	Health  *handler.HealthHandler
	Cache   *handler.CacheHandler
}

// SetupRoutes registers the gateway's HTTP surface.
func SetupRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", h.Health.Check)
	r.GET("/queries", h.Queries.List)
	r.POST("/cache/invalidate", h.Cache.Invalidate)

	r.POST("/chat/stream", h.Chat.Stream)
	r.POST("/insights/run", h.Chat.Run)
	r.POST("/insights/stream", h.Chat.Stream)
}
