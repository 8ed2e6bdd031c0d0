package handler

import (
	"net/http"

	"bisage.dev/gateway/internal/cache"
	"github.com/gin-gonic/gin"
)

// CacheHandler serves POST /cache/invalidate, dropping every per-node
// cache at once. An empty adminKey leaves the endpoint open, for local
// and demo runs.
type CacheHandler struct {
	caches   *cache.Caches
	adminKey string
}

func NewCacheHandler(caches *cache.Caches, adminKey string) *CacheHandler {
	return &CacheHandler{caches: caches, adminKey: adminKey}
}

func (h *CacheHandler) Invalidate(c *gin.Context) {
	if h.adminKey != "" && c.GetHeader("X-Admin-Key") != h.adminKey {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
		return
	}
	if err := h.caches.InvalidateAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}
