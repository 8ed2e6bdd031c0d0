package handler

import (
	"net/http"

	"bisage.dev/gateway/internal/allowlist"
	"github.com/gin-gonic/gin"
)

// QueriesHandler serves GET /queries: the allowlist enumeration the
// Planner's LLM fallback also uses as prompt context.
type QueriesHandler struct {
	registry *allowlist.Registry
}

func NewQueriesHandler(registry *allowlist.Registry) *QueriesHandler {
	return &QueriesHandler{registry: registry}
}

func (h *QueriesHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"queries": h.registry.AvailableQueries()})
}
