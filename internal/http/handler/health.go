package handler

import (
	"context"
	"net/http"
	"time"

	"bisage.dev/gateway/core/db"
	"github.com/gin-gonic/gin"
)

// HealthHandler serves GET /health: a shallow liveness check that pings
// the relational store (unless in demo mode or with no database). The
// cache field is always reported as "up"; the cache backend is not probed.
type HealthHandler struct {
	db      *db.DB
	version string
	demo    bool
}

func NewHealthHandler(database *db.DB, version string, demoMode bool) *HealthHandler {
	return &HealthHandler{db: database, version: version, demo: demoMode}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	databaseStatus := "disabled"
	if h.demo {
		databaseStatus = "demo"
	} else if h.db != nil {
		if err := h.db.Pool().Ping(ctx); err != nil {
			databaseStatus = "down"
		} else {
			databaseStatus = "up"
		}
	}

	status := "ok"
	if databaseStatus == "down" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"version":  h.version,
		"database": databaseStatus,
		"cache":    "up",
	})
}
