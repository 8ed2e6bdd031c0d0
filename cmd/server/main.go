package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bisage.dev/gateway/common/id"
	"bisage.dev/gateway/common/llm"
	"bisage.dev/gateway/common/logger"
	"bisage.dev/gateway/common/otel"
	"bisage.dev/gateway/core/config"
	"bisage.dev/gateway/core/db"
	"bisage.dev/gateway/internal/allowlist"
	"bisage.dev/gateway/internal/cache"
	"bisage.dev/gateway/internal/checkpoint"
	"bisage.dev/gateway/internal/composer"
	"bisage.dev/gateway/internal/convstore"
	"bisage.dev/gateway/internal/executor"
	"bisage.dev/gateway/internal/http/handler"
	"bisage.dev/gateway/internal/http/middleware"
	httprouter "bisage.dev/gateway/internal/http/router"
	"bisage.dev/gateway/internal/orchestrator"
	"bisage.dev/gateway/internal/planner"
	"bisage.dev/gateway/internal/relstore"
	"bisage.dev/gateway/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "gateway starting", "env", cfg.Env, "service", cfg.OTel.ServiceName, "demo_mode", cfg.DemoMode)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	var database *db.DB
	if !cfg.DemoMode {
		database, err = db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		slog.InfoContext(ctx, "database connected")
	}

	var redisClient *redis.Client
	if cfg.CacheBackend == "redis" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "redis connected")
	}

	registry, err := allowlist.New(cfg.AllowlistPath)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load query allowlist", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "allowlist loaded", "queries", len(registry.AvailableQueries()))

	// No key (or demo mode) leaves the client nil; every consumer treats
	// a nil client as "heuristics only".
	var llmClient llm.Client
	if cfg.LLM.APIKey != "" && !cfg.DemoMode {
		llmClient, err = llm.New(llm.Config{
			Provider: cfg.LLM.Provider,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Model:    cfg.LLM.Model,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to build llm client", "error", err)
			os.Exit(1)
		}
		llmClient = llm.WithRetry(llmClient)
	} else {
		slog.InfoContext(ctx, "llm client disabled, heuristic paths only")
	}

	var relationalStore relstore.Store
	if cfg.DemoMode {
		relationalStore = relstore.NewFake()
	} else {
		relationalStore = relstore.NewPostgres(database, cfg.DB.QueryTimeout)
	}

	var convStore convstore.Store
	switch cfg.MemoryBackend {
	case config.MemoryBackendPostgres:
		if database == nil {
			slog.WarnContext(ctx, "postgres memory backend requires a database, using in-memory store")
			convStore = convstore.NewInMemory()
			break
		}
		convStore = convstore.NewPostgres(database)
	case config.MemoryBackendSQLite:
		slog.WarnContext(ctx, "sqlite memory backend not built in, using in-memory store")
		convStore = convstore.NewInMemory()
	default:
		convStore = convstore.NewInMemory()
	}

	var checkpointStore checkpoint.Store
	if redisClient != nil {
		checkpointStore = checkpoint.NewRedis(redisClient, time.Duration(cfg.MemoryTTLHours)*time.Hour)
	} else {
		checkpointStore = checkpoint.NewInMemory()
	}

	var caches *cache.Caches
	if cfg.CacheBackend == "redis" && redisClient != nil {
		caches = cache.NewRedisSet(redisClient)
	} else {
		caches = cache.NewInMemorySet()
	}

	rtr := router.New(llmClient, cfg.UseLLMRouter)
	pln := planner.New(registry, llmClient, cfg.UseLLMPlanner)
	exec := executor.New(registry, relationalStore, cfg.FanOutCap)
	comp := composer.New(llmClient, cfg.PresentationUseLLM, cfg.DemoMode)

	orch := orchestrator.New(orchestrator.Deps{
		Router:     rtr,
		Planner:    pln,
		Executor:   exec,
		Composer:   comp,
		ConvStore:  convStore,
		Checkpoint: checkpointStore,
		Caches:     caches,
		LLMClient:  llmClient,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := setupRouter(cfg, orch, registry, database, caches)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // streaming responses run open-ended
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, orch *orchestrator.Orchestrator, registry *allowlist.Registry, database *db.DB, caches *cache.Caches) *gin.Engine {
	engine := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		engine.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())
	engine.Use(middleware.CORS(cfg.FrontendURL))

	httprouter.SetupRoutes(engine, httprouter.Handlers{
		Chat:    handler.NewChatHandler(orch),
		Queries: handler.NewQueriesHandler(registry),
		Health:  handler.NewHealthHandler(database, cfg.OTel.ServiceVersion, cfg.DemoMode),
		Cache:   handler.NewCacheHandler(caches, cfg.AdminAPIKey),
	})

	return engine
}

const banner = `
██████╗ ██╗███████╗ █████╗  ██████╗ ███████╗
██╔══██╗██║██╔════╝██╔══██╗██╔════╝ ██╔════╝
██████╔╝██║███████╗███████║██║  ███╗█████╗
██╔══██╗██║╚════██║██╔══██║██║   ██║██╔══╝
██████╔╝██║███████║██║  ██║╚██████╔╝███████╗
╚═════╝ ╚═╝╚══════╝╚═╝  ╚═╝ ╚═════╝ ╚══════╝
`
