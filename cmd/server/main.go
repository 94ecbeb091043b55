package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shindi/internal/config"
	"shindi/internal/handler"
	"shindi/internal/logger"
	"shindi/internal/repository"
	"shindi/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	logg.Info("starting shindi assistant",
		"version", Version, "build_time", BuildTime, "git_commit", GitCommit)

	gin.SetMode(cfg.Server.GinMode)

	store, err := repository.NewPostgresStore(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		logg.Fatal("failed to connect to database", "error", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		logg.Fatal("failed to apply schema", "error", err)
	}
	logg.Info("connected to PostgreSQL")

	// Drop sessions that have been idle past the TTL. No background workers:
	// this runs once per boot.
	ttl := time.Duration(cfg.Chat.SessionTTLDays) * 24 * time.Hour
	if removed, err := store.DeleteExpiredSessions(ctx, ttl); err != nil {
		logg.Warn("expired session cleanup failed", "error", err)
	} else if removed > 0 {
		logg.Info("expired sessions removed", "count", removed)
	}

	if !cfg.OpenAI.Enabled {
		logg.Warn("OpenAI is disabled; chat turns will fail until OPENAI_API_KEY is set")
	}
	modelClient := service.NewOpenAIModelClient(&cfg.OpenAI, logg)

	chatService := service.NewChatService(store, modelClient, logg)
	leadService := service.NewLeadService(store, logg)

	chatHandler := handler.NewChatHandler(chatService)
	searchHandler := handler.NewSearchHandler(store)
	leadHandler := handler.NewLeadHandler(leadService, cfg.Leads.DefaultLimit, cfg.Leads.MaxLimit)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "shindi-assistant",
			"version": Version,
		})
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/chat", chatHandler.Chat)
		apiV1.POST("/search", searchHandler.Search)

		apiV1.GET("/leads", leadHandler.List)
		apiV1.POST("/leads", leadHandler.Create)
		apiV1.GET("/leads/stats", leadHandler.Stats)
		apiV1.POST("/leads/:id/status", leadHandler.UpdateStatus)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logg.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", "error", err)
	}
	logg.Info("server stopped")
}
