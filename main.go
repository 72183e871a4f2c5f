package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/vmc-todo/backend/internal/config"
	"github.com/vmc-todo/backend/internal/db"
	"github.com/vmc-todo/backend/internal/handler"
	"github.com/vmc-todo/backend/internal/metrics"
	"github.com/vmc-todo/backend/internal/service"

	_ "github.com/vmc-todo/backend/docs"
)

// @title VMC Todo - A Tasks API
// @version 1.0
// @description Multi-tenant task tracking API with token-based sessions.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	pg, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		logger.Error("postgres init failed", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Error("schema init failed", "error", err)
		os.Exit(1)
	}

	codec, err := service.NewTokenCodec(cfg.Auth)
	if err != nil {
		logger.Error("token codec init failed", "error", err)
		os.Exit(1)
	}

	hasher, err := service.NewPasswordHasher(cfg.Auth)
	if err != nil {
		logger.Error("password hasher init failed", "error", err)
		os.Exit(1)
	}

	sessions := service.NewSessionService(pg, pg, codec, hasher, logger)
	tasks := service.NewTaskService(pg, logger)

	authHandler := handler.NewAuthHandler(sessions, cfg.Server, logger)
	taskHandler := handler.NewTaskHandler(tasks, cfg.Server, logger)

	if !cfg.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	if cfg.Server.DontRecover != "true" {
		// In "do not recover" mode unexpected errors are allowed to
		// panic the handler for crash visibility.
		router.Use(gin.Recovery())
	}
	router.Use(handler.RequestIDMiddleware())
	router.Use(metrics.Middleware())
	if len(cfg.Server.AllowedOrigins) > 0 {
		router.Use(handler.CORSMiddleware(cfg.Server.AllowedOrigins))
	}

	router.GET("/health", handler.Health)
	router.GET("/metrics", metrics.Handler())
	router.GET("/api", handler.OpenAPIDoc)

	auth := router.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)

	refresh := auth.Group("", handler.RefreshGuard(codec, cfg.Server))
	refresh.GET("/token", authHandler.Refresh)
	refresh.POST("/logout", authHandler.Logout)
	refresh.DELETE("/closeaccount", authHandler.CloseAccount)

	taskRoutes := router.Group("/tasks", handler.AccessGuard(codec, cfg.Server))
	taskRoutes.GET("", taskHandler.GetTasks)
	taskRoutes.POST("", taskHandler.CreateTask)
	taskRoutes.GET("/deleted", taskHandler.GetDeletedTasks)
	taskRoutes.PUT("/restore/:id", taskHandler.RestoreTask)
	taskRoutes.PUT("/:id", taskHandler.UpdateTask)
	taskRoutes.DELETE("/:id", taskHandler.DeleteTask)

	addr := ":" + cfg.Server.Port
	logger.Info("server starting", "addr", addr, "environment", cfg.Server.Environment)
	if err := router.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
