// Package main runs the live classroom polling server: one in-memory session
// coordinator, a WebSocket hub and a small read-only HTTP surface.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/classpulse/backend/config"
	"github.com/classpulse/backend/internal/archive"
	"github.com/classpulse/backend/internal/middleware"
	"github.com/classpulse/backend/internal/realtime"
	"github.com/classpulse/backend/internal/session"
	"github.com/classpulse/backend/pkg/database"
	"github.com/classpulse/backend/pkg/redis"
	"github.com/classpulse/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	// Optional Redis event mirror.
	var mirror *realtime.EventMirror
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		mirror = realtime.NewEventMirror(rdb.Client, logger)
	}

	hub := realtime.NewHub(logger, mirror)
	coordinator := session.NewCoordinator(hub, logger)
	coordinator.SetDefaultPollDuration(cfg.Poll.DefaultDurationSeconds)

	// Optional ended-poll archive.
	if cfg.Database.URL != "" {
		pool, err := database.NewPostgresPool(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		coordinator.SetArchiveSink(archive.NewRepository(pool))
	}

	sessionHandler := session.NewHandler(coordinator)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	router.GET("/session/poll", sessionHandler.CurrentPoll)
	router.GET("/session/polls/history", sessionHandler.PollHistory)
	router.GET("/session/chat", sessionHandler.ChatLog)
	router.GET("/session/participants", sessionHandler.Participants)

	router.GET("/ws", realtime.ServeWs(hub, coordinator, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
