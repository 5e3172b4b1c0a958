package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"pg-manager/config"
	"pg-manager/database"
	"pg-manager/internal/cache"
	"pg-manager/internal/events"
	"pg-manager/internal/health"
	"pg-manager/internal/logging"
	"pg-manager/internal/router"
	"pg-manager/internal/scheduler"
	"pg-manager/internal/storage"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.IsProduction())
	gin.SetMode(cfg.Server.GinMode)

	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Database connection error")
	}
	if err := database.ProcessMigrations(db); err != nil {
		logger.WithError(err).Fatal("Migration failed")
	}

	ctx := context.Background()
	hc := health.NewHealthChecker(db, version)

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, report caching disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}
	reportCache := cache.NewRedisCache(redisClient, cfg.Redis.ReportCacheTTL)
	if reportCache.Enabled() {
		hc.AddDependency("redis", reportCache)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS.URL, logger)
		if err != nil {
			logger.WithError(err).Warn("NATS unavailable, domain events disabled")
		} else {
			defer nc.Close()
			publisher = nc
			hc.AddDependency("nats", nc)
		}
	}

	files, err := storage.Open(ctx, cfg.Upload, logger)
	if err != nil {
		logger.WithError(err).Fatal("Upload storage initialization failed")
	}

	srv := router.New(router.Options{
		DB:     db,
		Config: cfg,
		Logger: logger,
		Events: publisher,
		Cache:  reportCache,
		Files:  files,
		Health: hc,
	})

	reminders := scheduler.NewRentReminder(srv.Notifications, cfg.Scheduler, logger)
	if err := reminders.Start(); err != nil {
		logger.WithError(err).Fatal("Rent reminder scheduler failed to start")
	}
	defer reminders.Stop()
	if reminders.IsRunning() {
		logger.WithField("next_run", reminders.NextRun()).Info("Rent reminders scheduled")
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("PG manager listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()
	hc.SetReady(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	hc.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}
