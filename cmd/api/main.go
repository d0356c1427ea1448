package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"config_client/internal/cache"
	"config_client/internal/config"
	"config_client/internal/db"
	"config_client/internal/handler"
	"config_client/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	observability.ConfigureLogging(cfg.AppEnv, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.Init(&cfg.DB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close database connection")
		}
	}()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx, database)
	cancel()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to migrate database")
	}

	// the service keeps answering from the database when redis is unavailable
	var rdb *redis.Client
	if rdb, err = cache.SetupRedis(&cfg.Redis); err != nil {
		logrus.WithError(err).Warn("Redis unavailable, running without cache and rate limiting")
		rdb = nil
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				logrus.WithError(err).Error("Failed to close redis connection")
			}
		}()
	}

	observability.InitMetrics()
	logrus.Info("Metrics initialized")

	r := handler.SetupHandler(handler.Dependencies{
		DB:      database,
		Redis:   rdb,
		Config:  cfg,
		Metrics: observability.GlobalMetrics,
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	logrus.Info("Metrics endpoint exposed at /metrics")

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logrus.Infof("Starting %s on %s", cfg.AppName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
	logrus.Info("Server exited")
}
