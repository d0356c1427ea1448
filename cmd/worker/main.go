package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"config_client/internal/cache"
	"config_client/internal/config"
	"config_client/internal/events"
	"config_client/internal/observability"
	"config_client/internal/queue"
	"config_client/internal/user"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const (
	consumerCount = 3
	metricsAddr   = ":8088"
)

func main() {
	cfg := config.Load()
	observability.ConfigureLogging(cfg.AppEnv, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	rdb, err := cache.SetupRedis(&cfg.Redis)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to Redis")
	}

	conn, err := queue.SetupRabbitMQ(&cfg.RabbitMQ)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}

	defer func() {
		if err := multierr.Combine(conn.Close(), rdb.Close()); err != nil {
			logrus.WithError(err).Error("Failed to close connections")
		}
	}()

	ch, err := queue.CreateChannel(conn)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create RabbitMQ channel")
	}
	if _, err := queue.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
		logrus.WithError(err).Fatal("Failed to declare RabbitMQ queue")
	}
	if err := ch.Close(); err != nil {
		logrus.WithError(err).Fatal("Failed to close RabbitMQ channel")
	}

	observability.InitMetrics()
	metrics := observability.GlobalMetrics
	logrus.Info("Metrics initialized")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logrus.Infof("Worker metrics server started on %s", metricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start metrics server")
		}
	}()

	// eviction never reads users, so the worker runs without a database
	evicter := user.NewCacheEvicter(cache.NewUserCache(rdb, cfg.Redis.CacheTTL), metrics)
	invalidate := events.NewCacheInvalidator(evicter, metrics)
	consumer := events.NewConsumer(conn, cfg.RabbitMQ.Queue, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i := 1; i <= consumerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := consumer.Run(ctx, id, invalidate); err != nil {
				logrus.WithError(err).WithField("consumer", id).Error("Consumer exited")
				stop()
			}
		}(i)
	}

	<-ctx.Done()
	logrus.Info("Shutting down worker...")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Metrics server forced to shutdown")
	}
	logrus.Info("Worker exited")
}
