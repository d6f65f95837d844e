package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/paseoapp/walk-api/internal/config"
	"github.com/paseoapp/walk-api/internal/email"
	"github.com/paseoapp/walk-api/internal/handler/health"
	"github.com/paseoapp/walk-api/internal/middleware"
	"github.com/paseoapp/walk-api/internal/repository/postgres"
	"github.com/paseoapp/walk-api/internal/service/notification"
	"github.com/paseoapp/walk-api/internal/sms"
	"github.com/paseoapp/walk-api/pkg/logger"
	"github.com/paseoapp/walk-api/pkg/messaging/redis"
	"github.com/paseoapp/walk-api/pkg/metrics"
	"github.com/paseoapp/walk-api/pkg/worker"
)

const cleanupInterval = time.Hour

func setupHealthCheck(port int, registry *prometheus.Registry, store *postgres.Store, logger *logger.Logger) *http.Server {
	engine := gin.New()
	engine.Use(middleware.Recovery())
	health.NewHandler(registry, map[string]health.Pinger{"database": store}).RegisterRoutes(engine.Group(""))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Log.Console,
	})
	log.Logger = appLogger.ZL

	if cfg.Redis.URL == "" {
		appLogger.Fatal(errors.New("redis.url is empty"), "The worker needs a broker; without one the API delivers notifications inline")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	store := postgres.NewStore(db)

	broker, err := redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), &appLogger.ZL)
	if err != nil {
		appLogger.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	workerMetrics := metrics.NewMetrics(registry, "walks", "worker")

	processor, err := worker.NewOutboxProcessor(
		store.Outbox(),
		broker,
		cfg.Outbox.ToWorkerConfig(),
		appLogger.WithFields(map[string]interface{}{"component": "outbox_processor"}),
		workerMetrics,
	)
	if err != nil {
		appLogger.Fatal(err, "Invalid outbox configuration")
	}

	notifier := notification.NewService(
		store.Users(),
		email.NewService(cfg.SMTP, appLogger),
		sms.NewSender(cfg.SMS, appLogger),
		notification.Config{Retries: cfg.Walks.NotifyRetries},
		workerMetrics,
		appLogger,
	)
	consumer := notification.NewConsumer(broker, notifier, appLogger.WithFields(map[string]interface{}{"component": "notification_consumer"}))

	healthSrv := setupHealthCheck(cfg.Server.HealthPort, registry, store, appLogger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error(err, "Notification consumer stopped")
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		processor.StartCleanup(ctx, cleanupInterval, cfg.Outbox.Retention)
	}()
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "Health check server forced to shutdown")
	}
}
