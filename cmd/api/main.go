package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/paseoapp/walk-api/internal/config"
	"github.com/paseoapp/walk-api/internal/email"
	"github.com/paseoapp/walk-api/internal/handler/health"
	paymenthandler "github.com/paseoapp/walk-api/internal/handler/payment"
	walkhandler "github.com/paseoapp/walk-api/internal/handler/walk"
	"github.com/paseoapp/walk-api/internal/middleware"
	"github.com/paseoapp/walk-api/internal/repository/postgres"
	"github.com/paseoapp/walk-api/internal/router"
	"github.com/paseoapp/walk-api/internal/service/notification"
	"github.com/paseoapp/walk-api/internal/service/payment"
	"github.com/paseoapp/walk-api/internal/service/walk"
	"github.com/paseoapp/walk-api/internal/sms"
	"github.com/paseoapp/walk-api/pkg/auth"
	"github.com/paseoapp/walk-api/pkg/logger"
	"github.com/paseoapp/walk-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Log.Console,
	})
	log.Logger = appLogger.ZL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			appLogger.Fatal(err, "failed to migrate database")
		}
	}

	store := postgres.NewStore(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(registry, "walks", "api")

	walkSvc := walk.NewService(store, walk.Config{
		Location:           cfg.Walks.Location(),
		CancellationWindow: cfg.Walks.CancellationWindow,
		ZoneFilter:         cfg.Walks.ZoneFilter,
		ZoneCacheTTL:       cfg.Walks.ZoneCacheTTL,
	}, appMetrics, appLogger)

	// Without a broker nobody consumes the outbox, so the API delivers
	// payout notifications itself right after settlement.
	inline := cfg.Redis.URL == ""
	var notifier payment.Notifier
	if inline {
		notifier = notification.NewService(
			store.Users(),
			email.NewService(cfg.SMTP, appLogger),
			sms.NewSender(cfg.SMS, appLogger),
			notification.Config{Retries: cfg.Walks.NotifyRetries},
			appMetrics,
			appLogger,
		)
		appLogger.Info("no broker configured, delivering notifications inline")
	}
	paymentSvc := payment.NewService(store, notifier, payment.Config{InlineNotify: inline}, appMetrics, appLogger)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	}

	gin.SetMode(gin.ReleaseMode)
	r := router.NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		health.NewHandler(registry, map[string]health.Pinger{"database": store}),
		walkhandler.NewHandler(walkSvc),
		paymenthandler.NewHandler(paymentSvc),
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       corsConfig,
			Timeout:          time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			MetricsPrefix:    "walks_http",
			Registerer:       registry,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal(err, "server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
