package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamkit/internal/core/session"
	httphandlers "streamkit/internal/handlers/http"
	"streamkit/internal/infrastructure/engine/pion"
	"streamkit/internal/infrastructure/middleware"
	"streamkit/internal/infrastructure/monitoring"
	"streamkit/internal/infrastructure/notify"
	"streamkit/internal/infrastructure/repositories"
	"streamkit/pkg/config"
	"streamkit/pkg/logger"
	"streamkit/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Warnw("failed to initialize tracing", "error", err)
	} else {
		defer tracerProvider.Shutdown(context.Background())
	}

	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	statsRepo := repoFactory.CreateStatsRepository()

	engine, err := pion.New(pion.ConfigFromApp(cfg), zapLogger)
	if err != nil {
		log.Fatalw("failed to create media engine", "error", err)
	}

	var recorder session.MetricsRecorder
	if cfg.Monitoring.PrometheusEnabled {
		recorder = monitoring.NewCollector()
	}

	sess := session.New(engine, statsRepo, recorder, zapLogger)
	defer sess.Close()

	notifier := notify.NewWebSocketNotifier(zapLogger)

	streamHandler := httphandlers.NewStreamHandler(sess, notifier, repoFactory.HealthCheck)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	if cfg.Auth.Enabled {
		router.Use(middleware.OptionalAuthMiddleware(cfg.Auth.JWTSecret))
	}

	streamHandler.SetupRoutes(router)

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Periodic session stats sampling keeps the collector and the stats
	// repository fresh even without API traffic.
	statsCtx, statsCancel := context.WithCancel(context.Background())
	defer statsCancel()
	go func() {
		ticker := time.NewTicker(cfg.Monitoring.StatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-statsCtx.Done():
				return
			case <-ticker.C:
				if _, err := sess.Stats(statsCtx); err != nil {
					log.Debugw("periodic stats sampling failed", "error", err)
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting streamkit console on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down streamkit console...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := sess.Close(); err != nil {
		log.Errorw("Error closing session", "error", err)
	}

	log.Info("streamkit console stopped")
}
