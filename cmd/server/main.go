package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invenbook/internal/api"
	"invenbook/internal/config"
	"invenbook/internal/database"
	"invenbook/internal/domain"
	"invenbook/internal/logging"
	"invenbook/internal/metrics"
	"invenbook/internal/pubsub"
	"invenbook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	publisher, redisClose := initPublisher(cfg, &logger)
	defer redisClose()

	auditSvc := service.NewAuditService(db, &logger)
	notifSvc := service.NewNotificationService(db, publisher, &logger)
	bookingSvc := service.NewBookingService(db, auditSvc, notifSvc, &logger)

	httpServer := api.NewHTTPServer(cfg.Server, bookingSvc, auditSvc, notifSvc, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	return db, nil
}

// initPublisher prefers redis so notifications reach subscribers in other
// processes. Without redis the in-process bus keeps SendNotification working
// for single-node deployments.
func initPublisher(cfg *config.Config, logger *zerolog.Logger) (domain.Publisher, func()) {
	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, using in-process bus")
		return pubsub.NewBus(), func() {}
	}

	client := pubsub.NewRedisClient(cfg.Redis)
	if err := pubsub.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, falling back to in-process bus")
		_ = pubsub.Close(client)
		return pubsub.NewBus(), func() {}
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return pubsub.NewRedisPublisher(client), func() { _ = pubsub.Close(client) }
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startSignalAwareShutdown(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) {
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go startSignalAwareShutdown(ctx, httpServer, logger)

	logger.Info().Int("port", cfg.Server.Port).Msg("server started")
	if err := httpServer.Start(); err != nil {
		logger.Error().Err(err).Msg("http server stopped")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
