package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"telework-planning-backend/config"
	"telework-planning-backend/internal/api"
	"telework-planning-backend/internal/breaker"
	"telework-planning-backend/internal/client"
	"telework-planning-backend/internal/db"
	"telework-planning-backend/internal/health"
	"telework-planning-backend/internal/logging"
	"telework-planning-backend/internal/metrics"
	"telework-planning-backend/internal/namecache"
	"telework-planning-backend/internal/planning"
	"telework-planning-backend/internal/refresher"
	"telework-planning-backend/internal/store"
	"telework-planning-backend/internal/worker"
)

const (
	serviceName = "planning-service"
	version     = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		slog.Error("planning service stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("path", configPath))

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	meterProvider, err := metrics.NewMeterProvider(ctx, serviceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics exporter: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush metrics", slog.String("error", err.Error()))
		}
	}()

	planningMetrics, err := metrics.NewPlanningMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	planningStore := store.NewGormStore(gormDB)

	breakerSettings := breaker.Settings{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
	}
	intake := client.NewResilientIntake(
		client.NewIntakeClient(cfg.Intake.BaseURL, cfg.Intake.Timeout),
		breakerSettings, planningMetrics, logger,
	)
	directory := client.NewResilientDirectory(
		client.NewDirectoryClient(cfg.Directory.BaseURL, cfg.Directory.Timeout),
		breakerSettings, planningMetrics, logger,
	)

	var redisClient *redis.Client
	var names namecache.Cache
	switch cfg.NameCache.Backend {
	case config.CacheBackendRedis:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.NameCache.Redis.Addr,
			Password: cfg.NameCache.Redis.Password,
			DB:       cfg.NameCache.Redis.DB,
		})
		defer redisClient.Close()
		names = namecache.NewRedis(redisClient, cfg.NameCache.TTL)
	default:
		names = namecache.NewMemory(cfg.NameCache.TTL)
	}
	resolver := namecache.NewResolver(names, directory)

	policy := planning.Policy{
		MaxDaysPerWeek:     cfg.Policy.MaxDaysPerWeek,
		MaxConsecutiveDays: cfg.Policy.MaxConsecutiveDays,
	}
	reconciler := planning.NewReconciler(planningStore, resolver, planningMetrics, logger)
	scheduler := planning.NewScheduler(planningStore, resolver, policy, planningMetrics, logger)

	pool := worker.NewWorkerPool(cfg.WorkerPool.Size, reconciler, logger)
	pool.Start(ctx)

	planningSvc := planning.NewService(planningStore, reconciler, scheduler, intake, pool, planningMetrics, logger)

	// Periodic regeneration runs in the background when enabled.
	go refresher.NewService(cfg.Refresher, planningSvc, logger).Run(ctx)

	checker := health.NewChecker(planningStore, redisClient,
		append(intake.Breakers(), directory.Breakers()...), version)

	router := api.NewRouter(api.NewHandler(planningSvc, planning.NewCalendar(directory, intake, logger), logger), checker, api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		JWTSecret:       cfg.Auth.JWTSecret,
		ManagerRoles:    cfg.Auth.ManagerRoles,
	}, logger)
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret is empty, planning routes are not authenticated")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received, stopping services")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server ListenAndServe: %w", err)
	}

	if err := shutdown(server, cancel, 5*time.Second); err != nil {
		return err
	}

	logger.Info("server gracefully stopped")
	return nil
}

// shutdown drains the server and only then stops background work, since
// in-flight requests may still need the worker pool.
func shutdown(server *http.Server, stopBackground context.CancelFunc, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := server.Shutdown(ctx)
	stopBackground()
	if err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}
	return nil
}
