package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/config"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/jobs"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/metrics"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/middleware"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/storage"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Metrics are always collected; the endpoint is optional
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
		Timeout:   cfg.Database.QueryTimeout,
	}).WithObserver(m)

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize photo storage
	photoStore, err := storage.NewLocalPhotoStore(storage.Config{
		Dir:       cfg.Uploads.Dir,
		URLPrefix: cfg.Uploads.URLPrefix,
		MaxBytes:  cfg.Uploads.MaxBytes,
	})
	if err != nil {
		slog.Error("failed to initialize photo storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application := newApp(appDeps{
		cfg:     cfg,
		db:      db,
		jwt:     jwtService,
		photos:  photoStore,
		metrics: m,
		logger:  logger,
	})
	defer application.Close()

	// Initialize background sweeps
	if cfg.Scheduler.Enabled {
		scheduler := jobs.NewScheduler(jobs.SchedulerConfig{
			Timeout: cfg.Scheduler.Timeout,
			Metrics: m,
		})
		for _, sweep := range application.sweeps {
			if err := scheduler.Register(sweep); err != nil {
				slog.Error("failed to register sweep", slog.String("sweep", sweep.Name), slog.String("error", err.Error()))
				os.Exit(1)
			}
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	mux := http.NewServeMux()
	registerRoutes(mux, application.routes)

	// Uploaded photos
	mux.Handle("GET "+photoPrefix(cfg.Uploads.URLPrefix), photoStore.Handler())

	// Prometheus scrape endpoint
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, metricsHandler(registry))
	}

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.Bool("scheduler", cfg.Scheduler.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// photoPrefix returns the subtree pattern for the upload URL prefix
func photoPrefix(prefix string) string {
	if prefix == "" {
		prefix = "/uploads/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
