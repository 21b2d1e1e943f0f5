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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Dosada05/competition-system/config"
	"github.com/Dosada05/competition-system/db"
	"github.com/Dosada05/competition-system/events"
	"github.com/Dosada05/competition-system/handlers"
	"github.com/Dosada05/competition-system/metrics"
	"github.com/Dosada05/competition-system/middleware"
	api "github.com/Dosada05/competition-system/routes"
	"github.com/Dosada05/competition-system/services"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	if err := run(cfg, logger); err != nil {
		logger.Error("application stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established", slog.String("driver", dbConn.DriverName()))

	if err := db.Migrate(dbConn); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("database migrations applied")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engineMetrics := metrics.NewEngine(registry)

	wsHub := events.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket hub started")

	sinks := events.MultiSink{wsHub}
	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(events.NATSConfig{URL: cfg.NATSURL})
		if err != nil {
			return err
		}
		defer nc.Close()
		sinks = append(sinks, events.NewNATSSink(nc, cfg.NATSSubjectPrefix))
		logger.Info("NATS event sink enabled", slog.String("url", cfg.NATSURL), slog.String("prefix", cfg.NATSSubjectPrefix))
	}

	deps := services.NewDependencies(dbConn, sinks, engineMetrics, logger)
	bracketService := services.NewBracketService(deps, services.WithConcurrency(cfg.RegenerateConcurrency))
	matchService := services.NewMatchService(deps)
	logger.Info("services initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, middleware.NewAuthenticator(cfg.JWTSecretKey, logger), cfg.CORSAllowedOrigins, api.Handlers{
		Brackets:  handlers.NewBracketHandler(bracketService),
		Matches:   handlers.NewMatchHandler(matchService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
		Health:    handlers.NewHealthHandler(dbConn),
		Metrics:   engineMetrics.Handler(),
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}
