package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairline/fairsweep/internal/api"
	"github.com/fairline/fairsweep/internal/config"
	"github.com/fairline/fairsweep/internal/events"
	"github.com/fairline/fairsweep/internal/runner"
	"github.com/fairline/fairsweep/internal/store"
	"github.com/fairline/fairsweep/internal/sweeper"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Events (optional)
	var eventsClient events.Client
	if cfg.Events.URL != "" {
		ec, err := events.NewNATSClient(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to nats, running without events", "error", err)
		} else {
			eventsClient = ec
			defer ec.Close()
			logger.Info("connected to nats")
		}
	}

	// Sweep collaborator: external service if configured, built-in
	// threshold grid otherwise.
	var sweepClient sweeper.Client
	if cfg.Sweeper.URL != "" {
		sweepClient = sweeper.NewHTTPClient(cfg.Sweeper.URL, cfg.SweeperTimeout())
		logger.Info("using external sweeper", "url", cfg.Sweeper.URL)
	} else {
		sweepClient = sweeper.NewThresholdSweeper(cfg.Sweeper.BaseWeights, cfg.Sweeper.BaseBias)
		logger.Info("using built-in threshold sweeper", "base_weights", len(cfg.Sweeper.BaseWeights))
	}

	// Runner
	run := runner.New(db, eventsClient, sweepClient, cfg, logger)
	run.Start(ctx)
	defer run.Stop()
	logger.Info("runner started", "tick_interval", cfg.TickInterval())

	// API server
	router := api.NewRouter(db, eventsClient, run, cfg, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsRouter := api.NewMetricsRouter()
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsRouter,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
