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

	"github.com/joho/godotenv"

	"github.com/kalasag-ph/suspension-engine/internal/adapter/httpapi"
	kafkaadapter "github.com/kalasag-ph/suspension-engine/internal/adapter/kafka"
	"github.com/kalasag-ph/suspension-engine/internal/adapter/memory"
	"github.com/kalasag-ph/suspension-engine/internal/adapter/postgres"
	"github.com/kalasag-ph/suspension-engine/internal/adapter/ws"
	"github.com/kalasag-ph/suspension-engine/internal/config"
	"github.com/kalasag-ph/suspension-engine/internal/observability"
	"github.com/kalasag-ph/suspension-engine/internal/pubsub"
	"github.com/kalasag-ph/suspension-engine/internal/suspension"
)

type store interface {
	suspension.Store
	CheckReadiness(ctx context.Context) error
}

func main() {
	// Optional .env for local development; the file is absent in production.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("engine failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("schema migration: %w", err)
		}
		logger.Info("using postgres store")
		st = pg
	} else {
		logger.Info("using in-memory store")
		st = memory.NewStore()
	}

	var audit suspension.AuditPublisher = suspension.NopPublisher{}
	if cfg.KafkaEnabled() {
		pub := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAuditTopic, logger)
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		logger.Info("audit trail enabled", "topic", cfg.KafkaAuditTopic)
		audit = pub
	} else {
		logger.Info("audit trail disabled")
	}

	hub := pubsub.NewHub(logger, metrics)
	registry := suspension.NewRegistry(st, audit, hub, logger, metrics, cfg.HistoryLimit)
	workflow := suspension.NewWorkflow(st, registry, cfg.Province, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, registry, workflow, st, ws.NewHandler(hub, logger), logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
