package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"finman/internal/amqp"
	"finman/internal/cli"
	"finman/internal/core"
	"finman/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Ledger events are optional: without a broker the worker still
	// materializes schedules, it just doesn't announce them.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event bus", "error", err)
			events = nil
		} else {
			defer events.Close()
			logger.Info("AMQP client initialized")
		}
	} else {
		logger.Info("AMQP disabled")
	}

	recurring := services.NewRecurringService(repo, events)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	// Run an initial pass on startup, then tick.
	runPass(ctx, logger, recurring)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cli.WaitForShutdown(ctx, done)
			os.Exit(0)
		case <-ticker.C:
			runPass(ctx, logger, recurring)
		}
	}
}

func runPass(ctx context.Context, logger *slog.Logger, recurring *services.RecurringService) {
	count, err := recurring.ProcessDue(ctx, core.Today())
	if err != nil {
		logger.Error("Due pass failed", "error", err)
		return
	}
	logger.Info("Due pass complete", "entries_created", count)
}
