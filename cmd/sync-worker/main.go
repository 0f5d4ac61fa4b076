package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finman/internal/amqp"
	"finman/internal/cli"
	"finman/internal/sheets"
	"finman/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting sync-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("sync-worker requires AMQP_URL")
		os.Exit(1)
	}
	if !cfg.SheetsConfigured() {
		logger.Error("sync-worker requires GOOGLE_SPREADSHEET_ID and service account credentials")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	exporter, err := sheets.New(context.Background(), sheets.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer events.Close()

	syncWorker := worker.NewSyncWorker(repo, exporter)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	err = events.ConsumeEntryEvents(ctx, func(msg *amqp.EntryEvent) error {
		return syncWorker.HandleEvent(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
}
