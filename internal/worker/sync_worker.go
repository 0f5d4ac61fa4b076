// Package worker bridges the ledger event queue and the spreadsheet export.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finman/internal/amqp"
	"finman/internal/core"
	"finman/internal/sheets"
	"finman/internal/storage"
)

// SyncWorker consumes ledger events and appends the referenced entries to a
// Google Spreadsheet. The export is append-only: deletions are recorded in
// the log but leave already exported rows in place.
type SyncWorker struct {
	storage  *storage.SQLiteRepository
	exporter *sheets.Exporter
}

func NewSyncWorker(storage *storage.SQLiteRepository, exporter *sheets.Exporter) *SyncWorker {
	return &SyncWorker{
		storage:  storage,
		exporter: exporter,
	}
}

// HandleEvent processes one ledger event. Returning an error requeues the
// event; events for entries that no longer exist are dropped.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.EntryEvent) error {
	switch msg.Action {
	case amqp.ActionCreated:
		return w.exportEntry(ctx, msg.EntryID)
	case amqp.ActionDeleted:
		slog.InfoContext(ctx, "Entry deleted locally, export row kept",
			"entry_id", msg.EntryID)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown ledger event action, dropping",
			"entry_id", msg.EntryID,
			"action", msg.Action)
		return nil
	}
}

func (w *SyncWorker) exportEntry(ctx context.Context, entryID int64) error {
	entry, err := w.storage.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before we got to it; nothing to export.
			slog.WarnContext(ctx, "Entry vanished before export", "entry_id", entryID)
			return nil
		}
		return fmt.Errorf("get entry %d: %w", entryID, err)
	}

	if err := w.exporter.AppendEntry(ctx, entry); err != nil {
		return fmt.Errorf("export entry %d: %w", entryID, err)
	}

	slog.InfoContext(ctx, "Entry exported to spreadsheet",
		"entry_id", entryID,
		"date", entry.Date.String(),
		"amount", entry.Amount.String())

	return nil
}
