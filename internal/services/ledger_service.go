package services

import (
	"context"
	"fmt"
	"log/slog"

	"finman/internal/amqp"
	"finman/internal/core"
	"finman/internal/storage"
)

// LedgerService owns ledger entry lifecycle. Every mutation here binds the
// entry write and the account balance adjustment into one transaction: an
// entry can never exist without its balance effect, and vice versa.
type LedgerService struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client
}

// NewLedgerService creates the ledger service. events may be nil to run
// without the event bus.
func NewLedgerService(storage *storage.SQLiteRepository, events *amqp.Client) *LedgerService {
	return &LedgerService{
		storage: storage,
		events:  events,
	}
}

// Add records a new entry and applies its balance effect.
func (s *LedgerService) Add(ctx context.Context, e core.LedgerEntry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		id, err = q.InsertEntry(ctx, e)
		if err != nil {
			return err
		}
		return q.AdjustAccountBalance(ctx, e.AccountID, e.Type.BalanceDelta(e.Amount))
	})
	if err != nil {
		return 0, fmt.Errorf("add entry: %w", err)
	}

	publishEntryEvent(ctx, s.events, id, amqp.ActionCreated)

	slog.InfoContext(ctx, "Ledger entry added",
		"id", id,
		"account_id", e.AccountID,
		"type", e.Type,
		"amount", e.Amount.String())

	return id, nil
}

// Edit applies a partial update. When the amount, type or account changes,
// the old balance effect is reversed on the old account and the new effect
// applied on the (possibly different) new account, atomically with the row
// update.
func (s *LedgerService) Edit(ctx context.Context, id int64, p core.LedgerPatch) error {
	if p.IsEmpty() {
		return core.ErrEmptyPatch
	}
	if err := p.Validate(); err != nil {
		return err
	}

	return s.storage.WithTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetEntry(ctx, id)
		if err != nil {
			return err
		}

		updated := old
		applyLedgerPatch(&updated, p)
		if err := updated.Validate(); err != nil {
			return err
		}

		if err := q.UpdateEntry(ctx, updated); err != nil {
			return err
		}

		if updated.Amount == old.Amount && updated.Type == old.Type && updated.AccountID == old.AccountID {
			return nil
		}
		if err := q.AdjustAccountBalance(ctx, old.AccountID, -old.Type.BalanceDelta(old.Amount)); err != nil {
			return err
		}
		return q.AdjustAccountBalance(ctx, updated.AccountID, updated.Type.BalanceDelta(updated.Amount))
	})
}

// Delete removes an entry and reverses its exact balance effect.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if err := q.AdjustAccountBalance(ctx, e.AccountID, -e.Type.BalanceDelta(e.Amount)); err != nil {
			return err
		}
		return q.DeleteEntry(ctx, id)
	})
	if err != nil {
		return err
	}

	publishEntryEvent(ctx, s.events, id, amqp.ActionDeleted)

	slog.InfoContext(ctx, "Ledger entry deleted", "id", id)
	return nil
}

// Get returns one entry by id.
func (s *LedgerService) Get(ctx context.Context, id int64) (core.LedgerEntry, error) {
	return s.storage.GetEntry(ctx, id)
}

// List returns an account's entries, newest first.
func (s *LedgerService) List(ctx context.Context, accountID int64) ([]core.LedgerEntry, error) {
	return s.storage.ListEntries(ctx, accountID)
}

func applyLedgerPatch(e *core.LedgerEntry, p core.LedgerPatch) {
	if p.AccountID != nil {
		e.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
}

// publishEntryEvent announces an entry mutation on the bus. A nil client or
// a publish failure only logs; local state is already committed.
func publishEntryEvent(ctx context.Context, events *amqp.Client, entryID int64, action string) {
	if events == nil {
		return
	}
	if err := events.PublishEntryEvent(ctx, entryID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"entry_id", entryID,
			"action", action,
			"error", err)
	}
}
