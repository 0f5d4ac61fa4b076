package services

import (
	"context"
	"fmt"
	"log/slog"

	"finman/internal/amqp"
	"finman/internal/core"
	"finman/internal/storage"
)

// RecurringService owns the schedule of recurring obligations: it advances
// due dates and materializes due schedules into ledger entries.
type RecurringService struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client
}

// NewRecurringService creates the recurring engine. events may be nil, in
// which case generated entries are not announced on the bus.
func NewRecurringService(storage *storage.SQLiteRepository, events *amqp.Client) *RecurringService {
	return &RecurringService{
		storage: storage,
		events:  events,
	}
}

// Schedule persists a new recurring schedule after validating its frequency,
// amount and first due date.
func (s *RecurringService) Schedule(ctx context.Context, sch core.RecurringSchedule) (int64, error) {
	if err := sch.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.InsertSchedule(ctx, sch)
	if err != nil {
		return 0, fmt.Errorf("create schedule: %w", err)
	}

	slog.InfoContext(ctx, "Recurring schedule created",
		"id", id,
		"account_id", sch.AccountID,
		"frequency", sch.Frequency,
		"next_due", sch.NextDue.String())

	return id, nil
}

// Reschedule applies a partial update. An empty patch is rejected with
// ErrEmptyPatch rather than silently succeeding; changed fields are
// re-validated with the same rules as Schedule.
func (s *RecurringService) Reschedule(ctx context.Context, id int64, p core.SchedulePatch) error {
	if p.IsEmpty() {
		return core.ErrEmptyPatch
	}
	if err := p.Validate(); err != nil {
		return err
	}

	return s.storage.WithTx(ctx, func(q *storage.Queries) error {
		sch, err := q.GetSchedule(ctx, id)
		if err != nil {
			return err
		}
		applySchedulePatch(&sch, p)
		if err := sch.Validate(); err != nil {
			return err
		}
		return q.UpdateSchedule(ctx, sch)
	})
}

// Cancel deletes a schedule. Ledger entries already generated from it keep
// their back-reference; the store nulls it out on delete.
func (s *RecurringService) Cancel(ctx context.Context, id int64) error {
	if err := s.storage.DeleteSchedule(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Recurring schedule cancelled", "id", id)
	return nil
}

// Get returns one schedule by id.
func (s *RecurringService) Get(ctx context.Context, id int64) (core.RecurringSchedule, error) {
	return s.storage.GetSchedule(ctx, id)
}

// List returns an account's schedules ordered by next due date.
func (s *RecurringService) List(ctx context.Context, accountID int64) ([]core.RecurringSchedule, error) {
	return s.storage.ListSchedules(ctx, accountID)
}

// ProcessDue materializes every schedule due on or before asOf into a ledger
// entry, adjusts the owning account balance, and advances the schedule's
// next due date by one frequency unit.
//
// The whole pass is one database transaction: any failure rolls back every
// schedule processed so far and nothing is applied. Generated entries are
// booked as expenses, dated on the schedule's due date rather than asOf.
// Running the pass again with no newly due schedules processes zero.
func (s *RecurringService) ProcessDue(ctx context.Context, asOf core.Date) (int, error) {
	if err := asOf.Validate(); err != nil {
		return 0, err
	}

	processed := 0
	var createdIDs []int64

	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		due, err := q.ListDueSchedules(ctx, asOf)
		if err != nil {
			return err
		}

		for _, sch := range due {
			entry := core.LedgerEntry{
				AccountID:   sch.AccountID,
				CategoryID:  sch.CategoryID,
				Amount:      sch.Amount,
				Type:        core.Expense,
				Date:        sch.NextDue,
				Description: sch.Description,
				RecurringID: sch.ID,
			}

			entryID, err := q.InsertEntry(ctx, entry)
			if err != nil {
				return fmt.Errorf("schedule %d: %w", sch.ID, err)
			}

			if err := q.AdjustAccountBalance(ctx, sch.AccountID, core.Expense.BalanceDelta(sch.Amount)); err != nil {
				return fmt.Errorf("schedule %d: %w", sch.ID, err)
			}

			next, err := sch.Frequency.Advance(sch.NextDue)
			if err != nil {
				return fmt.Errorf("schedule %d: %w", sch.ID, err)
			}
			if err := q.UpdateNextDue(ctx, sch.ID, next); err != nil {
				return fmt.Errorf("schedule %d: %w", sch.ID, err)
			}

			createdIDs = append(createdIDs, entryID)
			processed++

			slog.InfoContext(ctx, "Materialized recurring schedule",
				"schedule_id", sch.ID,
				"entry_id", entryID,
				"amount", sch.Amount.String(),
				"due", sch.NextDue.String(),
				"next_due", next.String())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("process due schedules: %w", err)
	}

	// Announce after commit; publish failures never undo the pass.
	for _, entryID := range createdIDs {
		publishEntryEvent(ctx, s.events, entryID, amqp.ActionCreated)
	}

	slog.InfoContext(ctx, "Due pass complete",
		"as_of", asOf.String(),
		"processed", processed)

	return processed, nil
}

func applySchedulePatch(sch *core.RecurringSchedule, p core.SchedulePatch) {
	if p.AccountID != nil {
		sch.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		sch.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		sch.Amount = *p.Amount
	}
	if p.Frequency != nil {
		sch.Frequency = *p.Frequency
	}
	if p.NextDue != nil {
		sch.NextDue = *p.NextDue
	}
	if p.Description != nil {
		sch.Description = *p.Description
	}
}
