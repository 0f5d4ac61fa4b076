package services

import (
	"context"
	"errors"
	"testing"

	"finman/internal/core"
)

func TestRecurringService_ProcessDue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, 120000)
	categoryID := seedCategory(t, repo, userID, "Rent", core.Expense)

	svc := NewRecurringService(repo, nil)

	scheduleID, err := svc.Schedule(ctx, core.RecurringSchedule{
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      core.Money{Cents: 5000},
		Frequency:   core.Monthly,
		NextDue:     mustDate(t, "2023-11-01"),
		Description: "Gym membership",
	})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	processed, err := svc.ProcessDue(ctx, mustDate(t, "2023-11-15"))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if processed != 1 {
		t.Fatalf("ProcessDue() processed = %d, want 1", processed)
	}

	entries, err := repo.ListEntries(ctx, accountID)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Type != core.Expense {
		t.Errorf("entry type = %q, want %q", entry.Type, core.Expense)
	}
	if entry.Amount.Cents != 5000 {
		t.Errorf("entry amount = %d cents, want 5000", entry.Amount.Cents)
	}
	// The entry is dated on the due date, not on the day the pass ran.
	if got := entry.Date.String(); got != "2023-11-01" {
		t.Errorf("entry date = %s, want 2023-11-01", got)
	}
	if entry.RecurringID != scheduleID {
		t.Errorf("entry recurring id = %d, want %d", entry.RecurringID, scheduleID)
	}

	if got := accountBalance(t, repo, accountID); got != 115000 {
		t.Errorf("balance = %d cents, want 115000", got)
	}

	schedule, err := svc.Get(ctx, scheduleID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := schedule.NextDue.String(); got != "2023-12-01" {
		t.Errorf("next due = %s, want 2023-12-01", got)
	}

	// Second pass with the same as-of date finds nothing due.
	processed, err = svc.ProcessDue(ctx, mustDate(t, "2023-11-15"))
	if err != nil {
		t.Fatalf("ProcessDue() second pass error = %v", err)
	}
	if processed != 0 {
		t.Errorf("second pass processed = %d, want 0", processed)
	}
	if got := accountBalance(t, repo, accountID); got != 115000 {
		t.Errorf("balance after second pass = %d cents, want 115000", got)
	}
}

func TestRecurringService_ProcessDue_NothingDue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, 10000)
	categoryID := seedCategory(t, repo, userID, "Subscriptions", core.Expense)

	svc := NewRecurringService(repo, nil)

	if _, err := svc.Schedule(ctx, core.RecurringSchedule{
		AccountID:  accountID,
		CategoryID: categoryID,
		Amount:     core.Money{Cents: 999},
		Frequency:  core.Monthly,
		NextDue:    mustDate(t, "2024-06-01"),
	}); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	processed, err := svc.ProcessDue(ctx, mustDate(t, "2024-05-31"))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if processed != 0 {
		t.Errorf("processed = %d, want 0", processed)
	}
	if got := accountBalance(t, repo, accountID); got != 10000 {
		t.Errorf("balance = %d cents, want 10000", got)
	}
}

func TestRecurringService_ProcessDue_MultipleSchedules(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, 50000)
	categoryID := seedCategory(t, repo, userID, "Bills", core.Expense)

	svc := NewRecurringService(repo, nil)

	weeklyID, err := svc.Schedule(ctx, core.RecurringSchedule{
		AccountID:  accountID,
		CategoryID: categoryID,
		Amount:     core.Money{Cents: 1000},
		Frequency:  core.Weekly,
		NextDue:    mustDate(t, "2023-01-01"),
	})
	if err != nil {
		t.Fatalf("Schedule() weekly error = %v", err)
	}
	dailyID, err := svc.Schedule(ctx, core.RecurringSchedule{
		AccountID:  accountID,
		CategoryID: categoryID,
		Amount:     core.Money{Cents: 250},
		Frequency:  core.Daily,
		NextDue:    mustDate(t, "2023-01-03"),
	})
	if err != nil {
		t.Fatalf("Schedule() daily error = %v", err)
	}

	processed, err := svc.ProcessDue(ctx, mustDate(t, "2023-01-03"))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if processed != 2 {
		t.Fatalf("processed = %d, want 2", processed)
	}

	if got := accountBalance(t, repo, accountID); got != 48750 {
		t.Errorf("balance = %d cents, want 48750", got)
	}

	weekly, err := svc.Get(ctx, weeklyID)
	if err != nil {
		t.Fatalf("Get(weekly) error = %v", err)
	}
	if got := weekly.NextDue.String(); got != "2023-01-08" {
		t.Errorf("weekly next due = %s, want 2023-01-08", got)
	}
	daily, err := svc.Get(ctx, dailyID)
	if err != nil {
		t.Fatalf("Get(daily) error = %v", err)
	}
	if got := daily.NextDue.String(); got != "2023-01-04" {
		t.Errorf("daily next due = %s, want 2023-01-04", got)
	}
}

func TestRecurringService_Schedule_Invalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, 10000)
	categoryID := seedCategory(t, repo, userID, "Bills", core.Expense)

	svc := NewRecurringService(repo, nil)
	valid := core.RecurringSchedule{
		AccountID:  accountID,
		CategoryID: categoryID,
		Amount:     core.Money{Cents: 1000},
		Frequency:  core.Monthly,
		NextDue:    mustDate(t, "2023-01-01"),
	}

	tests := []struct {
		name    string
		mutate  func(s *core.RecurringSchedule)
		wantErr error
	}{
		{
			name:    "unknown frequency",
			mutate:  func(s *core.RecurringSchedule) { s.Frequency = "fortnightly" },
			wantErr: core.ErrInvalidFrequency,
		},
		{
			name:    "zero amount",
			mutate:  func(s *core.RecurringSchedule) { s.Amount = core.Money{} },
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(s *core.RecurringSchedule) { s.Amount = core.Money{Cents: -500} },
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "missing due date",
			mutate:  func(s *core.RecurringSchedule) { s.NextDue = core.Date{} },
			wantErr: core.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sch := valid
			tt.mutate(&sch)
			if _, err := svc.Schedule(ctx, sch); !errors.Is(err, tt.wantErr) {
				t.Errorf("Schedule() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurringService_Reschedule(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, 10000)
	categoryID := seedCategory(t, repo, userID, "Bills", core.Expense)

	svc := NewRecurringService(repo, nil)

	scheduleID, err := svc.Schedule(ctx, core.RecurringSchedule{
		AccountID:  accountID,
		CategoryID: categoryID,
		Amount:     core.Money{Cents: 1000},
		Frequency:  core.Monthly,
		NextDue:    mustDate(t, "2023-01-15"),
	})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	newAmount := core.Money{Cents: 1250}
	newFrequency := core.Weekly
	newDue := mustDate(t, "2023-02-01")
	err = svc.Reschedule(ctx, scheduleID, core.SchedulePatch{
		Amount:    &newAmount,
		Frequency: &newFrequency,
		NextDue:   &newDue,
	})
	if err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}

	got, err := svc.Get(ctx, scheduleID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Amount.Cents != 1250 {
		t.Errorf("amount = %d cents, want 1250", got.Amount.Cents)
	}
	if got.Frequency != core.Weekly {
		t.Errorf("frequency = %q, want %q", got.Frequency, core.Weekly)
	}
	if got.NextDue.String() != "2023-02-01" {
		t.Errorf("next due = %s, want 2023-02-01", got.NextDue)
	}
}

func TestRecurringService_Reschedule_EmptyPatch(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewRecurringService(repo, nil)

	if err := svc.Reschedule(context.Background(), 1, core.SchedulePatch{}); !errors.Is(err, core.ErrEmptyPatch) {
		t.Errorf("Reschedule() error = %v, want %v", err, core.ErrEmptyPatch)
	}
}

func TestRecurringService_Reschedule_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewRecurringService(repo, nil)

	amount := core.Money{Cents: 100}
	err := svc.Reschedule(context.Background(), 42, core.SchedulePatch{Amount: &amount})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Reschedule() error = %v, want %v", err, core.ErrNotFound)
	}
}

func TestRecurringService_Cancel(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, 10000)
	categoryID := seedCategory(t, repo, userID, "Bills", core.Expense)

	svc := NewRecurringService(repo, nil)

	scheduleID, err := svc.Schedule(ctx, core.RecurringSchedule{
		AccountID:  accountID,
		CategoryID: categoryID,
		Amount:     core.Money{Cents: 1000},
		Frequency:  core.Monthly,
		NextDue:    mustDate(t, "2023-01-01"),
	})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if _, err := svc.ProcessDue(ctx, mustDate(t, "2023-01-01")); err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}

	if err := svc.Cancel(ctx, scheduleID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, err := svc.Get(ctx, scheduleID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after cancel error = %v, want %v", err, core.ErrNotFound)
	}
	if schedules, err := svc.List(ctx, accountID); err != nil || len(schedules) != 0 {
		t.Errorf("List() after cancel = %v, %v, want empty", schedules, err)
	}
	if err := svc.Cancel(ctx, scheduleID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Cancel() twice error = %v, want %v", err, core.ErrNotFound)
	}

	// The generated entry survives, with its back-reference cleared.
	entries, err := repo.ListEntries(ctx, accountID)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].RecurringID != 0 {
		t.Errorf("entry recurring id = %d, want 0 after cancel", entries[0].RecurringID)
	}
	if got := accountBalance(t, repo, accountID); got != 9000 {
		t.Errorf("balance = %d cents, want 9000", got)
	}
}
