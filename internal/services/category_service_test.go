package services

import (
	"context"
	"errors"
	"testing"

	"finman/internal/core"
)

func TestCategoryService_CreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	svc := NewCategoryService(repo)

	parentID, err := svc.Create(ctx, core.Category{
		UserID: userID,
		Name:   "Food",
		Type:   core.Expense,
	})
	if err != nil {
		t.Fatalf("Create() parent error = %v", err)
	}

	childID, err := svc.Create(ctx, core.Category{
		UserID:   userID,
		Name:     "Restaurants",
		Type:     core.Expense,
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("Create() child error = %v", err)
	}

	child, err := svc.Get(ctx, childID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if child.ParentID != parentID {
		t.Errorf("child parent id = %d, want %d", child.ParentID, parentID)
	}

	categories, err := svc.List(ctx, userID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("got %d categories, want 2", len(categories))
	}
}

func TestCategoryService_Create_Invalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	svc := NewCategoryService(repo)

	tests := []struct {
		name     string
		category core.Category
		wantErr  error
	}{
		{
			name:     "empty name",
			category: core.Category{UserID: userID, Name: "  ", Type: core.Expense},
			wantErr:  core.ErrEmptyName,
		},
		{
			name:     "unknown type",
			category: core.Category{UserID: userID, Name: "Food", Type: "savings"},
			wantErr:  core.ErrInvalidType,
		},
		{
			name:     "missing parent",
			category: core.Category{UserID: userID, Name: "Food", Type: core.Expense, ParentID: 99},
			wantErr:  core.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.category); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryService_Create_ForeignParent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	aliceID := seedUser(t, repo)
	bobID, err := repo.CreateUser(ctx, "bob", "bob@example.com", "not-a-real-hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	svc := NewCategoryService(repo)
	aliceCat := seedCategory(t, repo, aliceID, "Food", core.Expense)

	// Bob cannot hang a category under Alice's tree.
	_, err = svc.Create(ctx, core.Category{
		UserID:   bobID,
		Name:     "Snacks",
		Type:     core.Expense,
		ParentID: aliceCat,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Create() error = %v, want %v", err, core.ErrNotFound)
	}
}

func TestCategoryService_Update_RejectsCycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	svc := NewCategoryService(repo)

	top, err := svc.Create(ctx, core.Category{UserID: userID, Name: "A", Type: core.Expense})
	if err != nil {
		t.Fatalf("Create(A) error = %v", err)
	}
	mid, err := svc.Create(ctx, core.Category{UserID: userID, Name: "B", Type: core.Expense, ParentID: top})
	if err != nil {
		t.Fatalf("Create(B) error = %v", err)
	}
	leaf, err := svc.Create(ctx, core.Category{UserID: userID, Name: "C", Type: core.Expense, ParentID: mid})
	if err != nil {
		t.Fatalf("Create(C) error = %v", err)
	}

	// Re-parenting A under its own grandchild closes a cycle.
	err = svc.Update(ctx, core.Category{ID: top, Name: "A", Type: core.Expense, ParentID: leaf})
	if !errors.Is(err, core.ErrCategoryCycle) {
		t.Fatalf("Update() error = %v, want %v", err, core.ErrCategoryCycle)
	}

	// Direct self-parenting is the trivial cycle.
	err = svc.Update(ctx, core.Category{ID: top, Name: "A", Type: core.Expense, ParentID: top})
	if !errors.Is(err, core.ErrCategoryCycle) {
		t.Fatalf("Update() self-parent error = %v, want %v", err, core.ErrCategoryCycle)
	}

	// A legitimate re-parent still works.
	if err := svc.Update(ctx, core.Category{ID: leaf, Name: "C", Type: core.Expense, ParentID: top}); err != nil {
		t.Fatalf("Update() re-parent error = %v", err)
	}
}

func TestCategoryService_Delete_InUse(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, 10000)
	usedByEntry := seedCategory(t, repo, userID, "Groceries", core.Expense)
	usedBySchedule := seedCategory(t, repo, userID, "Rent", core.Expense)
	unused := seedCategory(t, repo, userID, "Hobbies", core.Expense)

	svc := NewCategoryService(repo)
	ledger := NewLedgerService(repo, nil)
	recurring := NewRecurringService(repo, nil)

	if _, err := ledger.Add(ctx, core.LedgerEntry{
		AccountID:  accountID,
		CategoryID: usedByEntry,
		Amount:     core.Money{Cents: 100},
		Type:       core.Expense,
		Date:       mustDate(t, "2023-05-10"),
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := recurring.Schedule(ctx, core.RecurringSchedule{
		AccountID:  accountID,
		CategoryID: usedBySchedule,
		Amount:     core.Money{Cents: 100},
		Frequency:  core.Monthly,
		NextDue:    mustDate(t, "2024-01-01"),
	}); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if err := svc.Delete(ctx, usedByEntry); !errors.Is(err, core.ErrCategoryInUse) {
		t.Errorf("Delete() entry-referenced error = %v, want %v", err, core.ErrCategoryInUse)
	}
	if err := svc.Delete(ctx, usedBySchedule); !errors.Is(err, core.ErrCategoryInUse) {
		t.Errorf("Delete() schedule-referenced error = %v, want %v", err, core.ErrCategoryInUse)
	}
	if err := svc.Delete(ctx, unused); err != nil {
		t.Errorf("Delete() unused error = %v", err)
	}
}
