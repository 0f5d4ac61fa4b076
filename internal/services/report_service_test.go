package services

import (
	"context"
	"testing"

	"finman/internal/core"
)

func TestReportService_MonthlySummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	checkingID := seedAccount(t, repo, userID, 100000)
	savingsID, err := repo.CreateAccount(ctx, core.Account{
		UserID:  userID,
		Name:    "Savings",
		Type:    "savings",
		Balance: core.Money{Cents: 500000},
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	salaryCat := seedCategory(t, repo, userID, "Salary", core.Income)
	foodCat := seedCategory(t, repo, userID, "Groceries", core.Expense)

	ledger := NewLedgerService(repo, nil)
	add := func(accountID, categoryID int64, cents int64, entryType core.EntryType, date string) {
		t.Helper()
		if _, err := ledger.Add(ctx, core.LedgerEntry{
			AccountID:  accountID,
			CategoryID: categoryID,
			Amount:     core.Money{Cents: cents},
			Type:       entryType,
			Date:       mustDate(t, date),
		}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	add(checkingID, salaryCat, 250000, core.Income, "2023-05-01")
	add(checkingID, foodCat, 30000, core.Expense, "2023-05-12")
	add(checkingID, foodCat, 20000, core.Expense, "2023-05-31")
	add(savingsID, salaryCat, 10000, core.Income, "2023-05-20")
	// Outside the month, must not be counted.
	add(checkingID, foodCat, 99900, core.Expense, "2023-04-30")
	add(checkingID, foodCat, 99900, core.Expense, "2023-06-01")

	svc := NewReportService(repo)
	summary, err := svc.MonthlySummary(ctx, userID, 2023, 5)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}

	if summary.TotalIncome.Cents != 260000 {
		t.Errorf("total income = %d cents, want 260000", summary.TotalIncome.Cents)
	}
	if summary.TotalExpenses.Cents != 50000 {
		t.Errorf("total expenses = %d cents, want 50000", summary.TotalExpenses.Cents)
	}
	if summary.Net.Cents != 210000 {
		t.Errorf("net = %d cents, want 210000", summary.Net.Cents)
	}

	if len(summary.Accounts) != 2 {
		t.Fatalf("got %d account summaries, want 2", len(summary.Accounts))
	}
	byID := make(map[int64]AccountSummary, len(summary.Accounts))
	for _, acc := range summary.Accounts {
		byID[acc.AccountID] = acc
	}
	checking := byID[checkingID]
	if checking.Income.Cents != 250000 || checking.Expenses.Cents != 50000 || checking.Net.Cents != 200000 {
		t.Errorf("checking summary = %+v", checking)
	}
	savings := byID[savingsID]
	if savings.Income.Cents != 10000 || savings.Expenses.Cents != 0 {
		t.Errorf("savings summary = %+v", savings)
	}
}

func TestReportService_CategoryBreakdown(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, 1000000)
	rentCat := seedCategory(t, repo, userID, "Rent", core.Expense)
	foodCat := seedCategory(t, repo, userID, "Groceries", core.Expense)
	salaryCat := seedCategory(t, repo, userID, "Salary", core.Income)

	ledger := NewLedgerService(repo, nil)
	add := func(categoryID int64, cents int64, entryType core.EntryType, date string) {
		t.Helper()
		if _, err := ledger.Add(ctx, core.LedgerEntry{
			AccountID:  accountID,
			CategoryID: categoryID,
			Amount:     core.Money{Cents: cents},
			Type:       entryType,
			Date:       mustDate(t, date),
		}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	add(rentCat, 70000, core.Expense, "2023-05-01")
	add(foodCat, 20000, core.Expense, "2023-05-10")
	add(foodCat, 10000, core.Expense, "2023-05-20")
	// Income and out-of-month rows stay out of an expense breakdown.
	add(salaryCat, 250000, core.Income, "2023-05-01")
	add(rentCat, 70000, core.Expense, "2023-06-01")

	svc := NewReportService(repo)
	breakdown, err := svc.CategoryBreakdown(ctx, userID, core.Expense, 2023, 5)
	if err != nil {
		t.Fatalf("CategoryBreakdown() error = %v", err)
	}

	if breakdown.Total.Cents != 100000 {
		t.Fatalf("total = %d cents, want 100000", breakdown.Total.Cents)
	}
	if len(breakdown.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(breakdown.Categories))
	}
	// Largest share first.
	if breakdown.Categories[0].Name != "Rent" || breakdown.Categories[0].Amount.Cents != 70000 {
		t.Errorf("first share = %+v, want Rent 70000", breakdown.Categories[0])
	}
	if got := breakdown.Categories[0].Percent; got < 69.9 || got > 70.1 {
		t.Errorf("Rent percent = %.2f, want 70", got)
	}
	if breakdown.Categories[1].Name != "Groceries" || breakdown.Categories[1].Amount.Cents != 30000 {
		t.Errorf("second share = %+v, want Groceries 30000", breakdown.Categories[1])
	}
}

func TestReportService_MonthlySummary_InvalidMonth(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewReportService(repo)

	if _, err := svc.MonthlySummary(context.Background(), 1, 2023, 13); err == nil {
		t.Error("MonthlySummary() with month 13 expected error, got nil")
	}
}

func TestReportService_CategoryBreakdown_InvalidType(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewReportService(repo)

	if _, err := svc.CategoryBreakdown(context.Background(), 1, "transfer", 2023, 5); err == nil {
		t.Error("CategoryBreakdown() with bad type expected error, got nil")
	}
}
