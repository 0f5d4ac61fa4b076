package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finman/internal/core"
	"finman/internal/storage"
)

// ReportService aggregates ledger entries into monthly views. It only
// computes numbers; rendering belongs to the caller.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage}
}

// AccountSummary is one account's totals within a month.
type AccountSummary struct {
	AccountID int64
	Name      string
	Income    core.Money
	Expenses  core.Money
	Net       core.Money
}

// MonthlySummary holds per-account and overall totals for one month.
type MonthlySummary struct {
	Year          int
	Month         int
	Accounts      []AccountSummary
	TotalIncome   core.Money
	TotalExpenses core.Money
	Net           core.Money
}

// MonthlySummary sums income and expenses per account over one calendar
// month. The per-account sums run concurrently.
func (s *ReportService) MonthlySummary(ctx context.Context, userID int64, year, month int) (MonthlySummary, error) {
	summary := MonthlySummary{Year: year, Month: month}
	if month < 1 || month > 12 {
		return summary, core.ErrInvalidDate
	}
	start, end := core.MonthRange(year, month)

	accounts, err := s.storage.ListAccounts(ctx, userID)
	if err != nil {
		return summary, fmt.Errorf("list accounts: %w", err)
	}

	summary.Accounts = make([]AccountSummary, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range accounts {
		i, a := i, a
		g.Go(func() error {
			income, err := s.storage.SumEntriesByType(gctx, a.ID, core.Income, start, end)
			if err != nil {
				return err
			}
			expenses, err := s.storage.SumEntriesByType(gctx, a.ID, core.Expense, start, end)
			if err != nil {
				return err
			}
			summary.Accounts[i] = AccountSummary{
				AccountID: a.ID,
				Name:      a.Name,
				Income:    core.Money{Cents: income},
				Expenses:  core.Money{Cents: expenses},
				Net:       core.Money{Cents: income - expenses},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, fmt.Errorf("sum month: %w", err)
	}

	for _, a := range summary.Accounts {
		summary.TotalIncome.Cents += a.Income.Cents
		summary.TotalExpenses.Cents += a.Expenses.Cents
	}
	summary.Net.Cents = summary.TotalIncome.Cents - summary.TotalExpenses.Cents

	return summary, nil
}

// CategoryShare is one category's slice of a monthly breakdown.
type CategoryShare struct {
	CategoryID int64
	Name       string
	Amount     core.Money
	Percent    float64
}

// CategoryBreakdown holds a month's entries of one type grouped by category,
// largest first.
type CategoryBreakdown struct {
	Year       int
	Month      int
	Type       core.EntryType
	Categories []CategoryShare
	Total      core.Money
}

// CategoryBreakdown groups one month's income or expenses by category with
// each category's percentage share of the total.
func (s *ReportService) CategoryBreakdown(ctx context.Context, userID int64, t core.EntryType, year, month int) (CategoryBreakdown, error) {
	breakdown := CategoryBreakdown{Year: year, Month: month, Type: t}
	if t != core.Income && t != core.Expense {
		return breakdown, core.ErrInvalidType
	}
	if month < 1 || month > 12 {
		return breakdown, core.ErrInvalidDate
	}
	start, end := core.MonthRange(year, month)

	totals, err := s.storage.CategoryTotals(ctx, userID, t, start, end)
	if err != nil {
		return breakdown, fmt.Errorf("category totals: %w", err)
	}

	for _, ct := range totals {
		breakdown.Total.Cents += ct.TotalCents
	}
	for _, ct := range totals {
		share := CategoryShare{
			CategoryID: ct.CategoryID,
			Name:       ct.Name,
			Amount:     core.Money{Cents: ct.TotalCents},
		}
		if breakdown.Total.Cents > 0 {
			share.Percent = float64(ct.TotalCents) / float64(breakdown.Total.Cents) * 100
		}
		breakdown.Categories = append(breakdown.Categories, share)
	}

	return breakdown, nil
}
