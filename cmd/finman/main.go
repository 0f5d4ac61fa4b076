package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"finman/internal/amqp"
	"finman/internal/cli"
	"finman/internal/core"
	"finman/internal/services"
)

// app wires the interactive menus to the services. All state lives in the
// database; the only session state is the logged-in user id.
type app struct {
	in     *bufio.Scanner
	userID int64

	auth       *services.AuthService
	accounts   *services.AccountService
	categories *services.CategoryService
	ledger     *services.LedgerService
	recurring  *services.RecurringService
	reports    *services.ReportService
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupTerminalLogger()

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Event bus unavailable, continuing without it", "error", err)
			events = nil
		} else {
			defer events.Close()
		}
	}

	a := &app{
		in:         bufio.NewScanner(os.Stdin),
		auth:       services.NewAuthService(repo),
		accounts:   services.NewAccountService(repo),
		categories: services.NewCategoryService(repo),
		ledger:     services.NewLedgerService(repo, events),
		recurring:  services.NewRecurringService(repo, events),
		reports:    services.NewReportService(repo),
	}

	a.run(context.Background())
}

func (a *app) run(ctx context.Context) {
	for {
		choice := a.prompt("\n1. Register\n2. Login\n3. Exit\nChoose an option: ")
		switch choice {
		case "1":
			a.register(ctx)
		case "2":
			if a.login(ctx) {
				a.mainMenu(ctx)
			}
		case "3":
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func (a *app) register(ctx context.Context) {
	username := a.prompt("Username: ")
	email := a.prompt("Email: ")
	password := a.prompt("Password: ")

	if _, err := a.auth.Register(ctx, username, email, password); err != nil {
		fmt.Println("Registration failed:", err)
		return
	}
	fmt.Println("User registered.")
}

func (a *app) login(ctx context.Context) bool {
	username := a.prompt("Username: ")
	password := a.prompt("Password: ")

	userID, err := a.auth.Login(ctx, username, password)
	if err != nil {
		fmt.Println("Login failed:", err)
		return false
	}
	a.userID = userID
	fmt.Printf("Welcome, %s.\n", username)

	// Materialize anything that came due since the last session.
	if count, err := a.recurring.ProcessDue(ctx, core.Today()); err != nil {
		fmt.Println("Warning: processing recurring transactions failed:", err)
	} else if count > 0 {
		fmt.Printf("Processed %d due recurring transaction(s).\n", count)
	}
	return true
}

func (a *app) mainMenu(ctx context.Context) {
	for {
		choice := a.prompt("\n--- Main Menu ---\n1. Accounts\n2. Categories\n3. Transactions\n4. Recurring\n5. Reports\n6. Logout\nChoose an option: ")
		switch choice {
		case "1":
			a.accountMenu(ctx)
		case "2":
			a.categoryMenu(ctx)
		case "3":
			a.ledgerMenu(ctx)
		case "4":
			a.recurringMenu(ctx)
		case "5":
			a.reportMenu(ctx)
		case "6":
			a.userID = 0
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

// --- accounts ---

func (a *app) accountMenu(ctx context.Context) {
	for {
		choice := a.prompt("\n--- Accounts ---\n1. List\n2. Create\n3. Edit\n4. Delete\n5. Back\nChoose an option: ")
		switch choice {
		case "1":
			a.listAccounts(ctx)
		case "2":
			a.createAccount(ctx)
		case "3":
			a.editAccount(ctx)
		case "4":
			a.deleteAccount(ctx)
		case "5":
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func (a *app) listAccounts(ctx context.Context) {
	accounts, err := a.accounts.List(ctx, a.userID)
	if err != nil {
		fmt.Println("Failed to list accounts:", err)
		return
	}
	if len(accounts) == 0 {
		fmt.Println("No accounts found.")
		return
	}
	fmt.Println("\nYour Accounts:")
	for _, acc := range accounts {
		fmt.Printf("ID: %d, Name: %s, Type: %s, Balance: %s, Institution: %s\n",
			acc.ID, acc.Name, acc.Type, acc.Balance, acc.Institution)
	}
}

func (a *app) createAccount(ctx context.Context) {
	name := a.prompt("Name: ")
	accType := a.prompt("Type (checking/savings/credit/...): ")
	balance, ok := a.promptMoney("Starting balance: ")
	if !ok {
		return
	}
	institution := a.prompt("Institution: ")

	_, err := a.accounts.Create(ctx, core.Account{
		UserID:      a.userID,
		Name:        name,
		Type:        accType,
		Balance:     balance,
		Institution: institution,
	})
	if err != nil {
		fmt.Println("Failed to create account:", err)
		return
	}
	fmt.Println("Account created.")
}

func (a *app) editAccount(ctx context.Context) {
	id, ok := a.promptID("Account ID: ")
	if !ok {
		return
	}
	account, err := a.accounts.Get(ctx, id)
	if err != nil {
		fmt.Println("Failed to load account:", err)
		return
	}

	if name := a.prompt(fmt.Sprintf("Name [%s]: ", account.Name)); name != "" {
		account.Name = name
	}
	if accType := a.prompt(fmt.Sprintf("Type [%s]: ", account.Type)); accType != "" {
		account.Type = accType
	}
	if raw := a.prompt(fmt.Sprintf("Balance [%s]: ", account.Balance)); raw != "" {
		balance, err := core.ParseMoney(raw)
		if err != nil {
			fmt.Println("Invalid amount.")
			return
		}
		account.Balance = balance
	}
	if institution := a.prompt(fmt.Sprintf("Institution [%s]: ", account.Institution)); institution != "" {
		account.Institution = institution
	}

	if err := a.accounts.Update(ctx, account); err != nil {
		fmt.Println("Failed to update account:", err)
		return
	}
	fmt.Println("Account updated.")
}

func (a *app) deleteAccount(ctx context.Context) {
	id, ok := a.promptID("Account ID: ")
	if !ok {
		return
	}
	if a.prompt("Delete this account and all its transactions? (y/N): ") != "y" {
		return
	}
	if err := a.accounts.Delete(ctx, id); err != nil {
		fmt.Println("Failed to delete account:", err)
		return
	}
	fmt.Println("Account deleted.")
}

// --- categories ---

func (a *app) categoryMenu(ctx context.Context) {
	for {
		choice := a.prompt("\n--- Categories ---\n1. List\n2. Create\n3. Edit\n4. Delete\n5. Back\nChoose an option: ")
		switch choice {
		case "1":
			a.listCategories(ctx)
		case "2":
			a.createCategory(ctx)
		case "3":
			a.editCategory(ctx)
		case "4":
			a.deleteCategory(ctx)
		case "5":
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func (a *app) listCategories(ctx context.Context) {
	categories, err := a.categories.List(ctx, a.userID)
	if err != nil {
		fmt.Println("Failed to list categories:", err)
		return
	}
	if len(categories) == 0 {
		fmt.Println("No categories found.")
		return
	}
	fmt.Println("\nCategories:")
	for _, c := range categories {
		parent := "-"
		if c.ParentID != 0 {
			parent = strconv.FormatInt(c.ParentID, 10)
		}
		fmt.Printf("ID: %d, Name: %s, Type: %s, Description: %s, Parent: %s\n",
			c.ID, c.Name, c.Type, c.Description, parent)
	}
}

func (a *app) createCategory(ctx context.Context) {
	name := a.prompt("Name: ")
	catType, err := core.ParseEntryType(a.prompt("Type (income/expense): "))
	if err != nil {
		fmt.Println("Invalid type. Must be 'income' or 'expense'.")
		return
	}
	description := a.prompt("Description (optional): ")
	parentID, ok := a.promptOptionalID("Parent category ID (empty for none): ")
	if !ok {
		return
	}

	_, err = a.categories.Create(ctx, core.Category{
		UserID:      a.userID,
		Name:        name,
		Type:        catType,
		Description: description,
		ParentID:    parentID,
	})
	if err != nil {
		fmt.Println("Failed to create category:", err)
		return
	}
	fmt.Println("Category created.")
}

func (a *app) editCategory(ctx context.Context) {
	id, ok := a.promptID("Category ID: ")
	if !ok {
		return
	}
	category, err := a.categories.Get(ctx, id)
	if err != nil {
		fmt.Println("Failed to load category:", err)
		return
	}

	if name := a.prompt(fmt.Sprintf("Name [%s]: ", category.Name)); name != "" {
		category.Name = name
	}
	if raw := a.prompt(fmt.Sprintf("Type [%s]: ", category.Type)); raw != "" {
		catType, err := core.ParseEntryType(raw)
		if err != nil {
			fmt.Println("Invalid type. Must be 'income' or 'expense'.")
			return
		}
		category.Type = catType
	}
	if description := a.prompt(fmt.Sprintf("Description [%s]: ", category.Description)); description != "" {
		category.Description = description
	}
	if raw := a.prompt("Parent category ID (empty to keep, 0 to clear): "); raw != "" {
		parentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fmt.Println("Invalid ID.")
			return
		}
		category.ParentID = parentID
	}

	if err := a.categories.Update(ctx, category); err != nil {
		fmt.Println("Failed to update category:", err)
		return
	}
	fmt.Println("Category updated.")
}

func (a *app) deleteCategory(ctx context.Context) {
	id, ok := a.promptID("Category ID: ")
	if !ok {
		return
	}
	if err := a.categories.Delete(ctx, id); err != nil {
		fmt.Println("Failed to delete category:", err)
		return
	}
	fmt.Println("Category deleted.")
}

// --- ledger entries ---

func (a *app) ledgerMenu(ctx context.Context) {
	for {
		choice := a.prompt("\n--- Transactions ---\n1. List\n2. Add\n3. Edit\n4. Delete\n5. Back\nChoose an option: ")
		switch choice {
		case "1":
			a.listEntries(ctx)
		case "2":
			a.addEntry(ctx)
		case "3":
			a.editEntry(ctx)
		case "4":
			a.deleteEntry(ctx)
		case "5":
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func (a *app) listEntries(ctx context.Context) {
	accountID, ok := a.promptID("Account ID: ")
	if !ok {
		return
	}
	entries, err := a.ledger.List(ctx, accountID)
	if err != nil {
		fmt.Println("Failed to list transactions:", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No transactions found for this account.")
		return
	}
	fmt.Printf("\n--- Transactions for Account %d ---\n", accountID)
	for _, e := range entries {
		origin := ""
		if e.RecurringID != 0 {
			origin = fmt.Sprintf(" (recurring #%d)", e.RecurringID)
		}
		fmt.Printf("ID: %d, Date: %s, Type: %s, Amount: %s, Desc: %s%s\n",
			e.ID, e.Date, e.Type, e.Amount, e.Description, origin)
	}
}

func (a *app) addEntry(ctx context.Context) {
	accountID, ok := a.promptID("Account ID: ")
	if !ok {
		return
	}
	categoryID, ok := a.promptID("Category ID: ")
	if !ok {
		return
	}
	amount, ok := a.promptMoney("Amount: ")
	if !ok {
		return
	}
	entryType, err := core.ParseEntryType(a.prompt("Type (income/expense): "))
	if err != nil {
		fmt.Println("Invalid type. Must be 'income' or 'expense'.")
		return
	}
	date, ok := a.promptDate("Date (YYYY-MM-DD): ")
	if !ok {
		return
	}
	description := a.prompt("Description (optional): ")

	_, err = a.ledger.Add(ctx, core.LedgerEntry{
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      amount,
		Type:        entryType,
		Date:        date,
		Description: description,
	})
	if err != nil {
		fmt.Println("Failed to add transaction:", err)
		return
	}
	fmt.Println("Transaction added and account balance updated.")
}

func (a *app) editEntry(ctx context.Context) {
	id, ok := a.promptID("Transaction ID: ")
	if !ok {
		return
	}

	var patch core.LedgerPatch
	fmt.Println("Leave a field empty to keep its current value.")

	if raw := a.prompt("Amount: "); raw != "" {
		amount, err := core.ParseMoney(raw)
		if err != nil {
			fmt.Println("Invalid amount.")
			return
		}
		patch.Amount = &amount
	}
	if raw := a.prompt("Type (income/expense): "); raw != "" {
		entryType, err := core.ParseEntryType(raw)
		if err != nil {
			fmt.Println("Invalid type. Must be 'income' or 'expense'.")
			return
		}
		patch.Type = &entryType
	}
	if raw := a.prompt("Date (YYYY-MM-DD): "); raw != "" {
		date, err := core.ParseDate(raw)
		if err != nil {
			fmt.Println("Invalid date format. Please use YYYY-MM-DD.")
			return
		}
		patch.Date = &date
	}
	if raw := a.prompt("Category ID: "); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fmt.Println("Invalid ID.")
			return
		}
		patch.CategoryID = &categoryID
	}
	if raw := a.prompt("Account ID: "); raw != "" {
		accountID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fmt.Println("Invalid ID.")
			return
		}
		patch.AccountID = &accountID
	}
	if raw := a.prompt("Description: "); raw != "" {
		patch.Description = &raw
	}

	if err := a.ledger.Edit(ctx, id, patch); err != nil {
		fmt.Println("Failed to update transaction:", err)
		return
	}
	fmt.Println("Transaction updated and account balance adjusted.")
}

func (a *app) deleteEntry(ctx context.Context) {
	id, ok := a.promptID("Transaction ID: ")
	if !ok {
		return
	}
	if err := a.ledger.Delete(ctx, id); err != nil {
		fmt.Println("Failed to delete transaction:", err)
		return
	}
	fmt.Println("Transaction deleted and account balance adjusted.")
}

// --- recurring ---

func (a *app) recurringMenu(ctx context.Context) {
	for {
		choice := a.prompt("\n--- Recurring ---\n1. List\n2. Schedule\n3. Edit\n4. Cancel\n5. Process due now\n6. Back\nChoose an option: ")
		switch choice {
		case "1":
			a.listSchedules(ctx)
		case "2":
			a.addSchedule(ctx)
		case "3":
			a.editSchedule(ctx)
		case "4":
			a.cancelSchedule(ctx)
		case "5":
			count, err := a.recurring.ProcessDue(ctx, core.Today())
			if err != nil {
				fmt.Println("Processing failed:", err)
				break
			}
			fmt.Printf("Processed %d recurring transaction(s).\n", count)
		case "6":
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func (a *app) listSchedules(ctx context.Context) {
	accountID, ok := a.promptID("Account ID: ")
	if !ok {
		return
	}
	schedules, err := a.recurring.List(ctx, accountID)
	if err != nil {
		fmt.Println("Failed to list schedules:", err)
		return
	}
	if len(schedules) == 0 {
		fmt.Println("No recurring transactions found for this account.")
		return
	}
	fmt.Printf("\n--- Recurring Transactions for Account %d ---\n", accountID)
	for _, s := range schedules {
		fmt.Printf("ID: %d, Next Due: %s, Amount: %s, Frequency: %s, Desc: %s\n",
			s.ID, s.NextDue, s.Amount, s.Frequency, s.Description)
	}
}

func (a *app) addSchedule(ctx context.Context) {
	accountID, ok := a.promptID("Account ID: ")
	if !ok {
		return
	}
	categoryID, ok := a.promptID("Category ID: ")
	if !ok {
		return
	}
	amount, ok := a.promptMoney("Amount: ")
	if !ok {
		return
	}
	frequency, err := core.ParseFrequency(a.prompt("Frequency (daily/weekly/monthly/yearly): "))
	if err != nil {
		fmt.Println("Invalid frequency. Must be 'daily', 'weekly', 'monthly', or 'yearly'.")
		return
	}
	nextDue, ok := a.promptDate("First due date (YYYY-MM-DD): ")
	if !ok {
		return
	}
	description := a.prompt("Description (optional): ")

	_, err = a.recurring.Schedule(ctx, core.RecurringSchedule{
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      amount,
		Frequency:   frequency,
		NextDue:     nextDue,
		Description: description,
	})
	if err != nil {
		fmt.Println("Failed to add recurring transaction:", err)
		return
	}
	fmt.Println("Recurring transaction added.")
}

func (a *app) editSchedule(ctx context.Context) {
	id, ok := a.promptID("Recurring ID: ")
	if !ok {
		return
	}

	var patch core.SchedulePatch
	fmt.Println("Leave a field empty to keep its current value.")

	if raw := a.prompt("Amount: "); raw != "" {
		amount, err := core.ParseMoney(raw)
		if err != nil {
			fmt.Println("Invalid amount.")
			return
		}
		patch.Amount = &amount
	}
	if raw := a.prompt("Frequency (daily/weekly/monthly/yearly): "); raw != "" {
		frequency, err := core.ParseFrequency(raw)
		if err != nil {
			fmt.Println("Invalid frequency. Must be 'daily', 'weekly', 'monthly', or 'yearly'.")
			return
		}
		patch.Frequency = &frequency
	}
	if raw := a.prompt("Next due date (YYYY-MM-DD): "); raw != "" {
		nextDue, err := core.ParseDate(raw)
		if err != nil {
			fmt.Println("Invalid date format. Please use YYYY-MM-DD.")
			return
		}
		patch.NextDue = &nextDue
	}
	if raw := a.prompt("Category ID: "); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fmt.Println("Invalid ID.")
			return
		}
		patch.CategoryID = &categoryID
	}
	if raw := a.prompt("Description: "); raw != "" {
		patch.Description = &raw
	}

	if err := a.recurring.Reschedule(ctx, id, patch); err != nil {
		fmt.Println("Failed to update recurring transaction:", err)
		return
	}
	fmt.Println("Recurring transaction updated.")
}

func (a *app) cancelSchedule(ctx context.Context) {
	id, ok := a.promptID("Recurring ID: ")
	if !ok {
		return
	}
	if err := a.recurring.Cancel(ctx, id); err != nil {
		fmt.Println("Failed to cancel recurring transaction:", err)
		return
	}
	fmt.Println("Recurring transaction cancelled.")
}

// --- reports ---

func (a *app) reportMenu(ctx context.Context) {
	for {
		choice := a.prompt("\n--- Reports ---\n1. Monthly summary\n2. Expenses by category\n3. Income by category\n4. Back\nChoose an option: ")
		switch choice {
		case "1":
			a.monthlySummary(ctx)
		case "2":
			a.categoryBreakdown(ctx, core.Expense, "Expenses")
		case "3":
			a.categoryBreakdown(ctx, core.Income, "Income")
		case "4":
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func (a *app) monthlySummary(ctx context.Context) {
	year, month, ok := a.promptYearMonth()
	if !ok {
		return
	}
	summary, err := a.reports.MonthlySummary(ctx, a.userID, year, month)
	if err != nil {
		fmt.Println("Failed to generate summary:", err)
		return
	}

	fmt.Printf("\n=== Monthly Summary for %04d-%02d ===\n", year, month)
	for _, acc := range summary.Accounts {
		fmt.Printf("Account: %s\n  Income:   %s\n  Expenses: %s\n  Net:      %s\n",
			acc.Name, acc.Income, acc.Expenses, acc.Net)
	}
	fmt.Println("=== All Accounts ===")
	fmt.Printf("Total Income:   %s\nTotal Expenses: %s\nNet:            %s\n",
		summary.TotalIncome, summary.TotalExpenses, summary.Net)
}

func (a *app) categoryBreakdown(ctx context.Context, t core.EntryType, label string) {
	year, month, ok := a.promptYearMonth()
	if !ok {
		return
	}
	breakdown, err := a.reports.CategoryBreakdown(ctx, a.userID, t, year, month)
	if err != nil {
		fmt.Println("Failed to generate report:", err)
		return
	}
	if len(breakdown.Categories) == 0 {
		fmt.Printf("No %s found for this period.\n", t)
		return
	}

	fmt.Printf("\n=== %s by category for %04d-%02d ===\n", label, year, month)
	for _, c := range breakdown.Categories {
		fmt.Printf("%s: %s (%.1f%%)\n", c.Name, c.Amount, c.Percent)
	}
	fmt.Printf("Total: %s\n", breakdown.Total)
}

// --- prompt helpers ---

func (a *app) prompt(label string) string {
	fmt.Print(label)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

func (a *app) promptID(label string) (int64, bool) {
	id, err := strconv.ParseInt(a.prompt(label), 10, 64)
	if err != nil || id <= 0 {
		fmt.Println("Invalid ID.")
		return 0, false
	}
	return id, true
}

func (a *app) promptOptionalID(label string) (int64, bool) {
	raw := a.prompt(label)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fmt.Println("Invalid ID.")
		return 0, false
	}
	return id, true
}

func (a *app) promptMoney(label string) (core.Money, bool) {
	m, err := core.ParseMoney(a.prompt(label))
	if err != nil {
		fmt.Println("Invalid amount.")
		return core.Money{}, false
	}
	return m, true
}

func (a *app) promptDate(label string) (core.Date, bool) {
	d, err := core.ParseDate(a.prompt(label))
	if err != nil {
		fmt.Println("Invalid date format. Please use YYYY-MM-DD.")
		return core.Date{}, false
	}
	return d, true
}

func (a *app) promptYearMonth() (int, int, bool) {
	year, err := strconv.Atoi(a.prompt("Year: "))
	if err != nil || year < 1 {
		fmt.Println("Invalid year.")
		return 0, 0, false
	}
	month, err := strconv.Atoi(a.prompt("Month (1-12): "))
	if err != nil || month < 1 || month > 12 {
		fmt.Println("Invalid month.")
		return 0, 0, false
	}
	return year, month, true
}
