package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finman/internal/core"
)

// parseTimestamp reads the TEXT timestamps SQLite writes via datetime('now').
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// --- users ---

func (q *Queries) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES (?, ?, ?)`,
		username, email, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var u core.User
	var created, updated string
	err := q.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTimestamp(created)
	u.UpdatedAt = parseTimestamp(updated)
	return u, nil
}

// --- accounts ---

func (q *Queries) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, name, account_type, balance_cents, institution)
		VALUES (?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Type, a.Balance.Cents, a.Institution)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	var created, updated string
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, account_type, balance_cents, institution, created_at, updated_at
		FROM accounts WHERE id = ?`,
		id).Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance.Cents, &a.Institution, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	a.CreatedAt = parseTimestamp(created)
	a.UpdatedAt = parseTimestamp(updated)
	return a, nil
}

func (q *Queries) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, name, account_type, balance_cents, institution
		FROM accounts WHERE user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance.Cents, &a.Institution); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (q *Queries) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, account_type = ?, balance_cents = ?, institution = ?, updated_at = datetime('now')
		WHERE id = ?`,
		a.Name, a.Type, a.Balance.Cents, a.Institution, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res)
}

// AdjustAccountBalance applies a signed cents delta to one account balance.
func (q *Queries) AdjustAccountBalance(ctx context.Context, id int64, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE accounts
		SET balance_cents = balance_cents + ?, updated_at = datetime('now')
		WHERE id = ?`,
		deltaCents, id)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return requireRow(res)
}

// --- categories ---

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, category_type, description, parent_id)
		VALUES (?, ?, ?, ?, ?)`,
		c.UserID, c.Name, string(c.Type), c.Description, nullableID(c.ParentID))
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var parent sql.NullInt64
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, category_type, description, parent_id
		FROM categories WHERE id = ?`,
		id).Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Description, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.ParentID = parent.Int64
	return c, nil
}

func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, name, category_type, description, parent_id
		FROM categories WHERE user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Description, &parent); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ParentID = parent.Int64
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, category_type = ?, description = ?, parent_id = ?, updated_at = datetime('now')
		WHERE id = ?`,
		c.Name, string(c.Type), c.Description, nullableID(c.ParentID), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) CountEntriesByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT count(*) FROM transactions WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries by category: %w", err)
	}
	return n, nil
}

func (q *Queries) CountSchedulesByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT count(*) FROM recurring_transactions WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count schedules by category: %w", err)
	}
	return n, nil
}

// --- ledger entries ---

func (q *Queries) InsertEntry(ctx context.Context, e core.LedgerEntry) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (account_id, category_id, amount_cents, entry_type, entry_date, description, recurring_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.AccountID, e.CategoryID, e.Amount.Cents, string(e.Type), e.Date.String(), e.Description, nullableID(e.RecurringID))
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, account_id, category_id, amount_cents, entry_type, entry_date, description, recurring_id, created_at, updated_at
		FROM transactions WHERE id = ?`,
		id)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, core.ErrNotFound
	}
	return e, err
}

func (q *Queries) ListEntries(ctx context.Context, accountID int64) ([]core.LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, account_id, category_id, amount_cents, entry_type, entry_date, description, recurring_id, created_at, updated_at
		FROM transactions WHERE account_id = ? ORDER BY entry_date DESC, id DESC`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (q *Queries) UpdateEntry(ctx context.Context, e core.LedgerEntry) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, category_id = ?, amount_cents = ?, entry_type = ?, entry_date = ?, description = ?, updated_at = datetime('now')
		WHERE id = ?`,
		e.AccountID, e.CategoryID, e.Amount.Cents, string(e.Type), e.Date.String(), e.Description, e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) DeleteEntry(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res)
}

// --- recurring schedules ---

func (q *Queries) InsertSchedule(ctx context.Context, s core.RecurringSchedule) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (account_id, category_id, amount_cents, frequency, next_due_date, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.AccountID, s.CategoryID, s.Amount.Cents, string(s.Frequency), s.NextDue.String(), s.Description)
	if err != nil {
		return 0, fmt.Errorf("insert schedule: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetSchedule(ctx context.Context, id int64) (core.RecurringSchedule, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, account_id, category_id, amount_cents, frequency, next_due_date, description
		FROM recurring_transactions WHERE id = ?`,
		id)
	s, err := scanSchedule(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringSchedule{}, core.ErrNotFound
	}
	return s, err
}

func (q *Queries) ListSchedules(ctx context.Context, accountID int64) ([]core.RecurringSchedule, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, account_id, category_id, amount_cents, frequency, next_due_date, description
		FROM recurring_transactions WHERE account_id = ? ORDER BY next_due_date`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

// ListDueSchedules returns every schedule due on or before asOf, ordered by
// id so a due pass visits schedules deterministically.
func (q *Queries) ListDueSchedules(ctx context.Context, asOf core.Date) ([]core.RecurringSchedule, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, account_id, category_id, amount_cents, frequency, next_due_date, description
		FROM recurring_transactions WHERE next_due_date <= ? ORDER BY id`,
		asOf.String())
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (q *Queries) UpdateSchedule(ctx context.Context, s core.RecurringSchedule) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET account_id = ?, category_id = ?, amount_cents = ?, frequency = ?, next_due_date = ?, description = ?, updated_at = datetime('now')
		WHERE id = ?`,
		s.AccountID, s.CategoryID, s.Amount.Cents, string(s.Frequency), s.NextDue.String(), s.Description, s.ID)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) UpdateNextDue(ctx context.Context, id int64, next core.Date) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET next_due_date = ?, updated_at = datetime('now')
		WHERE id = ?`,
		next.String(), id)
	if err != nil {
		return fmt.Errorf("update next due date: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) DeleteSchedule(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return requireRow(res)
}

// --- report aggregates ---

// SumEntriesByType totals the entries of one type on one account within an
// inclusive date range.
func (q *Queries) SumEntriesByType(ctx context.Context, accountID int64, t core.EntryType, start, end core.Date) (int64, error) {
	var total sql.NullInt64
	err := q.db.QueryRowContext(ctx, `
		SELECT sum(amount_cents)
		FROM transactions
		WHERE account_id = ? AND entry_type = ? AND entry_date BETWEEN ? AND ?`,
		accountID, string(t), start.String(), end.String()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum entries: %w", err)
	}
	return total.Int64, nil
}

// CategoryTotal is one row of a per-category aggregate.
type CategoryTotal struct {
	CategoryID int64
	Name       string
	TotalCents int64
}

// CategoryTotals groups one user's entries of one type by category within an
// inclusive date range, largest total first.
func (q *Queries) CategoryTotals(ctx context.Context, userID int64, t core.EntryType, start, end core.Date) ([]CategoryTotal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.name, sum(t.amount_cents) AS total
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		JOIN accounts a ON t.account_id = a.id
		WHERE a.user_id = ? AND t.entry_type = ? AND t.entry_date BETWEEN ? AND ?
		GROUP BY c.id, c.name
		ORDER BY total DESC`,
		userID, string(t), start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.Name, &ct.TotalCents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// --- helpers ---

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func scanEntry(scan func(dest ...any) error) (core.LedgerEntry, error) {
	var e core.LedgerEntry
	var date, created, updated string
	var recurring sql.NullInt64
	err := scan(&e.ID, &e.AccountID, &e.CategoryID, &e.Amount.Cents, &e.Type, &date, &e.Description, &recurring, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.LedgerEntry{}, err
		}
		return core.LedgerEntry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Date, err = core.ParseDate(date)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d has malformed date %q: %w", e.ID, date, err)
	}
	e.RecurringID = recurring.Int64
	e.CreatedAt = parseTimestamp(created)
	e.UpdatedAt = parseTimestamp(updated)
	return e, nil
}

func scanSchedule(scan func(dest ...any) error) (core.RecurringSchedule, error) {
	var s core.RecurringSchedule
	var due string
	err := scan(&s.ID, &s.AccountID, &s.CategoryID, &s.Amount.Cents, &s.Frequency, &due, &s.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.RecurringSchedule{}, err
		}
		return core.RecurringSchedule{}, fmt.Errorf("scan schedule: %w", err)
	}
	s.NextDue, err = core.ParseDate(due)
	if err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("schedule %d has malformed due date %q: %w", s.ID, due, err)
	}
	return s, nil
}

func collectSchedules(rows *sql.Rows) ([]core.RecurringSchedule, error) {
	var schedules []core.RecurringSchedule
	for rows.Next() {
		s, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}
