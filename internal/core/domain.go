package core

import (
	"strings"
	"time"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	// EntryType classifies a ledger entry or category as income or expense.
	EntryType string

	// Frequency is the recurrence interval of a schedule.
	Frequency string

	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Account struct {
		ID          int64
		UserID      int64
		Name        string
		Type        string
		Balance     Money
		Institution string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Category struct {
		ID          int64
		UserID      int64
		Name        string
		Type        EntryType
		Description string
		ParentID    int64 // 0 means top-level
	}

	// LedgerEntry is a realized income or expense against one account.
	// Amount is always positive; the sign of its balance effect follows Type.
	LedgerEntry struct {
		ID          int64
		AccountID   int64
		CategoryID  int64
		Amount      Money
		Type        EntryType
		Date        Date
		Description string
		RecurringID int64 // 0 unless generated from a schedule
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// RecurringSchedule is a template that materializes one ledger entry per
	// elapsed cycle and advances its own next due date.
	RecurringSchedule struct {
		ID          int64
		AccountID   int64
		CategoryID  int64
		Amount      Money
		Frequency   Frequency
		NextDue     Date
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

// ParseEntryType normalizes and validates an entry type string.
func ParseEntryType(s string) (EntryType, error) {
	switch t := EntryType(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

// BalanceDelta returns the signed cents effect of applying an amount of this
// type to an account balance: +cents for income, -cents for expense.
func (t EntryType) BalanceDelta(m Money) int64 {
	if t == Income {
		return m.Cents
	}
	return -m.Cents
}

// ParseFrequency normalizes and validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case Daily, Weekly, Monthly, Yearly:
		return f, nil
	default:
		return "", ErrInvalidFrequency
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	switch c.Type {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (e LedgerEntry) Validate() error {
	switch e.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (s RecurringSchedule) Validate() error {
	switch s.Frequency {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	return s.NextDue.Validate()
}
