package services

import (
	"context"
	"fmt"
	"log/slog"

	"finman/internal/core"
	"finman/internal/storage"
)

// AccountService manages user accounts. Balances normally move only through
// the ledger service; Update is the one explicit-edit escape hatch.
type AccountService struct {
	storage *storage.SQLiteRepository
}

func NewAccountService(storage *storage.SQLiteRepository) *AccountService {
	return &AccountService{storage: storage}
}

func (s *AccountService) Create(ctx context.Context, a core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.CreateAccount(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account created",
		"id", id,
		"name", a.Name,
		"balance", a.Balance.String())
	return id, nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (core.Account, error) {
	return s.storage.GetAccount(ctx, id)
}

func (s *AccountService) List(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, userID)
}

// Update sets name, type, balance and institution wholesale.
func (s *AccountService) Update(ctx context.Context, a core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateAccount(ctx, a)
}

// Delete removes an account; its ledger entries and recurring schedules go
// with it.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.DeleteAccount(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account deleted", "id", id)
	return nil
}
