package services

import (
	"context"
	"path/filepath"
	"testing"

	"finman/internal/core"
	"finman/internal/storage"
)

// newTestRepo opens a fresh migrated SQLite database in a temp directory.
func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "finman.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *storage.SQLiteRepository) int64 {
	t.Helper()

	id, err := repo.CreateUser(context.Background(), "alice", "alice@example.com", "not-a-real-hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return id
}

func seedAccount(t *testing.T, repo *storage.SQLiteRepository, userID, balanceCents int64) int64 {
	t.Helper()

	id, err := repo.CreateAccount(context.Background(), core.Account{
		UserID:      userID,
		Name:        "Checking",
		Type:        "checking",
		Balance:     core.Money{Cents: balanceCents},
		Institution: "Test Bank",
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	return id
}

func seedCategory(t *testing.T, repo *storage.SQLiteRepository, userID int64, name string, entryType core.EntryType) int64 {
	t.Helper()

	id, err := repo.CreateCategory(context.Background(), core.Category{
		UserID: userID,
		Name:   name,
		Type:   entryType,
	})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	return id
}

func accountBalance(t *testing.T, repo *storage.SQLiteRepository, accountID int64) int64 {
	t.Helper()

	account, err := repo.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	return account.Balance.Cents
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()

	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", s, err)
	}
	return d
}
