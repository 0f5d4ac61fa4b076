package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"finman/internal/core"
	"finman/internal/storage"
)

// AuthService handles user registration and login with bcrypt-hashed
// passwords.
type AuthService struct {
	storage *storage.SQLiteRepository
}

func NewAuthService(storage *storage.SQLiteRepository) *AuthService {
	return &AuthService{storage: storage}
}

// Register creates a new user. The username must be unique.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (int64, error) {
	if username == "" || password == "" {
		return 0, core.ErrBadCredentials
	}

	if _, err := s.storage.GetUserByUsername(ctx, username); err == nil {
		return 0, core.ErrUserExists
	} else if !errors.Is(err, core.ErrNotFound) {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.storage.CreateUser(ctx, username, email, string(hash))
	if err != nil {
		return 0, fmt.Errorf("register user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "id", id, "username", username)
	return id, nil
}

// Login verifies the credentials and returns the user id. Unknown username
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (int64, error) {
	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return 0, core.ErrBadCredentials
		}
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return 0, core.ErrBadCredentials
	}

	slog.InfoContext(ctx, "User logged in", "id", user.ID, "username", username)
	return user.ID, nil
}
