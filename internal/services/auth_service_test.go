package services

import (
	"context"
	"errors"
	"testing"

	"finman/internal/core"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	svc := NewAuthService(repo)

	id, err := svc.Register(ctx, "carol", "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if id == 0 {
		t.Fatal("Register() returned id 0")
	}

	gotID, err := svc.Login(ctx, "carol", "s3cret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if gotID != id {
		t.Errorf("Login() id = %d, want %d", gotID, id)
	}

	// The stored credential is a hash, never the password itself.
	user, err := repo.GetUserByUsername(ctx, "carol")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if user.PasswordHash == "s3cret" || user.PasswordHash == "" {
		t.Errorf("password stored in the clear or empty: %q", user.PasswordHash)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	svc := NewAuthService(repo)

	if _, err := svc.Register(ctx, "carol", "carol@example.com", "s3cret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Register(ctx, "carol", "other@example.com", "different"); !errors.Is(err, core.ErrUserExists) {
		t.Errorf("Register() duplicate error = %v, want %v", err, core.ErrUserExists)
	}
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	svc := NewAuthService(repo)

	if _, err := svc.Register(ctx, "", "x@example.com", "pw"); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("Register() empty username error = %v, want %v", err, core.ErrBadCredentials)
	}
	if _, err := svc.Register(ctx, "dave", "x@example.com", ""); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("Register() empty password error = %v, want %v", err, core.ErrBadCredentials)
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	svc := NewAuthService(repo)

	if _, err := svc.Register(ctx, "carol", "carol@example.com", "s3cret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Unknown user and wrong password must be indistinguishable.
	if _, err := svc.Login(ctx, "nobody", "s3cret"); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("Login() unknown user error = %v, want %v", err, core.ErrBadCredentials)
	}
	if _, err := svc.Login(ctx, "carol", "wrong"); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("Login() wrong password error = %v, want %v", err, core.ErrBadCredentials)
	}
}
