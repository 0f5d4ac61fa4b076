package core

import "errors"

// Validation errors: rejected before any write, the operation is a no-op.
var (
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidType      = errors.New("invalid entry type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyPatch       = errors.New("no fields to update")
)

// Not-found and integrity errors: reported, nothing is written.
var (
	ErrNotFound       = errors.New("not found")
	ErrCategoryInUse  = errors.New("category is referenced by existing entries")
	ErrCategoryCycle  = errors.New("parent assignment would create a cycle")
	ErrUserExists     = errors.New("username already registered")
	ErrBadCredentials = errors.New("incorrect username or password")
)
