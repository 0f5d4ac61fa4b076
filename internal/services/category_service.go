package services

import (
	"context"
	"fmt"
	"log/slog"

	"finman/internal/core"
	"finman/internal/storage"
)

// CategoryService manages the category tree of a user.
type CategoryService struct {
	storage *storage.SQLiteRepository
}

func NewCategoryService(storage *storage.SQLiteRepository) *CategoryService {
	return &CategoryService{storage: storage}
}

// Create adds a category. A parent reference must point at an existing
// category of the same user.
func (s *CategoryService) Create(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	if c.ParentID != 0 {
		parent, err := s.storage.GetCategory(ctx, c.ParentID)
		if err != nil {
			return 0, fmt.Errorf("parent category: %w", err)
		}
		if parent.UserID != c.UserID {
			return 0, core.ErrNotFound
		}
	}

	id, err := s.storage.CreateCategory(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", id, "name", c.Name, "type", c.Type)
	return id, nil
}

// Update replaces a category's fields. Assigning a parent walks the ancestor
// chain first and rejects assignments that would close a cycle.
func (s *CategoryService) Update(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return s.storage.WithTx(ctx, func(q *storage.Queries) error {
		existing, err := q.GetCategory(ctx, c.ID)
		if err != nil {
			return err
		}
		c.UserID = existing.UserID

		if c.ParentID != 0 {
			if err := checkNoCycle(ctx, q, c.ID, c.ParentID); err != nil {
				return err
			}
		}
		return q.UpdateCategory(ctx, c)
	})
}

// Delete removes a category, refusing while any ledger entry or recurring
// schedule still references it.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.storage.WithTx(ctx, func(q *storage.Queries) error {
		entries, err := q.CountEntriesByCategory(ctx, id)
		if err != nil {
			return err
		}
		schedules, err := q.CountSchedulesByCategory(ctx, id)
		if err != nil {
			return err
		}
		if entries > 0 || schedules > 0 {
			return core.ErrCategoryInUse
		}
		return q.DeleteCategory(ctx, id)
	})
}

// Get returns one category by id.
func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	return s.storage.GetCategory(ctx, id)
}

// List returns all of a user's categories.
func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, userID)
}

// checkNoCycle walks up from parentID and fails if it reaches categoryID.
func checkNoCycle(ctx context.Context, q *storage.Queries, categoryID, parentID int64) error {
	for current := parentID; current != 0; {
		if current == categoryID {
			return core.ErrCategoryCycle
		}
		parent, err := q.GetCategory(ctx, current)
		if err != nil {
			return fmt.Errorf("walk category parents: %w", err)
		}
		current = parent.ParentID
	}
	return nil
}
