package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendyfy/internal/auth"
	"spendyfy/internal/core"
	"spendyfy/internal/storage"
)

var ErrInvalidBudget = errors.New("monthly budget must not be negative")

// ProfilePatch carries the fields a user may change on their own
// profile. Nil fields are left untouched.
type ProfilePatch struct {
	FirstName     *string
	LastName      *string
	MonthlyBudget *core.Money
	Categories    []string
}

// UserService manages profiles. Users are provisioned lazily from the
// verified token identity on first contact.
type UserService struct {
	store    storage.Store
	expenses *ExpenseService
	now      func() time.Time
}

func NewUserService(store storage.Store, expenses *ExpenseService) *UserService {
	return &UserService{
		store:    store,
		expenses: expenses,
		now:      time.Now,
	}
}

// GetOrCreate returns the profile for the given identity, creating it
// with defaults on first sight.
func (s *UserService) GetOrCreate(ctx context.Context, id auth.Identity) (*core.User, error) {
	u, err := s.store.GetUser(ctx, id.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	now := s.now().UTC()
	u = &core.User{
		ID:         id.Subject,
		Email:      id.Email,
		FirstName:  id.FirstName,
		LastName:   id.LastName,
		Categories: core.DefaultCategories(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "Provisioned new user", "user_id", u.ID)
	return u, nil
}

// UpdateProfile applies a patch to the caller's profile.
func (s *UserService) UpdateProfile(ctx context.Context, id auth.Identity, patch ProfilePatch) (*core.User, error) {
	u, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.MonthlyBudget != nil {
		if patch.MonthlyBudget.Cents < 0 {
			return nil, ErrInvalidBudget
		}
		u.MonthlyBudget = *patch.MonthlyBudget
	}
	if patch.Categories != nil {
		for _, c := range patch.Categories {
			if !core.Category(c).Valid() {
				return nil, core.ErrInvalidCategory
			}
		}
		u.Categories = patch.Categories
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// DeleteAccount removes the user's expenses first and then the profile
// itself, so a failed run never leaves orphaned expenses behind a
// deleted profile.
func (s *UserService) DeleteAccount(ctx context.Context, id auth.Identity) error {
	if _, err := s.expenses.DeleteAll(ctx, id.Subject); err != nil {
		return fmt.Errorf("purge expenses: %w", err)
	}
	if err := s.store.DeleteUser(ctx, id.Subject); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete user: %w", err)
	}
	slog.InfoContext(ctx, "Deleted account", "user_id", id.Subject)
	return nil
}
