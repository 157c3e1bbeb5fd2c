package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spendyfy/internal/core"
	"spendyfy/internal/events"
	"spendyfy/internal/storage"
)

// EventPublisher is the outbound port for the events pipeline. A nil
// publisher disables it; a publish failure never fails the request.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *events.ExpenseEvent) error
}

// ExpensePatch carries a partial update; nil fields are left unchanged.
type ExpensePatch struct {
	Title         *string
	Amount        *core.Money
	Category      *core.Category
	Date          *core.Date
	Description   *string
	PaymentMethod *core.PaymentMethod
}

// ExpenseService orchestrates expense writes across the store, the
// analytics cache, and the optional event publisher.
type ExpenseService struct {
	store     storage.Store
	publisher EventPublisher
	analytics *AnalyticsService
	now       func() time.Time
}

func NewExpenseService(store storage.Store, publisher EventPublisher, analytics *AnalyticsService) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		analytics: analytics,
		now:       time.Now,
	}
}

func (s *ExpenseService) Create(ctx context.Context, userID string, e core.Expense) (*core.Expense, error) {
	now := s.now().UTC()
	e.ID = uuid.NewString()
	e.UserID = userID
	e.Normalize(now)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := s.store.CreateExpense(ctx, &e); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.afterMutation(ctx, events.TypeExpenseCreated, &e)
	return &e, nil
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (*core.Expense, error) {
	return s.store.GetExpense(ctx, userID, id)
}

func (s *ExpenseService) List(ctx context.Context, f storage.ExpenseFilter) ([]core.Expense, int64, error) {
	return s.store.ListExpenses(ctx, f)
}

func (s *ExpenseService) Recent(ctx context.Context, userID string, limit int) ([]core.Expense, error) {
	return s.store.RecentExpenses(ctx, userID, limit)
}

func (s *ExpenseService) Update(ctx context.Context, userID, id string, patch ExpensePatch) (*core.Expense, error) {
	e, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.PaymentMethod != nil {
		e.PaymentMethod = *patch.PaymentMethod
	}

	e.Normalize(s.now().UTC())
	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, events.TypeExpenseUpdated, e)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	e, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}
	s.afterMutation(ctx, events.TypeExpenseDeleted, e)
	return nil
}

// DeleteAll removes every expense of the caller. Best effort: there is
// no rollback if the store fails partway.
func (s *ExpenseService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.DeleteAllExpenses(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.analytics != nil {
		s.analytics.InvalidateUser(userID)
	}
	now := s.now().UTC()
	s.publish(ctx, events.NewExpenseEvent(events.TypeExpensesPurged, userID, "", now.Year(), int(now.Month())))
	return n, nil
}

func (s *ExpenseService) afterMutation(ctx context.Context, eventType string, e *core.Expense) {
	if s.analytics != nil {
		s.analytics.InvalidateUser(e.UserID)
	}
	s.publish(ctx, events.NewExpenseEvent(eventType, e.UserID, e.ID, e.Date.Year(), e.Date.Month()))
}

func (s *ExpenseService) publish(ctx context.Context, event *events.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", event.Type, "user_id", event.UserID, "error", err)
	}
}
