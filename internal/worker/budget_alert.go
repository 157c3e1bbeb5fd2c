package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendyfy/internal/events"
	"spendyfy/internal/services"
	"spendyfy/internal/storage"
)

// BudgetAlertWorker consumes expense events and logs an alert whenever
// a mutation pushes a user's calendar-month spend over their configured
// monthly budget. Users without a budget are skipped.
type BudgetAlertWorker struct {
	store     storage.UserStore
	analytics *services.AnalyticsService
}

func NewBudgetAlertWorker(store storage.UserStore, analytics *services.AnalyticsService) *BudgetAlertWorker {
	return &BudgetAlertWorker{
		store:     store,
		analytics: analytics,
	}
}

// Handle processes a single expense event.
func (w *BudgetAlertWorker) Handle(ctx context.Context, event *events.ExpenseEvent) error {
	switch event.Type {
	case events.TypeExpenseCreated, events.TypeExpenseUpdated:
	case events.TypeExpenseDeleted, events.TypeExpensesPurged:
		// Removals can only lower spend, nothing to alert on.
		slog.DebugContext(ctx, "Skipping removal event", "type", event.Type, "user_id", event.UserID)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown event type, skipping", "type", event.Type)
		return nil
	}

	user, err := w.store.GetUser(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The account may have been deleted after the event was queued.
			slog.DebugContext(ctx, "User not found for event", "user_id", event.UserID)
			return nil
		}
		return fmt.Errorf("get user %s: %w", event.UserID, err)
	}

	if user.MonthlyBudget.Cents <= 0 {
		return nil
	}

	total, err := w.analytics.MonthTotal(ctx, event.UserID, event.Year, event.Month)
	if err != nil {
		return fmt.Errorf("month total for %s: %w", event.UserID, err)
	}

	if total.Total.Cents > user.MonthlyBudget.Cents {
		slog.WarnContext(ctx, "Monthly budget exceeded",
			"user_id", event.UserID,
			"year", event.Year,
			"month", event.Month,
			"spent", total.Total.String(),
			"budget", user.MonthlyBudget.String())
	}

	return nil
}

// Run consumes events until the context is cancelled.
func (w *BudgetAlertWorker) Run(ctx context.Context, client *events.Client) error {
	slog.InfoContext(ctx, "Budget alert worker starting")
	return client.ConsumeExpenseEvents(ctx, func(event *events.ExpenseEvent) error {
		return w.Handle(ctx, event)
	})
}
