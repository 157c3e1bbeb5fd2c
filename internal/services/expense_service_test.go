package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendyfy/internal/core"
	"spendyfy/internal/events"
	"spendyfy/internal/memory"
	"spendyfy/internal/storage"
)

type capturePublisher struct {
	published []*events.ExpenseEvent
}

func (p *capturePublisher) PublishExpenseEvent(ctx context.Context, event *events.ExpenseEvent) error {
	p.published = append(p.published, event)
	return nil
}

func newTestExpenseService() (*ExpenseService, *memory.Store, *capturePublisher) {
	store := memory.NewStore()
	publisher := &capturePublisher{}
	analytics := NewAnalyticsService(store)
	analytics.now = fixedNow
	svc := NewExpenseService(store, publisher, analytics)
	svc.now = fixedNow
	return svc, store, publisher
}

func TestCreateExpense(t *testing.T) {
	svc, _, publisher := newTestExpenseService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", core.Expense{
		Title:    "  Lunch  ",
		Amount:   core.Money{Cents: 1250},
		Category: core.CategoryFood,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.UserID)
	assert.Equal(t, "Lunch", created.Title)
	assert.Equal(t, core.PaymentCash, created.PaymentMethod)
	assert.Equal(t, "2025-06-20", created.Date.String(), "date defaults to today")
	assert.Equal(t, fixedNow(), created.CreatedAt)
	assert.Equal(t, fixedNow(), created.UpdatedAt)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.TypeExpenseCreated, publisher.published[0].Type)
	assert.Equal(t, "alice", publisher.published[0].UserID)
	assert.Equal(t, created.ID, publisher.published[0].ExpenseID)
}

func TestCreateExpenseValidation(t *testing.T) {
	svc, _, publisher := newTestExpenseService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", core.Expense{
		Title:    "Lunch",
		Amount:   core.Money{Cents: 0},
		Category: core.CategoryFood,
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.Create(ctx, "alice", core.Expense{
		Title:    "ab",
		Amount:   core.Money{Cents: 100},
		Category: core.CategoryFood,
	})
	assert.ErrorIs(t, err, core.ErrInvalidTitle)

	assert.Empty(t, publisher.published, "no events for rejected expenses")
}

func TestCreateExpenseSmallestAmount(t *testing.T) {
	svc, _, _ := newTestExpenseService()

	created, err := svc.Create(context.Background(), "alice", core.Expense{
		Title:    "Penny",
		Amount:   core.Money{Cents: 1},
		Category: core.CategoryOthers,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, created.Amount.Cents)
}

func TestUpdateExpensePartialPatch(t *testing.T) {
	svc, _, publisher := newTestExpenseService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", core.Expense{
		Title:    "Lunch",
		Amount:   core.Money{Cents: 1250},
		Category: core.CategoryFood,
		Date:     core.NewDate(2025, 6, 10),
	})
	require.NoError(t, err)

	newAmount := core.Money{Cents: 2000}
	updated, err := svc.Update(ctx, "alice", created.ID, ExpensePatch{Amount: &newAmount})
	require.NoError(t, err)

	assert.EqualValues(t, 2000, updated.Amount.Cents)
	assert.Equal(t, "Lunch", updated.Title, "unpatched fields survive")
	assert.Equal(t, "2025-06-10", updated.Date.String())

	require.Len(t, publisher.published, 2)
	assert.Equal(t, events.TypeExpenseUpdated, publisher.published[1].Type)
}

func TestUpdateExpenseRejectsInvalidPatch(t *testing.T) {
	svc, _, _ := newTestExpenseService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", core.Expense{
		Title:    "Lunch",
		Amount:   core.Money{Cents: 1250},
		Category: core.CategoryFood,
	})
	require.NoError(t, err)

	bad := core.Money{Cents: -100}
	_, err = svc.Update(ctx, "alice", created.ID, ExpensePatch{Amount: &bad})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	// The stored record is unchanged.
	got, err := svc.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1250, got.Amount.Cents)
}

func TestUpdateExpenseWrongOwner(t *testing.T) {
	svc, _, _ := newTestExpenseService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", core.Expense{
		Title:    "Lunch",
		Amount:   core.Money{Cents: 1250},
		Category: core.CategoryFood,
	})
	require.NoError(t, err)

	title := "Hijack"
	_, err = svc.Update(ctx, "bob", created.ID, ExpensePatch{Title: &title})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteExpense(t *testing.T) {
	svc, _, publisher := newTestExpenseService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", core.Expense{
		Title:    "Lunch",
		Amount:   core.Money{Cents: 1250},
		Category: core.CategoryFood,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "alice", created.ID))
	_, err = svc.Get(ctx, "alice", created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.Len(t, publisher.published, 2)
	assert.Equal(t, events.TypeExpenseDeleted, publisher.published[1].Type)

	assert.ErrorIs(t, svc.Delete(ctx, "alice", created.ID), storage.ErrNotFound)
}

func TestDeleteAllPublishesPurgeEvent(t *testing.T) {
	svc, _, publisher := newTestExpenseService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "alice", core.Expense{
			Title:    "Expense",
			Amount:   core.Money{Cents: 100},
			Category: core.CategoryFood,
		})
		require.NoError(t, err)
	}

	n, err := svc.DeleteAll(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	last := publisher.published[len(publisher.published)-1]
	assert.Equal(t, events.TypeExpensesPurged, last.Type)
	assert.Equal(t, "alice", last.UserID)
}

func TestMutationsInvalidateDashboardCache(t *testing.T) {
	svc, _, _ := newTestExpenseService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", core.Expense{
		Title:    "Lunch",
		Amount:   core.Money{Cents: 1000},
		Category: core.CategoryFood,
	})
	require.NoError(t, err)

	totals, err := svc.analytics.Dashboard(ctx, "alice", storage.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 1000, totals.TotalAmount.Cents)

	newAmount := core.Money{Cents: 2500}
	_, err = svc.Update(ctx, "alice", created.ID, ExpensePatch{Amount: &newAmount})
	require.NoError(t, err)

	totals, err = svc.analytics.Dashboard(ctx, "alice", storage.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 2500, totals.TotalAmount.Cents, "update must drop the cached dashboard")
}

func TestNilPublisherIsSafe(t *testing.T) {
	store := memory.NewStore()
	svc := NewExpenseService(store, nil, nil)
	svc.now = fixedNow

	_, err := svc.Create(context.Background(), "alice", core.Expense{
		Title:    "Lunch",
		Amount:   core.Money{Cents: 1250},
		Category: core.CategoryFood,
	})
	require.NoError(t, err)
}
