package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendyfy/internal/core"
	"spendyfy/internal/memory"
	"spendyfy/internal/storage"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
}

func seedStoreExpense(t *testing.T, store *memory.Store, id, userID string, cents int64, category core.Category, date core.Date) {
	t.Helper()
	e := core.Expense{
		ID:            id,
		UserID:        userID,
		Title:         "Expense " + id,
		Amount:        core.Money{Cents: cents},
		Category:      category,
		Date:          date,
		PaymentMethod: core.PaymentCash,
		CreatedAt:     fixedNow(),
		UpdatedAt:     fixedNow(),
	}
	require.NoError(t, store.CreateExpense(context.Background(), &e))
}

func newTestAnalytics(store *memory.Store) *AnalyticsService {
	svc := NewAnalyticsService(store)
	svc.now = fixedNow
	return svc
}

func TestDashboard(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAnalytics(store)
	ctx := context.Background()

	seedStoreExpense(t, store, "e1", "alice", 10000, core.CategoryFood, core.NewDate(2025, 6, 1))
	seedStoreExpense(t, store, "e2", "alice", 15000, core.CategoryTransport, core.NewDate(2025, 6, 10))
	seedStoreExpense(t, store, "e3", "alice", 10000, core.CategoryFood, core.NewDate(2025, 5, 20))

	totals, err := svc.Dashboard(ctx, "alice", storage.DateRange{})
	require.NoError(t, err)

	assert.EqualValues(t, 35000, totals.TotalAmount.Cents)
	assert.EqualValues(t, 3, totals.TotalCount)

	require.Len(t, totals.CategoryStats, 2)
	assert.Equal(t, core.CategoryFood, totals.CategoryStats[0].Category)
	assert.EqualValues(t, 20000, totals.CategoryStats[0].Amount.Cents)

	require.Len(t, totals.MonthlyExpenses, 2)
	assert.Equal(t, 6, totals.MonthlyExpenses[0].Month)

	require.Len(t, totals.PaymentMethodStats, 1)
	assert.Equal(t, core.PaymentCash, totals.PaymentMethodStats[0].Method)
}

func TestDashboardEmptyUser(t *testing.T) {
	svc := newTestAnalytics(memory.NewStore())

	totals, err := svc.Dashboard(context.Background(), "nobody", storage.DateRange{})
	require.NoError(t, err)

	assert.Zero(t, totals.TotalAmount.Cents)
	assert.Zero(t, totals.TotalCount)
	assert.NotNil(t, totals.CategoryStats)
	assert.Empty(t, totals.CategoryStats)
	assert.NotNil(t, totals.MonthlyExpenses)
	assert.NotNil(t, totals.PaymentMethodStats)
}

func TestDashboardCaching(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAnalytics(store)
	ctx := context.Background()

	seedStoreExpense(t, store, "e1", "alice", 10000, core.CategoryFood, core.NewDate(2025, 6, 1))

	first, err := svc.Dashboard(ctx, "alice", storage.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 10000, first.TotalAmount.Cents)

	// A write that bypasses the service does not refresh the cache.
	seedStoreExpense(t, store, "e2", "alice", 5000, core.CategoryFood, core.NewDate(2025, 6, 2))
	cached, err := svc.Dashboard(ctx, "alice", storage.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 10000, cached.TotalAmount.Cents)

	svc.InvalidateUser("alice")
	fresh, err := svc.Dashboard(ctx, "alice", storage.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 15000, fresh.TotalAmount.Cents)
}

func TestMonthlyTrendsWindow(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAnalytics(store)
	ctx := context.Background()

	// now is 2025-06-20; months=2 puts the cutoff at 2025-04-20.
	seedStoreExpense(t, store, "in", "alice", 1000, core.CategoryFood, core.NewDate(2025, 4, 25))
	seedStoreExpense(t, store, "out", "alice", 2000, core.CategoryFood, core.NewDate(2025, 4, 10))

	trends, err := svc.MonthlyTrends(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.EqualValues(t, 1000, trends[0].Amount.Cents)
}

func TestMonthlyTrendsDefaultsToTwelveMonths(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAnalytics(store)

	seedStoreExpense(t, store, "e1", "alice", 1000, core.CategoryFood, core.NewDate(2024, 8, 1))
	seedStoreExpense(t, store, "old", "alice", 2000, core.CategoryFood, core.NewDate(2024, 5, 1))

	trends, err := svc.MonthlyTrends(context.Background(), "alice", 0)
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, 2024, trends[0].Year)
	assert.Equal(t, 8, trends[0].Month)
}

func TestComparison(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAnalytics(store)
	ctx := context.Background()

	// June (current): 150.00, May (previous): 100.00
	seedStoreExpense(t, store, "e1", "alice", 15000, core.CategoryFood, core.NewDate(2025, 6, 5))
	seedStoreExpense(t, store, "e2", "alice", 10000, core.CategoryFood, core.NewDate(2025, 5, 5))
	// April is outside both windows.
	seedStoreExpense(t, store, "e3", "alice", 99900, core.CategoryFood, core.NewDate(2025, 4, 5))

	cmp, err := svc.Comparison(ctx, "alice")
	require.NoError(t, err)

	assert.EqualValues(t, 15000, cmp.CurrentMonth.Total.Cents)
	assert.EqualValues(t, 1, cmp.CurrentMonth.Count)
	assert.EqualValues(t, 10000, cmp.PreviousMonth.Total.Cents)
	assert.EqualValues(t, 5000, cmp.Change.Amount.Cents)
	assert.InDelta(t, 50.0, cmp.Change.Percentage, 0.001)
}

func TestComparisonZeroPreviousMonth(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAnalytics(store)

	seedStoreExpense(t, store, "e1", "alice", 15000, core.CategoryFood, core.NewDate(2025, 6, 5))

	cmp, err := svc.Comparison(context.Background(), "alice")
	require.NoError(t, err)

	assert.EqualValues(t, 15000, cmp.Change.Amount.Cents)
	assert.Zero(t, cmp.Change.Percentage)
}

func TestComparisonDecrease(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAnalytics(store)

	seedStoreExpense(t, store, "e1", "alice", 5000, core.CategoryFood, core.NewDate(2025, 6, 5))
	seedStoreExpense(t, store, "e2", "alice", 10000, core.CategoryFood, core.NewDate(2025, 5, 5))

	cmp, err := svc.Comparison(context.Background(), "alice")
	require.NoError(t, err)

	assert.EqualValues(t, -5000, cmp.Change.Amount.Cents)
	assert.InDelta(t, -50.0, cmp.Change.Percentage, 0.001)
}

func TestCategoryAnalyticsEmpty(t *testing.T) {
	svc := newTestAnalytics(memory.NewStore())

	analytics, err := svc.CategoryAnalytics(context.Background(), "nobody", storage.DateRange{})
	require.NoError(t, err)
	assert.NotNil(t, analytics)
	assert.Empty(t, analytics)
}
