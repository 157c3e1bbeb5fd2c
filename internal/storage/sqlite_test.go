package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendyfy/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insertExpense(t *testing.T, repo *SQLiteRepository, id, userID string, cents int64, category core.Category, date core.Date, method core.PaymentMethod) core.Expense {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	e := core.Expense{
		ID:            id,
		UserID:        userID,
		Title:         "Expense " + id,
		Amount:        core.Money{Cents: cents},
		Category:      category,
		Date:          date,
		PaymentMethod: method,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repo.CreateExpense(context.Background(), &e))
	return e
}

func TestSQLiteExpenseCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	insertExpense(t, repo, "e1", "alice", 1250, core.CategoryFood, core.NewDate(2025, 6, 15), core.PaymentCard)

	got, err := repo.GetExpense(ctx, "alice", "e1")
	require.NoError(t, err)
	assert.Equal(t, "Expense e1", got.Title)
	assert.EqualValues(t, 1250, got.Amount.Cents)
	assert.Equal(t, "2025-06-15", got.Date.String())
	assert.Equal(t, core.PaymentCard, got.PaymentMethod)

	got.Title = "Updated"
	got.Amount = core.Money{Cents: 9900}
	require.NoError(t, repo.UpdateExpense(ctx, got))
	got, err = repo.GetExpense(ctx, "alice", "e1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
	assert.EqualValues(t, 9900, got.Amount.Cents)

	require.NoError(t, repo.DeleteExpense(ctx, "alice", "e1"))
	_, err = repo.GetExpense(ctx, "alice", "e1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteCrossUserAccessIsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := insertExpense(t, repo, "e1", "alice", 1000, core.CategoryFood, core.NewDate(2025, 6, 15), core.PaymentCash)

	_, err := repo.GetExpense(ctx, "bob", "e1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteExpense(ctx, "bob", "e1"), ErrNotFound)

	hijack := e
	hijack.UserID = "bob"
	hijack.Title = "Hijack"
	assert.ErrorIs(t, repo.UpdateExpense(ctx, &hijack), ErrNotFound)
}

func TestSQLiteListExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	insertExpense(t, repo, "e1", "alice", 3000, core.CategoryFood, core.NewDate(2025, 6, 1), core.PaymentCash)
	insertExpense(t, repo, "e2", "alice", 1000, core.CategoryTransport, core.NewDate(2025, 6, 2), core.PaymentCard)
	insertExpense(t, repo, "e3", "alice", 2000, core.CategoryFood, core.NewDate(2025, 7, 3), core.PaymentCash)
	insertExpense(t, repo, "x1", "bob", 9999, core.CategoryFood, core.NewDate(2025, 6, 5), core.PaymentCash)

	t.Run("all own records date desc", func(t *testing.T) {
		list, total, err := repo.ListExpenses(ctx, ExpenseFilter{UserID: "alice", SortBy: "date", Order: "desc", Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, list, 3)
		assert.Equal(t, "e3", list[0].ID)
	})

	t.Run("category and range", func(t *testing.T) {
		f := ExpenseFilter{
			UserID:   "alice",
			Category: core.CategoryFood,
			Range:    DateRange{Start: core.NewDate(2025, 6, 1), End: core.NewDate(2025, 6, 30)},
			Page:     1, Limit: 10,
		}
		list, total, err := repo.ListExpenses(ctx, f)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, "e1", list[0].ID)
	})

	t.Run("amount sort asc with pagination", func(t *testing.T) {
		list, total, err := repo.ListExpenses(ctx, ExpenseFilter{UserID: "alice", SortBy: "amount", Order: "asc", Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, list, 2)
		assert.Equal(t, "e2", list[0].ID)
		assert.Equal(t, "e3", list[1].ID)
	})

	t.Run("amount bounds", func(t *testing.T) {
		min, max := int64(1500), int64(2500)
		list, total, err := repo.ListExpenses(ctx, ExpenseFilter{UserID: "alice", MinCents: &min, MaxCents: &max, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, "e3", list[0].ID)
	})
}

func TestSQLiteRecentAndDeleteAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	insertExpense(t, repo, "e1", "alice", 100, core.CategoryFood, core.NewDate(2025, 6, 1), core.PaymentCash)
	insertExpense(t, repo, "e2", "alice", 200, core.CategoryFood, core.NewDate(2025, 6, 5), core.PaymentCash)
	insertExpense(t, repo, "e3", "alice", 300, core.CategoryFood, core.NewDate(2025, 6, 3), core.PaymentCash)
	insertExpense(t, repo, "x1", "bob", 400, core.CategoryFood, core.NewDate(2025, 6, 4), core.PaymentCash)

	recent, err := repo.RecentExpenses(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "e2", recent[0].ID)
	assert.Equal(t, "e3", recent[1].ID)

	n, err := repo.DeleteAllExpenses(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	_, err = repo.GetExpense(ctx, "bob", "x1")
	require.NoError(t, err)
}

func TestSQLiteSameDateTiesOrderNewestCreatedFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	date := core.NewDate(2025, 6, 15)
	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	older := core.Expense{
		ID:            "older",
		UserID:        "alice",
		Title:         "Expense older",
		Amount:        core.Money{Cents: 100},
		Category:      core.CategoryFood,
		Date:          date,
		PaymentMethod: core.PaymentCash,
		CreatedAt:     base,
		UpdatedAt:     base,
	}
	newer := older
	newer.ID = "newer"
	newer.Title = "Expense newer"
	newer.CreatedAt = base.Add(time.Hour)
	newer.UpdatedAt = newer.CreatedAt
	require.NoError(t, repo.CreateExpense(ctx, &older))
	require.NoError(t, repo.CreateExpense(ctx, &newer))

	recent, err := repo.RecentExpenses(ctx, "alice", 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "newer", recent[0].ID)
	assert.Equal(t, "older", recent[1].ID)

	for _, order := range []string{"desc", "asc"} {
		list, _, err := repo.ListExpenses(ctx, ExpenseFilter{UserID: "alice", SortBy: "date", Order: order, Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "newer", list[0].ID, "order %s", order)
	}
}

func TestSQLiteAggregations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	insertExpense(t, repo, "e1", "alice", 1000, core.CategoryFood, core.NewDate(2025, 6, 1), core.PaymentCash)
	insertExpense(t, repo, "e2", "alice", 3000, core.CategoryFood, core.NewDate(2025, 6, 10), core.PaymentCard)
	insertExpense(t, repo, "e3", "alice", 4000, core.CategoryTransport, core.NewDate(2025, 5, 20), core.PaymentCard)

	t.Run("totals", func(t *testing.T) {
		all, err := repo.Totals(ctx, "alice", DateRange{})
		require.NoError(t, err)
		assert.EqualValues(t, 8000, all.Total.Cents)
		assert.EqualValues(t, 3, all.Count)

		june, err := repo.Totals(ctx, "alice", DateRange{Start: core.NewDate(2025, 6, 1), End: core.NewDate(2025, 6, 30)})
		require.NoError(t, err)
		assert.EqualValues(t, 4000, june.Total.Cents)

		empty, err := repo.Totals(ctx, "nobody", DateRange{})
		require.NoError(t, err)
		assert.Zero(t, empty.Total.Cents)
		assert.Zero(t, empty.Count)
	})

	t.Run("category stats desc", func(t *testing.T) {
		stats, err := repo.CategoryStats(ctx, "alice", DateRange{})
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, core.CategoryFood, stats[0].Category)
		assert.EqualValues(t, 4000, stats[0].Amount.Cents)
		assert.EqualValues(t, 2, stats[0].Count)
	})

	t.Run("monthly newest first", func(t *testing.T) {
		monthly, err := repo.MonthlyExpenses(ctx, "alice", 12)
		require.NoError(t, err)
		require.Len(t, monthly, 2)
		assert.Equal(t, 6, monthly[0].Month)
		assert.Equal(t, 5, monthly[1].Month)
	})

	t.Run("payment method stats desc", func(t *testing.T) {
		stats, err := repo.PaymentMethodStats(ctx, "alice", DateRange{})
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, core.PaymentCard, stats[0].Method)
		assert.EqualValues(t, 7000, stats[0].Amount.Cents)
	})

	t.Run("category analytics", func(t *testing.T) {
		analytics, err := repo.CategoryAnalytics(ctx, "alice", DateRange{})
		require.NoError(t, err)
		require.Len(t, analytics, 2)
		food := analytics[1]
		if analytics[0].Category == core.CategoryFood {
			food = analytics[0]
		}
		assert.EqualValues(t, 4000, food.Total.Cents)
		assert.EqualValues(t, 2000, food.Average.Cents)
		assert.EqualValues(t, 3000, food.Highest.Cents)
		assert.EqualValues(t, 1000, food.Lowest.Cents)
	})

	t.Run("monthly trends since cutoff ascending", func(t *testing.T) {
		trends, err := repo.MonthlyTrends(ctx, "alice", core.NewDate(2025, 6, 1))
		require.NoError(t, err)
		require.Len(t, trends, 1)
		assert.Equal(t, 6, trends[0].Month)
		assert.Equal(t, core.CategoryFood, trends[0].Category)

		trends, err = repo.MonthlyTrends(ctx, "alice", core.NewDate(2025, 1, 1))
		require.NoError(t, err)
		require.Len(t, trends, 2)
		assert.Equal(t, 5, trends[0].Month)
	})
}

func TestSQLiteUserCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := core.User{
		ID:         "alice",
		Email:      "alice@example.test",
		FirstName:  "Alice",
		LastName:   "Smith",
		Categories: core.DefaultCategories(),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		UpdatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.CreateUser(ctx, &u))

	got, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.test", got.Email)
	assert.Equal(t, core.DefaultCategories(), got.Categories)

	got.MonthlyBudget = core.Money{Cents: 75000}
	got.Categories = []string{"Food", "Bills"}
	require.NoError(t, repo.UpdateUser(ctx, got))
	got, err = repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 75000, got.MonthlyBudget.Cents)
	assert.Equal(t, []string{"Food", "Bills"}, got.Categories)

	require.NoError(t, repo.DeleteUser(ctx, "alice"))
	_, err = repo.GetUser(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}
