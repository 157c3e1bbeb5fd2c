// Package storage defines the persistence port for expenses and users
// and provides the SQLite implementation.
package storage

import (
	"context"
	"errors"

	"spendyfy/internal/core"
)

// ErrNotFound is returned when a record is absent or owned by another
// user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("record not found")

// DateRange is an inclusive calendar-date window. A zero bound is open.
type DateRange struct {
	Start core.Date
	End   core.Date
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d core.Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// ExpenseFilter selects and orders one user's expenses for listing.
type ExpenseFilter struct {
	UserID   string
	Category core.Category // empty = all
	Range    DateRange
	MinCents *int64
	MaxCents *int64
	SortBy   string // date, amount, title, category, created_at
	Order    string // asc, desc
	Page     int    // 1-based
	Limit    int
}

// ExpenseStore is the write/read port for expense records.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *core.Expense) error
	GetExpense(ctx context.Context, userID, id string) (*core.Expense, error)
	UpdateExpense(ctx context.Context, e *core.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
	ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, int64, error)
	RecentExpenses(ctx context.Context, userID string, limit int) ([]core.Expense, error)
	DeleteAllExpenses(ctx context.Context, userID string) (int64, error)
}

// AnalyticsReader provides the aggregation queries the analytics engine
// is built on. Implementations never mutate data.
type AnalyticsReader interface {
	Totals(ctx context.Context, userID string, r DateRange) (core.PeriodTotal, error)
	CategoryStats(ctx context.Context, userID string, r DateRange) ([]core.CategoryStat, error)
	MonthlyExpenses(ctx context.Context, userID string, months int) ([]core.MonthlyExpense, error)
	PaymentMethodStats(ctx context.Context, userID string, r DateRange) ([]core.PaymentMethodStat, error)
	CategoryAnalytics(ctx context.Context, userID string, r DateRange) ([]core.CategoryAnalytics, error)
	MonthlyTrends(ctx context.Context, userID string, since core.Date) ([]core.TrendRow, error)
}

// UserStore is the port for identity-mirrored user records.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*core.User, error)
	CreateUser(ctx context.Context, u *core.User) error
	UpdateUser(ctx context.Context, u *core.User) error
	DeleteUser(ctx context.Context, id string) error
}

// Store is the unified persistence interface backends implement.
type Store interface {
	ExpenseStore
	AnalyticsReader
	UserStore
	Close() error
}
