// Package memory provides an in-memory Store used as the default
// zero-dependency backend and by tests. Aggregations are computed in Go
// with the same semantics as the SQLite queries.
package memory

import (
	"cmp"
	"context"
	"sort"
	"strings"
	"sync"

	"spendyfy/internal/core"
	"spendyfy/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	expenses map[string]core.Expense // by expense ID
	users    map[string]core.User    // by user ID (provider subject)
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		expenses: make(map[string]core.Expense),
		users:    make(map[string]core.User),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateExpense(ctx context.Context, e *core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = *e
	return nil
}

func (s *Store) GetExpense(ctx context.Context, userID, id string) (*core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return nil, storage.ErrNotFound
	}
	out := e
	return &out, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.expenses[e.ID]
	if !ok || existing.UserID != e.UserID {
		return storage.ErrNotFound
	}
	s.expenses[e.ID] = *e
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

// matching returns the caller's expenses that satisfy the filter,
// unsorted. Callers hold at least a read lock.
func (s *Store) matching(f storage.ExpenseFilter) []core.Expense {
	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID != f.UserID {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if !f.Range.Contains(e.Date) {
			continue
		}
		if f.MinCents != nil && e.Amount.Cents < *f.MinCents {
			continue
		}
		if f.MaxCents != nil && e.Amount.Cents > *f.MaxCents {
			continue
		}
		out = append(out, e)
	}
	return out
}

func sortExpenses(expenses []core.Expense, sortBy, order string) {
	asc := strings.EqualFold(order, "asc")
	primary := func(a, b core.Expense) int {
		switch sortBy {
		case "amount":
			return cmp.Compare(a.Amount.Cents, b.Amount.Cents)
		case "title":
			return strings.Compare(a.Title, b.Title)
		case "category":
			return strings.Compare(string(a.Category), string(b.Category))
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		default: // date
			return a.Date.Compare(b.Date.Time)
		}
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		if c := primary(expenses[i], expenses[j]); c != 0 {
			if asc {
				return c < 0
			}
			return c > 0
		}
		// The direction flag never touches the tiebreaker: ties resolve
		// newest-created first either way, matching the SQL secondary
		// ordering (created_at DESC).
		return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
	})
}

func (s *Store) ListExpenses(ctx context.Context, f storage.ExpenseFilter) ([]core.Expense, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matching(f)
	total := int64(len(matched))
	sortExpenses(matched, f.SortBy, f.Order)

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) RecentExpenses(ctx context.Context, userID string, limit int) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matching(storage.ExpenseFilter{UserID: userID})
	sortExpenses(matched, "date", "desc")
	if limit <= 0 {
		limit = 5
	}
	if limit > len(matched) {
		limit = len(matched)
	}
	return matched[:limit], nil
}

func (s *Store) DeleteAllExpenses(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, e := range s.expenses {
		if e.UserID == userID {
			delete(s.expenses, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) Totals(ctx context.Context, userID string, r storage.DateRange) (core.PeriodTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total core.PeriodTotal
	for _, e := range s.matching(storage.ExpenseFilter{UserID: userID, Range: r}) {
		total.Total.Cents += e.Amount.Cents
		total.Count++
	}
	return total, nil
}

func (s *Store) CategoryStats(ctx context.Context, userID string, r storage.DateRange) ([]core.CategoryStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[core.Category]*core.CategoryStat)
	for _, e := range s.matching(storage.ExpenseFilter{UserID: userID, Range: r}) {
		st, ok := sums[e.Category]
		if !ok {
			st = &core.CategoryStat{Category: e.Category}
			sums[e.Category] = st
		}
		st.Amount.Cents += e.Amount.Cents
		st.Count++
	}

	var stats []core.CategoryStat
	for _, st := range sums {
		stats = append(stats, *st)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Amount.Cents > stats[j].Amount.Cents
	})
	return stats, nil
}

func (s *Store) MonthlyExpenses(ctx context.Context, userID string, months int) ([]core.MonthlyExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if months <= 0 {
		months = 12
	}
	type ym struct{ year, month int }
	sums := make(map[ym]*core.MonthlyExpense)
	for _, e := range s.matching(storage.ExpenseFilter{UserID: userID}) {
		key := ym{e.Date.Year(), e.Date.Month()}
		me, ok := sums[key]
		if !ok {
			me = &core.MonthlyExpense{Year: key.year, Month: key.month}
			sums[key] = me
		}
		me.Amount.Cents += e.Amount.Cents
		me.Count++
	}

	var monthly []core.MonthlyExpense
	for _, me := range sums {
		monthly = append(monthly, *me)
	}
	sort.Slice(monthly, func(i, j int) bool {
		if monthly[i].Year != monthly[j].Year {
			return monthly[i].Year > monthly[j].Year
		}
		return monthly[i].Month > monthly[j].Month
	})
	if len(monthly) > months {
		monthly = monthly[:months]
	}
	return monthly, nil
}

func (s *Store) PaymentMethodStats(ctx context.Context, userID string, r storage.DateRange) ([]core.PaymentMethodStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[core.PaymentMethod]*core.PaymentMethodStat)
	for _, e := range s.matching(storage.ExpenseFilter{UserID: userID, Range: r}) {
		st, ok := sums[e.PaymentMethod]
		if !ok {
			st = &core.PaymentMethodStat{Method: e.PaymentMethod}
			sums[e.PaymentMethod] = st
		}
		st.Amount.Cents += e.Amount.Cents
		st.Count++
	}

	var stats []core.PaymentMethodStat
	for _, st := range sums {
		stats = append(stats, *st)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Amount.Cents > stats[j].Amount.Cents
	})
	return stats, nil
}

func (s *Store) CategoryAnalytics(ctx context.Context, userID string, r storage.DateRange) ([]core.CategoryAnalytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCat := make(map[core.Category]*core.CategoryAnalytics)
	for _, e := range s.matching(storage.ExpenseFilter{UserID: userID, Range: r}) {
		ca, ok := byCat[e.Category]
		if !ok {
			ca = &core.CategoryAnalytics{
				Category: e.Category,
				Highest:  e.Amount,
				Lowest:   e.Amount,
			}
			byCat[e.Category] = ca
		}
		ca.Total.Cents += e.Amount.Cents
		ca.Count++
		if e.Amount.Cents > ca.Highest.Cents {
			ca.Highest = e.Amount
		}
		if e.Amount.Cents < ca.Lowest.Cents {
			ca.Lowest = e.Amount
		}
	}

	var analytics []core.CategoryAnalytics
	for _, ca := range byCat {
		if ca.Count > 0 {
			ca.Average = core.Money{Cents: (ca.Total.Cents + ca.Count/2) / ca.Count}
		}
		analytics = append(analytics, *ca)
	}
	sort.SliceStable(analytics, func(i, j int) bool {
		return analytics[i].Total.Cents > analytics[j].Total.Cents
	})
	return analytics, nil
}

func (s *Store) MonthlyTrends(ctx context.Context, userID string, since core.Date) ([]core.TrendRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		year, month int
		category    core.Category
	}
	sums := make(map[key]*core.TrendRow)
	for _, e := range s.matching(storage.ExpenseFilter{UserID: userID, Range: storage.DateRange{Start: since}}) {
		k := key{e.Date.Year(), e.Date.Month(), e.Category}
		row, ok := sums[k]
		if !ok {
			row = &core.TrendRow{Year: k.year, Month: k.month, Category: k.category}
			sums[k] = row
		}
		row.Amount.Cents += e.Amount.Cents
		row.Count++
	}

	var trends []core.TrendRow
	for _, row := range sums {
		trends = append(trends, *row)
	}
	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Year != trends[j].Year {
			return trends[i].Year < trends[j].Year
		}
		if trends[i].Month != trends[j].Month {
			return trends[i].Month < trends[j].Month
		}
		return trends[i].Category < trends[j].Category
	})
	return trends, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := u
	out.Categories = append([]string(nil), u.Categories...)
	return &out, nil
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *u
	stored.Categories = append([]string(nil), u.Categories...)
	s.users[u.ID] = stored
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return storage.ErrNotFound
	}
	stored := *u
	stored.Categories = append([]string(nil), u.Categories...)
	s.users[u.ID] = stored
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}
