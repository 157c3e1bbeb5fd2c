package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"spendyfy/internal/cache"
	"spendyfy/internal/core"
	"spendyfy/internal/storage"
)

// AnalyticsService derives read-only statistics over one user's
// expenses. It never mutates data; every failure it returns is a
// wrapped store error.
type AnalyticsService struct {
	store storage.AnalyticsReader
	now   func() time.Time

	// Dashboard responses are the hot path for the overview screen;
	// they are cached per (user, range) and dropped on any mutation
	// by that user.
	dashboardCache *cache.LRUCache[core.DashboardTotals]
}

func NewAnalyticsService(store storage.AnalyticsReader) *AnalyticsService {
	return &AnalyticsService{
		store:          store,
		now:            time.Now,
		dashboardCache: cache.NewLRUCache[core.DashboardTotals](256, 5*time.Minute),
	}
}

func dashboardKey(userID string, r storage.DateRange) string {
	start, end := "", ""
	if !r.Start.IsZero() {
		start = r.Start.String()
	}
	if !r.End.IsZero() {
		end = r.End.String()
	}
	return userID + "|" + start + "|" + end
}

// InvalidateUser drops every cached dashboard for the given user.
func (s *AnalyticsService) InvalidateUser(userID string) {
	s.dashboardCache.DeletePrefix(userID + "|")
}

// CleanExpiredCache evicts expired dashboard entries and returns how
// many were removed.
func (s *AnalyticsService) CleanExpiredCache() int {
	return s.dashboardCache.CleanExpired()
}

// Dashboard computes the overview totals. The monthly series covers the
// user's whole history regardless of the range filter; the other three
// outputs honor it.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID string, r storage.DateRange) (core.DashboardTotals, error) {
	key := dashboardKey(userID, r)
	if cached, ok := s.dashboardCache.Get(key); ok {
		slog.DebugContext(ctx, "Dashboard cache hit", "user_id", userID)
		return cached, nil
	}

	var totals core.DashboardTotals
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.store.Totals(gctx, userID, r)
		if err != nil {
			return fmt.Errorf("dashboard totals: %w", err)
		}
		totals.TotalAmount = t.Total
		totals.TotalCount = t.Count
		return nil
	})
	g.Go(func() error {
		stats, err := s.store.CategoryStats(gctx, userID, r)
		if err != nil {
			return fmt.Errorf("dashboard category stats: %w", err)
		}
		totals.CategoryStats = stats
		return nil
	})
	g.Go(func() error {
		monthly, err := s.store.MonthlyExpenses(gctx, userID, 12)
		if err != nil {
			return fmt.Errorf("dashboard monthly series: %w", err)
		}
		totals.MonthlyExpenses = monthly
		return nil
	})
	g.Go(func() error {
		stats, err := s.store.PaymentMethodStats(gctx, userID, r)
		if err != nil {
			return fmt.Errorf("dashboard payment method stats: %w", err)
		}
		totals.PaymentMethodStats = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.DashboardTotals{}, err
	}

	if totals.CategoryStats == nil {
		totals.CategoryStats = []core.CategoryStat{}
	}
	if totals.MonthlyExpenses == nil {
		totals.MonthlyExpenses = []core.MonthlyExpense{}
	}
	if totals.PaymentMethodStats == nil {
		totals.PaymentMethodStats = []core.PaymentMethodStat{}
	}

	s.dashboardCache.Set(key, totals)
	return totals, nil
}

// CategoryAnalytics returns per-category detail for categories present
// in the filtered set, sorted by total descending.
func (s *AnalyticsService) CategoryAnalytics(ctx context.Context, userID string, r storage.DateRange) ([]core.CategoryAnalytics, error) {
	analytics, err := s.store.CategoryAnalytics(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("category analytics: %w", err)
	}
	if analytics == nil {
		analytics = []core.CategoryAnalytics{}
	}
	return analytics, nil
}

// MonthlyTrends returns (year, month, category) rows for expenses dated
// within the past `months` calendar months, ascending by month.
func (s *AnalyticsService) MonthlyTrends(ctx context.Context, userID string, months int) ([]core.TrendRow, error) {
	if months <= 0 {
		months = 12
	}
	since := core.DateOf(s.now().UTC().AddDate(0, -months, 0))
	trends, err := s.store.MonthlyTrends(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("monthly trends: %w", err)
	}
	if trends == nil {
		trends = []core.TrendRow{}
	}
	return trends, nil
}

// Comparison totals the current and previous calendar months and their
// delta. Percentage change is defined as 0 when the previous month's
// total is 0.
func (s *AnalyticsService) Comparison(ctx context.Context, userID string) (core.Comparison, error) {
	now := s.now().UTC()
	currentRange := monthRange(now.Year(), int(now.Month()))
	prev := now.AddDate(0, 0, -now.Day()) // last day of previous month
	previousRange := monthRange(prev.Year(), int(prev.Month()))

	current, err := s.store.Totals(ctx, userID, currentRange)
	if err != nil {
		return core.Comparison{}, fmt.Errorf("current month totals: %w", err)
	}
	previous, err := s.store.Totals(ctx, userID, previousRange)
	if err != nil {
		return core.Comparison{}, fmt.Errorf("previous month totals: %w", err)
	}

	change := core.ComparisonChange{
		Amount: core.Money{Cents: current.Total.Cents - previous.Total.Cents},
	}
	if previous.Total.Cents > 0 {
		pct := change.Amount.Float() / previous.Total.Float() * 100
		change.Percentage = math.Round(pct*100) / 100
	}

	return core.Comparison{
		CurrentMonth:  current,
		PreviousMonth: previous,
		Change:        change,
	}, nil
}

// MonthTotal returns one calendar month's total for a user. Used by the
// budget alert worker.
func (s *AnalyticsService) MonthTotal(ctx context.Context, userID string, year, month int) (core.PeriodTotal, error) {
	return s.store.Totals(ctx, userID, monthRange(year, month))
}

func monthRange(year, month int) storage.DateRange {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return storage.DateRange{
		Start: core.DateOf(first),
		End:   core.DateOf(last),
	}
}
