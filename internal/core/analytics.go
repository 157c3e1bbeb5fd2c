package core

// Aggregate shapes returned by the analytics engine. Amounts are Money
// so the JSON output carries decimals, matching the expense records.

// CategoryStat is a per-category amount/count pair for the dashboard.
type CategoryStat struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
	Count    int64    `json:"count"`
}

// PaymentMethodStat is a per-payment-method amount/count pair.
type PaymentMethodStat struct {
	Method PaymentMethod `json:"method"`
	Amount Money         `json:"amount"`
	Count  int64         `json:"count"`
}

// MonthlyExpense is a (year, month) total over all of a user's expenses.
type MonthlyExpense struct {
	Year   int   `json:"year"`
	Month  int   `json:"month"`
	Amount Money `json:"amount"`
	Count  int64 `json:"count"`
}

// DashboardTotals is the aggregate summary behind the overview screen.
type DashboardTotals struct {
	TotalAmount        Money               `json:"totalAmount"`
	TotalCount         int64               `json:"totalCount"`
	CategoryStats      []CategoryStat      `json:"categoryStats"`
	MonthlyExpenses    []MonthlyExpense    `json:"monthlyExpenses"`
	PaymentMethodStats []PaymentMethodStat `json:"paymentMethodStats"`
}

// CategoryAnalytics carries the detailed per-category figures. Categories
// with no matching expenses are omitted, not zero-filled.
type CategoryAnalytics struct {
	Category Category `json:"category"`
	Total    Money    `json:"total"`
	Count    int64    `json:"count"`
	Average  Money    `json:"average"`
	Highest  Money    `json:"highest"`
	Lowest   Money    `json:"lowest"`
}

// TrendRow is one (year, month, category) cell of the monthly trends
// output. Callers needing month-only totals sum rows client-side.
type TrendRow struct {
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
	Count    int64    `json:"count"`
}

// PeriodTotal is a total/count pair for one calendar month.
type PeriodTotal struct {
	Total Money `json:"total"`
	Count int64 `json:"count"`
}

// Comparison is the current-vs-previous calendar month delta.
// Percentage is 0 whenever the previous month's total is 0.
type Comparison struct {
	CurrentMonth  PeriodTotal      `json:"currentMonth"`
	PreviousMonth PeriodTotal      `json:"previousMonth"`
	Change        ComparisonChange `json:"change"`
}

type ComparisonChange struct {
	Amount     Money   `json:"amount"`
	Percentage float64 `json:"percentage"`
}
