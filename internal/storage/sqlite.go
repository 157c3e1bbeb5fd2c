package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendyfy/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Store on a single SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = "id, user_id, title, amount_cents, category, date, description, payment_method, created_at, updated_at"

func scanExpense(row interface{ Scan(...any) error }) (*core.Expense, error) {
	var (
		e                         core.Expense
		cents                     int64
		category, payment         string
		dateStr, created, updated string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &cents, &category, &dateStr,
		&e.Description, &payment, &created, &updated)
	if err != nil {
		return nil, err
	}
	e.Amount = core.Money{Cents: cents}
	e.Category = core.Category(category)
	e.PaymentMethod = core.PaymentMethod(payment)
	if e.Date, err = core.ParseDate(dateStr); err != nil {
		return nil, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updated, err)
	}
	return &e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e *core.Expense) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Amount.Cents, string(e.Category), e.Date.String(),
		e.Description, string(e.PaymentMethod),
		e.CreatedAt.UTC().Format(time.RFC3339), e.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET title = ?, amount_cents = ?, category = ?, date = ?, description = ?,
		     payment_method = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.Title, e.Amount.Cents, string(e.Category), e.Date.String(), e.Description,
		string(e.PaymentMethod), e.UpdatedAt.UTC().Format(time.RFC3339),
		e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// sortColumns whitelists the ORDER BY targets; anything else falls back
// to date to keep user input out of the SQL text.
var sortColumns = map[string]string{
	"date":       "date",
	"amount":     "amount_cents",
	"title":      "title",
	"category":   "category",
	"created_at": "created_at",
}

func buildFilterClause(f ExpenseFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{f.UserID}

	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(f.Category))
	}
	if !f.Range.Start.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, f.Range.Start.String())
	}
	if !f.Range.End.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, f.Range.End.String())
	}
	if f.MinCents != nil {
		clauses = append(clauses, "amount_cents >= ?")
		args = append(args, *f.MinCents)
	}
	if f.MaxCents != nil {
		clauses = append(clauses, "amount_cents <= ?")
		args = append(args, *f.MaxCents)
	}

	return strings.Join(clauses, " AND "), args
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, int64, error) {
	where, args := buildFilterClause(f)

	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "date"
	}
	direction := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		direction = "ASC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE %s ORDER BY %s %s, created_at DESC LIMIT ? OFFSET ?`,
		expenseColumns, where, column, direction)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, total, nil
}

func (r *SQLiteRepository) RecentExpenses(ctx context.Context, userID string, limit int) ([]core.Expense, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE user_id = ? ORDER BY date DESC, created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (r *SQLiteRepository) DeleteAllExpenses(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete all expenses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all rows affected: %w", err)
	}
	slog.InfoContext(ctx, "Deleted all expenses for user", "user_id", userID, "count", n)
	return n, nil
}

func rangeClause(r DateRange) (string, []any) {
	clause := ""
	var args []any
	if !r.Start.IsZero() {
		clause += " AND date >= ?"
		args = append(args, r.Start.String())
	}
	if !r.End.IsZero() {
		clause += " AND date <= ?"
		args = append(args, r.End.String())
	}
	return clause, args
}

func (r *SQLiteRepository) Totals(ctx context.Context, userID string, dr DateRange) (core.PeriodTotal, error) {
	clause, extra := rangeClause(dr)
	var total core.PeriodTotal
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*) FROM expenses WHERE user_id = ?`+clause,
		append([]any{userID}, extra...)...).Scan(&cents, &total.Count)
	if err != nil {
		return core.PeriodTotal{}, fmt.Errorf("totals: %w", err)
	}
	total.Total = core.Money{Cents: cents}
	return total, nil
}

func (r *SQLiteRepository) CategoryStats(ctx context.Context, userID string, dr DateRange) ([]core.CategoryStat, error) {
	clause, extra := rangeClause(dr)
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents), COUNT(*)
		 FROM expenses WHERE user_id = ?`+clause+`
		 GROUP BY category ORDER BY SUM(amount_cents) DESC`,
		append([]any{userID}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()

	var stats []core.CategoryStat
	for rows.Next() {
		var (
			category string
			cents    int64
			count    int64
		)
		if err := rows.Scan(&category, &cents, &count); err != nil {
			return nil, fmt.Errorf("scan category stat: %w", err)
		}
		stats = append(stats, core.CategoryStat{
			Category: core.Category(category),
			Amount:   core.Money{Cents: cents},
			Count:    count,
		})
	}
	return stats, rows.Err()
}

func (r *SQLiteRepository) MonthlyExpenses(ctx context.Context, userID string, months int) ([]core.MonthlyExpense, error) {
	if months <= 0 {
		months = 12
	}
	// Deliberately unfiltered by date range: the dashboard's monthly
	// series always covers the user's whole history.
	rows, err := r.db.QueryContext(ctx,
		`SELECT CAST(strftime('%Y', date) AS INTEGER) AS y,
		        CAST(strftime('%m', date) AS INTEGER) AS m,
		        SUM(amount_cents), COUNT(*)
		 FROM expenses WHERE user_id = ?
		 GROUP BY y, m ORDER BY y DESC, m DESC LIMIT ?`, userID, months)
	if err != nil {
		return nil, fmt.Errorf("monthly expenses: %w", err)
	}
	defer rows.Close()

	var monthly []core.MonthlyExpense
	for rows.Next() {
		var me core.MonthlyExpense
		var cents int64
		if err := rows.Scan(&me.Year, &me.Month, &cents, &me.Count); err != nil {
			return nil, fmt.Errorf("scan monthly expense: %w", err)
		}
		me.Amount = core.Money{Cents: cents}
		monthly = append(monthly, me)
	}
	return monthly, rows.Err()
}

func (r *SQLiteRepository) PaymentMethodStats(ctx context.Context, userID string, dr DateRange) ([]core.PaymentMethodStat, error) {
	clause, extra := rangeClause(dr)
	rows, err := r.db.QueryContext(ctx,
		`SELECT payment_method, SUM(amount_cents), COUNT(*)
		 FROM expenses WHERE user_id = ?`+clause+`
		 GROUP BY payment_method ORDER BY SUM(amount_cents) DESC`,
		append([]any{userID}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("payment method stats: %w", err)
	}
	defer rows.Close()

	var stats []core.PaymentMethodStat
	for rows.Next() {
		var (
			method string
			cents  int64
			count  int64
		)
		if err := rows.Scan(&method, &cents, &count); err != nil {
			return nil, fmt.Errorf("scan payment method stat: %w", err)
		}
		stats = append(stats, core.PaymentMethodStat{
			Method: core.PaymentMethod(method),
			Amount: core.Money{Cents: cents},
			Count:  count,
		})
	}
	return stats, rows.Err()
}

func (r *SQLiteRepository) CategoryAnalytics(ctx context.Context, userID string, dr DateRange) ([]core.CategoryAnalytics, error) {
	clause, extra := rangeClause(dr)
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents), COUNT(*),
		        MAX(amount_cents), MIN(amount_cents)
		 FROM expenses WHERE user_id = ?`+clause+`
		 GROUP BY category ORDER BY SUM(amount_cents) DESC`,
		append([]any{userID}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("category analytics: %w", err)
	}
	defer rows.Close()

	var analytics []core.CategoryAnalytics
	for rows.Next() {
		var (
			category                   string
			sum, count, highest, lowest int64
		)
		if err := rows.Scan(&category, &sum, &count, &highest, &lowest); err != nil {
			return nil, fmt.Errorf("scan category analytics: %w", err)
		}
		ca := core.CategoryAnalytics{
			Category: core.Category(category),
			Total:    core.Money{Cents: sum},
			Count:    count,
			Highest:  core.Money{Cents: highest},
			Lowest:   core.Money{Cents: lowest},
		}
		if count > 0 {
			// Average in whole cents, half-up.
			ca.Average = core.Money{Cents: (sum + count/2) / count}
		}
		analytics = append(analytics, ca)
	}
	return analytics, rows.Err()
}

func (r *SQLiteRepository) MonthlyTrends(ctx context.Context, userID string, since core.Date) ([]core.TrendRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT CAST(strftime('%Y', date) AS INTEGER) AS y,
		        CAST(strftime('%m', date) AS INTEGER) AS m,
		        category, SUM(amount_cents), COUNT(*)
		 FROM expenses WHERE user_id = ? AND date >= ?
		 GROUP BY y, m, category ORDER BY y ASC, m ASC`,
		userID, since.String())
	if err != nil {
		return nil, fmt.Errorf("monthly trends: %w", err)
	}
	defer rows.Close()

	var trends []core.TrendRow
	for rows.Next() {
		var (
			row      core.TrendRow
			category string
			cents    int64
		)
		if err := rows.Scan(&row.Year, &row.Month, &category, &cents, &row.Count); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		row.Category = core.Category(category)
		row.Amount = core.Money{Cents: cents}
		trends = append(trends, row)
	}
	return trends, rows.Err()
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (*core.User, error) {
	var (
		u                 core.User
		budget            int64
		categoriesJSON    string
		created, updated  string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, monthly_budget_cents, categories, created_at, updated_at
		 FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &budget, &categoriesJSON, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.MonthlyBudget = core.Money{Cents: budget}
	if err := json.Unmarshal([]byte(categoriesJSON), &u.Categories); err != nil {
		return nil, fmt.Errorf("decode user categories: %w", err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	if u.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updated, err)
	}
	return &u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	categoriesJSON, err := json.Marshal(u.Categories)
	if err != nil {
		return fmt.Errorf("encode user categories: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, monthly_budget_cents, categories, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.MonthlyBudget.Cents, string(categoriesJSON),
		u.CreatedAt.UTC().Format(time.RFC3339), u.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	slog.InfoContext(ctx, "User created", "user_id", u.ID, "email", u.Email)
	return nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u *core.User) error {
	categoriesJSON, err := json.Marshal(u.Categories)
	if err != nil {
		return fmt.Errorf("encode user categories: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, first_name = ?, last_name = ?,
		        monthly_budget_cents = ?, categories = ?, updated_at = ?
		 WHERE id = ?`,
		u.Email, u.FirstName, u.LastName, u.MonthlyBudget.Cents, string(categoriesJSON),
		u.UpdatedAt.UTC().Format(time.RFC3339), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
