// Package analytics serves the dashboard of aggregate billing statistics.
package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusTotal is a per-status count and XOF sum.
type StatusTotal struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Total  int64  `json:"total"`
}

// MonthPoint is one month of the revenue versus expense series.
type MonthPoint struct {
	Month   string `json:"month"`
	Revenue int64  `json:"revenue"`
	Expense int64  `json:"expense"`
}

// CompanyTotal is a company's billed amount over the reporting window.
type CompanyTotal struct {
	CompanyID int64  `json:"company_id"`
	Name      string `json:"name"`
	Total     int64  `json:"total"`
}

// Repository exposes the aggregate queries the dashboard relies on.
type Repository interface {
	InvoiceTotals(ctx context.Context) ([]StatusTotal, error)
	ExpenseTotals(ctx context.Context) ([]StatusTotal, error)
	OverdueTotals(ctx context.Context, cutoff time.Time) (StatusTotal, error)
	MonthlySeries(ctx context.Context, from time.Time) ([]MonthPoint, error)
	TopCompanies(ctx context.Context, limit int) ([]CompanyTotal, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) InvoiceTotals(ctx context.Context) ([]StatusTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total), 0) FROM invoices GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StatusTotal
	for rows.Next() {
		var t StatusTotal
		if err := rows.Scan(&t.Status, &t.Count, &t.Total); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) ExpenseTotals(ctx context.Context) ([]StatusTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(amount_xof), 0) FROM expenses GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StatusTotal
	for rows.Next() {
		var t StatusTotal
		if err := rows.Scan(&t.Status, &t.Count, &t.Total); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// OverdueTotals counts issued and flagged invoices whose due date has
// passed the cutoff.
func (r *repository) OverdueTotals(ctx context.Context, cutoff time.Time) (StatusTotal, error) {
	var t StatusTotal
	t.Status = "EN_RETARD"
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(total), 0) FROM invoices
WHERE status IN ('EMISE', 'EN_RETARD') AND due_date < $1`, cutoff).Scan(&t.Count, &t.Total)
	return t, err
}

// MonthlySeries returns billed revenue and recorded expenses per month
// since from, months without activity included as zero.
func (r *repository) MonthlySeries(ctx context.Context, from time.Time) ([]MonthPoint, error) {
	rows, err := r.pool.Query(ctx, `
WITH months AS (
	SELECT generate_series(date_trunc('month', $1::timestamptz), date_trunc('month', NOW()), '1 month') AS m
), revenue AS (
	SELECT date_trunc('month', issue_date) AS m, SUM(total) AS amount
	FROM invoices WHERE status <> 'ANNULEE' AND issue_date >= $1 GROUP BY 1
), spend AS (
	SELECT date_trunc('month', expense_date) AS m, SUM(amount_xof) AS amount
	FROM expenses WHERE status <> 'REJETEE' AND expense_date >= $1 GROUP BY 1
)
SELECT to_char(months.m, 'YYYY-MM'),
	COALESCE(revenue.amount, 0), COALESCE(spend.amount, 0)
FROM months
LEFT JOIN revenue ON revenue.m = months.m
LEFT JOIN spend ON spend.m = months.m
ORDER BY months.m`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthPoint
	for rows.Next() {
		var p MonthPoint
		if err := rows.Scan(&p.Month, &p.Revenue, &p.Expense); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) TopCompanies(ctx context.Context, limit int) ([]CompanyTotal, error) {
	rows, err := r.pool.Query(ctx, `
SELECT c.id, c.name, COALESCE(SUM(i.total), 0) AS billed
FROM companies c
JOIN invoices i ON i.company_id = c.id AND i.status <> 'ANNULEE'
GROUP BY c.id, c.name
ORDER BY billed DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CompanyTotal
	for rows.Next() {
		var c CompanyTotal
		if err := rows.Scan(&c.CompanyID, &c.Name, &c.Total); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
