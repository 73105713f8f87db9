package expense

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/escale-marine/escale/internal/listquery"
	"github.com/escale-marine/escale/internal/money"
	"github.com/escale-marine/escale/internal/platform/httpx"
)

// Repository abstracts expense persistence.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	Update(ctx context.Context, e *Expense) error
	Get(ctx context.Context, id int64) (*Expense, error)
	List(ctx context.Context, q listquery.Query) ([]Expense, int, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	GenerateNumero(ctx context.Context, year int) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const expenseColumns = `id, numero, title, description, category_id, supplier_id,
payment_method_id, expense_date, amount_xof, amount_eur::text, exchange_rate::text,
currency, status, created_at, updated_at`

func (r *repository) Create(ctx context.Context, e *Expense) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	err := r.pool.QueryRow(ctx, `INSERT INTO expenses
(numero, title, description, category_id, supplier_id, payment_method_id, expense_date,
amount_xof, amount_eur, exchange_rate, currency, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10::numeric, $11, $12, $13, $14)
RETURNING id`,
		e.Numero, e.Title, e.Description, e.CategoryID, e.SupplierID, e.PaymentMethodID,
		e.ExpenseDate, e.AmountXOF, decimalString(e.AmountEUR), decimalString(e.ExchangeRate),
		string(e.Currency), string(e.Status), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	return mapPgError(err)
}

func (r *repository) Update(ctx context.Context, e *Expense) error {
	e.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `UPDATE expenses SET
title=$1, description=$2, category_id=$3, supplier_id=$4, payment_method_id=$5,
expense_date=$6, amount_xof=$7, amount_eur=$8::numeric, exchange_rate=$9::numeric,
currency=$10, updated_at=$11 WHERE id=$12`,
		e.Title, e.Description, e.CategoryID, e.SupplierID, e.PaymentMethodID,
		e.ExpenseDate, e.AmountXOF, decimalString(e.AmountEUR), decimalString(e.ExchangeRate),
		string(e.Currency), e.UpdatedAt, e.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Expense, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id=$1`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List uses a dynamic query due to filter complexity.
func (r *repository) List(ctx context.Context, q listquery.Query) ([]Expense, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.Search != "" {
		p := arg("%" + q.Search + "%")
		where += ` AND (numero ILIKE ` + p + ` OR title ILIKE ` + p + `)`
	}
	if q.Status != "" {
		where += ` AND status = ` + arg(q.Status)
	}
	if q.CategoryID > 0 {
		where += ` AND category_id = ` + arg(q.CategoryID)
	}
	if q.SupplierID > 0 {
		where += ` AND supplier_id = ` + arg(q.SupplierID)
	}
	if q.PayMethodID > 0 {
		where += ` AND payment_method_id = ` + arg(q.PayMethodID)
	}
	if q.AmountMin != nil {
		where += ` AND amount_xof >= ` + arg(*q.AmountMin)
	}
	if q.AmountMax != nil {
		where += ` AND amount_xof <= ` + arg(*q.AmountMax)
	}
	if q.DateFrom != nil {
		where += ` AND expense_date >= ` + arg(*q.DateFrom)
	}
	if q.DateTo != nil {
		where += ` AND expense_date <= ` + arg(*q.DateTo)
	}
	if q.Month > 0 {
		where += ` AND EXTRACT(MONTH FROM expense_date) = ` + arg(q.Month)
	}
	if q.Year > 0 {
		where += ` AND EXTRACT(YEAR FROM expense_date) = ` + arg(q.Year)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses` + where +
		` ORDER BY ` + sortOrder(q.Sort, q.Direction) +
		` LIMIT ` + arg(q.Size) + ` OFFSET ` + arg((q.Page-1)*q.Size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, total, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE expenses SET status=$1, updated_at=NOW() WHERE id=$2`,
		string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) GenerateNumero(ctx context.Context, year int) (string, error) {
	var seq int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) + 1 FROM expenses WHERE numero LIKE $1`,
		fmt.Sprintf("DEP-%d-%%", year)).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DEP-%d-%04d", year, seq), nil
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	var status, currency string
	var amountEUR, rate *string
	if err := row.Scan(&e.ID, &e.Numero, &e.Title, &e.Description, &e.CategoryID,
		&e.SupplierID, &e.PaymentMethodID, &e.ExpenseDate, &e.AmountXOF,
		&amountEUR, &rate, &currency, &status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if e.AmountEUR, err = parseOptionalDecimal(amountEUR); err != nil {
		return nil, err
	}
	if e.ExchangeRate, err = parseOptionalDecimal(rate); err != nil {
		return nil, err
	}
	e.Currency = money.CurrencyFromString(currency)
	e.Status = Status(status)
	return &e, nil
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseOptionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("expense: parse decimal: %w", err)
	}
	return &d, nil
}

func sortOrder(sortBy, dir string) string {
	direction := "ASC"
	if dir == "desc" {
		direction = "DESC"
	}
	switch sortBy {
	case "numero":
		return "numero " + direction
	case "expense_date":
		return "expense_date " + direction
	case "amount":
		return "amount_xof " + direction
	case "title":
		return "title " + direction
	default:
		return "created_at DESC"
	}
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: numero already used", httpx.ErrDuplicate)
	}
	return err
}
