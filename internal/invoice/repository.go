package invoice

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
	"github.com/escale-marine/escale/internal/platform/db"
	"github.com/escale-marine/escale/internal/platform/httpx"
)

// Repository abstracts invoice persistence.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Update(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, q listquery.Query) ([]Invoice, int, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	ListDueBefore(ctx context.Context, status Status, cutoff time.Time) ([]Invoice, error)
	GenerateNumero(ctx context.Context, year int) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, numero, company_id, ship_id, issue_date, due_date,
subtotal, tax_rate::text, tax_amount, total, status, active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, inv *Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now()
		inv.CreatedAt = now
		inv.UpdatedAt = now
		err := tx.QueryRow(ctx, `INSERT INTO invoices
(numero, company_id, ship_id, issue_date, due_date, subtotal, tax_rate, tax_amount, total, status, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11, $12, $13)
RETURNING id`,
			inv.Numero, inv.CompanyID, inv.ShipID, inv.IssueDate, inv.DueDate,
			inv.Subtotal, inv.TaxRate.String(), inv.TaxAmount, inv.Total,
			string(inv.Status), inv.Active, inv.CreatedAt, inv.UpdatedAt,
		).Scan(&inv.ID)
		if err != nil {
			return mapPgError(err)
		}
		return insertLines(ctx, tx, inv)
	})
}

func (r *repository) Update(ctx context.Context, inv *Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		inv.UpdatedAt = time.Now()
		tag, err := tx.Exec(ctx, `UPDATE invoices SET
ship_id=$1, issue_date=$2, due_date=$3, subtotal=$4, tax_rate=$5::numeric,
tax_amount=$6, total=$7, updated_at=$8 WHERE id=$9`,
			inv.ShipID, inv.IssueDate, inv.DueDate, inv.Subtotal, inv.TaxRate.String(),
			inv.TaxAmount, inv.Total, inv.UpdatedAt, inv.ID)
		if err != nil {
			return mapPgError(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id=$1`, inv.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, inv)
	})
}

func insertLines(ctx context.Context, tx pgx.Tx, inv *Invoice) error {
	for i := range inv.Lines {
		line := &inv.Lines[i]
		line.InvoiceID = inv.ID
		var unitEUR, amountEUR *string
		if line.UnitPriceEUR != nil {
			s := line.UnitPriceEUR.String()
			unitEUR = &s
		}
		if line.AmountEUR != nil {
			s := line.AmountEUR.String()
			amountEUR = &s
		}
		err := tx.QueryRow(ctx, `INSERT INTO invoice_lines
(invoice_id, operation_id, description, quantity, unit_price_xof, unit_price_eur, amount_xof, amount_eur, position)
VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric, $7, $8::numeric, $9)
RETURNING id`,
			inv.ID, line.OperationID, line.Description, line.Quantity.String(),
			line.UnitPriceXOF, unitEUR, line.AmountXOF, amountEUR, i,
		).Scan(&line.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	lines, err := r.listLines(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return inv, nil
}

func (r *repository) listLines(ctx context.Context, invoiceID int64) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, invoice_id, operation_id, description,
quantity::text, unit_price_xof, unit_price_eur::text, amount_xof, amount_eur::text
FROM invoice_lines WHERE invoice_id=$1 ORDER BY position ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		var qty string
		var unitEUR, amountEUR *string
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.OperationID, &l.Description,
			&qty, &l.UnitPriceXOF, &unitEUR, &l.AmountXOF, &amountEUR); err != nil {
			return nil, err
		}
		l.Quantity, err = decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("invoice: parse quantity: %w", err)
		}
		if l.UnitPriceEUR, err = parseOptionalDecimal(unitEUR); err != nil {
			return nil, err
		}
		if l.AmountEUR, err = parseOptionalDecimal(amountEUR); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// List uses a dynamic query due to filter complexity.
func (r *repository) List(ctx context.Context, q listquery.Query) ([]Invoice, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.Search != "" {
		where += ` AND numero ILIKE ` + arg("%"+q.Search+"%")
	}
	if q.Status != "" {
		where += ` AND status = ` + arg(q.Status)
	}
	if q.CompanyID > 0 {
		where += ` AND company_id = ` + arg(q.CompanyID)
	}
	if q.ShipID > 0 {
		where += ` AND ship_id = ` + arg(q.ShipID)
	}
	if q.AmountMin != nil {
		where += ` AND total >= ` + arg(*q.AmountMin)
	}
	if q.AmountMax != nil {
		where += ` AND total <= ` + arg(*q.AmountMax)
	}
	if q.DateFrom != nil {
		where += ` AND issue_date >= ` + arg(*q.DateFrom)
	}
	if q.DateTo != nil {
		where += ` AND issue_date <= ` + arg(*q.DateTo)
	}
	if q.Month > 0 {
		where += ` AND EXTRACT(MONTH FROM issue_date) = ` + arg(q.Month)
	}
	if q.Year > 0 {
		where += ` AND EXTRACT(YEAR FROM issue_date) = ` + arg(q.Year)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where +
		` ORDER BY ` + sortOrder(q.Sort, q.Direction) +
		` LIMIT ` + arg(q.Size) + ` OFFSET ` + arg((q.Page-1)*q.Size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, total, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET status=$1, updated_at=NOW() WHERE id=$2`,
		string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListDueBefore(ctx context.Context, status Status, cutoff time.Time) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices
WHERE status=$1 AND due_date < $2 ORDER BY due_date ASC`, string(status), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *repository) GenerateNumero(ctx context.Context, year int) (string, error) {
	var seq int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) + 1 FROM invoices WHERE numero LIKE $1`,
		fmt.Sprintf("FAC-%d-%%", year)).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FAC-%d-%04d", year, seq), nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var status, taxRate string
	if err := row.Scan(&inv.ID, &inv.Numero, &inv.CompanyID, &inv.ShipID,
		&inv.IssueDate, &inv.DueDate, &inv.Subtotal, &taxRate, &inv.TaxAmount,
		&inv.Total, &status, &inv.Active, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	rate, err := decimal.NewFromString(taxRate)
	if err != nil {
		return nil, fmt.Errorf("invoice: parse tax rate: %w", err)
	}
	inv.TaxRate = rate
	inv.Status = Status(status)
	return &inv, nil
}

func parseOptionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("invoice: parse decimal: %w", err)
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
	case "due_date":
		return "due_date " + direction
	case "total":
		return "total " + direction
	case "issue_date":
		return "issue_date " + direction
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
