package masterdata

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

// Repository abstracts masterdata persistence.
type Repository interface {
	ListCompanies(ctx context.Context, q listquery.Query) ([]Company, int, error)
	GetCompany(ctx context.Context, id int64) (Company, error)
	CreateCompany(ctx context.Context, c *Company) error
	UpdateCompany(ctx context.Context, c *Company) error
	SetCompanyActive(ctx context.Context, id int64, active bool) error

	ListShips(ctx context.Context, q listquery.Query) ([]Ship, int, error)
	GetShip(ctx context.Context, id int64) (Ship, error)
	CreateShip(ctx context.Context, s *Ship) error
	UpdateShip(ctx context.Context, s *Ship) error
	SetShipActive(ctx context.Context, id int64, active bool) error

	ListOperations(ctx context.Context, q listquery.Query) ([]Operation, int, error)
	GetOperation(ctx context.Context, id int64) (Operation, error)
	CreateOperation(ctx context.Context, op *Operation) error
	UpdateOperation(ctx context.Context, op *Operation) error
	SetOperationActive(ctx context.Context, id int64, active bool) error
	ListOperationPrices(ctx context.Context) ([]money.OperationPrice, error)

	ListCategories(ctx context.Context, q listquery.Query) ([]Category, int, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error

	ListSuppliers(ctx context.Context, q listquery.Query) ([]Supplier, int, error)
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	CreateSupplier(ctx context.Context, s *Supplier) error
	UpdateSupplier(ctx context.Context, s *Supplier) error
	SetSupplierActive(ctx context.Context, id int64, active bool) error

	ListPaymentMethods(ctx context.Context, q listquery.Query) ([]PaymentMethod, int, error)
	GetPaymentMethod(ctx context.Context, id int64) (PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, p *PaymentMethod) error
	UpdatePaymentMethod(ctx context.Context, p *PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// listClause builds the shared WHERE/ORDER/LIMIT tail of a list query.
// searchCols are ILIKE targets for the free-text search term.
func listClause(q listquery.Query, searchCols ...string) (string, []interface{}) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.Search != "" && len(searchCols) > 0 {
		p := arg("%" + q.Search + "%")
		where += ` AND (`
		for i, col := range searchCols {
			if i > 0 {
				where += ` OR `
			}
			where += col + ` ILIKE ` + p
		}
		where += `)`
	}
	if q.Active != nil {
		where += ` AND active = ` + arg(*q.Active)
	}
	if q.CompanyID > 0 {
		where += ` AND company_id = ` + arg(q.CompanyID)
	}
	return where, args
}

func lookupSortOrder(sortBy, dir string) string {
	direction := "ASC"
	if dir == "desc" {
		direction = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + direction
	case "created_at":
		return "created_at " + direction
	case "name":
		return "name " + direction
	default:
		return "name ASC"
	}
}

func (r *repository) list(ctx context.Context, table, columns string, q listquery.Query,
	searchCols []string, scan func(pgx.Rows) error) (int, error) {
	where, args := listClause(q, searchCols...)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+where, args...).Scan(&total); err != nil {
		return 0, err
	}

	args = append(args, q.Size, (q.Page-1)*q.Size)
	query := `SELECT ` + columns + ` FROM ` + table + where +
		` ORDER BY ` + lookupSortOrder(q.Sort, q.Direction) +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return 0, err
		}
	}
	return total, rows.Err()
}

// Companies

const companyColumns = `id, name, contact, phone, email, address, ninea, active, created_at, updated_at`

func (r *repository) ListCompanies(ctx context.Context, q listquery.Query) ([]Company, int, error) {
	var out []Company
	total, err := r.list(ctx, "companies", companyColumns, q, []string{"name", "contact"}, func(rows pgx.Rows) error {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Contact, &c.Phone, &c.Email, &c.Address,
			&c.NINEA, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, total, err
}

func (r *repository) GetCompany(ctx context.Context, id int64) (Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Contact, &c.Phone, &c.Email, &c.Address,
			&c.NINEA, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	return c, err
}

func (r *repository) CreateCompany(ctx context.Context, c *Company) error {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	err := r.pool.QueryRow(ctx, `INSERT INTO companies
(name, contact, phone, email, address, ninea, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		c.Name, c.Contact, c.Phone, c.Email, c.Address, c.NINEA, c.Active, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	return mapPgError(err)
}

func (r *repository) UpdateCompany(ctx context.Context, c *Company) error {
	c.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `UPDATE companies SET
name=$1, contact=$2, phone=$3, email=$4, address=$5, ninea=$6, updated_at=$7 WHERE id=$8`,
		c.Name, c.Contact, c.Phone, c.Email, c.Address, c.NINEA, c.UpdatedAt, c.ID)
	return rowsOrNotFound(tag, mapPgError(err))
}

func (r *repository) SetCompanyActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE companies SET active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	return rowsOrNotFound(tag, err)
}

// Ships

const shipColumns = `id, company_id, name, imo, flag, type, active, created_at, updated_at`

func (r *repository) ListShips(ctx context.Context, q listquery.Query) ([]Ship, int, error) {
	var out []Ship
	total, err := r.list(ctx, "ships", shipColumns, q, []string{"name", "imo"}, func(rows pgx.Rows) error {
		var s Ship
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.Name, &s.IMO, &s.Flag, &s.Type,
			&s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, total, err
}

func (r *repository) GetShip(ctx context.Context, id int64) (Ship, error) {
	var s Ship
	err := r.pool.QueryRow(ctx, `SELECT `+shipColumns+` FROM ships WHERE id=$1`, id).
		Scan(&s.ID, &s.CompanyID, &s.Name, &s.IMO, &s.Flag, &s.Type,
			&s.Active, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ship{}, ErrNotFound
	}
	return s, err
}

func (r *repository) CreateShip(ctx context.Context, s *Ship) error {
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	err := r.pool.QueryRow(ctx, `INSERT INTO ships
(company_id, name, imo, flag, type, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		s.CompanyID, s.Name, s.IMO, s.Flag, s.Type, s.Active, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	return mapPgError(err)
}

func (r *repository) UpdateShip(ctx context.Context, s *Ship) error {
	s.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `UPDATE ships SET
company_id=$1, name=$2, imo=$3, flag=$4, type=$5, updated_at=$6 WHERE id=$7`,
		s.CompanyID, s.Name, s.IMO, s.Flag, s.Type, s.UpdatedAt, s.ID)
	return rowsOrNotFound(tag, mapPgError(err))
}

func (r *repository) SetShipActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE ships SET active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	return rowsOrNotFound(tag, err)
}

// Operations

const operationColumns = `id, code, name, description, price_xof, price_eur::text, active, created_at, updated_at`

func scanOperation(row pgx.Row) (Operation, error) {
	var op Operation
	var priceEUR *string
	if err := row.Scan(&op.ID, &op.Code, &op.Name, &op.Description, &op.PriceXOF,
		&priceEUR, &op.Active, &op.CreatedAt, &op.UpdatedAt); err != nil {
		return Operation{}, err
	}
	if priceEUR != nil {
		d, err := decimal.NewFromString(*priceEUR)
		if err != nil {
			return Operation{}, fmt.Errorf("masterdata: parse price_eur: %w", err)
		}
		op.PriceEUR = &d
	}
	return op, nil
}

func (r *repository) ListOperations(ctx context.Context, q listquery.Query) ([]Operation, int, error) {
	var out []Operation
	total, err := r.list(ctx, "operations", operationColumns, q, []string{"name", "code"}, func(rows pgx.Rows) error {
		op, err := scanOperation(rows)
		if err != nil {
			return err
		}
		out = append(out, op)
		return nil
	})
	return out, total, err
}

func (r *repository) GetOperation(ctx context.Context, id int64) (Operation, error) {
	op, err := scanOperation(r.pool.QueryRow(ctx,
		`SELECT `+operationColumns+` FROM operations WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Operation{}, ErrNotFound
	}
	return op, err
}

func (r *repository) CreateOperation(ctx context.Context, op *Operation) error {
	now := time.Now()
	op.CreatedAt, op.UpdatedAt = now, now
	err := r.pool.QueryRow(ctx, `INSERT INTO operations
(code, name, description, price_xof, price_eur, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8) RETURNING id`,
		op.Code, op.Name, op.Description, op.PriceXOF, decimalString(op.PriceEUR),
		op.Active, op.CreatedAt, op.UpdatedAt,
	).Scan(&op.ID)
	return mapPgError(err)
}

func (r *repository) UpdateOperation(ctx context.Context, op *Operation) error {
	op.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `UPDATE operations SET
code=$1, name=$2, description=$3, price_xof=$4, price_eur=$5::numeric, updated_at=$6 WHERE id=$7`,
		op.Code, op.Name, op.Description, op.PriceXOF, decimalString(op.PriceEUR),
		op.UpdatedAt, op.ID)
	return rowsOrNotFound(tag, mapPgError(err))
}

func (r *repository) SetOperationActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE operations SET active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	return rowsOrNotFound(tag, err)
}

// ListOperationPrices feeds exchange-rate derivation with every active
// operation priced in both currencies.
func (r *repository) ListOperationPrices(ctx context.Context) ([]money.OperationPrice, error) {
	rows, err := r.pool.Query(ctx, `SELECT price_xof, price_eur::text FROM operations
WHERE active AND price_eur IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var prices []money.OperationPrice
	for rows.Next() {
		var p money.OperationPrice
		var eur string
		if err := rows.Scan(&p.PriceXOF, &eur); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(eur)
		if err != nil {
			return nil, fmt.Errorf("masterdata: parse price_eur: %w", err)
		}
		p.PriceEUR = &d
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// Categories

const categoryColumns = `id, code, name, created_at, updated_at`

func (r *repository) ListCategories(ctx context.Context, q listquery.Query) ([]Category, int, error) {
	var out []Category
	total, err := r.list(ctx, "expense_categories", categoryColumns, q, []string{"name", "code"}, func(rows pgx.Rows) error {
		var c Category
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, total, err
}

func (r *repository) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM expense_categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (r *repository) CreateCategory(ctx context.Context, c *Category) error {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	err := r.pool.QueryRow(ctx, `INSERT INTO expense_categories
(code, name, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		c.Code, c.Name, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	return mapPgError(err)
}

func (r *repository) UpdateCategory(ctx context.Context, c *Category) error {
	c.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `UPDATE expense_categories SET code=$1, name=$2, updated_at=$3 WHERE id=$4`,
		c.Code, c.Name, c.UpdatedAt, c.ID)
	return rowsOrNotFound(tag, mapPgError(err))
}

func (r *repository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expense_categories WHERE id=$1`, id)
	return rowsOrNotFound(tag, mapPgError(err))
}

// Suppliers

const supplierColumns = `id, code, name, phone, email, address, active, created_at, updated_at`

func (r *repository) ListSuppliers(ctx context.Context, q listquery.Query) ([]Supplier, int, error) {
	var out []Supplier
	total, err := r.list(ctx, "suppliers", supplierColumns, q, []string{"name", "code"}, func(rows pgx.Rows) error {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Phone, &s.Email, &s.Address,
			&s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, total, err
}

func (r *repository) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id=$1`, id).
		Scan(&s.ID, &s.Code, &s.Name, &s.Phone, &s.Email, &s.Address,
			&s.Active, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	return s, err
}

func (r *repository) CreateSupplier(ctx context.Context, s *Supplier) error {
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	err := r.pool.QueryRow(ctx, `INSERT INTO suppliers
(code, name, phone, email, address, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		s.Code, s.Name, s.Phone, s.Email, s.Address, s.Active, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	return mapPgError(err)
}

func (r *repository) UpdateSupplier(ctx context.Context, s *Supplier) error {
	s.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET
code=$1, name=$2, phone=$3, email=$4, address=$5, updated_at=$6 WHERE id=$7`,
		s.Code, s.Name, s.Phone, s.Email, s.Address, s.UpdatedAt, s.ID)
	return rowsOrNotFound(tag, mapPgError(err))
}

func (r *repository) SetSupplierActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	return rowsOrNotFound(tag, err)
}

// Payment methods

const paymentMethodColumns = `id, code, name, created_at, updated_at`

func (r *repository) ListPaymentMethods(ctx context.Context, q listquery.Query) ([]PaymentMethod, int, error) {
	var out []PaymentMethod
	total, err := r.list(ctx, "payment_methods", paymentMethodColumns, q, []string{"name", "code"}, func(rows pgx.Rows) error {
		var p PaymentMethod
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, total, err
}

func (r *repository) GetPaymentMethod(ctx context.Context, id int64) (PaymentMethod, error) {
	var p PaymentMethod
	err := r.pool.QueryRow(ctx, `SELECT `+paymentMethodColumns+` FROM payment_methods WHERE id=$1`, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PaymentMethod{}, ErrNotFound
	}
	return p, err
}

func (r *repository) CreatePaymentMethod(ctx context.Context, p *PaymentMethod) error {
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	err := r.pool.QueryRow(ctx, `INSERT INTO payment_methods
(code, name, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Code, p.Name, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	return mapPgError(err)
}

func (r *repository) UpdatePaymentMethod(ctx context.Context, p *PaymentMethod) error {
	p.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `UPDATE payment_methods SET code=$1, name=$2, updated_at=$3 WHERE id=$4`,
		p.Code, p.Name, p.UpdatedAt, p.ID)
	return rowsOrNotFound(tag, mapPgError(err))
}

func (r *repository) DeletePaymentMethod(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payment_methods WHERE id=$1`, id)
	return rowsOrNotFound(tag, mapPgError(err))
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func rowsOrNotFound(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: code or name already used", httpx.ErrDuplicate)
		case "23503":
			return ErrInUse
		}
	}
	return err
}
