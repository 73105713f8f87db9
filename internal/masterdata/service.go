package masterdata

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/escale-marine/escale/internal/listquery"
	"github.com/escale-marine/escale/internal/money"
)

// CachePort invalidates dashboard caches after writes.
type CachePort interface {
	Bump(ctx context.Context) error
}

// RateCachePort invalidates the derived exchange-rate cache when catalogue
// prices change.
type RateCachePort interface {
	Invalidate(ctx context.Context) error
}

// Service implements masterdata business rules on top of the repository.
type Service struct {
	repo      Repository
	cache     CachePort
	rateCache RateCachePort
	logger    *slog.Logger
}

// NewService builds Service. cache and rateCache may be nil.
func NewService(repo Repository, cache CachePort, rateCache RateCachePort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, rateCache: rateCache, logger: logger}
}

// CurrentRate derives the XOF per EUR rate from the operation catalogue.
func (s *Service) CurrentRate(ctx context.Context) (decimal.Decimal, error) {
	prices, err := s.repo.ListOperationPrices(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return money.DeriveRate(prices), nil
}

// Companies

func (s *Service) ListCompanies(ctx context.Context, f listquery.Filter) ([]Company, int, error) {
	return s.repo.ListCompanies(ctx, f.Build())
}

func (s *Service) GetCompany(ctx context.Context, id int64) (Company, error) {
	return s.repo.GetCompany(ctx, id)
}

func (s *Service) CreateCompany(ctx context.Context, input CompanyInput) (Company, error) {
	c := Company{
		Name:    input.Name,
		Contact: input.Contact,
		Phone:   input.Phone,
		Email:   input.Email,
		Address: input.Address,
		NINEA:   input.NINEA,
		Active:  true,
	}
	if err := s.repo.CreateCompany(ctx, &c); err != nil {
		return Company{}, err
	}
	return c, nil
}

func (s *Service) UpdateCompany(ctx context.Context, id int64, input CompanyInput) (Company, error) {
	c, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return Company{}, err
	}
	c.Name = input.Name
	c.Contact = input.Contact
	c.Phone = input.Phone
	c.Email = input.Email
	c.Address = input.Address
	c.NINEA = input.NINEA
	if err := s.repo.UpdateCompany(ctx, &c); err != nil {
		return Company{}, err
	}
	return c, nil
}

func (s *Service) SetCompanyActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetCompanyActive(ctx, id, active)
}

// Ships

func (s *Service) ListShips(ctx context.Context, f listquery.Filter) ([]Ship, int, error) {
	return s.repo.ListShips(ctx, f.Build())
}

func (s *Service) GetShip(ctx context.Context, id int64) (Ship, error) {
	return s.repo.GetShip(ctx, id)
}

func (s *Service) CreateShip(ctx context.Context, input ShipInput) (Ship, error) {
	if _, err := s.repo.GetCompany(ctx, input.CompanyID); err != nil {
		return Ship{}, err
	}
	sh := Ship{
		CompanyID: input.CompanyID,
		Name:      input.Name,
		IMO:       input.IMO,
		Flag:      input.Flag,
		Type:      input.Type,
		Active:    true,
	}
	if err := s.repo.CreateShip(ctx, &sh); err != nil {
		return Ship{}, err
	}
	return sh, nil
}

func (s *Service) UpdateShip(ctx context.Context, id int64, input ShipInput) (Ship, error) {
	sh, err := s.repo.GetShip(ctx, id)
	if err != nil {
		return Ship{}, err
	}
	if sh.CompanyID != input.CompanyID {
		if _, err := s.repo.GetCompany(ctx, input.CompanyID); err != nil {
			return Ship{}, err
		}
	}
	sh.CompanyID = input.CompanyID
	sh.Name = input.Name
	sh.IMO = input.IMO
	sh.Flag = input.Flag
	sh.Type = input.Type
	if err := s.repo.UpdateShip(ctx, &sh); err != nil {
		return Ship{}, err
	}
	return sh, nil
}

func (s *Service) SetShipActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetShipActive(ctx, id, active)
}

// Operations

func (s *Service) ListOperations(ctx context.Context, f listquery.Filter) ([]Operation, int, error) {
	return s.repo.ListOperations(ctx, f.Build())
}

func (s *Service) GetOperation(ctx context.Context, id int64) (Operation, error) {
	return s.repo.GetOperation(ctx, id)
}

// CreateOperation adds a catalogue entry. The EUR price is derived from the
// current exchange rate when absent.
func (s *Service) CreateOperation(ctx context.Context, input OperationInput) (Operation, error) {
	priceEUR, err := s.operationPriceEUR(ctx, input)
	if err != nil {
		return Operation{}, err
	}
	op := Operation{
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
		PriceXOF:    input.PriceXOF,
		PriceEUR:    priceEUR,
		Active:      true,
	}
	if err := s.repo.CreateOperation(ctx, &op); err != nil {
		return Operation{}, err
	}
	s.priceChanged(ctx)
	return op, nil
}

func (s *Service) UpdateOperation(ctx context.Context, id int64, input OperationInput) (Operation, error) {
	op, err := s.repo.GetOperation(ctx, id)
	if err != nil {
		return Operation{}, err
	}
	priceEUR, err := s.operationPriceEUR(ctx, input)
	if err != nil {
		return Operation{}, err
	}
	op.Code = input.Code
	op.Name = input.Name
	op.Description = input.Description
	op.PriceXOF = input.PriceXOF
	op.PriceEUR = priceEUR
	if err := s.repo.UpdateOperation(ctx, &op); err != nil {
		return Operation{}, err
	}
	s.priceChanged(ctx)
	return op, nil
}

func (s *Service) SetOperationActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetOperationActive(ctx, id, active); err != nil {
		return err
	}
	s.priceChanged(ctx)
	return nil
}

func (s *Service) operationPriceEUR(ctx context.Context, input OperationInput) (*decimal.Decimal, error) {
	if input.PriceEUR != nil {
		if input.PriceEUR.Sign() < 0 {
			return nil, &money.ValidationError{Field: "price_eur", Reason: "must not be negative"}
		}
		return input.PriceEUR, nil
	}
	rate, err := s.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}
	eur, err := money.Convert(decimal.NewFromInt(input.PriceXOF), money.XOF, money.EUR, rate)
	if err != nil {
		return nil, err
	}
	return &eur, nil
}

// priceChanged invalidates the derived-rate cache and the dashboard.
func (s *Service) priceChanged(ctx context.Context) {
	if s.rateCache != nil {
		if err := s.rateCache.Invalidate(ctx); err != nil {
			s.logger.Warn("invalidate rate cache", slog.Any("error", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump dashboard cache", slog.Any("error", err))
		}
	}
}

// Categories

func (s *Service) ListCategories(ctx context.Context, f listquery.Filter) ([]Category, int, error) {
	return s.repo.ListCategories(ctx, f.Build())
}

func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, input LookupInput) (Category, error) {
	c := Category{Code: input.Code, Name: input.Name}
	if err := s.repo.CreateCategory(ctx, &c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, input LookupInput) (Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}
	c.Code = input.Code
	c.Name = input.Name
	if err := s.repo.UpdateCategory(ctx, &c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

// Suppliers

func (s *Service) ListSuppliers(ctx context.Context, f listquery.Filter) ([]Supplier, int, error) {
	return s.repo.ListSuppliers(ctx, f.Build())
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) CreateSupplier(ctx context.Context, input SupplierInput) (Supplier, error) {
	sp := Supplier{
		Code:    input.Code,
		Name:    input.Name,
		Phone:   input.Phone,
		Email:   input.Email,
		Address: input.Address,
		Active:  true,
	}
	if err := s.repo.CreateSupplier(ctx, &sp); err != nil {
		return Supplier{}, err
	}
	return sp, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, input SupplierInput) (Supplier, error) {
	sp, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return Supplier{}, err
	}
	sp.Code = input.Code
	sp.Name = input.Name
	sp.Phone = input.Phone
	sp.Email = input.Email
	sp.Address = input.Address
	if err := s.repo.UpdateSupplier(ctx, &sp); err != nil {
		return Supplier{}, err
	}
	return sp, nil
}

func (s *Service) SetSupplierActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetSupplierActive(ctx, id, active)
}

// Payment methods

func (s *Service) ListPaymentMethods(ctx context.Context, f listquery.Filter) ([]PaymentMethod, int, error) {
	return s.repo.ListPaymentMethods(ctx, f.Build())
}

func (s *Service) GetPaymentMethod(ctx context.Context, id int64) (PaymentMethod, error) {
	return s.repo.GetPaymentMethod(ctx, id)
}

func (s *Service) CreatePaymentMethod(ctx context.Context, input LookupInput) (PaymentMethod, error) {
	p := PaymentMethod{Code: input.Code, Name: input.Name}
	if err := s.repo.CreatePaymentMethod(ctx, &p); err != nil {
		return PaymentMethod{}, err
	}
	return p, nil
}

func (s *Service) UpdatePaymentMethod(ctx context.Context, id int64, input LookupInput) (PaymentMethod, error) {
	p, err := s.repo.GetPaymentMethod(ctx, id)
	if err != nil {
		return PaymentMethod{}, err
	}
	p.Code = input.Code
	p.Name = input.Name
	if err := s.repo.UpdatePaymentMethod(ctx, &p); err != nil {
		return PaymentMethod{}, err
	}
	return p, nil
}

func (s *Service) DeletePaymentMethod(ctx context.Context, id int64) error {
	return s.repo.DeletePaymentMethod(ctx, id)
}
