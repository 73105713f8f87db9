package masterdata

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/escale-marine/escale/internal/listquery"
	"github.com/escale-marine/escale/internal/money"
)

type memoryMasterdataRepo struct {
	companies  map[int64]Company
	ships      map[int64]Ship
	operations map[int64]Operation
	categories map[int64]Category
	suppliers  map[int64]Supplier
	paymethods map[int64]PaymentMethod
	nextID     int64
}

func newMemoryMasterdataRepo() *memoryMasterdataRepo {
	return &memoryMasterdataRepo{
		companies:  map[int64]Company{},
		ships:      map[int64]Ship{},
		operations: map[int64]Operation{},
		categories: map[int64]Category{},
		suppliers:  map[int64]Supplier{},
		paymethods: map[int64]PaymentMethod{},
		nextID:     1,
	}
}

func (m *memoryMasterdataRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memoryMasterdataRepo) ListCompanies(_ context.Context, _ listquery.Query) ([]Company, int, error) {
	var out []Company
	for _, c := range m.companies {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memoryMasterdataRepo) GetCompany(_ context.Context, id int64) (Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryMasterdataRepo) CreateCompany(_ context.Context, c *Company) error {
	c.ID = m.id()
	m.companies[c.ID] = *c
	return nil
}

func (m *memoryMasterdataRepo) UpdateCompany(_ context.Context, c *Company) error {
	if _, ok := m.companies[c.ID]; !ok {
		return ErrNotFound
	}
	m.companies[c.ID] = *c
	return nil
}

func (m *memoryMasterdataRepo) SetCompanyActive(_ context.Context, id int64, active bool) error {
	c, ok := m.companies[id]
	if !ok {
		return ErrNotFound
	}
	c.Active = active
	m.companies[id] = c
	return nil
}

func (m *memoryMasterdataRepo) ListShips(_ context.Context, _ listquery.Query) ([]Ship, int, error) {
	var out []Ship
	for _, s := range m.ships {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *memoryMasterdataRepo) GetShip(_ context.Context, id int64) (Ship, error) {
	s, ok := m.ships[id]
	if !ok {
		return Ship{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryMasterdataRepo) CreateShip(_ context.Context, s *Ship) error {
	s.ID = m.id()
	m.ships[s.ID] = *s
	return nil
}

func (m *memoryMasterdataRepo) UpdateShip(_ context.Context, s *Ship) error {
	if _, ok := m.ships[s.ID]; !ok {
		return ErrNotFound
	}
	m.ships[s.ID] = *s
	return nil
}

func (m *memoryMasterdataRepo) SetShipActive(_ context.Context, id int64, active bool) error {
	s, ok := m.ships[id]
	if !ok {
		return ErrNotFound
	}
	s.Active = active
	m.ships[id] = s
	return nil
}

func (m *memoryMasterdataRepo) ListOperations(_ context.Context, _ listquery.Query) ([]Operation, int, error) {
	var out []Operation
	for _, op := range m.operations {
		out = append(out, op)
	}
	return out, len(out), nil
}

func (m *memoryMasterdataRepo) GetOperation(_ context.Context, id int64) (Operation, error) {
	op, ok := m.operations[id]
	if !ok {
		return Operation{}, ErrNotFound
	}
	return op, nil
}

func (m *memoryMasterdataRepo) CreateOperation(_ context.Context, op *Operation) error {
	op.ID = m.id()
	m.operations[op.ID] = *op
	return nil
}

func (m *memoryMasterdataRepo) UpdateOperation(_ context.Context, op *Operation) error {
	if _, ok := m.operations[op.ID]; !ok {
		return ErrNotFound
	}
	m.operations[op.ID] = *op
	return nil
}

func (m *memoryMasterdataRepo) SetOperationActive(_ context.Context, id int64, active bool) error {
	op, ok := m.operations[id]
	if !ok {
		return ErrNotFound
	}
	op.Active = active
	m.operations[id] = op
	return nil
}

func (m *memoryMasterdataRepo) ListOperationPrices(_ context.Context) ([]money.OperationPrice, error) {
	var prices []money.OperationPrice
	for _, op := range m.operations {
		if op.Active && op.PriceEUR != nil {
			prices = append(prices, money.OperationPrice{PriceXOF: op.PriceXOF, PriceEUR: op.PriceEUR})
		}
	}
	return prices, nil
}

func (m *memoryMasterdataRepo) ListCategories(_ context.Context, _ listquery.Query) ([]Category, int, error) {
	var out []Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memoryMasterdataRepo) GetCategory(_ context.Context, id int64) (Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryMasterdataRepo) CreateCategory(_ context.Context, c *Category) error {
	c.ID = m.id()
	m.categories[c.ID] = *c
	return nil
}

func (m *memoryMasterdataRepo) UpdateCategory(_ context.Context, c *Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return ErrNotFound
	}
	m.categories[c.ID] = *c
	return nil
}

func (m *memoryMasterdataRepo) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memoryMasterdataRepo) ListSuppliers(_ context.Context, _ listquery.Query) ([]Supplier, int, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *memoryMasterdataRepo) GetSupplier(_ context.Context, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return Supplier{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryMasterdataRepo) CreateSupplier(_ context.Context, s *Supplier) error {
	s.ID = m.id()
	m.suppliers[s.ID] = *s
	return nil
}

func (m *memoryMasterdataRepo) UpdateSupplier(_ context.Context, s *Supplier) error {
	if _, ok := m.suppliers[s.ID]; !ok {
		return ErrNotFound
	}
	m.suppliers[s.ID] = *s
	return nil
}

func (m *memoryMasterdataRepo) SetSupplierActive(_ context.Context, id int64, active bool) error {
	s, ok := m.suppliers[id]
	if !ok {
		return ErrNotFound
	}
	s.Active = active
	m.suppliers[id] = s
	return nil
}

func (m *memoryMasterdataRepo) ListPaymentMethods(_ context.Context, _ listquery.Query) ([]PaymentMethod, int, error) {
	var out []PaymentMethod
	for _, p := range m.paymethods {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryMasterdataRepo) GetPaymentMethod(_ context.Context, id int64) (PaymentMethod, error) {
	p, ok := m.paymethods[id]
	if !ok {
		return PaymentMethod{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryMasterdataRepo) CreatePaymentMethod(_ context.Context, p *PaymentMethod) error {
	p.ID = m.id()
	m.paymethods[p.ID] = *p
	return nil
}

func (m *memoryMasterdataRepo) UpdatePaymentMethod(_ context.Context, p *PaymentMethod) error {
	if _, ok := m.paymethods[p.ID]; !ok {
		return ErrNotFound
	}
	m.paymethods[p.ID] = *p
	return nil
}

func (m *memoryMasterdataRepo) DeletePaymentMethod(_ context.Context, id int64) error {
	if _, ok := m.paymethods[id]; !ok {
		return ErrNotFound
	}
	delete(m.paymethods, id)
	return nil
}

type countingRateCache struct {
	invalidations int
}

func (c *countingRateCache) Invalidate(_ context.Context) error {
	c.invalidations++
	return nil
}

func newMasterdataService(repo Repository, rateCache RateCachePort) *Service {
	return NewService(repo, nil, rateCache, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateShipRequiresCompany(t *testing.T) {
	repo := newMemoryMasterdataRepo()
	svc := newMasterdataService(repo, nil)
	ctx := context.Background()

	_, err := svc.CreateShip(ctx, ShipInput{CompanyID: 99, Name: "MV Teranga"})
	require.ErrorIs(t, err, ErrNotFound)

	c, err := svc.CreateCompany(ctx, CompanyInput{Name: "Sahel Shipping"})
	require.NoError(t, err)

	sh, err := svc.CreateShip(ctx, ShipInput{CompanyID: c.ID, Name: "MV Teranga", Flag: "SN"})
	require.NoError(t, err)
	require.True(t, sh.Active)
}

func TestCurrentRateDefaultsWithEmptyCatalogue(t *testing.T) {
	svc := newMasterdataService(newMemoryMasterdataRepo(), nil)

	rate, err := svc.CurrentRate(context.Background())
	require.NoError(t, err)
	require.True(t, rate.Equal(money.DefaultExchangeRate))
}

func TestCreateOperationDerivesEURPrice(t *testing.T) {
	repo := newMemoryMasterdataRepo()
	svc := newMasterdataService(repo, nil)
	ctx := context.Background()

	// Seed one operation priced in both currencies at exactly 656.
	eur := decimal.NewFromInt(1000)
	_, err := svc.CreateOperation(ctx, OperationInput{
		Code: "PIL", Name: "Pilotage", PriceXOF: 656000, PriceEUR: &eur,
	})
	require.NoError(t, err)

	op, err := svc.CreateOperation(ctx, OperationInput{
		Code: "REM", Name: "Remorquage", PriceXOF: 328000,
	})
	require.NoError(t, err)
	require.NotNil(t, op.PriceEUR)
	require.True(t, op.PriceEUR.Equal(decimal.NewFromInt(500)), "got %s", op.PriceEUR)
}

func TestOperationWritesInvalidateRateCache(t *testing.T) {
	repo := newMemoryMasterdataRepo()
	rateCache := &countingRateCache{}
	svc := newMasterdataService(repo, rateCache)
	ctx := context.Background()

	op, err := svc.CreateOperation(ctx, OperationInput{Code: "PIL", Name: "Pilotage", PriceXOF: 100000})
	require.NoError(t, err)
	require.Equal(t, 1, rateCache.invalidations)

	_, err = svc.UpdateOperation(ctx, op.ID, OperationInput{Code: "PIL", Name: "Pilotage", PriceXOF: 120000})
	require.NoError(t, err)
	require.Equal(t, 2, rateCache.invalidations)

	require.NoError(t, svc.SetOperationActive(ctx, op.ID, false))
	require.Equal(t, 3, rateCache.invalidations)
}

func TestCreateOperationRejectsNegativeEUR(t *testing.T) {
	svc := newMasterdataService(newMemoryMasterdataRepo(), nil)

	neg := decimal.NewFromInt(-5)
	_, err := svc.CreateOperation(context.Background(), OperationInput{
		Code: "PIL", Name: "Pilotage", PriceXOF: 1000, PriceEUR: &neg,
	})
	var verr *money.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "price_eur", verr.Field)
}

func TestCompanySoftDelete(t *testing.T) {
	repo := newMemoryMasterdataRepo()
	svc := newMasterdataService(repo, nil)
	ctx := context.Background()

	c, err := svc.CreateCompany(ctx, CompanyInput{Name: "Sahel Shipping"})
	require.NoError(t, err)

	require.NoError(t, svc.SetCompanyActive(ctx, c.ID, false))
	got, err := svc.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	require.NoError(t, svc.SetCompanyActive(ctx, c.ID, true))
	got, err = svc.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.Active)
}
