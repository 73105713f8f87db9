package invoice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/escale-marine/escale/internal/listquery"
	"github.com/escale-marine/escale/internal/shared"
)

type memoryInvoiceRepo struct {
	invoices map[int64]*Invoice
	nextID   int64
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{invoices: map[int64]*Invoice{}, nextID: 1}
}

func (m *memoryInvoiceRepo) Create(_ context.Context, inv *Invoice) error {
	inv.ID = m.nextID
	m.nextID++
	cp := *inv
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *memoryInvoiceRepo) Update(_ context.Context, inv *Invoice) error {
	if _, ok := m.invoices[inv.ID]; !ok {
		return ErrNotFound
	}
	cp := *inv
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *memoryInvoiceRepo) Get(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *memoryInvoiceRepo) List(_ context.Context, q listquery.Query) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if q.Status != "" && string(inv.Status) != q.Status {
			continue
		}
		if q.CompanyID > 0 && inv.CompanyID != q.CompanyID {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (m *memoryInvoiceRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	inv, ok := m.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Status = status
	return nil
}

func (m *memoryInvoiceRepo) ListDueBefore(_ context.Context, status Status, cutoff time.Time) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.Status == status && inv.DueDate.Before(cutoff) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memoryInvoiceRepo) GenerateNumero(_ context.Context, year int) (string, error) {
	seq := 1
	prefix := fmt.Sprintf("FAC-%d-", year)
	for _, inv := range m.invoices {
		if len(inv.Numero) >= len(prefix) && inv.Numero[:len(prefix)] == prefix {
			seq++
		}
	}
	return fmt.Sprintf("FAC-%d-%04d", year, seq), nil
}

type memoryHistory struct {
	entries []shared.HistoryEntry
}

func (m *memoryHistory) Record(_ context.Context, entry shared.HistoryEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func newTestService(repo Repository, history HistoryPort) *Service {
	return NewService(repo, history, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func draftInput() CreateInvoiceInput {
	return CreateInvoiceInput{
		CompanyID: 1,
		IssueDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		TaxRate:   decimal.NewFromInt(18),
		Lines: []CreateLineInput{
			{OperationID: 1, Description: "Pilotage", Quantity: decimal.NewFromInt(2), UnitPriceXOF: 75000},
		},
	}
}

func TestCreateDerivesTotals(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := newTestService(repo, nil)

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)

	require.Equal(t, StatusBrouillon, inv.Status)
	require.Equal(t, "FAC-2025-0001", inv.Numero)
	require.Equal(t, int64(150000), inv.Subtotal)
	require.Equal(t, int64(27000), inv.TaxAmount)
	require.Equal(t, int64(177000), inv.Total)
	require.Len(t, inv.Lines, 1)
	require.Equal(t, int64(150000), inv.Lines[0].AmountXOF)
}

func TestCreateNumeroSequence(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, draftInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, draftInput())
	require.NoError(t, err)

	require.Equal(t, "FAC-2025-0001", first.Numero)
	require.Equal(t, "FAC-2025-0002", second.Numero)
}

func TestCreateRejectsEmptyLines(t *testing.T) {
	svc := newTestService(newMemoryInvoiceRepo(), nil)
	input := draftInput()
	input.Lines = nil

	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, ErrEmptyInvoice)
}

func TestUpdateOnlyDraft(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	inv, err := svc.Create(ctx, draftInput())
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, inv.ID, ChangeStatusInput{Status: StatusEmise})
	require.NoError(t, err)

	_, err = svc.Update(ctx, inv.ID, UpdateInvoiceInput{
		IssueDate: inv.IssueDate,
		DueDate:   inv.DueDate,
		TaxRate:   inv.TaxRate,
		Lines: []CreateLineInput{
			{OperationID: 1, Quantity: decimal.NewFromInt(1), UnitPriceXOF: 10000},
		},
	})
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestChangeStatusGuarded(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	history := &memoryHistory{}
	svc := newTestService(repo, history)
	ctx := context.Background()

	inv, err := svc.Create(ctx, draftInput())
	require.NoError(t, err)

	// Draft cannot be paid directly.
	_, err = svc.ChangeStatus(ctx, inv.ID, ChangeStatusInput{Status: StatusPayee})
	require.ErrorIs(t, err, ErrIllegalTransition)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, StatusBrouillon, terr.From)
	require.Equal(t, StatusPayee, terr.To)

	emitted, err := svc.ChangeStatus(ctx, inv.ID, ChangeStatusInput{Status: StatusEmise, ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, StatusEmise, emitted.Status)

	paid, err := svc.ChangeStatus(ctx, inv.ID, ChangeStatusInput{Status: StatusPayee, ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, StatusPayee, paid.Status)

	// PAYEE is terminal.
	_, err = svc.ChangeStatus(ctx, inv.ID, ChangeStatusInput{Status: StatusBrouillon})
	require.ErrorIs(t, err, ErrIllegalTransition)

	require.Len(t, history.entries, 2)
	require.Equal(t, "invoice", history.entries[0].Entity)
	require.Equal(t, string(StatusBrouillon), history.entries[0].From)
	require.Equal(t, string(StatusEmise), history.entries[0].To)
	require.Equal(t, int64(7), history.entries[0].Actor)
}

func TestChangeStatusUnknown(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	inv, err := svc.Create(ctx, draftInput())
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, inv.ID, ChangeStatusInput{Status: "PENDING"})
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestMarkOverdue(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	input := draftInput()
	input.DueDate = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	pastDue, err := svc.Create(ctx, input)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, pastDue.ID, ChangeStatusInput{Status: StatusEmise})
	require.NoError(t, err)

	notDue, err := svc.Create(ctx, draftInput())
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, notDue.ID, ChangeStatusInput{Status: StatusEmise})
	require.NoError(t, err)

	// Drafts are never scanned even when past due.
	draftLate := draftInput()
	draftLate.DueDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Create(ctx, draftLate)
	require.NoError(t, err)

	now := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	flagged, err := svc.MarkOverdue(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, flagged)

	got, err := svc.Get(ctx, pastDue.ID)
	require.NoError(t, err)
	require.Equal(t, StatusEnRetard, got.Status)

	still, err := svc.Get(ctx, notDue.ID)
	require.NoError(t, err)
	require.Equal(t, StatusEmise, still.Status)
}

func TestListOverdue(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	input := draftInput()
	input.DueDate = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	inv, err := svc.Create(ctx, input)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, inv.ID, ChangeStatusInput{Status: StatusEmise})
	require.NoError(t, err)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	overdue, err := svc.ListOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, inv.ID, overdue[0].ID)
	require.Equal(t, 5, overdue[0].DaysOverdue)
}
