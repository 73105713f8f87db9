package invoice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escale-marine/escale/internal/listquery"
	"github.com/escale-marine/escale/internal/money"
	"github.com/escale-marine/escale/internal/shared"
)

// HistoryPort records guarded status changes.
type HistoryPort interface {
	Record(ctx context.Context, entry shared.HistoryEntry) error
}

// CachePort invalidates dashboard caches after writes.
type CachePort interface {
	Bump(ctx context.Context) error
}

// ErrUnknownStatus is returned for a status value outside the enum.
var ErrUnknownStatus = errors.New("unknown invoice status")

// Service coordinates the invoice lifecycle.
type Service struct {
	repo    Repository
	history HistoryPort
	cache   CachePort
	logger  *slog.Logger
}

// NewService builds Service. history and cache may be nil.
func NewService(repo Repository, history HistoryPort, cache CachePort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, history: history, cache: cache, logger: logger}
}

// Create creates a draft invoice, deriving line amounts and totals.
func (s *Service) Create(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyInvoice
	}
	lines, totals, err := deriveLines(input.Lines, input.TaxRate)
	if err != nil {
		return nil, err
	}

	numero := input.Numero
	if numero == "" {
		numero, err = s.repo.GenerateNumero(ctx, input.IssueDate.Year())
		if err != nil {
			return nil, err
		}
	}

	inv := &Invoice{
		Numero:    numero,
		CompanyID: input.CompanyID,
		ShipID:    input.ShipID,
		IssueDate: input.IssueDate,
		DueDate:   input.DueDate,
		Lines:     lines,
		Subtotal:  totals.Subtotal,
		TaxRate:   input.TaxRate,
		TaxAmount: totals.Tax,
		Total:     totals.Total,
		Status:    StatusBrouillon,
		Active:    true,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.bump(ctx)
	return inv, nil
}

// Update replaces lines and recomputes totals. Only drafts are editable.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInvoiceInput) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusBrouillon {
		return nil, ErrNotEditable
	}
	if len(input.Lines) == 0 {
		return nil, ErrEmptyInvoice
	}
	lines, totals, err := deriveLines(input.Lines, input.TaxRate)
	if err != nil {
		return nil, err
	}

	inv.ShipID = input.ShipID
	inv.IssueDate = input.IssueDate
	inv.DueDate = input.DueDate
	inv.TaxRate = input.TaxRate
	inv.Lines = lines
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.Tax
	inv.Total = totals.Total
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	s.bump(ctx)
	return inv, nil
}

// Get loads an invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns invoices matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, f listquery.Filter) ([]Invoice, int, error) {
	return s.repo.List(ctx, f.Build())
}

// ChangeStatus applies a guarded status transition and records it.
func (s *Service) ChangeStatus(ctx context.Context, id int64, input ChangeStatusInput) (*Invoice, error) {
	if !input.Status.Valid() {
		return nil, ErrUnknownStatus
	}
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(inv.Status, input.Status) {
		return nil, &TransitionError{From: inv.Status, To: input.Status}
	}
	if err := s.repo.UpdateStatus(ctx, id, input.Status); err != nil {
		return nil, err
	}
	s.record(ctx, inv, input)
	inv.Status = input.Status
	s.bump(ctx)
	return inv, nil
}

// Issue moves a draft invoice to EMISE.
func (s *Service) Issue(ctx context.Context, id, actorID int64, note string) (*Invoice, error) {
	return s.ChangeStatus(ctx, id, ChangeStatusInput{Status: StatusEmise, ActorID: actorID, Note: note})
}

// MarkPaid moves an issued or overdue invoice to PAYEE.
func (s *Service) MarkPaid(ctx context.Context, id, actorID int64, note string) (*Invoice, error) {
	return s.ChangeStatus(ctx, id, ChangeStatusInput{Status: StatusPayee, ActorID: actorID, Note: note})
}

// Cancel moves an invoice to ANNULEE.
func (s *Service) Cancel(ctx context.Context, id, actorID int64, note string) (*Invoice, error) {
	return s.ChangeStatus(ctx, id, ChangeStatusInput{Status: StatusAnnulee, ActorID: actorID, Note: note})
}

// MarkOverdue transitions every issued invoice past due at now to EN_RETARD.
// It returns the number of invoices flagged.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.ListDueBefore(ctx, StatusEmise, dateOnly(now))
	if err != nil {
		return 0, err
	}
	flagged := 0
	for _, inv := range due {
		if !IsOverdue(inv, now) {
			continue
		}
		if _, err := s.ChangeStatus(ctx, inv.ID, ChangeStatusInput{
			Status: StatusEnRetard,
			Note:   "flagged by overdue scan",
		}); err != nil {
			s.logger.Error("mark invoice overdue", slog.Int64("invoice_id", inv.ID), slog.Any("error", err))
			continue
		}
		flagged++
	}
	return flagged, nil
}

// OverdueInvoice pairs an overdue invoice with how late it is.
type OverdueInvoice struct {
	Invoice
	DaysOverdue int `json:"days_overdue"`
}

// ListOverdue returns invoices currently past due, most overdue first.
func (s *Service) ListOverdue(ctx context.Context, now time.Time) ([]OverdueInvoice, error) {
	var out []OverdueInvoice
	for _, status := range []Status{StatusEmise, StatusEnRetard} {
		due, err := s.repo.ListDueBefore(ctx, status, dateOnly(now))
		if err != nil {
			return nil, err
		}
		for _, inv := range due {
			if !IsOverdue(inv, now) {
				continue
			}
			out = append(out, OverdueInvoice{Invoice: inv, DaysOverdue: DaysOverdue(inv, now)})
		}
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, inv *Invoice, input ChangeStatusInput) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, shared.HistoryEntry{
		Entity: "invoice",
		RefID:  inv.ID,
		From:   string(inv.Status),
		To:     string(input.Status),
		Actor:  input.ActorID,
		Note:   input.Note,
	})
	if err != nil {
		s.logger.Warn("record invoice history", slog.Any("error", err))
	}
}

func (s *Service) bump(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump dashboard cache", slog.Any("error", err))
	}
}

func deriveLines(inputs []CreateLineInput, taxRate decimal.Decimal) ([]Line, money.Totals, error) {
	lines := make([]Line, 0, len(inputs))
	moneyLines := make([]money.LineInput, 0, len(inputs))
	for _, in := range inputs {
		mi := money.LineInput{
			Quantity:     in.Quantity,
			UnitPriceXOF: in.UnitPriceXOF,
			UnitPriceEUR: in.UnitPriceEUR,
		}
		amount, err := money.ComputeLineAmount(mi)
		if err != nil {
			return nil, money.Totals{}, err
		}
		moneyLines = append(moneyLines, mi)
		lines = append(lines, Line{
			OperationID:  in.OperationID,
			Description:  in.Description,
			Quantity:     in.Quantity,
			UnitPriceXOF: in.UnitPriceXOF,
			UnitPriceEUR: in.UnitPriceEUR,
			AmountXOF:    amount.AmountXOF,
			AmountEUR:    amount.AmountEUR,
		})
	}
	totals, err := money.ComputeInvoiceTotals(moneyLines, taxRate)
	if err != nil {
		return nil, money.Totals{}, err
	}
	return lines, totals, nil
}
