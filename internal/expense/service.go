package expense

import (
	"context"
	"errors"
	"log/slog"

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
var ErrUnknownStatus = errors.New("unknown expense status")

// Service coordinates the expense lifecycle.
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

// Create records a new expense in EN_ATTENTE. The EUR amount is derived from
// the exchange rate when absent.
func (s *Service) Create(ctx context.Context, input CreateExpenseInput) (*Expense, error) {
	amountEUR, rate, err := deriveAmounts(input.AmountXOF, input.AmountEUR, input.ExchangeRate)
	if err != nil {
		return nil, err
	}

	numero := input.Numero
	if numero == "" {
		numero, err = s.repo.GenerateNumero(ctx, input.ExpenseDate.Year())
		if err != nil {
			return nil, err
		}
	}

	e := &Expense{
		Numero:          numero,
		Title:           input.Title,
		Description:     input.Description,
		CategoryID:      input.CategoryID,
		SupplierID:      input.SupplierID,
		PaymentMethodID: input.PaymentMethodID,
		ExpenseDate:     input.ExpenseDate,
		AmountXOF:       input.AmountXOF,
		AmountEUR:       amountEUR,
		ExchangeRate:    rate,
		Currency:        money.XOF,
		Status:          StatusEnAttente,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.bump(ctx)
	return e, nil
}

// Update replaces the mutable fields. Only pending expenses are editable.
func (s *Service) Update(ctx context.Context, id int64, input UpdateExpenseInput) (*Expense, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusEnAttente {
		return nil, ErrNotEditable
	}
	amountEUR, rate, err := deriveAmounts(input.AmountXOF, input.AmountEUR, input.ExchangeRate)
	if err != nil {
		return nil, err
	}

	e.Title = input.Title
	e.Description = input.Description
	e.CategoryID = input.CategoryID
	e.SupplierID = input.SupplierID
	e.PaymentMethodID = input.PaymentMethodID
	e.ExpenseDate = input.ExpenseDate
	e.AmountXOF = input.AmountXOF
	e.AmountEUR = amountEUR
	e.ExchangeRate = rate
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.bump(ctx)
	return e, nil
}

// Get loads an expense.
func (s *Service) Get(ctx context.Context, id int64) (*Expense, error) {
	return s.repo.Get(ctx, id)
}

// List returns expenses matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, f listquery.Filter) ([]Expense, int, error) {
	return s.repo.List(ctx, f.Build())
}

// ChangeStatus applies a guarded status transition and records it.
func (s *Service) ChangeStatus(ctx context.Context, id int64, input ChangeStatusInput) (*Expense, error) {
	if !input.Status.Valid() {
		return nil, ErrUnknownStatus
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(e.Status, input.Status) {
		return nil, &TransitionError{From: e.Status, To: input.Status}
	}
	if err := s.repo.UpdateStatus(ctx, id, input.Status); err != nil {
		return nil, err
	}
	s.record(ctx, e, input)
	e.Status = input.Status
	s.bump(ctx)
	return e, nil
}

// Approve moves a pending expense to APPROUVEE.
func (s *Service) Approve(ctx context.Context, id, actorID int64, note string) (*Expense, error) {
	return s.ChangeStatus(ctx, id, ChangeStatusInput{Status: StatusApprouvee, ActorID: actorID, Note: note})
}

// Reject moves a pending expense to REJETEE.
func (s *Service) Reject(ctx context.Context, id, actorID int64, note string) (*Expense, error) {
	return s.ChangeStatus(ctx, id, ChangeStatusInput{Status: StatusRejetee, ActorID: actorID, Note: note})
}

// MarkPaid moves an approved expense to PAYEE.
func (s *Service) MarkPaid(ctx context.Context, id, actorID int64, note string) (*Expense, error) {
	return s.ChangeStatus(ctx, id, ChangeStatusInput{Status: StatusPayee, ActorID: actorID, Note: note})
}

// Reopen sends an expense back to EN_ATTENTE for correction.
func (s *Service) Reopen(ctx context.Context, id, actorID int64, note string) (*Expense, error) {
	return s.ChangeStatus(ctx, id, ChangeStatusInput{Status: StatusEnAttente, ActorID: actorID, Note: note})
}

func (s *Service) record(ctx context.Context, e *Expense, input ChangeStatusInput) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, shared.HistoryEntry{
		Entity: "expense",
		RefID:  e.ID,
		From:   string(e.Status),
		To:     string(input.Status),
		Actor:  input.ActorID,
		Note:   input.Note,
	})
	if err != nil {
		s.logger.Warn("record expense history", slog.Any("error", err))
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

// deriveAmounts validates the XOF amount and fills the EUR amount from the
// exchange rate when the caller did not supply one.
func deriveAmounts(amountXOF int64, amountEUR, rate *decimal.Decimal) (*decimal.Decimal, *decimal.Decimal, error) {
	if amountXOF < 0 {
		return nil, nil, &money.ValidationError{Field: "amount_xof", Reason: "must not be negative"}
	}
	if amountEUR != nil {
		if amountEUR.Sign() < 0 {
			return nil, nil, &money.ValidationError{Field: "amount_eur", Reason: "must not be negative"}
		}
		return amountEUR, rate, nil
	}
	effective := money.DefaultExchangeRate
	if rate != nil {
		effective = *rate
	}
	eur, err := money.Convert(decimal.NewFromInt(amountXOF), money.XOF, money.EUR, effective)
	if err != nil {
		return nil, nil, err
	}
	return &eur, &effective, nil
}
