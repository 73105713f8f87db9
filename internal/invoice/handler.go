package invoice

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/escale-marine/escale/internal/listquery"
	"github.com/escale-marine/escale/internal/money"
	"github.com/escale-marine/escale/internal/platform/httpx"
	"github.com/escale-marine/escale/internal/shared"
)

// Handler wires invoice HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	history  *shared.HistoryRecorder
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, history *shared.HistoryRecorder) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		history:  history,
		validate: validator.New(),
	}
}

// MountRoutes registers invoice routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/overdue", h.listOverdue)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Post("/{id}/status", h.changeStatus)
	r.Post("/{id}/issue", h.action(StatusEmise))
	r.Post("/{id}/pay", h.action(StatusPayee))
	r.Post("/{id}/cancel", h.action(StatusAnnulee))
	r.Get("/{id}/history", h.listHistory)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := listquery.Parse(r.URL.Query())
	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	q := filter.Build()
	httpx.JSON(w, http.StatusOK, shared.NewPage(items, total, q.Page, q.Size))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInvoiceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	inv, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var input UpdateInvoiceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	inv, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var input ChangeStatusInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	inv, err := h.service.ChangeStatus(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// actionInput carries the optional audit fields of the shortcut endpoints.
type actionInput struct {
	ActorID int64  `json:"actor_id"`
	Note    string `json:"note"`
}

func (h *Handler) action(target Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.parseID(w, r)
		if !ok {
			return
		}
		var input actionInput
		if r.ContentLength > 0 {
			if err := httpx.DecodeJSON(r, &input); err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
				return
			}
		}
		inv, err := h.service.ChangeStatus(r.Context(), id, ChangeStatusInput{
			Status:  target,
			ActorID: input.ActorID,
			Note:    input.Note,
		})
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, inv)
	}
}

func (h *Handler) listOverdue(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListOverdue(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("list overdue invoices", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	if items == nil {
		items = []OverdueInvoice{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	entries, err := h.history.List(r.Context(), "invoice", id)
	if err != nil {
		h.logger.Error("list invoice history", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	if entries == nil {
		entries = []shared.HistoryEntry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "invoice id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *money.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrNotEditable):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrUnknownStatus), errors.Is(err, ErrEmptyInvoice):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &verr):
		httpx.JSON(w, http.StatusBadRequest, httpx.ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: verr.Reason,
			Field:  verr.Field,
		})
	default:
		httpx.RespondError(w, err)
	}
}
