package masterdata

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/escale-marine/escale/internal/listquery"
	"github.com/escale-marine/escale/internal/money"
	"github.com/escale-marine/escale/internal/platform/httpx"
	"github.com/escale-marine/escale/internal/shared"
)

// Handler wires masterdata HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers all masterdata entity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Get("/", h.listCompanies)
		r.Post("/", h.createCompany)
		r.Get("/{id}", h.getCompany)
		r.Put("/{id}", h.updateCompany)
		r.Delete("/{id}", h.setActive(h.service.SetCompanyActive, false))
		r.Post("/{id}/restore", h.setActive(h.service.SetCompanyActive, true))
	})
	r.Route("/ships", func(r chi.Router) {
		r.Get("/", h.listShips)
		r.Post("/", h.createShip)
		r.Get("/{id}", h.getShip)
		r.Put("/{id}", h.updateShip)
		r.Delete("/{id}", h.setActive(h.service.SetShipActive, false))
		r.Post("/{id}/restore", h.setActive(h.service.SetShipActive, true))
	})
	r.Route("/operations", func(r chi.Router) {
		r.Get("/", h.listOperations)
		r.Post("/", h.createOperation)
		r.Get("/rate", h.currentRate)
		r.Get("/{id}", h.getOperation)
		r.Put("/{id}", h.updateOperation)
		r.Delete("/{id}", h.setActive(h.service.SetOperationActive, false))
		r.Post("/{id}/restore", h.setActive(h.service.SetOperationActive, true))
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Get("/{id}", h.getCategory)
		r.Put("/{id}", h.updateCategory)
		r.Delete("/{id}", h.deleteCategory)
	})
	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", h.listSuppliers)
		r.Post("/", h.createSupplier)
		r.Get("/{id}", h.getSupplier)
		r.Put("/{id}", h.updateSupplier)
		r.Delete("/{id}", h.setActive(h.service.SetSupplierActive, false))
		r.Post("/{id}/restore", h.setActive(h.service.SetSupplierActive, true))
	})
	r.Route("/payment-methods", func(r chi.Router) {
		r.Get("/", h.listPaymentMethods)
		r.Post("/", h.createPaymentMethod)
		r.Get("/{id}", h.getPaymentMethod)
		r.Put("/{id}", h.updatePaymentMethod)
		r.Delete("/{id}", h.deletePaymentMethod)
	})
}

// Companies

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	f := listquery.Parse(r.URL.Query())
	items, total, err := h.service.ListCompanies(r.Context(), f)
	if err != nil {
		h.logger.Error("list companies", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	respondPage(w, f, items, total)
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetCompany(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) createCompany(w http.ResponseWriter, r *http.Request) {
	var input CompanyInput
	if !h.decode(w, r, &input) {
		return
	}
	c, err := h.service.CreateCompany(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var input CompanyInput
	if !h.decode(w, r, &input) {
		return
	}
	c, err := h.service.UpdateCompany(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Ships

func (h *Handler) listShips(w http.ResponseWriter, r *http.Request) {
	f := listquery.Parse(r.URL.Query())
	items, total, err := h.service.ListShips(r.Context(), f)
	if err != nil {
		h.logger.Error("list ships", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	respondPage(w, f, items, total)
}

func (h *Handler) getShip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	s, err := h.service.GetShip(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) createShip(w http.ResponseWriter, r *http.Request) {
	var input ShipInput
	if !h.decode(w, r, &input) {
		return
	}
	s, err := h.service.CreateShip(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, s)
}

func (h *Handler) updateShip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var input ShipInput
	if !h.decode(w, r, &input) {
		return
	}
	s, err := h.service.UpdateShip(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

// Operations

func (h *Handler) listOperations(w http.ResponseWriter, r *http.Request) {
	f := listquery.Parse(r.URL.Query())
	items, total, err := h.service.ListOperations(r.Context(), f)
	if err != nil {
		h.logger.Error("list operations", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	respondPage(w, f, items, total)
}

func (h *Handler) getOperation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	op, err := h.service.GetOperation(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, op)
}

func (h *Handler) createOperation(w http.ResponseWriter, r *http.Request) {
	var input OperationInput
	if !h.decode(w, r, &input) {
		return
	}
	op, err := h.service.CreateOperation(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, op)
}

func (h *Handler) updateOperation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var input OperationInput
	if !h.decode(w, r, &input) {
		return
	}
	op, err := h.service.UpdateOperation(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, op)
}

func (h *Handler) currentRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.service.CurrentRate(r.Context())
	if err != nil {
		h.logger.Error("derive exchange rate", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"rate": rate.String()})
}

// Categories

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	f := listquery.Parse(r.URL.Query())
	items, total, err := h.service.ListCategories(r.Context(), f)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	respondPage(w, f, items, total)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var input LookupInput
	if !h.decode(w, r, &input) {
		return
	}
	c, err := h.service.CreateCategory(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var input LookupInput
	if !h.decode(w, r, &input) {
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Suppliers

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	f := listquery.Parse(r.URL.Query())
	items, total, err := h.service.ListSuppliers(r.Context(), f)
	if err != nil {
		h.logger.Error("list suppliers", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	respondPage(w, f, items, total)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	s, err := h.service.GetSupplier(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var input SupplierInput
	if !h.decode(w, r, &input) {
		return
	}
	s, err := h.service.CreateSupplier(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, s)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var input SupplierInput
	if !h.decode(w, r, &input) {
		return
	}
	s, err := h.service.UpdateSupplier(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

// Payment methods

func (h *Handler) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	f := listquery.Parse(r.URL.Query())
	items, total, err := h.service.ListPaymentMethods(r.Context(), f)
	if err != nil {
		h.logger.Error("list payment methods", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	respondPage(w, f, items, total)
}

func (h *Handler) getPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetPaymentMethod(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) createPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var input LookupInput
	if !h.decode(w, r, &input) {
		return
	}
	p, err := h.service.CreatePaymentMethod(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var input LookupInput
	if !h.decode(w, r, &input) {
		return
	}
	p, err := h.service.UpdatePaymentMethod(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePaymentMethod(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Shared helpers

// setActive flips an entity's soft-delete flag.
func (h *Handler) setActive(set func(context.Context, int64, bool) error, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.parseID(w, r)
		if !ok {
			return
		}
		if err := set(r.Context(), id, active); err != nil {
			h.respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := httpx.DecodeJSON(r, dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *money.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInUse):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
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

func respondPage[T any](w http.ResponseWriter, f listquery.Filter, items []T, total int) {
	q := f.Build()
	httpx.JSON(w, http.StatusOK, shared.NewPage(items, total, q.Page, q.Size))
}
