package customer

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Handler exposes organizations and customers over HTTP.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Svc == nil || h.Svc.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "customer service not configured", nil)
		return false
	}
	return true
}

// ListOrganizations handles GET /organizations?q=&tier=.
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	items, total, err := h.Svc.ListOrganizations(r.Context(), OrganizationFilter{
		Query:       r.URL.Query().Get("q"),
		PricingTier: r.URL.Query().Get("tier"),
		Page:        store.NewPage(page, perPage),
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.NewPagination(page, perPage, total),
	})
}

// CreateOrganization handles POST /organizations.
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in OrganizationInput
	if err := common.DecodeLenient(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.CreateOrganization(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

// GetOrganization handles GET /organizations/{id}.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	o, err := h.Svc.GetOrganization(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// UpdateOrganization handles PUT /organizations/{id}.
func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in OrganizationInput
	if err := common.DecodeLenient(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.UpdateOrganization(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// DeleteOrganization handles DELETE /organizations/{id}.
func (h *Handler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.DeleteOrganization(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrganizationCustomers handles GET /organizations/{id}/customers.
func (h *Handler) OrganizationCustomers(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	items, err := h.Svc.ListCustomersByOrganization(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// ListCustomers handles GET /customers?organizationId=&q=.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	items, total, err := h.Svc.ListCustomers(r.Context(), CustomerFilter{
		OrganizationID: r.URL.Query().Get("organizationId"),
		Query:          r.URL.Query().Get("q"),
		Page:           store.NewPage(page, perPage),
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.NewPagination(page, perPage, total),
	})
}

// CreateCustomer handles POST /customers.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CustomerInput
	if err := common.DecodeLenient(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.CreateCustomer(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

// GetCustomer handles GET /customers/{id}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	c, err := h.Svc.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// UpdateCustomer handles PUT /customers/{id}.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CustomerInput
	if err := common.DecodeLenient(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// DeleteCustomer handles DELETE /customers/{id}.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tier handles GET /customers/{id}/tier?listPrice=. Without a list price only
// the discount percent is meaningful.
func (h *Handler) Tier(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.Svc.GetCustomer(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	list := decimal.Zero
	if raw := r.URL.Query().Get("listPrice"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid listPrice", nil)
			return
		}
		list = parsed
	}
	tq, err := h.Svc.QuoteUnitPrice(r.Context(), id, list)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tq})
}
