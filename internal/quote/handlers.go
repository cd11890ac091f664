package quote

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Handler exposes quotes over HTTP.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Svc == nil || h.Svc.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return false
	}
	return true
}

// List handles GET /quotes?status=sent,viewed&customerId=&q=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	q := r.URL.Query()
	var statuses []Status
	for _, raw := range common.SplitCSV(q.Get("status")) {
		statuses = append(statuses, Status(raw))
	}
	page, perPage := common.ParsePagination(r, 20)
	items, total, err := h.Svc.List(r.Context(), Filter{
		Statuses:   statuses,
		CustomerID: q.Get("customerId"),
		Query:      q.Get("q"),
		Page:       store.NewPage(page, perPage),
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

// Create handles POST /quotes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CreateInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

// Get handles GET /quotes/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	out, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Update handles PATCH /quotes/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in UpdateInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	h.respond(w, http.StatusOK)(h.Svc.Update(r.Context(), chi.URLParam(r, "id"), in))
}

// Delete handles DELETE /quotes/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /quotes/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in ItemInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	h.respond(w, http.StatusCreated)(h.Svc.AddConfiguration(r.Context(), chi.URLParam(r, "id"), in))
}

// UpdateItem handles PATCH /quotes/{id}/items/{itemId}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var p LineItemPatch
	if err := common.DecodeJSON(r, &p); err != nil {
		common.WriteError(w, err)
		return
	}
	h.respond(w, http.StatusOK)(h.Svc.UpdateLineItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), p))
}

// RemoveItem handles DELETE /quotes/{id}/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.respond(w, http.StatusOK)(h.Svc.RemoveLineItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId")))
}

type discountRequest struct {
	Type  string          `json:"type" validate:"required,oneof=percentage fixed"`
	Value decimal.Decimal `json:"value"`
}

// SetDiscount handles PUT /quotes/{id}/discount.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req discountRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	d := pricing.Discount{Type: pricing.ParseDiscountType(req.Type), Value: req.Value}
	h.respond(w, http.StatusOK)(h.Svc.SetDiscount(r.Context(), chi.URLParam(r, "id"), d))
}

type taxRateRequest struct {
	TaxRate decimal.Decimal `json:"taxRate"`
}

// SetTaxRate handles PUT /quotes/{id}/tax-rate.
func (h *Handler) SetTaxRate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req taxRateRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	h.respond(w, http.StatusOK)(h.Svc.SetTaxRate(r.Context(), chi.URLParam(r, "id"), req.TaxRate))
}

// Transition handles POST /quotes/{id}/{action} for send, view, accept and
// reject.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	to, ok := ActionTarget(chi.URLParam(r, "action"))
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown quote action", nil)
		return
	}
	h.respond(w, http.StatusOK)(h.Svc.Transition(r.Context(), chi.URLParam(r, "id"), to))
}

func (h *Handler) respond(w http.ResponseWriter, status int) func(Quote, error) {
	return func(q Quote, err error) {
		if err != nil {
			common.WriteError(w, err)
			return
		}
		common.JSON(w, status, map[string]any{"data": q})
	}
}
