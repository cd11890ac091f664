package invoice

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Handler exposes invoices over HTTP.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Svc == nil || h.Svc.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "invoice service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, status int) func(Invoice, error) {
	return func(inv Invoice, err error) {
		if err != nil {
			common.WriteError(w, err)
			return
		}
		common.JSON(w, status, map[string]any{"data": inv})
	}
}

// Convert handles POST /quotes/{id}/invoice.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.respond(w, http.StatusCreated)(h.Svc.ConvertFromQuote(r.Context(), chi.URLParam(r, "id")))
}

// List handles GET /invoices?status=&customerId=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var statuses []Status
	for _, raw := range common.SplitCSV(r.URL.Query().Get("status")) {
		statuses = append(statuses, Status(raw))
	}
	page, perPage := common.ParsePagination(r, 20)
	items, total, err := h.Svc.List(r.Context(), Filter{
		Statuses:   statuses,
		CustomerID: r.URL.Query().Get("customerId"),
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

// Get handles GET /invoices/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.respond(w, http.StatusOK)(h.Svc.Get(r.Context(), chi.URLParam(r, "id")))
}

// Send handles POST /invoices/{id}/send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.respond(w, http.StatusOK)(h.Svc.Send(r.Context(), chi.URLParam(r, "id")))
}

// Cancel handles POST /invoices/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.respond(w, http.StatusOK)(h.Svc.Cancel(r.Context(), chi.URLParam(r, "id")))
}

// Delete handles DELETE /invoices/{id}.
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

// RecordPayment handles POST /invoices/{id}/payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in PaymentInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	h.respond(w, http.StatusCreated)(h.Svc.RecordPayment(r.Context(), chi.URLParam(r, "id"), in))
}
