package inventory

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Handler exposes inventory over HTTP.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Svc == nil || h.Svc.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "inventory service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, status int, it Item, err error) {
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, status, map[string]any{"data": it})
}

// List handles GET /inventory?category=&q=&lowStock=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	q := r.URL.Query()
	low, _ := strconv.ParseBool(q.Get("lowStock"))
	page, perPage := common.ParsePagination(r, 50)
	items, total, err := h.Svc.List(r.Context(), Filter{
		Category: Category(q.Get("category")),
		Query:    q.Get("q"),
		LowStock: low,
		Page:     store.NewPage(page, perPage),
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

// Summary handles GET /inventory/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sum, err := h.Svc.Summary(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sum})
}

// Create handles POST /inventory.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	it, err := h.Svc.Create(r.Context(), in)
	h.respond(w, http.StatusCreated, it, err)
}

// Get handles GET /inventory/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	it, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, http.StatusOK, it, err)
}

// Update handles PUT /inventory/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	it, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	h.respond(w, http.StatusOK, it, err)
}

// Delete handles DELETE /inventory/{id}.
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

type restockRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// Restock handles POST /inventory/{id}/restock. An empty body restocks the
// reorder quantity.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req restockRequest
	if r.ContentLength != 0 {
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(w, err)
			return
		}
	}
	it, err := h.Svc.Restock(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	h.respond(w, http.StatusOK, it, err)
}
