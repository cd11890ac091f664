package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/quotex-api/internal/common"
)

// Handler serves the read-only catalog.
type Handler struct {
	Catalog *Catalog
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not loaded", nil)
		return false
	}
	return true
}

// All handles GET /catalog.
func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Catalog.Tables()})
}

// Bases handles GET /catalog/bases.
func (h *Handler) Bases(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Catalog.Bases()})
}

type baseDetail struct {
	BaseSeries
	Heights []HeightOption `json:"heights"`
}

// Base handles GET /catalog/bases/{id}. The response carries the full
// height option records the base offers.
func (h *Handler) Base(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	b, ok := h.Catalog.Base(chi.URLParam(r, "id"))
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "base series not found", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": baseDetail{BaseSeries: b, Heights: h.Catalog.HeightsFor(b)}})
}

// Accessories handles GET /catalog/accessories?category=.
func (h *Handler) Accessories(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	items := h.Catalog.Accessories()
	if category := r.URL.Query().Get("category"); category != "" {
		items = h.Catalog.AccessoriesByCategory(category)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}
