package configurator

import (
	"net/http"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/pricing"
)

// Handler exposes the configurator endpoints.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Svc == nil || h.Svc.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "configurator not configured", nil)
		return false
	}
	return true
}

type priceRequest struct {
	pricing.Configuration
	CustomerID string `json:"customerId"`
}

// Defaults handles GET /configurator/defaults.
func (h *Handler) Defaults(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	out, err := h.Svc.Defaults(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Price handles POST /configurator/price. Partial configurations are priced
// as they stand.
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req priceRequest
	if err := common.DecodeLenient(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Price(r.Context(), req.Configuration, req.CustomerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Validate handles POST /configurator/validate.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var cfg pricing.Configuration
	if err := common.DecodeLenient(r, &cfg); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Validate(cfg)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}
