package report

import (
	"net/http"
	"time"

	"github.com/noah-isme/quotex-api/internal/common"
)

// Handler exposes the dashboard read endpoints.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Svc == nil || h.Svc.Quotes == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "report service not configured", nil)
		return false
	}
	return true
}

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	d, err := h.Svc.Dashboard(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// Series handles GET /dashboard/series with either from/to (RFC3339) or a
// trailing window in days.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	query := r.URL.Query()
	fromStr, toStr := query.Get("from"), query.Get("to")
	var (
		from, to time.Time
		err      error
	)
	if fromStr != "" && toStr != "" {
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid from date", nil)
			return
		}
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid to date", nil)
			return
		}
	} else {
		days := h.Svc.DefaultRange
		if days <= 0 {
			days = 30
		}
		if parsed := common.AtoiDefault(query.Get("days"), days); parsed > 0 && parsed <= 366 {
			days = parsed
		}
		to = h.Svc.now().UTC()
		from = to.AddDate(0, 0, -days)
	}
	if !from.Before(to) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "from must be before to", nil)
		return
	}
	points, err := h.Svc.Series(r.Context(), from, to)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": points})
}
