package activity

import (
	"net/http"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Handler exposes the timeline over HTTP.
type Handler struct {
	Recorder *Recorder
}

type createRequest struct {
	OrganizationID string `json:"organizationId"`
	CustomerID     string `json:"customerId"`
	QuoteID        string `json:"quoteId"`
	Type           Type   `json:"type" validate:"required"`
	Content        string `json:"content" validate:"required"`
}

// List returns activities filtered by organizationId, customerId or quoteId.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Recorder == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "activity service not configured", nil)
		return
	}
	q := r.URL.Query()
	page, perPage := common.ParsePagination(r, 50)
	items, total, err := h.Recorder.List(r.Context(), Filter{
		OrganizationID: q.Get("organizationId"),
		CustomerID:     q.Get("customerId"),
		QuoteID:        q.Get("quoteId"),
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

// Create logs a manual note, call, email or meeting.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Recorder == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "activity service not configured", nil)
		return
	}
	var req createRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if !req.Type.Manual() {
		common.WriteError(w, common.Validation("request validation failed", map[string]string{"type": "must be one of: note call email meeting"}, nil))
		return
	}
	a, err := h.Recorder.Record(r.Context(), Activity{
		OrganizationID: req.OrganizationID,
		CustomerID:     req.CustomerID,
		QuoteID:        req.QuoteID,
		Type:           req.Type,
		Content:        req.Content,
	})
	if err != nil && a.ID == "" {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": a})
}
