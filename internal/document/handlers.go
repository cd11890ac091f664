package document

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/quote"
	"github.com/noah-isme/quotex-api/internal/settings"
)

// Quotes loads quotes to render.
type Quotes interface {
	Get(ctx context.Context, id string) (quote.Quote, error)
}

// Settings supplies the letterhead and display preferences.
type Settings interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Handler serves rendered quote documents.
type Handler struct {
	Quotes   Quotes
	Settings Settings
	Catalog  pricing.Catalog
}

const (
	pdfType  = "application/pdf"
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// PDF handles GET /quotes/{id}/document.pdf.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pdf", pdfType, RenderPDF)
}

// XLSX handles GET /quotes/{id}/document.xlsx.
func (h *Handler) XLSX(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "xlsx", xlsxType, RenderXLSX)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, ext, contentType string, fn func(QuoteDocument) ([]byte, error)) {
	if h.Quotes == nil || h.Settings == nil || h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "document service not configured", nil)
		return
	}
	q, err := h.Quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	st, err := h.Settings.Get(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	body, err := fn(Build(q, st, h.Catalog))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Content-Disposition", common.ContentDisposition(q.QuoteNumber+"."+ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
