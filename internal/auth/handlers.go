package auth

import (
	"net/http"

	"github.com/noah-isme/quotex-api/internal/common"
)

// Handler exposes the token endpoint.
type Handler struct {
	Service *Service
}

type tokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Token handles POST /api/v1/auth/token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusNotFound, "AUTH_DISABLED", "authentication is not enabled", nil)
		return
	}
	var req tokenRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	tok, err := h.Service.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tok})
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, ok := common.UserID(r.Context())
	if !ok || subject == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"subject": subject}})
}
