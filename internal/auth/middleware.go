package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/quotex-api/internal/common"
)

var errNoToken = errors.New("auth: token missing")

// Middleware puts the operator identity on request contexts.
type Middleware struct {
	Service *Service
	// Public lists method+path prefixes, e.g. "GET /api/v1/catalog", that
	// RequireAuth lets through without a token.
	Public []string
}

func (m Middleware) public(r *http.Request) bool {
	for _, p := range m.Public {
		method, prefix, ok := strings.Cut(p, " ")
		if !ok {
			prefix, method = method, ""
		}
		if method != "" && method != r.Method {
			continue
		}
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// Authenticate attaches the subject when a valid token is present and
// otherwise passes the request through untouched.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticateRequest(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests without a valid token unless the route is
// public.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticateRequest(r)
		if err == nil {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		if m.public(r) {
			next.ServeHTTP(w, r)
			return
		}
		var appErr *common.AppError
		if !errors.Is(err, errNoToken) && errors.As(err, &appErr) {
			common.JSONError(w, http.StatusUnauthorized, appErr.Code, appErr.Message, nil)
			return
		}
		w.Header().Set("WWW-Authenticate", `Bearer realm="quotex"`)
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
	})
}

func (m Middleware) authenticateRequest(r *http.Request) (context.Context, error) {
	if m.Service == nil {
		return r.Context(), errors.New("auth: service not configured")
	}
	token := bearerToken(r)
	if token == "" {
		return r.Context(), errNoToken
	}
	subject, err := m.Service.ParseAccessToken(token)
	if err != nil {
		return r.Context(), err
	}
	return common.WithUserID(r.Context(), subject), nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
