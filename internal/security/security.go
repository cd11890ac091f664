// Package security holds the HTTP hardening middleware: response headers and
// request body limits.
package security

import (
	"net/http"
	"strconv"

	"github.com/noah-isme/quotex-api/internal/common"
)

// DefaultMaxBody caps JSON request bodies.
const DefaultMaxBody int64 = 1 << 20

// BodyLimit rejects request bodies larger than Max with 413.
type BodyLimit struct {
	Max int64
}

// Middleware rejects oversized bodies up front from Content-Length and wraps
// the rest in http.MaxBytesReader so chunked uploads are cut off too.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", map[string]any{"maxBytes": b.Max})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}

// Headers sets baseline security headers on every response.
type Headers struct {
	HSTS       bool
	HSTSMaxAge int
}

// Middleware attaches the headers. Responses carry customer pricing and are
// marked no-store.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Cache-Control", "no-store")
		if h.HSTS && r.TLS != nil {
			maxAge := h.HSTSMaxAge
			if maxAge <= 0 {
				maxAge = 31536000
			}
			headers.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(maxAge)+"; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
