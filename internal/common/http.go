package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address. chi's RealIP middleware has already
// folded X-Forwarded-For and X-Real-IP into RemoteAddr when it is mounted;
// the headers are consulted directly for handlers served without it.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// ContentDisposition builds an attachment header value for filename.
func ContentDisposition(filename string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, filename)
	return `attachment; filename="` + clean + `"`
}
