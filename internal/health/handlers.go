// Package health serves liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/noah-isme/quotex-api/internal/common"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the process readiness flag. Shutdown clears it so load
// balancers drain the instance before the server stops.
func SetReady(v bool) { ready.Store(v) }

// Probe checks one dependency.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(ctx context.Context) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes []Probe
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe and reports 503 when any fails or the process is
// draining.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.Probes)+1)
	healthy := ready.Load()
	if !healthy {
		status["process"] = "draining"
	}
	for _, p := range h.Probes {
		result := "ok"
		if err := run(r.Context(), p); err != nil {
			result = err.Error()
			healthy = false
		}
		status[p.Name] = result
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func run(ctx context.Context, p Probe) error {
	if p.Check == nil {
		return nil
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Check(ctx)
}

// Names lists the configured probe names, sorted.
func (h Handler) Names() []string {
	out := make([]string, 0, len(h.Probes))
	for _, p := range h.Probes {
		out = append(out, p.Name)
	}
	sort.Strings(out)
	return out
}
