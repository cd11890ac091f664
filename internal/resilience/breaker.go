// Package resilience guards optional dependencies with a circuit breaker so
// a failing Redis degrades the API to uncached reads instead of slow ones.
package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/quotex-api/internal/obs"
)

// ErrOpen is returned by Do while the breaker refuses calls.
var ErrOpen = errors.New("resilience: circuit open")

// State is the breaker position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker opens once the failure ratio over at least MinCalls observations
// reaches Ratio, rejects calls for Cooldown, then lets one probe through.
type Breaker struct {
	Target   string
	MinCalls int
	Ratio    float64
	Cooldown time.Duration
	Log      zerolog.Logger
	Now      func() time.Time

	mu       sync.Mutex
	state    State
	ok, fail int
	openedAt time.Time
	probing  bool
}

// NewBreaker returns a breaker with the given thresholds. Zero values fall
// back to 5 calls, a 0.5 ratio and a 30s cooldown.
func NewBreaker(target string, minCalls int, ratio float64, cooldown time.Duration) *Breaker {
	return &Breaker{Target: strings.TrimSpace(target), MinCalls: minCalls, Ratio: ratio, Cooldown: cooldown}
}

func (b *Breaker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Breaker) limits() (int, float64, time.Duration) {
	minCalls, ratio, cooldown := b.MinCalls, b.Ratio, b.Cooldown
	if minCalls <= 0 {
		minCalls = 5
	}
	if ratio <= 0 || ratio > 1 {
		ratio = 0.5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return minCalls, ratio, cooldown
}

// State reports the current position.
func (b *Breaker) State() State {
	if b == nil {
		return Closed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed. After the cooldown a single
// half-open probe is admitted; further calls wait for its outcome.
func (b *Breaker) Allow(ctx context.Context) bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _, cooldown := b.limits()
	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < cooldown {
			return false
		}
		b.moveLocked(ctx, HalfOpen)
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// Report records a call outcome.
func (b *Breaker) Report(ctx context.Context, success bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		return
	case HalfOpen:
		b.probing = false
		if success {
			b.moveLocked(ctx, Closed)
		} else {
			b.moveLocked(ctx, Open)
		}
		return
	}

	if success {
		b.ok++
	} else {
		b.fail++
	}
	minCalls, ratio, _ := b.limits()
	total := b.ok + b.fail
	if total < minCalls {
		return
	}
	if float64(b.fail)/float64(total) >= ratio {
		b.moveLocked(ctx, Open)
		return
	}
	if total > minCalls*2 {
		// halve the window so old successes do not mask a new outage
		b.ok = (b.ok + 1) / 2
		b.fail = (b.fail + 1) / 2
	}
}

// Do runs fn when the breaker allows it and reports the outcome. Context
// cancellation by the caller is not counted as a failure.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.Allow(ctx) {
		return ErrOpen
	}
	err := fn(ctx)
	if b == nil {
		return err
	}
	if err != nil && ctx.Err() != nil {
		b.mu.Lock()
		b.probing = false
		b.mu.Unlock()
		return err
	}
	b.Report(ctx, err == nil)
	return err
}

func (b *Breaker) moveLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.ok, b.fail = 0, 0
	switch next {
	case Open:
		b.openedAt = b.now()
	case Closed:
		b.openedAt = time.Time{}
	}
	target := b.Target
	if target == "" {
		target = "default"
	}
	if obs.BreakerTransitionsTotal != nil {
		obs.BreakerTransitionsTotal.WithLabelValues(target, prev.String(), next.String()).Inc()
	}
	evt := b.Log.Warn()
	if next == Closed {
		evt = b.Log.Info()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Str("target", target).Str("from", prev.String()).Str("to", next.String()).Msg("breaker transition")
}
