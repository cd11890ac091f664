// Package tasks defines the periodic maintenance sweeps and runs them on
// asynq. Every sweep holds a Redis lock so only one worker runs a kind at a
// time.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/quotex-api/internal/inventory"
	"github.com/noah-isme/quotex-api/internal/lock"
	"github.com/noah-isme/quotex-api/internal/obs"
)

// Task types.
const (
	TypeQuoteExpire       = "quote:expire"
	TypeInvoiceOverdue    = "invoice:overdue"
	TypeInventoryLowStock = "inventory:low-stock"
)

// Kinds lists every sweep type.
func Kinds() []string {
	return []string{TypeQuoteExpire, TypeInvoiceOverdue, TypeInventoryLowStock}
}

// Valid reports whether kind names a sweep.
func Valid(kind string) bool {
	for _, k := range Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// Payload travels with every sweep task.
type Payload struct {
	RequestedBy string    `json:"requestedBy,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

// NewTask builds a sweep task for kind.
func NewTask(kind, requestedBy string, at time.Time) (*asynq.Task, error) {
	if !Valid(kind) {
		return nil, fmt.Errorf("tasks: unknown sweep %q", kind)
	}
	raw, err := json.Marshal(Payload{RequestedBy: requestedBy, RequestedAt: at.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(kind, raw, asynq.MaxRetry(3), asynq.Timeout(5*time.Minute)), nil
}

// QuoteExpirer expires quotes past their validity date.
type QuoteExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

// InvoiceSweeper flags invoices past their due date.
type InvoiceSweeper interface {
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

// StockReporter lists items that need reordering.
type StockReporter interface {
	Reorder(ctx context.Context) ([]inventory.Item, error)
}

// Locker runs fn only if the lock is free.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Result summarises one sweep run.
type Result struct {
	Kind    string `json:"kind"`
	Status  string `json:"status"`
	Records int    `json:"records"`
}

// Sweep run statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Sweeper executes sweeps against the domain services.
type Sweeper struct {
	Quotes   QuoteExpirer
	Invoices InvoiceSweeper
	Stock    StockReporter
	Locker   Locker
	LockTTL  time.Duration
	Log      zerolog.Logger
	Now      func() time.Time
}

func (s *Sweeper) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run executes one sweep. A sweep already running elsewhere is reported as
// skipped, not failed.
func (s *Sweeper) Run(ctx context.Context, kind string) (Result, error) {
	if !Valid(kind) {
		return Result{}, fmt.Errorf("tasks: unknown sweep %q", kind)
	}
	ctx, span := otel.Tracer("tasks.Sweeper").Start(ctx, "Sweeper.Run")
	defer span.End()
	span.SetAttributes(attribute.String("sweep.kind", kind))

	res := Result{Kind: kind, Status: StatusOK}
	run := func(ctx context.Context) error {
		n, err := s.sweep(ctx, kind)
		res.Records = n
		return err
	}
	var err error
	if s.Locker == nil {
		err = run(ctx)
	} else {
		ttl := s.LockTTL
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		err = s.Locker.TryWithLock(ctx, "lock:sweep:"+kind, ttl, run)
	}
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		res.Status = StatusSkipped
		err = nil
	case err != nil:
		res.Status = StatusFailed
		span.RecordError(err)
	}

	obs.RecordSweep(ctx, kind, res.Status, res.Records)
	evt := s.Log.Info()
	if err != nil {
		evt = s.Log.Error().Err(err)
	}
	evt.Str("kind", kind).Str("status", res.Status).Int("records", res.Records).Msg("sweep finished")
	return res, err
}

func (s *Sweeper) sweep(ctx context.Context, kind string) (int, error) {
	now := s.now().UTC()
	switch kind {
	case TypeQuoteExpire:
		if s.Quotes == nil {
			return 0, errors.New("tasks: quote sweeper not configured")
		}
		return s.Quotes.ExpireOverdue(ctx, now)
	case TypeInvoiceOverdue:
		if s.Invoices == nil {
			return 0, errors.New("tasks: invoice sweeper not configured")
		}
		return s.Invoices.MarkOverdue(ctx, now)
	case TypeInventoryLowStock:
		if s.Stock == nil {
			return 0, errors.New("tasks: stock reporter not configured")
		}
		items, err := s.Stock.Reorder(ctx)
		if err != nil {
			return 0, err
		}
		for _, it := range items {
			s.Log.Warn().
				Str("sku", it.SKU).
				Int("quantity", it.Quantity).
				Int("reorder_point", it.ReorderPoint).
				Int("reorder_quantity", it.ReorderQuantity).
				Msg("inventory below reorder point")
		}
		return len(items), nil
	}
	return 0, fmt.Errorf("tasks: unknown sweep %q", kind)
}

// ProcessTask implements asynq.Handler.
func (s *Sweeper) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p Payload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("tasks: decode payload: %w: %w", err, asynq.SkipRetry)
		}
	}
	if p.RequestedBy != "" {
		s.Log.Debug().Str("kind", t.Type()).Str("requested_by", p.RequestedBy).Msg("manual sweep")
	}
	_, err := s.Run(ctx, t.Type())
	return err
}

// Mux routes every sweep type to the sweeper.
func (s *Sweeper) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, kind := range Kinds() {
		mux.Handle(kind, s)
	}
	return mux
}

// Schedule registers the cron specs with the scheduler. Kinds with an empty
// spec are not scheduled.
func Schedule(sched *asynq.Scheduler, specs map[string]string) error {
	for _, kind := range Kinds() {
		spec := specs[kind]
		if spec == "" {
			continue
		}
		task, err := NewTask(kind, "scheduler", time.Now())
		if err != nil {
			return err
		}
		if _, err := sched.Register(spec, task, asynq.Unique(time.Minute)); err != nil {
			return fmt.Errorf("tasks: schedule %s: %w", kind, err)
		}
	}
	return nil
}
