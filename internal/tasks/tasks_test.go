package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/inventory"
	"github.com/noah-isme/quotex-api/internal/lock"
	"github.com/noah-isme/quotex-api/internal/tasks"
)

type quoteExpirer struct {
	calls int
	at    time.Time
}

func (q *quoteExpirer) ExpireOverdue(_ context.Context, now time.Time) (int, error) {
	q.calls++
	q.at = now
	return 2, nil
}

type invoiceSweeper struct{ err error }

func (i invoiceSweeper) MarkOverdue(context.Context, time.Time) (int, error) { return 0, i.err }

type stock struct{}

func (stock) Reorder(context.Context) ([]inventory.Item, error) {
	return []inventory.Item{{SKU: "BASE-X", Quantity: 1, ReorderPoint: 5}}, nil
}

func newSweeper(t *testing.T) (*tasks.Sweeper, *quoteExpirer, lock.Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := lock.Locker{R: client}
	quotes := &quoteExpirer{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &tasks.Sweeper{
		Quotes:   quotes,
		Invoices: invoiceSweeper{},
		Stock:    stock{},
		Locker:   locker,
		Log:      zerolog.Nop(),
		Now:      func() time.Time { return now },
	}, quotes, locker
}

func TestRunSweeps(t *testing.T) {
	s, quotes, _ := newSweeper(t)
	ctx := context.Background()

	res, err := s.Run(ctx, tasks.TypeQuoteExpire)
	require.NoError(t, err)
	require.Equal(t, tasks.Result{Kind: tasks.TypeQuoteExpire, Status: tasks.StatusOK, Records: 2}, res)
	require.Equal(t, 1, quotes.calls)
	require.Equal(t, 2026, quotes.at.Year())

	res, err = s.Run(ctx, tasks.TypeInventoryLowStock)
	require.NoError(t, err)
	require.Equal(t, 1, res.Records)

	_, err = s.Run(ctx, "bogus")
	require.Error(t, err)
}

func TestRunSkipsWhenLocked(t *testing.T) {
	s, quotes, locker := newSweeper(t)
	ctx := context.Background()

	err := locker.WithLock(ctx, "lock:sweep:"+tasks.TypeQuoteExpire, time.Minute, func(ctx context.Context) error {
		res, err := s.Run(ctx, tasks.TypeQuoteExpire)
		require.NoError(t, err)
		require.Equal(t, tasks.StatusSkipped, res.Status)
		return nil
	})
	require.NoError(t, err)
	require.Zero(t, quotes.calls)
}

func TestRunReportsFailure(t *testing.T) {
	s, _, _ := newSweeper(t)
	s.Invoices = invoiceSweeper{err: errors.New("boom")}
	res, err := s.Run(context.Background(), tasks.TypeInvoiceOverdue)
	require.Error(t, err)
	require.Equal(t, tasks.StatusFailed, res.Status)
}

func TestProcessTask(t *testing.T) {
	s, quotes, _ := newSweeper(t)
	task, err := tasks.NewTask(tasks.TypeQuoteExpire, "ops@example.com", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.ProcessTask(context.Background(), task))
	require.Equal(t, 1, quotes.calls)

	bad := asynq.NewTask(tasks.TypeQuoteExpire, []byte("{"))
	err = s.ProcessTask(context.Background(), bad)
	require.ErrorIs(t, err, asynq.SkipRetry)

	_, err = tasks.NewTask("nope", "", time.Now())
	require.Error(t, err)
}

type fakeQueue struct{ got []*asynq.Task }

func (f *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.got = append(f.got, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: "default", Type: task.Type()}, nil
}

func TestAdminTrigger(t *testing.T) {
	s, quotes, _ := newSweeper(t)
	queue := &fakeQueue{}
	h := &tasks.AdminHandler{Queue: queue, Sweeper: s}
	r := chi.NewRouter()
	r.Post("/admin/sweeps/{kind}", h.Trigger)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/sweeps/quote:expire", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, queue.got, 1)
	require.Equal(t, tasks.TypeQuoteExpire, queue.got[0].Type())
	var payload tasks.Payload
	require.NoError(t, json.Unmarshal(queue.got[0].Payload(), &payload))
	require.Equal(t, "system", payload.RequestedBy)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/sweeps/quote:expire?sync=true", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, quotes.calls)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/sweeps/everything", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
