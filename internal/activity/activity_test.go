package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/activity"
	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/store/memory"
)

func TestRecordFillsDefaultsAndNotifies(t *testing.T) {
	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	var seen []activity.Type
	rec := &activity.Recorder{
		Store: memory.New(),
		Now:   func() time.Time { return at },
		Notifiers: []activity.Notifier{
			activity.NotifierFunc(func(_ context.Context, a activity.Activity) error {
				seen = append(seen, a.Type)
				return nil
			}),
			nil,
		},
	}
	ctx := common.WithUserID(context.Background(), "ops@quotex.test")

	a, err := rec.Record(ctx, activity.Activity{CustomerID: "c1", Type: activity.TypeCall, Content: "  Called about lead times "})
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	require.Equal(t, at, a.CreatedAt)
	require.Equal(t, "ops@quotex.test", a.CreatedBy)
	require.Equal(t, "Called about lead times", a.Content)
	require.Equal(t, []activity.Type{activity.TypeCall}, seen)
}

func TestRecordRejectsBadInput(t *testing.T) {
	rec := &activity.Recorder{Store: memory.New()}
	ctx := context.Background()

	_, err := rec.Record(ctx, activity.Activity{CustomerID: "c1", Type: "fax"})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "BAD_REQUEST", appErr.Code)

	_, err = rec.Record(ctx, activity.Activity{Type: activity.TypeNote, Content: "nobody"})
	require.True(t, errors.As(err, &appErr))
}

func TestNotifierErrorsAreReturnedAfterStore(t *testing.T) {
	st := memory.New()
	boom := errors.New("boom")
	rec := &activity.Recorder{
		Store:     st,
		Notifiers: []activity.Notifier{activity.NotifierFunc(func(context.Context, activity.Activity) error { return boom })},
	}
	a, err := rec.Record(context.Background(), activity.Activity{QuoteID: "q1", Type: activity.TypeNote, Content: "x"})
	require.ErrorIs(t, err, boom)
	require.NotEmpty(t, a.ID)

	items, total, err := rec.List(context.Background(), activity.Filter{QuoteID: "q1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, a.ID, items[0].ID)
}

func TestListNewestFirst(t *testing.T) {
	clock := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := &activity.Recorder{Store: memory.New(), Now: func() time.Time { return clock }}
	ctx := context.Background()
	for _, content := range []string{"first", "second", "third"} {
		_, err := rec.Record(ctx, activity.Activity{OrganizationID: "o1", Type: activity.TypeNote, Content: content})
		require.NoError(t, err)
		clock = clock.Add(time.Hour)
	}
	_, err := rec.Record(ctx, activity.Activity{OrganizationID: "o2", Type: activity.TypeNote, Content: "other"})
	require.NoError(t, err)

	items, total, err := rec.List(ctx, activity.Filter{OrganizationID: "o1"})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, "third", items[0].Content)
	require.Equal(t, "first", items[2].Content)
}

func TestManualTypes(t *testing.T) {
	require.True(t, activity.TypeMeeting.Manual())
	require.False(t, activity.TypeQuoteSent.Manual())
	require.False(t, activity.Type("fax").Manual())
}
