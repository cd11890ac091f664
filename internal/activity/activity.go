package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/quotex-api/internal/common"
	"github.com/noah-isme/quotex-api/internal/obs"
	"github.com/noah-isme/quotex-api/internal/store"
)

// Type classifies a timeline entry.
type Type string

const (
	TypeNote         Type = "note"
	TypeQuoteCreated Type = "quote_created"
	TypeQuoteSent    Type = "quote_sent"
	TypeCall         Type = "call"
	TypeEmail        Type = "email"
	TypeMeeting      Type = "meeting"
)

// Valid reports whether t is a known activity type.
func (t Type) Valid() bool {
	switch t {
	case TypeNote, TypeQuoteCreated, TypeQuoteSent, TypeCall, TypeEmail, TypeMeeting:
		return true
	}
	return false
}

// Manual reports whether operators may log this type by hand. Quote events are
// only written by the quote service.
func (t Type) Manual() bool {
	return t.Valid() && t != TypeQuoteCreated && t != TypeQuoteSent
}

// Activity is a CRM timeline entry. At least one of the subject ids is set.
type Activity struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId,omitempty"`
	CustomerID     string    `json:"customerId,omitempty"`
	QuoteID        string    `json:"quoteId,omitempty"`
	Type           Type      `json:"type"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	CreatedBy      string    `json:"createdBy,omitempty"`
}

// Filter narrows a timeline listing. Empty fields match everything.
type Filter struct {
	OrganizationID string
	CustomerID     string
	QuoteID        string
	Page           store.Page
}

// Store persists activities. Listings are newest first.
type Store interface {
	InsertActivity(ctx context.Context, a Activity) error
	ListActivities(ctx context.Context, f Filter) ([]Activity, int, error)
}

// Notifier reacts to recorded activities.
type Notifier interface {
	Notify(ctx context.Context, a Activity) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, a Activity) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, a Activity) error { return f(ctx, a) }

// MetricsNotifier counts activities by type.
var MetricsNotifier = NotifierFunc(func(_ context.Context, a Activity) error {
	if obs.ActivitiesRecordedTotal != nil {
		obs.ActivitiesRecordedTotal.WithLabelValues(string(a.Type)).Inc()
	}
	return nil
})

// Recorder persists activities and fans them out to notifiers.
type Recorder struct {
	Store     Store
	Notifiers []Notifier
	Now       func() time.Time
}

func (r *Recorder) now() time.Time {
	if r != nil && r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Record stores the activity, filling id, timestamp and author from context.
// Notifier failures are joined and returned alongside the stored activity.
func (r *Recorder) Record(ctx context.Context, a Activity) (Activity, error) {
	if r == nil || r.Store == nil {
		return Activity{}, errors.New("activity: store not configured")
	}
	a.Content = strings.TrimSpace(a.Content)
	if !a.Type.Valid() {
		return Activity{}, common.BadRequest("unknown activity type", nil)
	}
	if a.OrganizationID == "" && a.CustomerID == "" && a.QuoteID == "" {
		return Activity{}, common.BadRequest("activity needs an organization, customer or quote", nil)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}
	if a.CreatedBy == "" {
		if uid, ok := common.UserID(ctx); ok {
			a.CreatedBy = uid
		}
	}
	if err := r.Store.InsertActivity(ctx, a); err != nil {
		return Activity{}, fmt.Errorf("activity: persist: %w", err)
	}
	var joined error
	for _, n := range r.Notifiers {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, a); err != nil {
			joined = errors.Join(joined, fmt.Errorf("activity: notifier: %w", err))
		}
	}
	return a, joined
}

// List returns matching activities newest first with the total count.
func (r *Recorder) List(ctx context.Context, f Filter) ([]Activity, int, error) {
	if r == nil || r.Store == nil {
		return nil, 0, errors.New("activity: store not configured")
	}
	return r.Store.ListActivities(ctx, f)
}
