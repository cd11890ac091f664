// Package report builds the dashboard and time series read models over
// quotes and customers. Results are cached in Redis for a short TTL.
package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/noah-isme/quotex-api/internal/activity"
	"github.com/noah-isme/quotex-api/internal/cache"
	"github.com/noah-isme/quotex-api/internal/catalog"
	"github.com/noah-isme/quotex-api/internal/customer"
	"github.com/noah-isme/quotex-api/internal/quote"
)

// RecentLimit is how many quotes the dashboard lists.
const RecentLimit = 5

// Quotes lists quotes.
type Quotes interface {
	List(ctx context.Context, f quote.Filter) ([]quote.Quote, int, error)
}

// Customers counts customers.
type Customers interface {
	ListCustomers(ctx context.Context, f customer.CustomerFilter) ([]customer.Customer, int, error)
}

// BaseNames resolves base series display names.
type BaseNames interface {
	Base(id string) (catalog.BaseSeries, bool)
}

// Service computes dashboards.
type Service struct {
	Quotes       Quotes
	Customers    Customers
	Bases        BaseNames
	Cache        *cache.JSON
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// BaseCount is how many line items use a base series.
type BaseCount struct {
	BaseSeries string `json:"baseSeries"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

// RecentQuote is the dashboard summary of one quote.
type RecentQuote struct {
	ID           string          `json:"id"`
	QuoteNumber  string          `json:"quoteNumber"`
	CustomerName string          `json:"customerName"`
	ProjectName  string          `json:"projectName"`
	Status       quote.Status    `json:"status"`
	Total        decimal.Decimal `json:"total"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Dashboard aggregates the sales pipeline.
type Dashboard struct {
	TotalQuotes     int             `json:"totalQuotes"`
	PendingQuotes   int             `json:"pendingQuotes"`
	AcceptedQuotes  int             `json:"acceptedQuotes"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	PendingRevenue  decimal.Decimal `json:"pendingRevenue"`
	ConversionRate  int             `json:"conversionRate"`
	TotalCustomers  int             `json:"totalCustomers"`
	QuotesThisMonth int             `json:"quotesThisMonth"`
	QuotesLastMonth int             `json:"quotesLastMonth"`
	RecentQuotes    []RecentQuote   `json:"recentQuotes"`
	TopBases        []BaseCount     `json:"topBases"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// Dashboard returns the cached dashboard or computes a fresh one.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	if s == nil || s.Quotes == nil {
		return Dashboard{}, fmt.Errorf("report service not configured")
	}
	ctx, span := otel.Tracer("report.Service").Start(ctx, "ReportService.Dashboard")
	defer span.End()

	key := s.Cache.Key("dashboard")
	var cached Dashboard
	if ok, err := s.Cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	quotes, _, err := s.Quotes.List(ctx, quote.Filter{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("report: list quotes: %w", err)
	}
	customers := 0
	if s.Customers != nil {
		if _, customers, err = s.Customers.ListCustomers(ctx, customer.CustomerFilter{}); err != nil {
			return Dashboard{}, fmt.Errorf("report: count customers: %w", err)
		}
	}
	d := Build(quotes, customers, s.Bases, s.now())
	_ = s.Cache.Set(ctx, key, d)
	return d, nil
}

// Invalidate drops the cached dashboard.
func (s *Service) Invalidate(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.Cache.Delete(ctx, s.Cache.Key("dashboard"))
}

// InvalidateOn returns an activity notifier that drops the cached dashboard
// whenever a quote is created or sent.
func (s *Service) InvalidateOn() activity.Notifier {
	return activity.NotifierFunc(func(ctx context.Context, a activity.Activity) error {
		if a.Type == activity.TypeQuoteCreated || a.Type == activity.TypeQuoteSent {
			return s.Invalidate(ctx)
		}
		return nil
	})
}

// Build computes a dashboard from a full quote list.
func Build(quotes []quote.Quote, customers int, bases BaseNames, now time.Time) Dashboard {
	d := Dashboard{
		TotalQuotes:    len(quotes),
		TotalCustomers: customers,
		TotalRevenue:   decimal.Zero,
		PendingRevenue: decimal.Zero,
		RecentQuotes:   []RecentQuote{},
		TopBases:       []BaseCount{},
		GeneratedAt:    now.UTC(),
	}
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := thisMonth.AddDate(0, -1, 0)
	baseCounts := map[string]int{}

	for _, q := range quotes {
		switch {
		case q.Status == quote.StatusAccepted:
			d.AcceptedQuotes++
			d.TotalRevenue = d.TotalRevenue.Add(q.Total)
		case q.Status.Pending():
			d.PendingQuotes++
			d.PendingRevenue = d.PendingRevenue.Add(q.Total)
		}
		created := q.CreatedAt.In(now.Location())
		switch {
		case !created.Before(thisMonth):
			d.QuotesThisMonth++
		case !created.Before(lastMonth):
			d.QuotesLastMonth++
		}
		for _, li := range q.LineItems {
			if id := li.Configuration.BaseSeries; id != "" {
				baseCounts[id]++
			}
		}
	}
	if d.TotalQuotes > 0 {
		d.ConversionRate = int(math.Round(float64(d.AcceptedQuotes) / float64(d.TotalQuotes) * 100))
	}

	recent := append([]quote.Quote(nil), quotes...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].UpdatedAt.After(recent[j].UpdatedAt) })
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	for _, q := range recent {
		d.RecentQuotes = append(d.RecentQuotes, RecentQuote{
			ID:           q.ID,
			QuoteNumber:  q.QuoteNumber,
			CustomerName: q.CustomerName,
			ProjectName:  q.ProjectName,
			Status:       q.Status,
			Total:        q.Total,
			UpdatedAt:    q.UpdatedAt,
		})
	}

	for id, n := range baseCounts {
		name := id
		if bases != nil {
			if b, ok := bases.Base(id); ok {
				name = b.Name
			}
		}
		d.TopBases = append(d.TopBases, BaseCount{BaseSeries: id, Name: name, Count: n})
	}
	sort.Slice(d.TopBases, func(i, j int) bool {
		if d.TopBases[i].Count != d.TopBases[j].Count {
			return d.TopBases[i].Count > d.TopBases[j].Count
		}
		return d.TopBases[i].BaseSeries < d.TopBases[j].BaseSeries
	})
	return d
}

// DayPoint is one day of quoting activity.
type DayPoint struct {
	Day             string          `json:"day"`
	QuotesCreated   int             `json:"quotesCreated"`
	QuotesAccepted  int             `json:"quotesAccepted"`
	AcceptedRevenue decimal.Decimal `json:"acceptedRevenue"`
}

// Series returns per-day quote counts in [from, to). Accepted quotes are
// bucketed by their last update.
func (s *Service) Series(ctx context.Context, from, to time.Time) ([]DayPoint, error) {
	if s == nil || s.Quotes == nil {
		return nil, fmt.Errorf("report service not configured")
	}
	key := s.Cache.Key("series", from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	var cached []DayPoint
	if ok, err := s.Cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	quotes, _, err := s.Quotes.List(ctx, quote.Filter{})
	if err != nil {
		return nil, fmt.Errorf("report: list quotes: %w", err)
	}
	points := BuildSeries(quotes, from, to)
	_ = s.Cache.Set(ctx, key, points)
	return points, nil
}

// BuildSeries buckets quotes per UTC day.
func BuildSeries(quotes []quote.Quote, from, to time.Time) []DayPoint {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	index := map[string]int{}
	var points []DayPoint
	for day := start; day.Before(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		index[key] = len(points)
		points = append(points, DayPoint{Day: key, AcceptedRevenue: decimal.Zero})
	}
	for _, q := range quotes {
		if i, ok := index[q.CreatedAt.UTC().Format("2006-01-02")]; ok {
			points[i].QuotesCreated++
		}
		if q.Status != quote.StatusAccepted {
			continue
		}
		if i, ok := index[q.UpdatedAt.UTC().Format("2006-01-02")]; ok {
			points[i].QuotesAccepted++
			points[i].AcceptedRevenue = points[i].AcceptedRevenue.Add(q.Total)
		}
	}
	return points
}
