package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesCreatedTotal counts quotes created.
	QuotesCreatedTotal prometheus.Counter
	// QuoteTransitionsTotal counts quote status transitions by target status.
	QuoteTransitionsTotal *prometheus.CounterVec
	// InvoicesConvertedTotal counts quote to invoice conversions.
	InvoicesConvertedTotal prometheus.Counter
	// PaymentsRecordedTotal counts invoice payments by method.
	PaymentsRecordedTotal *prometheus.CounterVec
	// PriceCalculationsTotal counts configuration pricing calls by mode (price, explain, validate).
	PriceCalculationsTotal *prometheus.CounterVec
	// ActivitiesRecordedTotal counts timeline activities by type.
	ActivitiesRecordedTotal *prometheus.CounterVec
	// SweepRunsTotal counts background sweep executions by kind and result.
	SweepRunsTotal *prometheus.CounterVec
	// BreakerTransitionsTotal counts circuit breaker state changes by target.
	BreakerTransitionsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_created_total",
			Help:      "Number of quotes created.",
		})
		QuoteTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_transitions_total",
			Help:      "Quote status transitions by target status.",
		}, []string{"to"})
		InvoicesConvertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_converted_total",
			Help:      "Number of accepted quotes converted to invoices.",
		})
		PaymentsRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Invoice payments recorded by method.",
		}, []string{"method"})
		PriceCalculationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_calculations_total",
			Help:      "Configuration pricing requests by mode.",
		}, []string{"mode"})
		ActivitiesRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_recorded_total",
			Help:      "Timeline activities recorded by type.",
		}, []string{"type"})
		SweepRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Background sweep runs by kind and result.",
		}, []string{"kind", "result"})
		BreakerTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state changes by target.",
		}, []string{"target", "from", "to"})

		mustRegisterCollector(reg, QuotesCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				QuotesCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteTransitionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTransitionsTotal = v
			}
		})
		mustRegisterCollector(reg, InvoicesConvertedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				InvoicesConvertedTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentsRecordedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentsRecordedTotal = v
			}
		})
		mustRegisterCollector(reg, PriceCalculationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PriceCalculationsTotal = v
			}
		})
		mustRegisterCollector(reg, ActivitiesRecordedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ActivitiesRecordedTotal = v
			}
		})
		mustRegisterCollector(reg, SweepRunsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SweepRunsTotal = v
			}
		})
		mustRegisterCollector(reg, BreakerTransitionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BreakerTransitionsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
