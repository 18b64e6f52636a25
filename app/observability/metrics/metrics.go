package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RecommendationRequestsTotal metric.Int64Counter
	RecommendationDuration      metric.Float64Histogram
	StrategyHitsTotal           metric.Int64Counter
	ProviderCallsTotal          metric.Int64Counter
	ProviderCallDuration        metric.Float64Histogram
	CacheLookupsTotal           metric.Int64Counter
	BreakerTransitionsTotal     metric.Int64Counter
	DbQueryDurationSeconds      metric.Float64Histogram
	DbQueryErrorsTotal          metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so call it
// after the tracer package has installed the Prometheus exporter.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("FamilyActivities")
		m := &AppMetrics{}

		m.RecommendationRequestsTotal = mustCounter(meter, "recommendation_requests_total",
			"Total number of recommendation resolves", "{request}")
		m.RecommendationDuration = mustHistogram(meter, "recommendation_duration_seconds",
			"Duration of a full recommendation resolve")
		m.StrategyHitsTotal = mustCounter(meter, "recommendation_strategy_hits_total",
			"Resolves answered by each cascade strategy", "{request}")
		m.ProviderCallsTotal = mustCounter(meter, "provider_calls_total",
			"Calls to external providers by provider and outcome", "{call}")
		m.ProviderCallDuration = mustHistogram(meter, "provider_call_duration_seconds",
			"Latency of external provider calls")
		m.CacheLookupsTotal = mustCounter(meter, "cache_lookups_total",
			"Cache lookups by namespace and result", "{lookup}")
		m.BreakerTransitionsTotal = mustCounter(meter, "circuit_breaker_transitions_total",
			"Circuit breaker state transitions", "{transition}")
		m.DbQueryDurationSeconds = mustHistogram(meter, "db_query_duration_seconds",
			"Duration of database queries in seconds")
		m.DbQueryErrorsTotal = mustCounter(meter, "db_query_errors_total",
			"Total number of database query errors", "{error}")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing against the current
// MeterProvider (a no-op one in tests) if nobody did it yet.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func mustCounter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func mustHistogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}
