package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the investment platform.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	requestsTotal     *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	investmentsOpened prometheus.Counter
	accrualRuns       *prometheus.CounterVec
	accrualFailures   prometheus.Counter
	interestPosted    prometheus.Counter
	accrualDuration   prometheus.Histogram
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invest_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		investmentsOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "invest_investments_opened_total",
				Help: "Total investments opened.",
			},
		),
		accrualRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_accrual_runs_total",
				Help: "Total accrual runs by outcome.",
			},
			[]string{"outcome"},
		),
		accrualFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "invest_accrual_investment_failures_total",
				Help: "Investments skipped due to errors during accrual runs.",
			},
		),
		interestPosted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "invest_interest_posted_total",
				Help: "Total interest amount posted, in currency units.",
			},
		),
		accrualDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "invest_accrual_run_duration_seconds",
				Help:    "Wall-clock duration of accrual runs.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrInvestmentOpened counts a successfully opened investment.
func (m *Metrics) IncrInvestmentOpened() {
	m.investmentsOpened.Inc()
}

// RecordAccrualRun records one scheduler invocation and its duration.
// Outcome is "complete", "partial" or "locked".
func (m *Metrics) RecordAccrualRun(outcome string, d time.Duration) {
	m.accrualRuns.WithLabelValues(outcome).Inc()
	m.accrualDuration.Observe(d.Seconds())
}

// IncrAccrualFailure counts an investment skipped due to an error.
func (m *Metrics) IncrAccrualFailure() {
	m.accrualFailures.Inc()
}

// AddInterestPosted accumulates posted interest in currency units.
func (m *Metrics) AddInterestPosted(amount float64) {
	m.interestPosted.Add(amount)
}
