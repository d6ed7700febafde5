// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Market bus metrics
	TicksTotal      prometheus.Counter
	SnapshotSeq     prometheus.Gauge
	TickDuration    prometheus.Histogram
	ConsumerErrors  *prometheus.CounterVec
	QuotesPublished prometheus.Counter

	// Valuation metrics
	ReportsEmitted    prometheus.Counter
	PortfolioNAV      prometheus.Gauge
	PositionsPriced   prometheus.Counter
	ValuationFailures prometheus.Counter

	// Storage metrics
	ReportsPersisted    prometheus.Counter
	ReportPersistErrors prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "portfolio_pricing_lab"
	}

	return &Metrics{
		TicksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketbus",
			Name:      "ticks_total",
			Help:      "Total number of market ticks produced",
		}),
		SnapshotSeq: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "marketbus",
			Name:      "snapshot_seq",
			Help:      "Sequence number of the most recently published snapshot",
		}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "marketbus",
			Name:      "tick_duration_seconds",
			Help:      "Time spent evolving prices and notifying consumers per tick",
			Buckets:   prometheus.DefBuckets,
		}),
		ConsumerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketbus",
			Name:      "consumer_errors_total",
			Help:      "Total number of consumer notification failures by kind",
		}, []string{"kind"}),
		QuotesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketbus",
			Name:      "quotes_published_total",
			Help:      "Total number of individual stock quotes published",
		}),
		ReportsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "valuation",
			Name:      "reports_emitted_total",
			Help:      "Total number of valuation reports emitted to the sink",
		}),
		PortfolioNAV: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "valuation",
			Name:      "portfolio_nav",
			Help:      "Most recent total portfolio value",
		}),
		PositionsPriced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "valuation",
			Name:      "positions_priced_total",
			Help:      "Total number of individual positions priced",
		}),
		ValuationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "valuation",
			Name:      "failures_total",
			Help:      "Total number of snapshots the valuator failed to price",
		}),
		ReportsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "reports_persisted_total",
			Help:      "Total number of valuation reports written to history storage",
		}),
		ReportPersistErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "report_persist_errors_total",
			Help:      "Total number of history storage write failures",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTick records one completed tick and the newly published sequence.
func RecordTick(seq uint64, quotes int, seconds float64) {
	DefaultMetrics.TicksTotal.Inc()
	DefaultMetrics.SnapshotSeq.Set(float64(seq))
	DefaultMetrics.QuotesPublished.Add(float64(quotes))
	DefaultMetrics.TickDuration.Observe(seconds)
}

// RecordConsumerError counts a consumer notification failure.
// kind is "error" for returned errors and "panic" for recovered panics.
func RecordConsumerError(kind string) {
	DefaultMetrics.ConsumerErrors.WithLabelValues(kind).Inc()
}

// RecordReport records an emitted valuation report.
func RecordReport(nav float64, positions int) {
	DefaultMetrics.ReportsEmitted.Inc()
	DefaultMetrics.PortfolioNAV.Set(nav)
	DefaultMetrics.PositionsPriced.Add(float64(positions))
}

// RecordValuationFailure counts a snapshot the valuator could not price.
func RecordValuationFailure() {
	DefaultMetrics.ValuationFailures.Inc()
}

// RecordReportPersisted records a history storage write.
func RecordReportPersisted(err error) {
	if err != nil {
		DefaultMetrics.ReportPersistErrors.Inc()
		return
	}
	DefaultMetrics.ReportsPersisted.Inc()
}
