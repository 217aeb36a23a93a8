package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all prometheus metrics for pulsefeed.
// uses a custom registry to avoid polluting the global namespace.
type Metrics struct {
	Registry *prometheus.Registry

	// http_request_duration_seconds - histogram for api latency
	HTTPRequestDuration *prometheus.HistogramVec

	// pulsefeed_feed_duration_seconds - time to build one feed page
	FeedDuration *prometheus.HistogramVec

	// pulsefeed_feed_posts - posts returned per page
	FeedPosts *prometheus.HistogramVec

	// pulsefeed_feed_errors_total - failed feed requests by reason
	FeedErrorsTotal *prometheus.CounterVec

	// pulsefeed_cursor_resets_total - invalid cursors that restarted paging
	CursorResetsTotal *prometheus.CounterVec

	// pulsefeed_candidate_cache_requests_total - cache lookups by result
	CandidateCacheTotal *prometheus.CounterVec

	// pulsefeed_interactions_ingested_total - persisted interactions by kind
	InteractionsIngestedTotal *prometheus.CounterVec

	// pulsefeed_ingestion_failures_total - interactions lost to failed flushes
	IngestionFailuresTotal prometheus.Counter

	// pulsefeed_buffer_size - gauge for current interaction buffer size
	BufferSize prometheus.Gauge

	// pulsefeed_flush_duration_seconds - histogram for ingestion flushes
	FlushDuration prometheus.Histogram
}

// New creates and registers all prometheus metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	// add standard go runtime and process collectors
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		FeedDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulsefeed_feed_duration_seconds",
				Help:    "Time to build one feed page in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
			},
			[]string{"strategy"},
		),

		FeedPosts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulsefeed_feed_posts",
				Help:    "Number of posts returned per feed page",
				Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
			},
			[]string{"strategy"},
		),

		FeedErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsefeed_feed_errors_total",
				Help: "Total number of failed feed requests",
			},
			[]string{"strategy", "reason"},
		),

		CursorResetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsefeed_cursor_resets_total",
				Help: "Total number of invalid cursors that restarted pagination",
			},
			[]string{"strategy"},
		),

		CandidateCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsefeed_candidate_cache_requests_total",
				Help: "Candidate cache lookups by result",
			},
			[]string{"result"},
		),

		InteractionsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsefeed_interactions_ingested_total",
				Help: "Total number of interactions persisted",
			},
			[]string{"kind"},
		),

		IngestionFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsefeed_ingestion_failures_total",
			Help: "Total number of interactions dropped by failed flushes",
		}),

		BufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulsefeed_buffer_size",
			Help: "Current number of interactions waiting in the ingestion buffer",
		}),

		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulsefeed_flush_duration_seconds",
			Help:    "Duration of ingestion flushes in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		}),
	}

	// register all custom metrics
	reg.MustRegister(
		m.HTTPRequestDuration,
		m.FeedDuration,
		m.FeedPosts,
		m.FeedErrorsTotal,
		m.CursorResetsTotal,
		m.CandidateCacheTotal,
		m.InteractionsIngestedTotal,
		m.IngestionFailuresTotal,
		m.BufferSize,
		m.FlushDuration,
	)

	return m
}

// RecordHTTPRequest records the duration of an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
}

// ObserveFeed records a served feed page.
func (m *Metrics) ObserveFeed(strategy string, duration time.Duration, posts int) {
	m.FeedDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	m.FeedPosts.WithLabelValues(strategy).Observe(float64(posts))
}

// RecordFeedError increments the feed error counter.
func (m *Metrics) RecordFeedError(strategy, reason string) {
	m.FeedErrorsTotal.WithLabelValues(strategy, reason).Inc()
}

// RecordCursorReset increments the cursor reset counter.
func (m *Metrics) RecordCursorReset(strategy string) {
	m.CursorResetsTotal.WithLabelValues(strategy).Inc()
}

// RecordCandidateCache counts a candidate cache lookup.
func (m *Metrics) RecordCandidateCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CandidateCacheTotal.WithLabelValues(result).Inc()
}

// RecordInteractionIngested increments the interactions ingested counter.
func (m *Metrics) RecordInteractionIngested(kind string) {
	m.InteractionsIngestedTotal.WithLabelValues(kind).Inc()
}

// RecordIngestionFailure counts interactions lost to a failed flush.
func (m *Metrics) RecordIngestionFailure(count int) {
	m.IngestionFailuresTotal.Add(float64(count))
}

// SetBufferSize sets the current buffer size gauge.
func (m *Metrics) SetBufferSize(size int) {
	m.BufferSize.Set(float64(size))
}

// RecordFlush records the duration of an ingestion flush.
func (m *Metrics) RecordFlush(duration time.Duration) {
	m.FlushDuration.Observe(duration.Seconds())
}
