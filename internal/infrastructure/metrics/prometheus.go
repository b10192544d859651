package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SaleMetrics implements the posting engine's metrics sink on Prometheus
type SaleMetrics struct {
	salesPosted             prometheus.Counter
	salesCancelled          prometheus.Counter
	postingDuration         prometheus.Histogram
	sequenceConflicts       prometheus.Counter
	fiscalRecordingFailures prometheus.Counter
}

// NewSaleMetrics registers the posting engine metrics on the registerer
func NewSaleMetrics(reg prometheus.Registerer) *SaleMetrics {
	factory := promauto.With(reg)
	return &SaleMetrics{
		salesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_sales_posted_total",
			Help: "Total number of sales posted successfully",
		}),
		salesCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_sales_cancelled_total",
			Help: "Total number of sales cancelled",
		}),
		postingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pos_sale_posting_duration_seconds",
			Help:    "Duration of sale posting transactions in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		sequenceConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_sequence_conflicts_total",
			Help: "Total number of fiscal number allocation conflicts that triggered a retry",
		}),
		fiscalRecordingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_fiscal_recording_failures_total",
			Help: "Total number of tax retention recordings that failed without voiding the sale",
		}),
	}
}

// SalePosted records one successful posting and its duration
func (m *SaleMetrics) SalePosted(duration time.Duration) {
	m.salesPosted.Inc()
	m.postingDuration.Observe(duration.Seconds())
}

// SaleCancelled records one cancellation
func (m *SaleMetrics) SaleCancelled() {
	m.salesCancelled.Inc()
}

// SequenceConflict records one allocation conflict retry
func (m *SaleMetrics) SequenceConflict() {
	m.sequenceConflicts.Inc()
}

// FiscalRecordingFailure records one best-effort retention failure
func (m *SaleMetrics) FiscalRecordingFailure() {
	m.fiscalRecordingFailures.Inc()
}

// HTTPMetrics tracks request counts and latency per route
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the registerer
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pos_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// Middleware returns a gin middleware recording per-request metrics.
// The route template is used as the path label so IDs do not explode
// label cardinality.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the scrape endpoint for the registry
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
