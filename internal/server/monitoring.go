package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "postlens"

// Collector owns the Prometheus metrics of one server. Each Collector has its
// own registry so several can coexist in a process.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	pipelineRuns        *prometheus.CounterVec
	pipelineDuration    prometheus.Histogram
	datasetRows         prometheus.Gauge
	reloadsTotal        *prometheus.CounterVec
}

// NewCollector creates and registers the server metrics.
func NewCollector() *Collector {
	mc := &Collector{registry: prometheus.NewRegistry()}

	mc.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	mc.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	mc.pipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome (ok, empty, invalid_range, error)",
		},
		[]string{"outcome"},
	)
	mc.pipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)
	mc.datasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the loaded dataset",
		},
	)
	mc.reloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_reloads_total",
			Help:      "Dataset reloads by outcome (ok, error)",
		},
		[]string{"outcome"},
	)

	mc.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		mc.httpRequestsTotal,
		mc.httpRequestDuration,
		mc.pipelineRuns,
		mc.pipelineDuration,
		mc.datasetRows,
		mc.reloadsTotal,
	)
	return mc
}

// Registry exposes the underlying registry, mostly for tests.
func (mc *Collector) Registry() *prometheus.Registry { return mc.registry }

// ObserveRun records one pipeline run.
func (mc *Collector) ObserveRun(outcome string, d time.Duration) {
	mc.pipelineRuns.WithLabelValues(outcome).Inc()
	mc.pipelineDuration.Observe(d.Seconds())
}

// ObserveReload records a dataset reload and, on success, its size.
func (mc *Collector) ObserveReload(rows int, err error) {
	if err != nil {
		mc.reloadsTotal.WithLabelValues("error").Inc()
		return
	}
	mc.reloadsTotal.WithLabelValues("ok").Inc()
	mc.datasetRows.Set(float64(rows))
}

// Middleware collects HTTP metrics.
func (mc *Collector) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())
		mc.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		mc.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (mc *Collector) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
