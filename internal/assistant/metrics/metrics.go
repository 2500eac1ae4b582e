// Package metrics 提供问答服务的 Prometheus 指标。
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "assistant"

// 问答结果。
const (
	OutcomeAnswered         = "answered"
	OutcomeNoInformation    = "no_information"
	OutcomeGenerationFailed = "generation_failed"
	OutcomeRetrievalFailed  = "retrieval_failed"
)

// Metrics 问答服务指标。
type Metrics struct {
	// 问答指标
	AskTotal           *prometheus.CounterVec
	AskDuration        *prometheus.HistogramVec
	RetrievalDuration  prometheus.Histogram
	GenerationDuration prometheus.Histogram
	TopScore           prometheus.Histogram
	LogFailures        prometheus.Counter
	FeedbackTotal      *prometheus.CounterVec

	// 索引指标
	IngestFiles   *prometheus.CounterVec
	IngestChunks  prometheus.Counter
	IndexPassages prometheus.Gauge

	// HTTP 指标
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics 获取全局指标实例。
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			AskTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "ask_total",
					Help:      "Total number of answered questions by outcome",
				},
				[]string{"outcome"},
			),
			AskDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "ask_duration_seconds",
					Help:      "End-to-end question latency in seconds",
					Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
				},
				[]string{"outcome"},
			),
			RetrievalDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "retrieval_duration_seconds",
					Help:      "Embedding plus vector search latency in seconds",
					Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
				},
			),
			GenerationDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "generation_duration_seconds",
					Help:      "Completion request latency in seconds",
					Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30},
				},
			),
			TopScore: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "retrieval_top_score",
					Help:      "Best passage similarity per question",
					Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
				},
			),
			LogFailures: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "interaction_log_failures_total",
					Help:      "Interaction records that could not be persisted",
				},
			),
			FeedbackTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "feedback_total",
					Help:      "User feedback by value",
				},
				[]string{"value"},
			),
			IngestFiles: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "ingest_files_total",
					Help:      "Files processed by ingestion by status",
				},
				[]string{"status"},
			),
			IngestChunks: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "ingest_chunks_total",
					Help:      "Chunks produced by ingestion",
				},
			),
			IndexPassages: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: namespace,
					Name:      "index_passages",
					Help:      "Passages currently stored in the vector index",
				},
			),
			HTTPRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "http_requests_total",
					Help:      "HTTP requests by route and status",
				},
				[]string{"method", "route", "status"},
			),
			HTTPDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "http_request_duration_seconds",
					Help:      "HTTP request latency in seconds",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
		}
	})
	return metricsInstance
}

// ObserveAsk 记录一次问答。
func (m *Metrics) ObserveAsk(outcome string, d time.Duration) {
	m.AskTotal.WithLabelValues(outcome).Inc()
	m.AskDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveFeedback 记录一次反馈。
func (m *Metrics) ObserveFeedback(value int) {
	label := "negative"
	if value > 0 {
		label = "positive"
	}
	m.FeedbackTotal.WithLabelValues(label).Inc()
}

// Middleware 返回记录 HTTP 指标的 gin 中间件。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
