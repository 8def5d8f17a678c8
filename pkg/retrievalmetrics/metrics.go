// Package retrievalmetrics provides Prometheus instrumentation for the
// retrieval pipeline, plus ChunkMetric, the bounded per-chunk snapshot the
// pipeline emits for evaluation tooling.
package retrievalmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
	"github.com/kadirpekel/corpusrank/pkg/logger"
	"github.com/kadirpekel/corpusrank/pkg/utils"
)

// Config configures the metrics sink.
type Config struct {
	// Enabled turns on metrics collection. Default: false.
	Enabled bool `yaml:"enabled,omitempty"`

	// Namespace prefixes all metric names. Default: "retrieval".
	Namespace string `yaml:"namespace,omitempty"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Namespace == "" {
		c.Namespace = "retrieval"
	}
}

// Metrics records retrieval, rerank, and filter outcomes. A nil *Metrics is
// valid and every Record* method on it is a no-op, so instrumentation can
// be wired in unconditionally and only actually collect when enabled.
type Metrics struct {
	registry *prometheus.Registry

	retrievals        *prometheus.CounterVec
	retrievalDuration *prometheus.HistogramVec
	retrievalResults  *prometheus.HistogramVec

	rerankCalls     *prometheus.CounterVec
	rerankDuration  prometheus.Histogram
	rerankErrors    prometheus.Counter
	rerankRawScores prometheus.Histogram

	filterCalls    prometheus.Counter
	filterDropped  prometheus.Histogram
	filterErrors   prometheus.Counter
	partialFailure *prometheus.CounterVec
}

// New creates a Metrics instance from cfg. A disabled or nil cfg returns
// (nil, nil): callers should still call the Record* methods unconditionally.
func New(cfg *Config) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	cfg.SetDefaults()

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.retrievals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "retrieval",
		Name:      "calls_total",
		Help:      "Total number of sub-retrieval calls dispatched, by search type.",
	}, []string{"search_type"})

	m.retrievalDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "retrieval",
		Name:      "duration_seconds",
		Help:      "Sub-retrieval call duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"search_type"})

	m.retrievalResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "retrieval",
		Name:      "results_count",
		Help:      "Number of chunks returned per sub-retrieval call.",
		Buckets:   prometheus.LinearBuckets(0, 5, 11),
	}, []string{"search_type"})

	m.rerankCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "rerank",
		Name:      "calls_total",
		Help:      "Total number of rerank invocations.",
	}, []string{"outcome"})

	m.rerankDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "rerank",
		Name:      "duration_seconds",
		Help:      "Rerank call duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	m.rerankErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "rerank",
		Name:      "errors_total",
		Help:      "Total number of rerank failures.",
	})

	m.rerankRawScores = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "rerank",
		Name:      "raw_similarity_score",
		Help:      "Distribution of raw, pre-normalization cross-encoder similarity scores.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	m.filterCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "filter",
		Name:      "calls_total",
		Help:      "Total number of relevance filter invocations.",
	})

	m.filterDropped = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "filter",
		Name:      "dropped_count",
		Help:      "Number of chunks dropped by the relevance filter per call.",
		Buckets:   prometheus.LinearBuckets(0, 2, 11),
	})

	m.filterErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "filter",
		Name:      "errors_total",
		Help:      "Total number of relevance filter failures (fail-open).",
	})

	m.partialFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "pipeline",
		Name:      "partial_failures_total",
		Help:      "Total number of degraded-mode outcomes, by stage.",
	}, []string{"stage"})

	m.registry.MustRegister(
		m.retrievals, m.retrievalDuration, m.retrievalResults,
		m.rerankCalls, m.rerankDuration, m.rerankErrors, m.rerankRawScores,
		m.filterCalls, m.filterDropped, m.filterErrors,
		m.partialFailure,
	)
	return m, nil
}

// RecordRetrieval records one sub-retrieval call's RetrievalMetrics:
// aggregate counters/histograms in Prometheus, plus the full per-chunk
// snapshot logged at debug level for evaluation tooling that wants more
// than the aggregate numeric signal. chunks may be nil when the caller has
// no ChunkMetric snapshot to offer; resultCount still records correctly.
func (m *Metrics) RecordRetrieval(searchType chunk.SearchType, duration time.Duration, resultCount int, chunks []ChunkMetric) {
	if m == nil {
		return
	}
	label := string(searchType)
	m.retrievals.WithLabelValues(label).Inc()
	m.retrievalDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.retrievalResults.WithLabelValues(label).Observe(float64(resultCount))
	logger.GetLogger().Debug("retrieval metrics",
		"search_type", label, "duration", duration, "chunks", chunks)
}

// RecordRerank records a rerank invocation's RerankMetrics: outcome and
// duration in Prometheus, plus the raw (pre-normalization) similarity
// matrix and the reranked ChunkMetric snapshot logged at debug level.
func (m *Metrics) RecordRerank(duration time.Duration, chunks []ChunkMetric, rawSimilarityScores [][]float64, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.rerankErrors.Inc()
	}
	m.rerankCalls.WithLabelValues(outcome).Inc()
	m.rerankDuration.Observe(duration.Seconds())
	for _, row := range rawSimilarityScores {
		for _, s := range row {
			m.rerankRawScores.Observe(s)
		}
	}
	logger.GetLogger().Debug("rerank metrics",
		"duration", duration, "chunks", chunks, "raw_similarity_scores", rawSimilarityScores, "error", err)
}

// RecordFilter records a relevance filter invocation.
func (m *Metrics) RecordFilter(totalChunks, keptChunks int, err error) {
	if m == nil {
		return
	}
	m.filterCalls.Inc()
	m.filterDropped.Observe(float64(totalChunks - keptChunks))
	if err != nil {
		m.filterErrors.Inc()
	}
}

// RecordPartialFailure records a degraded-mode outcome.
func (m *Metrics) RecordPartialFailure(p chunk.PartialFailure) {
	if m == nil {
		return
	}
	m.partialFailure.WithLabelValues(p.Stage).Inc()
}

// Handler returns an HTTP handler exposing collected metrics. On a nil
// *Metrics it returns a handler reporting service unavailable.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ChunkMetric is a bounded per-chunk snapshot suitable for logging or
// shipping to evaluation tooling, without forwarding unbounded chunk
// content.
type ChunkMetric struct {
	DocumentID string  `json:"document_id"`
	ChunkID    int     `json:"chunk_id"`
	Content    string  `json:"content"`
	Link       string  `json:"link"`
	Score      float64 `json:"score"`
}

// NewChunkMetric builds a ChunkMetric from c, truncating Content to
// maxTokens using counter. A nil counter leaves Content untruncated.
func NewChunkMetric(c *chunk.InferenceChunk, counter *utils.TokenCounter, maxTokens int) ChunkMetric {
	content := c.Content
	if counter != nil {
		content = counter.TruncateToTokenLimit(content, maxTokens)
	}
	return ChunkMetric{
		DocumentID: c.DocumentID,
		ChunkID:    c.ChunkID,
		Content:    content,
		Link:       c.FirstLink(),
		Score:      c.ScoreOrZero(),
	}
}

// ChunkMetricsFrom maps chunks to their ChunkMetric snapshots.
func ChunkMetricsFrom(chunks []*chunk.InferenceChunk, counter *utils.TokenCounter, maxTokens int) []ChunkMetric {
	metrics := make([]ChunkMetric, len(chunks))
	for i, c := range chunks {
		metrics[i] = NewChunkMetric(c, counter, maxTokens)
	}
	return metrics
}
