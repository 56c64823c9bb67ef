// Package metrics provides Prometheus metrics export for the conversation pipeline.
package metrics

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports pipeline metrics in Prometheus format.
// It satisfies the Recorder interfaces of the emotion, insight and ritual packages.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Classifier metrics
	classifications *prometheus.CounterVec

	// Insight metrics
	insightsDelivered prometheus.Counter
	insightsDismissed prometheus.Counter

	// Ritual metrics
	rituals *prometheus.CounterVec

	// LLM token metrics
	llmTokensUsed *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec

	// HTTP metrics
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.classifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "echomind",
			Subsystem: "emotion",
			Name:      "classifications_total",
			Help:      "Emotion classifications by outcome (llm, fallback, empty)",
		},
		[]string{"outcome"},
	)

	e.insightsDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "echomind",
			Subsystem: "insight",
			Name:      "delivered_total",
			Help:      "Proactive insights surfaced to users",
		},
	)

	e.insightsDismissed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "echomind",
			Subsystem: "insight",
			Name:      "dismissed_total",
			Help:      "Proactive insights dismissed by users",
		},
	)

	e.rituals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "echomind",
			Subsystem: "ritual",
			Name:      "generations_total",
			Help:      "Ritual generations by type and status",
		},
		[]string{"ritual_type", "status"},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "echomind",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "echomind",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model"},
	)

	e.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "echomind",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "code"},
	)

	e.httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "echomind",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(
		e.classifications,
		e.insightsDelivered,
		e.insightsDismissed,
		e.rituals,
		e.llmTokensUsed,
		e.llmLatency,
		e.httpRequests,
		e.httpLatency,
	)

	return e
}

// RecordClassification counts one classifier outcome.
func (e *PrometheusExporter) RecordClassification(outcome string) {
	e.classifications.WithLabelValues(outcome).Inc()
}

func (e *PrometheusExporter) RecordInsightsDelivered(n int) {
	if n > 0 {
		e.insightsDelivered.Add(float64(n))
	}
}

func (e *PrometheusExporter) RecordInsightDismissed() {
	e.insightsDismissed.Inc()
}

// RecordRitual records a ritual generation attempt.
func (e *PrometheusExporter) RecordRitual(ritualType string, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	e.rituals.WithLabelValues(ritualType, status).Inc()
}

// RecordLLMCall records token usage and latency of one completion.
func (e *PrometheusExporter) RecordLLMCall(model string, promptTokens, completionTokens int, latency time.Duration) {
	e.llmTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	e.llmTokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
	e.llmLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// RecordHTTPRequest records one API request.
func (e *PrometheusExporter) RecordHTTPRequest(method, route string, code int, latency time.Duration) {
	e.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	e.httpLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}

// ExportText renders every series as a sorted "name{labels} value" line.
// Histograms contribute their _count.
func (e *PrometheusExporter) ExportText() (string, error) {
	families, err := e.registry.Gather()
	if err != nil {
		return "", err
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}

			labels := make([]string, 0, len(m.GetLabel()))
			for _, label := range m.GetLabel() {
				labels = append(labels, label.GetName()+"=\""+label.GetValue()+"\"")
			}
			sort.Strings(labels)

			name := mf.GetName()
			if m.GetHistogram() != nil {
				name += "_count"
			}
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, name+" "+strconv.FormatFloat(value, 'f', -1, 64))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}
