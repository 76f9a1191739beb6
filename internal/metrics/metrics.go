package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Agent labels.
const (
	AgentExplain  = "explain"
	AgentOptimize = "optimize"
	AgentPredict  = "predict"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	llmCalls          *prometheus.CounterVec
	llmCostUSD        *prometheus.CounterVec
	fallbacks         *prometheus.CounterVec
	predictions       prometheus.Counter
	emissionKG        prometheus.Histogram
	sessionsCreated   prometheus.Counter
}

// NewMetrics creates the collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "Generative backend calls by agent and outcome.",
		}, []string{"agent", "outcome"}),
		llmCostUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_cost_usd_total",
			Help: "Accumulated generative backend cost in USD by model.",
		}, []string{"model"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_fallbacks_total",
			Help: "Times an agent served its deterministic fallback.",
		}, []string{"agent"}),
		predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total emission predictions stored.",
		}),
		emissionKG: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "predicted_emission_kg",
			Help:    "Distribution of predicted emissions in kg CO2e.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total sessions created.",
		}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.llmCalls,
		m.llmCostUSD,
		m.fallbacks,
		m.predictions,
		m.emissionKG,
		m.sessionsCreated,
	)

	return m
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) LLMCall(agent string, success bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	m.llmCalls.WithLabelValues(agent, outcome).Inc()
}

func (m *Metrics) LLMCost(model string, usd float64) {
	if m == nil || usd <= 0 {
		return
	}
	m.llmCostUSD.WithLabelValues(model).Add(usd)
}

func (m *Metrics) Fallback(agent string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(agent).Inc()
}

func (m *Metrics) Prediction(emissionKG float64) {
	if m == nil {
		return
	}
	m.predictions.Inc()
	m.emissionKG.Observe(emissionKG)
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}
