package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"savviwell/internal/mealplan"
	"savviwell/internal/shared"
)

// Collector exposes Prometheus metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	plansTotal          *prometheus.CounterVec
	planDuration        *prometheus.HistogramVec
	collaboratorFailure *prometheus.CounterVec
	aiTokens            *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// NewCollector creates a Collector with Go and process collectors registered.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		plansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "savviwell_plans_total",
			Help: "Meal plans generated, by source.",
		}, []string{"source"}),
		planDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "savviwell_plan_duration_seconds",
			Help:    "Time to generate a meal plan.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		collaboratorFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "savviwell_collaborator_failures_total",
			Help: "External collaborator failures recovered by fallback.",
		}, []string{"collaborator"}),
		aiTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "savviwell_ai_tokens_total",
			Help: "Tokens consumed by AI calls.",
		}, []string{"agent", "kind"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "savviwell_http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "savviwell_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObservePlan counts a generated plan.
func (c *Collector) ObservePlan(source mealplan.Source, elapsed time.Duration) {
	c.plansTotal.WithLabelValues(string(source)).Inc()
	c.planDuration.WithLabelValues(string(source)).Observe(elapsed.Seconds())
}

// ObserveCollaboratorFailure counts a recovered collaborator failure.
func (c *Collector) ObserveCollaboratorFailure(collaborator string) {
	c.collaboratorFailure.WithLabelValues(collaborator).Inc()
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordMeta adds the call's tokens to the token counter.
func (c *Collector) RecordMeta(meta shared.AgentMeta) error {
	c.aiTokens.WithLabelValues(meta.AgentName, "prompt").Add(float64(meta.Usage.PromptTokens))
	c.aiTokens.WithLabelValues(meta.AgentName, "completion").Add(float64(meta.Usage.CompletionTokens))
	return nil
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Tee fans usage records out to every recorder and returns the first error.
type Tee []shared.UsageRecorder

func (t Tee) RecordMeta(meta shared.AgentMeta) error {
	var first error
	for _, r := range t {
		if r == nil {
			continue
		}
		if err := r.RecordMeta(meta); err != nil && first == nil {
			first = err
		}
	}
	return first
}
