// Package metrics exposes Prometheus collectors for the HTTP layer and the
// version workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/projectnexus/nexus/internal/application/ports"
)

const namespace = "nexus"

// Collector owns a private registry so tests can build several.
type Collector struct {
	registry     *prometheus.Registry
	httpDuration *prometheus.HistogramVec
	effectFails  *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	authAttempts *prometheus.CounterVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		effectFails: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Best-effort side effects that failed, by effect",
		}, []string{"effect"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_transitions_total",
			Help:      "Versions entering a status",
		}, []string{"status"}),
		authAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Register and login attempts by outcome",
		}, []string{"event", "success"}),
	}
}

func (c *Collector) EffectFailed(effect string) {
	c.effectFails.WithLabelValues(effect).Inc()
}

func (c *Collector) VersionTransition(status string) {
	c.transitions.WithLabelValues(status).Inc()
}

func (c *Collector) AuthAttempt(event string, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	c.authAttempts.WithLabelValues(event, s).Inc()
}

func (c *Collector) ObserveHTTP(method, route, status string, seconds float64) {
	c.httpDuration.WithLabelValues(method, route, status).Observe(seconds)
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

var _ ports.Metrics = (*Collector)(nil)
