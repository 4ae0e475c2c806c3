// Package metrics exports dispatch activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
)

const namespace = "draconic"

// Exporter turns dispatch events into Prometheus series. It keeps its own
// registry rather than the global default one.
type Exporter struct {
	registry *prometheus.Registry

	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

func New() *Exporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Exporter{
		registry: reg,
		actions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Dispatched actions, partitioned by method and response code.",
			},
			[]string{"method", "code"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Time from admission to response, per method.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"method"},
		),
		events: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Events seen on the dispatch bus, by type.",
			},
			[]string{"type"},
		),
	}
}

// Attach subscribes the exporter to every event of d and exposes d's
// in-flight count and running averages. The returned func detaches the
// listener; the gauges stay registered.
func (e *Exporter) Attach(d *dispatch.Dispatcher) func() {
	e.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actions_in_flight",
			Help:      "Requests currently admitted and running.",
		}, func() float64 { return float64(len(d.State().InFlight)) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "action_average_response_ms",
			Help:      "Running mean response time reported by the dispatcher.",
		}, func() float64 { return d.Metrics().AverageResponseTime }),
	)
	return d.On(dispatch.Wildcard, e.Observe)
}

// Observe records one event.
func (e *Exporter) Observe(ev dispatch.Event) {
	e.events.WithLabelValues(string(ev.Type)).Inc()

	ae, ok := ev.Data.(dispatch.ActionEvent)
	if !ok {
		return
	}
	code := ae.Response.Code
	if ae.Response.Success {
		code = "OK"
	}
	method := ae.Request.Method
	if method == "" {
		method = "unknown"
	}
	e.actions.WithLabelValues(method, code).Inc()
	e.duration.WithLabelValues(method).Observe(ae.Response.DurationMs / 1000)
}

// Registry returns the registry the exporter writes to.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}
