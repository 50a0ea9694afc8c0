package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "gemini_relay"

// Metrics holds the relay's collectors. All of them are registered on the
// registry passed to New.
type Metrics struct {
	registry *prometheus.Registry

	ModelAttempts     *prometheus.CounterVec
	ChatReplies       *prometheus.CounterVec
	ModelCallDuration prometheus.Histogram
}

func New(reg *prometheus.Registry) *Metrics {
	return &Metrics{
		registry: reg,
		ModelAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "model_attempts_total",
				Help:      "Calls made to the model service, by classified result.",
			},
			[]string{"result"},
		),
		ChatReplies: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "chat_replies_total",
				Help:      "Chat requests answered, by caller-visible outcome.",
			},
			[]string{"outcome"},
		),
		ModelCallDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Latency of single calls to the model service.",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),
	}
}

// NewWithProcessCollectors is New plus the Go runtime and process
// collectors, for the server binary.
func NewWithProcessCollectors() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
