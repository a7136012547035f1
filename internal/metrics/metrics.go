// Package metrics exposes the extraction pipeline's Prometheus metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoice_extractor",
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"}, // "ok" or the stage that failed
	)

	RecoveryTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoice_extractor",
			Name:      "text_recovery_tier_total",
			Help:      "Documents recovered per text-recovery tier",
		},
		[]string{"tier"},
	)

	ResolutionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoice_extractor",
			Name:      "customer_resolution_total",
			Help:      "Customer resolutions by match kind",
		},
		[]string{"kind"}, // "individual", "store", "none"
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invoice_extractor",
			Name:      "model_request_duration_seconds",
			Help:      "Model invocation duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 45},
		},
		[]string{"provider", "model"},
	)
)

var registered bool

// Register registers the pipeline metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(RecoveryTierTotal)
	prometheus.MustRegister(ResolutionTotal)
	prometheus.MustRegister(ModelRequestDuration)
	registered = true
}
