package vlm

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	inferenceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vlmd",
			Subsystem: "engine",
			Name:      "inference_total",
			Help:      "Total number of inference attempts by outcome",
		},
		[]string{"outcome"},
	)

	inferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vlmd",
			Subsystem: "engine",
			Name:      "inference_duration_seconds",
			Help:      "Duration of successful generations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

func init() {
	prometheus.MustRegister(inferenceTotal, inferenceDuration)
}
