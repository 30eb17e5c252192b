package sequence

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	allocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clinic_hms",
		Subsystem: "sequence",
		Name:      "allocations_total",
		Help:      "Identifiers allocated, by sequence type and outcome.",
	}, []string{"type", "outcome"})

	allocationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clinic_hms",
		Subsystem: "sequence",
		Name:      "allocation_duration_seconds",
		Help:      "Latency of identifier allocation including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(allocationsTotal, allocationSeconds)
}

func observeAllocation(typ string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	allocationsTotal.WithLabelValues(typ, outcome).Inc()
	allocationSeconds.WithLabelValues(typ).Observe(time.Since(start).Seconds())
}
