package zonecheck

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xERR0R/rrsigcheck/metrics"
)

//nolint:gochecknoglobals
var (
	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rrsigcheck_verifications_total",
			Help: "Number of RRSIG verifications by algorithm and result",
		},
		[]string{"algorithm", "result"},
	)

	checkDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rrsigcheck_zone_check_duration_seconds",
			Help:    "Duration of zone checks",
			Buckets: prometheus.DefBuckets,
		},
	)

	registerOnce sync.Once
)

func registerMetrics() {
	registerOnce.Do(func() {
		metrics.RegisterMetric(verificationsTotal)
		metrics.RegisterMetric(checkDuration)
	})
}
