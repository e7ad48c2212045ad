package service

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type lookupMetrics struct {
	lookups  *prometheus.CounterVec
	duration prometheus.Histogram
}

// Registered once per process; services created in tests share them.
var (
	metricsOnce     sync.Once
	metricsInstance *lookupMetrics
)

func getLookupMetrics() *lookupMetrics {
	metricsOnce.Do(func() {
		metricsInstance = &lookupMetrics{
			lookups: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "weather_lookups_total",
				Help: "Weather lookups by outcome",
			}, []string{"outcome"}),
			duration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "weather_lookup_duration_seconds",
				Help:    "Time taken to resolve a weather lookup",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			}),
		}
	})
	return metricsInstance
}
