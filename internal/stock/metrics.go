package stock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsMu          sync.Mutex
	metricsInitialized bool
	metricsError       error

	snapshotHits  prometheus.Counter
	snapshotMiss  prometheus.Counter
	fetchDuration *prometheus.HistogramVec
)

// SetupMetrics registers the snapshot cache collectors once.
func SetupMetrics(reg prometheus.Registerer) error {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if metricsInitialized {
		return metricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockreview_snapshot_cache_hits_total",
		Help: "Snapshot lookups answered from Redis.",
	})
	miss := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockreview_snapshot_cache_miss_total",
		Help: "Snapshot lookups that hit the backend.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockreview_source_fetch_duration_seconds",
		Help:    "Duration of backend record fetches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	collectors := []prometheus.Collector{hits, miss, duration}
	for i, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				metricsError = err
				metricsInitialized = true
				return err
			}
			collectors[i] = already.ExistingCollector
		}
	}
	var ok bool
	if snapshotHits, ok = collectors[0].(prometheus.Counter); !ok {
		metricsError = fmt.Errorf("stock metrics: unexpected collector type %T", collectors[0])
	}
	if snapshotMiss, ok = collectors[1].(prometheus.Counter); !ok {
		metricsError = fmt.Errorf("stock metrics: unexpected collector type %T", collectors[1])
	}
	if fetchDuration, ok = collectors[2].(*prometheus.HistogramVec); !ok {
		metricsError = fmt.Errorf("stock metrics: unexpected collector type %T", collectors[2])
	}
	metricsInitialized = true
	return metricsError
}

func recordCacheHit() {
	if snapshotHits != nil {
		snapshotHits.Inc()
	}
}

func recordCacheMiss() {
	if snapshotMiss != nil {
		snapshotMiss.Inc()
	}
}

func observeFetch(err error, d time.Duration) {
	if fetchDuration == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	fetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
