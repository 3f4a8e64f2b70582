package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "urd_"

	classMainshock  = "mainshock"
	classAftershock = "aftershock"
)

// Recorder holds the declustering metrics on a private registry. A nil
// Recorder discards every observation.
type Recorder struct {
	registry *prometheus.Registry

	runs      *prometheus.CounterVec
	events    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	cacheHits prometheus.Counter
}

// NewRecorder creates and registers the metrics
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "decluster_runs_total",
				Help: "Total declustering runs by method",
			},
			[]string{"method"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "decluster_events_total",
				Help: "Total classified events by method and class",
			},
			[]string{"method", "class"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "decluster_duration_seconds",
				Help:    "Declustering engine latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"method"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_hits_total",
				Help: "Total runs answered from the result cache",
			},
		),
	}

	r.registry.MustRegister(r.runs, r.events, r.duration, r.cacheHits)
	return r
}

// ObserveRun records one completed run. Cached runs count but do not feed
// the latency histogram.
func (r *Recorder) ObserveRun(method string, mainshocks, aftershocks int, elapsed time.Duration, cached bool) {
	if r == nil {
		return
	}

	r.runs.WithLabelValues(method).Inc()
	r.events.WithLabelValues(method, classMainshock).Add(float64(mainshocks))
	r.events.WithLabelValues(method, classAftershock).Add(float64(aftershocks))

	if cached {
		r.cacheHits.Inc()
		return
	}
	r.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// WriteTextfile writes the metrics in the node_exporter textfile format
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
