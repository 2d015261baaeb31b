// Package metrics records upload counters on a private Prometheus registry
// and writes them out in textfile-collector format at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultNamespace = "productloader"
	defaultSubsystem = "upload"
)

// Recorder holds the run's metrics. A nil Recorder is valid and records nothing.
type Recorder struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  *prometheus.Registry

	recordsRead      prometheus.Counter
	documentsWritten prometheus.Counter
	writeFailures    prometheus.Counter
	writeLatency     prometheus.Histogram
	lastRunUnix      prometheus.Gauge
}

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for the write latency histogram.
func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: defaultNamespace,
		subsystem: defaultSubsystem,
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	factory := promauto.With(r.registry)
	r.recordsRead = factory.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "records_read_total",
		Help:      "Rows read from the input table.",
	})
	r.documentsWritten = factory.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "documents_written_total",
		Help:      "Documents written to the store.",
	})
	r.writeFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "write_failures_total",
		Help:      "Document writes rejected by the store.",
	})
	r.writeLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "write_duration_seconds",
		Help:      "Latency of single document writes.",
		Buckets:   r.buckets,
	})
	r.lastRunUnix = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the metrics were last written.",
	})

	return r
}

func (r *Recorder) RecordsRead(n int) {
	if r == nil {
		return
	}
	r.recordsRead.Add(float64(n))
}

// ObserveWrite records one write attempt and its outcome.
func (r *Recorder) ObserveWrite(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.writeLatency.Observe(d.Seconds())
	if err != nil {
		r.writeFailures.Inc()
		return
	}
	r.documentsWritten.Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile stamps the run time and writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	r.lastRunUnix.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, r.registry)
}
