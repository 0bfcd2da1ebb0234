package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

const (
	RecordResultSucceeded = "succeeded"
	RecordResultFailed    = "failed"
)

// IngestMetrics captures ingestion run health signals.
type IngestMetrics struct {
	recordsProcessed *prometheus.CounterVec
	batchesProcessed prometheus.Counter
	recordDuration   prometheus.Histogram
}

// Module provides the metrics registry and ingestion instruments.
var Module = fx.Options(
	fx.Provide(func() *prometheus.Registry { return prometheus.NewRegistry() }),
	fx.Provide(func(reg *prometheus.Registry) (*IngestMetrics, error) {
		return NewIngestMetrics(reg)
	}),
)

// NewIngestMetrics registers the ingestion instruments on reg.
func NewIngestMetrics(reg prometheus.Registerer) (*IngestMetrics, error) {
	m := &IngestMetrics{
		recordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_records_total",
			Help: "Ingested records by final result.",
		}, []string{"result"}),
		batchesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Processed input batches.",
		}),
		recordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_record_duration_seconds",
			Help:    "Per-record processing latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.recordsProcessed, m.batchesProcessed, m.recordDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRecord records the outcome and latency of one ingested record.
func (m *IngestMetrics) ObserveRecord(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.recordsProcessed.WithLabelValues(result).Inc()
	m.recordDuration.Observe(elapsed.Seconds())
}

// ObserveBatch records one completed batch.
func (m *IngestMetrics) ObserveBatch() {
	if m == nil {
		return
	}
	m.batchesProcessed.Inc()
}
