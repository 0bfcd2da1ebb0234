package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/invosync/invosync/internal/config"
	"github.com/invosync/invosync/internal/extract"
	"github.com/invosync/invosync/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner drives one ingestion pass: it streams the raw records in
// bounded batches, isolates per-record failures, and reports a final
// tally. Only driver faults (unreadable input, input not an array) abort
// the run; record failures are logged and counted.
type Runner struct {
	log        *zap.Logger
	cfg        config.Config
	normalizer *Normalizer
	metrics    *metrics.IngestMetrics
	registry   *prometheus.Registry
}

type RunnerParam struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	Normalizer *Normalizer
	Metrics    *metrics.IngestMetrics `optional:"true"`
	Registry   *prometheus.Registry   `optional:"true"`
}

func NewRunner(p RunnerParam) *Runner {
	return &Runner{
		log:        p.Log.Named("ingest.runner"),
		cfg:        p.Cfg,
		normalizer: p.Normalizer,
		metrics:    p.Metrics,
		registry:   p.Registry,
	}
}

// Summary is the final tally of one run. Every input record ends up in
// exactly one of Succeeded or Failed.
type Summary struct {
	RunID     uuid.UUID
	Total     int
	Succeeded int
	Failed    int
}

// Run executes one ingestion pass over the configured input.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.New()}
	log := r.log.With(zap.String("run_id", summary.RunID.String()))

	records, err := loadRecords(r.cfg.InputPath)
	if err != nil {
		return summary, err
	}
	summary.Total = len(records)
	log.Info("starting ingestion",
		zap.String("input", r.cfg.InputPath),
		zap.Int("records", summary.Total),
		zap.Int("batch_size", r.cfg.BatchSize),
		zap.Int("workers", r.cfg.Workers),
	)

	errLog := newErrorLog(r.cfg.ErrorLog())
	defer errLog.Close()

	batchSize := r.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var (
		mu        sync.Mutex
		succeeded int
		failed    int
	)

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		log.Debug("processing batch", zap.Int("from", start), zap.Int("to", end-1))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := start; i < end; i++ {
			index, record := i, records[i]
			g.Go(func() error {
				began := time.Now()
				err := r.processRecord(gctx, record)
				elapsed := time.Since(began)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					r.metrics.ObserveRecord(metrics.RecordResultFailed, elapsed)
					log.Warn("record failed", zap.Int("index", index+1), zap.Error(err))
					if aerr := errLog.Append(index+1, err); aerr != nil {
						log.Warn("error log append failed", zap.Error(aerr))
					}
					return nil
				}
				succeeded++
				r.metrics.ObserveRecord(metrics.RecordResultSucceeded, elapsed)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return summary, err
		}
		r.metrics.ObserveBatch()
	}

	summary.Succeeded = succeeded
	summary.Failed = failed

	log.Info("ingestion complete",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	if summary.Failed > 0 {
		log.Warn("some records failed", zap.String("error_log", r.cfg.ErrorLog()))
	}
	r.logMetrics(log)
	return summary, nil
}

// logMetrics dumps the gathered instrument values into the run log.
// There is no scrape endpoint; the log is the exposition surface.
func (r *Runner) logMetrics(log *zap.Logger) {
	if r.registry == nil {
		return
	}
	families, err := r.registry.Gather()
	if err != nil {
		log.Warn("gather metrics", zap.Error(err))
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			fields := []zap.Field{zap.String("name", family.GetName())}
			for _, label := range metric.GetLabel() {
				fields = append(fields, zap.String(label.GetName(), label.GetValue()))
			}
			switch {
			case metric.GetCounter() != nil:
				fields = append(fields, zap.Float64("value", metric.GetCounter().GetValue()))
			case metric.GetHistogram() != nil:
				fields = append(fields,
					zap.Uint64("count", metric.GetHistogram().GetSampleCount()),
					zap.Float64("sum", metric.GetHistogram().GetSampleSum()),
				)
			case metric.GetGauge() != nil:
				fields = append(fields, zap.Float64("value", metric.GetGauge().GetValue()))
			}
			log.Info("metric", fields...)
		}
	}
}

// processRecord normalizes one record, converting panics from malformed
// shapes into ordinary record failures.
func (r *Runner) processRecord(ctx context.Context, record extract.Record) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	if record == nil {
		return fmt.Errorf("record is not an object")
	}
	_, err = r.normalizer.Ingest(ctx, record)
	return err
}

// loadRecords reads the input collection. The only structural contract
// is "top-level array of objects"; anything else is a driver fault.
func loadRecords(path string) ([]extract.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}

	var entries []any
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("input %s is not a JSON array: %w", path, err)
	}

	records := make([]extract.Record, 0, len(entries))
	for _, entry := range entries {
		if m, ok := entry.(map[string]any); ok {
			records = append(records, m)
		} else {
			// preserve positions for error reporting even when an entry
			// is not an object
			records = append(records, nil)
		}
	}
	return records, nil
}

// errorLog is the append-only per-record failure log kept alongside the
// input for later inspection. The file is opened on the first failure, so
// a clean run leaves nothing behind.
type errorLog struct {
	mu   sync.Mutex
	path string
	file *os.File
}

func newErrorLog(path string) *errorLog {
	return &errorLog{path: path}
}

func (l *errorLog) Append(index int, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		file, openErr := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if openErr != nil {
			return fmt.Errorf("open error log %s: %w", l.path, openErr)
		}
		l.file = file
	}
	_, werr := fmt.Fprintf(l.file, "Record %d: %v\n", index, err)
	return werr
}

func (l *errorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
