package ingest

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/invosync/invosync/internal/config"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func newTestRunner(t *testing.T, input string) (*Runner, *gorm.DB, string) {
	t.Helper()

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0o644))
	errPath := filepath.Join(dir, "ingest_errors.log")

	normalizer, db := newTestNormalizer(t)

	runner := NewRunner(RunnerParam{
		Log:        zap.NewNop(),
		Cfg:        config.Config{InputPath: inputPath, ErrorLogPath: errPath, BatchSize: 2, Workers: 2, DefaultCurrency: "EUR"},
		Normalizer: normalizer,
	})
	return runner, db, errPath
}

func TestRun_RecordFailureIsIsolated(t *testing.T) {
	input := `[
		{"invoice_number": "A-1", "total": 10},
		"not an object",
		{"invoice_number": "A-2", "total": 20},
		{"invoice_number": "A-3", "total": 30}
	]`
	runner, db, errPath := newTestRunner(t, input)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	var count int64
	db.Model(&invoicedomain.Invoice{}).Count(&count)
	assert.EqualValues(t, 3, count)

	logged, readErr := os.ReadFile(errPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(logged), "Record 2:")
}

func TestRun_AllRecordsSucceed(t *testing.T) {
	input := `[
		{"invoice_number": "B-1"},
		{"invoice_number": "B-2"},
		{"invoice_number": "B-3"}
	]`
	runner, _, errPath := newTestRunner(t, input)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	// a clean run must not create the error log file
	_, statErr := os.Stat(errPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_LogsGatheredMetricsAtRunEnd(t *testing.T) {
	input := `[
		{"invoice_number": "M-1", "total": 10},
		"not an object"
	]`
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0o644))

	normalizer, _ := newTestNormalizer(t)
	registry := prometheus.NewRegistry()
	ingestMetrics, err := metrics.NewIngestMetrics(registry)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	runner := NewRunner(RunnerParam{
		Log:        zap.New(core),
		Cfg:        config.Config{InputPath: inputPath, ErrorLogPath: filepath.Join(dir, "errors.log"), BatchSize: 2, Workers: 1, DefaultCurrency: "EUR"},
		Normalizer: normalizer,
		Metrics:    ingestMetrics,
		Registry:   registry,
	})

	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	dumped := logs.FilterMessage("metric").All()
	require.NotEmpty(t, dumped)

	byName := map[string]float64{}
	for _, entry := range dumped {
		var name string
		var value float64
		for _, field := range entry.Context {
			switch field.Key {
			case "name":
				name = field.String
			case "result":
				name += ":" + field.String
			case "value":
				value = float64FromField(field)
			}
		}
		byName[name] = value
	}
	assert.Equal(t, float64(1), byName["ingest_records_total:succeeded"])
	assert.Equal(t, float64(1), byName["ingest_records_total:failed"])
	assert.Equal(t, float64(1), byName["ingest_batches_total"])
}

func float64FromField(field zapcore.Field) float64 {
	if field.Type == zapcore.Float64Type {
		return math.Float64frombits(uint64(field.Integer))
	}
	return 0
}

func TestRun_MissingInputIsFatal(t *testing.T) {
	runner, _, _ := newTestRunner(t, "[]")
	runner.cfg.InputPath = filepath.Join(t.TempDir(), "nope.json")

	_, err := runner.Run(context.Background())
	require.Error(t, err)
}

func TestRun_NonArrayInputIsFatal(t *testing.T) {
	runner, _, _ := newTestRunner(t, `{"invoice_number": "X"}`)

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a JSON array")
}
