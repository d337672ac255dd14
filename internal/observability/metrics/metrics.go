package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "eiep3_"

	ResultSuccess = "success"
	ResultEmpty   = "empty"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	loadRuns       *prometheus.CounterVec
	loadLatency    *prometheus.HistogramVec
	recordsDecoded prometheus.Counter
	decodeFailures *prometheus.CounterVec
)

// Init registers loader metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		loadRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "load_runs_total",
				Help: "Total load runs by result",
			},
			[]string{"result"},
		)
		loadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "load_latency_seconds",
				Help:    "Load run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		recordsDecoded = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_decoded_total",
				Help: "Total detail records decoded",
			},
		)
		decodeFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "decode_failures_total",
				Help: "Total decode failures by kind",
			},
			[]string{"kind"},
		)

		prometheus.MustRegister(
			loadRuns,
			loadLatency,
			recordsDecoded,
			decodeFailures,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveLoadRun records one finished load run.
func ObserveLoadRun(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if loadRuns != nil {
		loadRuns.WithLabelValues(result).Inc()
	}
	if loadLatency != nil {
		loadLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddRecordsDecoded adds decoded detail records.
func AddRecordsDecoded(count int) {
	if recordsDecoded != nil && count > 0 {
		recordsDecoded.Add(float64(count))
	}
}

// IncDecodeFailure increments the decode failure counter.
func IncDecodeFailure(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if decodeFailures != nil {
		decodeFailures.WithLabelValues(kind).Inc()
	}
}
