// ============================================================================
// Ingestion Metrics
// ============================================================================
//
// Package: internal/appmetrics
// File: collector.go
// Purpose: Collect and expose Prometheus metrics for the ingestion run:
//          files and rows loaded, fetch errors, and batch/file durations.
//
// HTTP Endpoint:
//   Exposed via /metrics, scraped by Prometheus. Started on a background
//   goroutine by the CLI when --metrics-addr is set - the one piece of
//   incidental concurrency outside the fetcher.
//
// ============================================================================

package appmetrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects the ingestion run's Prometheus metrics. It satisfies
// internal/orchestrator.Metrics.
type Collector struct {
	filesIngested prometheus.Counter
	rowsIngested  prometheus.Counter
	fetchErrors   prometheus.Counter

	batchDuration prometheus.Histogram
	fileDuration  prometheus.Histogram
}

// NewCollector builds and registers a Collector against the default
// Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		filesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_files_ingested_total",
			Help: "Total number of files successfully loaded",
		}),
		rowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_rows_ingested_total",
			Help: "Total number of rows successfully loaded",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_fetch_errors_total",
			Help: "Total number of batch fetch failures",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_batch_duration_seconds",
			Help:    "Time to fetch and load one full batch",
			Buckets: prometheus.DefBuckets,
		}),
		fileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_file_duration_seconds",
			Help:    "Time to read, convert, and load one file",
			Buckets: prometheus.DefBuckets,
		}),
	}

	prometheus.MustRegister(c.filesIngested)
	prometheus.MustRegister(c.rowsIngested)
	prometheus.MustRegister(c.fetchErrors)
	prometheus.MustRegister(c.batchDuration)
	prometheus.MustRegister(c.fileDuration)

	return c
}

func (c *Collector) RecordFileIngested() {
	c.filesIngested.Inc()
}

func (c *Collector) RecordRowsIngested(n int64) {
	c.rowsIngested.Add(float64(n))
}

func (c *Collector) RecordFetchError() {
	c.fetchErrors.Inc()
}

func (c *Collector) ObserveBatchDuration(d time.Duration) {
	c.batchDuration.Observe(d.Seconds())
}

func (c *Collector) ObserveFileLoadDuration(d time.Duration) {
	c.fileDuration.Observe(d.Seconds())
}

// StartServer starts the Prometheus metrics HTTP server, shutting down
// cleanly when ctx is canceled.
func StartServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errC := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errC <- err
			return
		}
		errC <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("appmetrics: shutting down server: %w", err)
		}
		return nil
	case err := <-errC:
		return err
	}
}
