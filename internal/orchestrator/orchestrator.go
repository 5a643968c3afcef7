// ============================================================================
// Orchestrator
// ============================================================================
//
// Package: internal/orchestrator
// File: orchestrator.go
// Purpose: Glue the five core components into one run: pull a batch from the
//          scheduler, fetch its files, and for each file read, convert, load,
//          mark completed, delete - exiting cleanly when the backlog is dry.
//
// Scheduling model: single-threaded cooperative, per §5 - one batch at a
// time, one file at a time. The fetcher is the only component allowed its
// own bounded concurrency; this loop awaits its full result before moving on.
//
// ============================================================================

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChuLiYu/parquet-ingest/internal/bulkload"
	"github.com/ChuLiYu/parquet-ingest/internal/convert"
	"github.com/ChuLiYu/parquet-ingest/internal/fetcher"
	"github.com/ChuLiYu/parquet-ingest/internal/parquetreader"
	"github.com/ChuLiYu/parquet-ingest/internal/schema"
	"github.com/ChuLiYu/parquet-ingest/internal/worklist"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Metrics is the subset of internal/appmetrics.Collector the orchestrator
// drives. Kept as a narrow interface here so this package doesn't import the
// prometheus client directly.
type Metrics interface {
	RecordFileIngested()
	RecordRowsIngested(n int64)
	RecordFetchError()
	ObserveBatchDuration(d time.Duration)
	ObserveFileLoadDuration(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordFileIngested()                   {}
func (noopMetrics) RecordRowsIngested(int64)               {}
func (noopMetrics) RecordFetchError()                       {}
func (noopMetrics) ObserveBatchDuration(time.Duration)       {}
func (noopMetrics) ObserveFileLoadDuration(time.Duration)    {}

// Orchestrator composes the scheduler, fetcher, and core ingestion pipeline
// for a single run against one destination table.
type Orchestrator struct {
	Scheduler *worklist.Scheduler
	Fetcher   fetcher.Fetcher
	Conn      *pgconn.PgConn
	TypeMap   *pgtype.Map

	Catalog  schema.ColumnCatalog
	Resolver schema.TypeResolver

	Table         string
	DesiredFields []string
	Aliases       schema.AliasMap
	Bucket        string
	DownloadsDir  string

	Metrics Metrics
	Log     *slog.Logger
}

// New fills in defaults (a no-op Metrics, a default slog.Logger) for any
// field left zero, matching the teacher's pattern of forgiving constructors
// over panicking on missing optional collaborators.
func New(o Orchestrator) *Orchestrator {
	if o.Metrics == nil {
		o.Metrics = noopMetrics{}
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
	if o.TypeMap == nil {
		o.TypeMap = pgtype.NewMap()
	}
	oc := o
	return &oc
}

// Run binds the destination schema once, then drives batches to completion
// until the scheduler reports an empty batch (backlog exhausted). It returns
// on the first unrecoverable error, per §7's "abort run, leave the failing
// item in wip, no retries" policy - the failing item stays in wip for the
// next run to pick straight back up.
func (o *Orchestrator) Run(ctx context.Context) error {
	destCols, destTypes, err := schema.Bind(ctx, o.Catalog, o.Resolver, o.Table, o.DesiredFields, o.Aliases)
	if err != nil {
		return fmt.Errorf("orchestrator: binding schema: %w", err)
	}

	for {
		batch, err := o.Scheduler.NextBatch()
		if err != nil {
			return fmt.Errorf("orchestrator: fetching next batch: %w", err)
		}
		if len(batch) == 0 {
			o.Log.Info("backlog exhausted, exiting")
			return nil
		}

		batchStart := time.Now()
		localPaths, err := o.Fetcher.Fetch(ctx, o.Bucket, batch, o.DownloadsDir)
		if err != nil {
			o.Metrics.RecordFetchError()
			return fmt.Errorf("orchestrator: fetching batch %v: %w", batch, err)
		}

		for _, item := range batch {
			fileStart := time.Now()
			rows, err := o.ingestOne(ctx, localPaths[item], destCols, destTypes)
			if err != nil {
				return fmt.Errorf("%w: item %q: %v", ErrFileIngestFailed, item, err)
			}
			o.Metrics.ObserveFileLoadDuration(time.Since(fileStart))
			o.Metrics.RecordFileIngested()
			o.Metrics.RecordRowsIngested(rows)

			if err := o.Scheduler.MarkCompleted(item); err != nil {
				return fmt.Errorf("orchestrator: marking %q completed: %w", item, err)
			}
			if err := o.Fetcher.Delete(localPaths[item]); err != nil {
				o.Log.Warn("failed to delete local file after successful load", "item", item, "path", localPaths[item], "error", err)
			}
		}
		o.Metrics.ObserveBatchDuration(time.Since(batchStart))
	}
}

// ingestOne reads localPath end to end: open, resolve the requested source
// columns against its schema, build converters, and stream every row through
// a fresh binary COPY. It returns the number of rows the server reports.
func (o *Orchestrator) ingestOne(ctx context.Context, localPath string, destCols []string, destTypes []convert.DestType) (int64, error) {
	rdr, err := parquetreader.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("opening %q: %w", localPath, err)
	}
	defer rdr.Close()

	sources, err := rdr.ResolveFields(o.DesiredFields)
	if err != nil {
		return 0, fmt.Errorf("resolving fields in %q: %w", localPath, err)
	}

	convFns, err := convert.Build(sources, destTypes)
	if err != nil {
		return 0, fmt.Errorf("building converters for %q: %w", localPath, err)
	}

	writer, err := bulkload.NewWriter(ctx, o.Conn, o.Table, destCols, destTypes, o.TypeMap)
	if err != nil {
		return 0, fmt.Errorf("starting copy for %q: %w", localPath, err)
	}

	values := make([]convert.SQLValue, len(convFns))
	for {
		row, ok, err := rdr.Next()
		if err != nil {
			writer.Abort(err)
			return 0, fmt.Errorf("reading %q: %w", localPath, err)
		}
		if !ok {
			break
		}
		for i, fn := range convFns {
			v, err := fn(row[i])
			if err != nil {
				writer.Abort(err)
				return 0, fmt.Errorf("converting row in %q: %w", localPath, err)
			}
			values[i] = v
		}
		if err := writer.WriteRow(values); err != nil {
			writer.Abort(err)
			return 0, fmt.Errorf("writing row from %q: %w", localPath, err)
		}
	}

	rows, err := writer.Finish()
	if err != nil {
		return 0, fmt.Errorf("finalizing copy for %q: %w", localPath, err)
	}
	return rows, nil
}
