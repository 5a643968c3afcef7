package orchestrator

import "errors"

// ErrFileIngestFailed wraps any error encountered while ingesting a single
// work item, so the caller's log line and exit code can distinguish a
// mid-file failure from a scheduler- or fetch-level one.
var ErrFileIngestFailed = errors.New("orchestrator: file ingest failed")
