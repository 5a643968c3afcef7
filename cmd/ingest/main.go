// ============================================================================
// Parquet-to-Postgres Ingestion - Main Entry Point
// ============================================================================
//
// File: cmd/ingest/main.go
// Purpose: Application entry point and CLI initialization
//
// Version Injection:
//   Variables injected at build time via -ldflags:
//   go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
//
// Usage:
//   ./parquet-ingest run --config config.yml
//   ./parquet-ingest schema path/to/file.parquet
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/parquet-ingest/internal/appcli"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd := appcli.BuildCLI()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
