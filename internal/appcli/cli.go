// ============================================================================
// Command-Line Interface
// ============================================================================
//
// Package: internal/appcli
// File: cli.go
// Purpose: Build the Cobra command tree: "run" drives a full ingestion pass;
//          "schema" is the supplemented debug mode that opens a columnar
//          file and prints its leaf-column schema without touching the
//          database.
//
// ============================================================================

package appcli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ChuLiYu/parquet-ingest/internal/appmetrics"
	"github.com/ChuLiYu/parquet-ingest/internal/config"
	"github.com/ChuLiYu/parquet-ingest/internal/fetcher"
	"github.com/ChuLiYu/parquet-ingest/internal/orchestrator"
	"github.com/ChuLiYu/parquet-ingest/internal/parquetreader"
	"github.com/ChuLiYu/parquet-ingest/internal/schema"
	"github.com/ChuLiYu/parquet-ingest/internal/worklist"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
)

// BuildCLI assembles the root command and its subcommands.
func BuildCLI() *cobra.Command {
	var configPath string
	var metricsAddr string

	root := &cobra.Command{
		Use:   "parquet-ingest",
		Short: "Ingest columnar files from object storage into Postgres",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML configuration file (required)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one ingestion pass, draining the work-list backlog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("appcli: --config is required")
			}
			return runIngest(cmd.Context(), configPath, metricsAddr)
		},
	}
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (e.g. :9090); disabled if empty")
	root.AddCommand(runCmd)

	var schemaFields []string
	schemaCmd := &cobra.Command{
		Use:   "schema <file>",
		Short: "Print a columnar file's leaf-column schema without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSchema(args[0], schemaFields)
		},
	}
	schemaCmd.Flags().StringSliceVar(&schemaFields, "fields", nil, "restrict output to these field names (default: all leaf columns)")
	root.AddCommand(schemaCmd)

	return root
}

// runIngest loads and validates configuration, wires the core components,
// and drives the orchestrator to completion, honoring SIGINT/SIGTERM.
func runIngest(ctx context.Context, configPath, metricsAddr string) error {
	log := slog.Default()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := pgx.Connect(ctx, cfg.DB.ConnStr)
	if err != nil {
		return fmt.Errorf("appcli: connecting to database: %w", err)
	}
	defer conn.Close(context.Background())

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("appcli: loading AWS config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg)

	if err := os.MkdirAll(cfg.S3.DownloadsDir, 0o755); err != nil {
		return fmt.Errorf("appcli: creating downloads dir: %w", err)
	}

	sched, err := worklist.New(cfg.WorkLists.Dir, cfg.S3.DownloadBatchSize, log)
	if err != nil {
		return err
	}

	metrics := appmetrics.NewCollector()
	if metricsAddr != "" {
		go func() {
			if err := appmetrics.StartServer(ctx, metricsAddr); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	o := orchestrator.New(orchestrator.Orchestrator{
		Scheduler:     sched,
		Fetcher:       fetcher.NewS3Fetcher(s3Client, 5, log),
		Conn:          conn.PgConn(),
		TypeMap:       conn.TypeMap(),
		Catalog:       schema.NewPgxCatalog(conn),
		Resolver:      schema.NewPgxTypeResolver(conn.TypeMap()),
		Table:         cfg.DB.TableName,
		DesiredFields: cfg.Parquet.DesiredFields,
		Aliases:       cfg.ParquetToDB,
		Bucket:        cfg.S3.Bucket,
		DownloadsDir:  cfg.S3.DownloadsDir,
		Metrics:       metrics,
		Log:           log,
	})

	return o.Run(ctx)
}

// showSchema opens file read-only and prints its leaf columns' (physical,
// logical) pair - the ported `display_schema()` debug helper.
func showSchema(file string, fields []string) error {
	rdr, err := parquetreader.Open(file)
	if err != nil {
		return err
	}
	defer rdr.Close()

	if len(fields) == 0 {
		fields = rdr.LeafNames()
	}

	descs, err := rdr.ResolveFields(fields)
	if err != nil {
		return err
	}

	fmt.Printf("%-24s %-12s %-10s\n", "FIELD", "PHYSICAL", "LOGICAL")
	for _, d := range descs {
		logical := string(d.Logical)
		if logical == "" {
			logical = "-"
		}
		fmt.Printf("%-24s %-12s %-10s\n", d.Name, d.Physical, logical)
	}
	fmt.Printf("\n%d rows\n", rdr.NumRows())
	return nil
}
