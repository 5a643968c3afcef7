// ============================================================================
// Configuration
// ============================================================================
//
// Package: internal/config
// File: config.go
// Purpose: Parse and validate the run's YAML configuration document, mirroring
//          the original source's Config/DbConfig/S3Config/ParquetConfig/
//          WorkListsConfig shape field for field.
//
// ============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level document. ParquetToDB mirrors the original's
// Option<HashMap<String, Option<String>>>: a nil map means "no alias map at
// all" (every field maps to its own name); a present key with a nil value
// means "explicitly unset" (same rule - falls back to the source name).
type Config struct {
	DB          DB                  `yaml:"db"`
	S3          S3                  `yaml:"s3"`
	Parquet     Parquet             `yaml:"parquet"`
	ParquetToDB map[string]*string  `yaml:"parquet_to_db"`
	WorkLists   WorkLists           `yaml:"work_lists"`
}

type DB struct {
	TableName string `yaml:"table_name"`
	ConnStr   string `yaml:"conn_str"`
}

type S3 struct {
	Bucket            string `yaml:"bucket"`
	DownloadBatchSize int    `yaml:"download_batch_size"`
	DownloadsDir      string `yaml:"downloads_dir"`
}

type Parquet struct {
	DesiredFields []string `yaml:"desired_fields"`
}

type WorkLists struct {
	Dir string `yaml:"dir"`
}

// Load reads and parses the YAML document at filename. It does not validate;
// call Validate separately, the way the original deferred its own TODO'd
// validation to a distinct step.
func Load(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("config: opening %q: %w", filename, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", filename, err)
	}
	return &cfg, nil
}

// Validate checks the fields the original source's config.rs left as a
// "TODO: verify all elements non-empty" comment.
func (c *Config) Validate() error {
	if c.DB.TableName == "" {
		return fmt.Errorf("%w: db.table_name must not be empty", ErrInvalidConfig)
	}
	if c.DB.ConnStr == "" {
		return fmt.Errorf("%w: db.conn_str must not be empty", ErrInvalidConfig)
	}
	if c.S3.Bucket == "" {
		return fmt.Errorf("%w: s3.bucket must not be empty", ErrInvalidConfig)
	}
	if c.S3.DownloadBatchSize < 0 {
		return fmt.Errorf("%w: s3.download_batch_size must not be negative", ErrInvalidConfig)
	}
	if c.S3.DownloadsDir == "" {
		return fmt.Errorf("%w: s3.downloads_dir must not be empty", ErrInvalidConfig)
	}
	if len(c.Parquet.DesiredFields) == 0 {
		return fmt.Errorf("%w: parquet.desired_fields must not be empty", ErrInvalidConfig)
	}
	if c.WorkLists.Dir == "" {
		return fmt.Errorf("%w: work_lists.dir must not be empty", ErrInvalidConfig)
	}
	return nil
}
