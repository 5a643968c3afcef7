package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodYAML = `
db:
  table_name: cars
  conn_str: "host=127.0.0.1 password=postgres user=postgres dbname=warehouse"
s3:
  bucket: my-bucket
  download_batch_size: 10
  downloads_dir: /tmp/downloads
parquet:
  desired_fields:
    - model
    - cyl
    - mpg
    - gear
parquet_to_db:
  cyl: num_of_cyl
  mpg: miles_per_gallon
  gear:
work_lists:
  dir: /tmp/worklists
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeTemp(t, goodYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cars", cfg.DB.TableName)
	assert.Equal(t, "my-bucket", cfg.S3.Bucket)
	assert.Equal(t, []string{"model", "cyl", "mpg", "gear"}, cfg.Parquet.DesiredFields)
	assert.Equal(t, "/tmp/worklists", cfg.WorkLists.Dir)

	require.Contains(t, cfg.ParquetToDB, "cyl")
	require.NotNil(t, cfg.ParquetToDB["cyl"])
	assert.Equal(t, "num_of_cyl", *cfg.ParquetToDB["cyl"])

	require.Contains(t, cfg.ParquetToDB, "gear")
	assert.Nil(t, cfg.ParquetToDB["gear"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	require.Error(t, err)
}

func TestValidate_GoodConfigPasses(t *testing.T) {
	cfg, err := Load(writeTemp(t, goodYAML))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_EmptyTableNameFails(t *testing.T) {
	cfg := &Config{
		DB:        DB{TableName: "", ConnStr: "x"},
		S3:        S3{Bucket: "b", DownloadsDir: "d"},
		Parquet:   Parquet{DesiredFields: []string{"a"}},
		WorkLists: WorkLists{Dir: "d"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_EmptyDesiredFieldsFails(t *testing.T) {
	cfg := &Config{
		DB:        DB{TableName: "t", ConnStr: "x"},
		S3:        S3{Bucket: "b", DownloadsDir: "d"},
		Parquet:   Parquet{DesiredFields: nil},
		WorkLists: WorkLists{Dir: "d"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_NegativeBatchSizeFails(t *testing.T) {
	cfg := &Config{
		DB:        DB{TableName: "t", ConnStr: "x"},
		S3:        S3{Bucket: "b", DownloadsDir: "d", DownloadBatchSize: -1},
		Parquet:   Parquet{DesiredFields: []string{"a"}},
		WorkLists: WorkLists{Dir: "d"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
