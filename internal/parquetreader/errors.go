package parquetreader

import "errors"

var (
	// ErrNotOpenable indicates the local file could not be opened.
	ErrNotOpenable = errors.New("parquetreader: file not openable")

	// ErrInvalidFormat indicates the file does not parse as Parquet.
	ErrInvalidFormat = errors.New("parquetreader: file is not a valid Parquet file")

	// ErrFieldNotFound indicates a requested field name has no matching
	// leaf column in the file's schema.
	ErrFieldNotFound = errors.New("parquetreader: requested field not found in schema")
)
