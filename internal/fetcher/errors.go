package fetcher

import "errors"

var (
	// ErrTrailingSlashKey indicates a requested object key names a prefix,
	// not an object, and cannot be downloaded to a single local file.
	ErrTrailingSlashKey = errors.New("fetcher: object key ends in \"/\"")

	// ErrObjectMissing wraps any failed download of a requested key, a key
	// absent from the bucket included.
	ErrObjectMissing = errors.New("fetcher: object not found")
)
