package bulkload

import (
	"errors"
	"fmt"

	"github.com/ChuLiYu/parquet-ingest/internal/convert"
)

// ErrLoadFailed is the sentinel wrapped by LoadError.
var ErrLoadFailed = errors.New("bulkload: row write or finalize failed")

// LoadError reports a failed row encode or COPY finalize. Writer fills in
// Table, DestCols and Cause; it leaves DestTypes and SourceDesc empty, since
// it is never given the source descriptors.
type LoadError struct {
	Table      string
	DestCols   []string
	DestTypes  []convert.DestType
	SourceDesc []convert.SourceDescriptor
	Cause      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("bulkload: table %q cols=%v types=%v source=%v: %v",
		e.Table, e.DestCols, e.DestTypes, e.SourceDesc, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
