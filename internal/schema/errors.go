package schema

import "errors"

var (
	// ErrTableNotFound indicates the destination catalog reported zero
	// columns for the requested table - i.e. the table does not exist.
	ErrTableNotFound = errors.New("schema: destination table not found")

	// ErrColumnNotFound indicates a resolved destination column name is
	// absent from the catalog.
	ErrColumnNotFound = errors.New("schema: destination column not found")

	// ErrUnknownOID indicates the catalog reported a type OID this
	// implementation does not recognize.
	ErrUnknownOID = errors.New("schema: unrecognized column type OID")
)
