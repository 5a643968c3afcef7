// ============================================================================
// Converter Registry - Type Descriptors
// ============================================================================
//
// Package: internal/convert
// File: descriptor.go
// Purpose: Names the (physical, logical) pairs the Columnar Reader Adapter
//          reports and the destination SQL type names Schema Binding
//          resolves, as plain strings matching the vocabulary of the
//          underlying Parquet and Postgres catalogs respectively. Keeping
//          these as strings (rather than importing the parquet/pgx packages
//          here) keeps the registry dependency-free and independently
//          testable.
//
// ============================================================================

package convert

// Physical is a columnar file's wire-level encoding for a leaf column.
type Physical string

const (
	PhysicalBool      Physical = "BOOL"
	PhysicalInt32     Physical = "INT32"
	PhysicalByteArray Physical = "BYTE_ARRAY"
	PhysicalFloat     Physical = "FLOAT"
	PhysicalDouble    Physical = "DOUBLE"
)

// Logical is the semantic annotation layered on top of a Physical encoding.
// LogicalNone means no annotation was present on the source field.
type Logical string

const (
	LogicalNone    Logical = ""
	LogicalBool    Logical = "BOOL"
	LogicalInt8    Logical = "INT_8"
	LogicalInt16   Logical = "INT_16"
	LogicalInt32   Logical = "INT_32"
	LogicalDate    Logical = "DATE"
	LogicalUTF8    Logical = "UTF8"
	LogicalEnum    Logical = "ENUM"
	LogicalJSON    Logical = "JSON"
	LogicalBSON    Logical = "BSON"
	LogicalDecimal Logical = "DECIMAL"
)

// SourceDescriptor names one requested field's source-side type pair plus
// the decimal scale needed to decode BYTE_ARRAY/DECIMAL values correctly.
// Scale is ignored for every other (Physical, Logical) combination.
type SourceDescriptor struct {
	Name     string
	Physical Physical
	Logical  Logical
	Scale    int
}

// DestType names a destination SQL type the way Schema Binding resolves it
// from the Postgres catalog (pg_type.typname), lower-cased.
type DestType string

const (
	DestBool        DestType = "bool"
	DestSmallInt    DestType = "int2"
	DestInt         DestType = "int4"
	DestBigInt      DestType = "int8"
	DestDate        DestType = "date"
	DestVarchar     DestType = "varchar"
	DestText        DestType = "text"
	DestChar        DestType = "bpchar"
	DestTimestamp   DestType = "timestamp"
	DestTimestampTz DestType = "timestamptz"
	DestInet        DestType = "inet"
	DestCidr        DestType = "cidr"
	DestBytea       DestType = "bytea"
	DestNumeric     DestType = "numeric"
	DestFloat4      DestType = "float4"
	DestFloat8      DestType = "float8"
)

func isTextDest(d DestType) bool {
	switch d {
	case DestVarchar, DestText, DestChar:
		return true
	}
	return false
}
