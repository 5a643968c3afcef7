// ============================================================================
// Converter Registry - Polymorphic SQL Value
// ============================================================================
//
// Package: internal/convert
// File: sqlvalue.go
// Purpose: A small closed sum type representing any value the bulk loader's
//          binary copy-wire encoder can emit, decoupling the Converter
//          Registry (this package) from the destination protocol's own
//          wire encoding (internal/bulkload).
//
// ============================================================================

package convert

import (
	"fmt"
	"time"
)

// Kind tags which field of SQLValue is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindText
	KindBytes
	KindDate
	// KindTimestamp carries a parsed time.Time for TIMESTAMP/TIMESTAMPTZ
	// destinations fed from a BYTE_ARRAY/UTF8 source.
	KindTimestamp
	// KindNetwork carries the original textual form of an INET/CIDR value;
	// internal/bulkload parses it with net/netip at encode time, since the
	// parse result (netip.Addr vs netip.Prefix) depends on the destination
	// type, not on anything the converter knows.
	KindNetwork
)

// SQLValue is a tagged union of the value kinds the destination binary-copy
// protocol accepts. Exactly one field besides Kind is meaningful per value.
type SQLValue struct {
	Kind Kind

	Bool  bool
	I16   int16
	I32   int32
	I64   int64
	F32   float32
	F64   float64
	Text  string
	Bytes []byte

	// Date is a calendar date (Gregorian, no timezone), used when Kind ==
	// KindDate. Year/Month/Day mirror time.Date's arguments.
	Year, Month, Day int

	// Time holds a parsed timestamp when Kind == KindTimestamp.
	Time time.Time
}

func (v SQLValue) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return fmt.Sprintf("%v", v.Bool)
	case KindI16:
		return fmt.Sprintf("%d", v.I16)
	case KindI32:
		return fmt.Sprintf("%d", v.I32)
	case KindI64:
		return fmt.Sprintf("%d", v.I64)
	case KindF32:
		return fmt.Sprintf("%v", v.F32)
	case KindF64:
		return fmt.Sprintf("%v", v.F64)
	case KindText:
		return v.Text
	case KindBytes:
		return fmt.Sprintf("%x", v.Bytes)
	case KindDate:
		return fmt.Sprintf("%04d-%02d-%02d", v.Year, v.Month, v.Day)
	case KindTimestamp:
		return v.Time.Format(time.RFC3339Nano)
	case KindNetwork:
		return v.Text
	default:
		return "<unknown SQLValue kind>"
	}
}

// Null is the value every converter emits for a nil source field.
var Null = SQLValue{Kind: KindNull}
