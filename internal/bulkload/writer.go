// ============================================================================
// Bulk Loader
// ============================================================================
//
// Package: internal/bulkload
// File: writer.go
// Purpose: Stream converted rows into Postgres via COPY ... FROM STDIN
//          (FORMAT binary), one row per WriteRow call, without pgx's own
//          CopyFrom row-batching getting in the way.
//
// Why hand-build the binary stream instead of pgx.CopyFrom: pgx.CopyFrom
// takes a CopyFromSource that yields whole rows up front and batches its own
// wire writes opaquely. This loader is fed one row at a time as the
// orchestrator reads and converts the source file, and needs the encode-then-
// send step to happen inline, in the same call, so a mid-file conversion
// error aborts the COPY cleanly instead of after an unknown amount of
// buffering. Driving pgconn.PgConn.CopyFrom directly over a self-built
// io.Pipe gives that: the writer exists for the lifetime of one COPY, never
// escapes to another goroutine, and every WriteRow call fully encodes and
// flushes its row before returning.
//
// ============================================================================

package bulkload

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/ChuLiYu/parquet-ingest/internal/convert"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// binary COPY signature: "PGCOPY\n\xff\r\n\0"
var copySignature = []byte{'P', 'G', 'C', 'O', 'P', 'Y', '\n', 0xff, '\r', '\n', 0}

// column pairs a destination column name with the OID the binary encoder
// targets, resolved once at writer construction.
type column struct {
	name string
	dest convert.DestType
	oid  uint32
}

// Writer drives one COPY ... FROM STDIN (FORMAT binary) round trip. It is
// not safe for concurrent use and must be used from a single goroutine for
// its entire lifetime: construct, WriteRow per row, then Finish exactly once.
type Writer struct {
	table   string
	columns []column
	typeMap *pgtype.Map

	pw      *io.PipeWriter
	resultC chan copyResult
	rows    int64
	closed  bool
}

type copyResult struct {
	tag pgconn.CommandTag
	err error
}

// NewWriter resolves each destCol's OID from typeMap, issues the COPY
// command, and writes the binary stream header. The returned Writer must be
// ended with Finish, or with Abort on error paths, to release the goroutine
// driving conn.CopyFrom.
func NewWriter(ctx context.Context, conn *pgconn.PgConn, table string, destCols []string, destTypes []convert.DestType, typeMap *pgtype.Map) (*Writer, error) {
	if len(destCols) != len(destTypes) {
		return nil, fmt.Errorf("bulkload: destCols/destTypes length mismatch (%d vs %d)", len(destCols), len(destTypes))
	}
	if typeMap == nil {
		typeMap = pgtype.NewMap()
	}

	columns := make([]column, len(destCols))
	for i, name := range destCols {
		pt, ok := typeMap.TypeForName(string(destTypes[i]))
		if !ok {
			return nil, fmt.Errorf("bulkload: no binary codec registered for destination type %q (column %q)", destTypes[i], name)
		}
		columns[i] = column{name: name, dest: destTypes[i], oid: pt.OID}
	}

	sql := buildCopySQL(table, destCols)

	pr, pw := io.Pipe()
	resultC := make(chan copyResult, 1)
	go func() {
		tag, err := conn.CopyFrom(ctx, pr, sql)
		resultC <- copyResult{tag: tag, err: err}
	}()

	if _, err := pw.Write(copySignature); err != nil {
		pw.CloseWithError(err)
		<-resultC
		return nil, fmt.Errorf("bulkload: writing copy header: %w", err)
	}
	var flagsAndExtLen [8]byte // flags=0, header extension length=0
	if _, err := pw.Write(flagsAndExtLen[:]); err != nil {
		pw.CloseWithError(err)
		<-resultC
		return nil, fmt.Errorf("bulkload: writing copy header: %w", err)
	}

	return &Writer{
		table:   table,
		columns: columns,
		typeMap: typeMap,
		pw:      pw,
		resultC: resultC,
	}, nil
}

func buildCopySQL(table string, destCols []string) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "COPY %s (", table)
	for i, c := range destCols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
	}
	b.WriteString(") FROM STDIN WITH (FORMAT binary)")
	return b.String()
}

// WriteRow encodes and sends one row. values must be in the same order as
// the destCols passed to NewWriter.
func (w *Writer) WriteRow(values []convert.SQLValue) error {
	if len(values) != len(w.columns) {
		return fmt.Errorf("bulkload: row has %d values, expected %d", len(values), len(w.columns))
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, int16(len(values))); err != nil {
		return err
	}
	for i, v := range values {
		col := w.columns[i]
		goVal, err := sqlValueToGo(v, col.dest)
		if err != nil {
			return &LoadError{Table: w.table, DestCols: colNames(w.columns), Cause: fmt.Errorf("column %q: %w", col.name, err)}
		}
		if goVal == nil {
			if err := binary.Write(&buf, binary.BigEndian, int32(-1)); err != nil {
				return err
			}
			continue
		}
		encoded, err := encodeBinary(w.typeMap, col.oid, goVal)
		if err != nil {
			return &LoadError{Table: w.table, DestCols: colNames(w.columns), Cause: fmt.Errorf("column %q: encoding %v: %w", col.name, goVal, err)}
		}
		if err := binary.Write(&buf, binary.BigEndian, int32(len(encoded))); err != nil {
			return err
		}
		buf.Write(encoded)
	}

	if _, err := w.pw.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	w.rows++
	return nil
}

// Finish writes the binary trailer, closes the pipe, and waits for the
// COPY round trip to complete, returning the number of rows the server
// reports as affected.
func (w *Writer) Finish() (int64, error) {
	if w.closed {
		return 0, fmt.Errorf("bulkload: Finish called twice")
	}
	w.closed = true

	var trailer [2]byte
	binary.BigEndian.PutUint16(trailer[:], uint16(0xFFFF)) // int16(-1)
	if _, err := w.pw.Write(trailer[:]); err != nil {
		w.pw.CloseWithError(err)
		<-w.resultC
		return 0, fmt.Errorf("%w: writing trailer: %v", ErrLoadFailed, err)
	}
	if err := w.pw.Close(); err != nil {
		<-w.resultC
		return 0, fmt.Errorf("%w: closing copy stream: %v", ErrLoadFailed, err)
	}

	res := <-w.resultC
	if res.err != nil {
		return 0, &LoadError{Table: w.table, DestCols: colNames(w.columns), Cause: res.err}
	}
	return res.tag.RowsAffected(), nil
}

// Abort discards the in-flight COPY without waiting for a clean trailer,
// used when the caller (the orchestrator) hits a read, conversion or write
// error it cannot recover from mid-file.
func (w *Writer) Abort(cause error) {
	if w.closed {
		return
	}
	w.closed = true
	w.pw.CloseWithError(cause)
	<-w.resultC
}

func colNames(cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

// sqlValueToGo turns a converted SQLValue into the Go representation pgx's
// binary codecs expect for the destination type, resolving the ambiguity the
// SQLValue kind alone can't (e.g. text destined for NUMERIC vs VARCHAR).
func sqlValueToGo(v convert.SQLValue, dest convert.DestType) (any, error) {
	switch v.Kind {
	case convert.KindNull:
		return nil, nil
	case convert.KindBool:
		return v.Bool, nil
	case convert.KindI16:
		return v.I16, nil
	case convert.KindI32:
		return v.I32, nil
	case convert.KindI64:
		return v.I64, nil
	case convert.KindF32:
		return v.F32, nil
	case convert.KindF64:
		return v.F64, nil
	case convert.KindBytes:
		return v.Bytes, nil
	case convert.KindDate:
		return time.Date(v.Year, time.Month(v.Month), v.Day, 0, 0, 0, 0, time.UTC), nil
	case convert.KindTimestamp:
		return v.Time, nil
	case convert.KindText:
		if dest == convert.DestNumeric {
			var n pgtype.Numeric
			if err := n.Scan(v.Text); err != nil {
				return nil, fmt.Errorf("parsing %q as numeric: %w", v.Text, err)
			}
			return n, nil
		}
		return v.Text, nil
	case convert.KindNetwork:
		switch dest {
		case convert.DestInet:
			addr, err := netip.ParseAddr(v.Text)
			if err != nil {
				return nil, fmt.Errorf("parsing %q as inet: %w", v.Text, err)
			}
			return addr, nil
		case convert.DestCidr:
			prefix, err := netip.ParsePrefix(v.Text)
			if err != nil {
				return nil, fmt.Errorf("parsing %q as cidr: %w", v.Text, err)
			}
			return prefix, nil
		default:
			return nil, fmt.Errorf("network value for non-network destination %q", dest)
		}
	default:
		return nil, fmt.Errorf("unhandled SQLValue kind %v", v.Kind)
	}
}

// encodeBinary plans and runs the binary-format encoder for oid/goVal via
// the shared pgtype.Map, the same codec set pgx uses for normal query
// parameters.
func encodeBinary(m *pgtype.Map, oid uint32, goVal any) ([]byte, error) {
	plan := m.PlanEncode(oid, pgtype.BinaryFormatCode, goVal)
	if plan == nil {
		return nil, fmt.Errorf("no binary encode plan for OID %d and Go type %T", oid, goVal)
	}
	return plan.Encode(goVal, nil)
}
