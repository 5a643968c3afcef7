// ============================================================================
// Columnar Reader Adapter
// ============================================================================
//
// Package: internal/parquetreader
// File: reader.go
// Purpose: Open a Parquet file read-only, expose its leaf-column schema,
//          resolve requested field names to ordinal positions, and yield a
//          lazy, forward-only sequence of rows restricted to those columns.
//
// Leaf numbering: leaves are numbered 0,1,2,... in depth-first order across
// the file's schema tree; group (non-leaf) nodes contribute no ordinal of
// their own. The reference schemas this adapter is built against (the cars
// and iris DuckDB-produced files in the original source's test fixtures) are
// both flat - every top-level field is a leaf - so depth-first numbering and
// top-level numbering coincide for them, but the walk below handles nested
// group types generally.
//
// Resource discipline: Reader owns both the underlying os.File (via
// parquet-go-source/local) and the parquet-go reader built on top of it;
// Close releases both, deterministically, before the caller deletes the
// downloaded file.
//
// ============================================================================

package parquetreader

import (
	"fmt"

	"github.com/ChuLiYu/parquet-ingest/internal/convert"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
)

// leafColumn describes one leaf of the file's schema tree.
type leafColumn struct {
	name     string
	physical convert.Physical
	logical  convert.Logical
	scale    int
}

// Reader adapts a Parquet file to the ingestion pipeline's needs: column
// resolution plus row iteration restricted to the requested columns.
type Reader struct {
	pr     *reader.ParquetReader
	leaves []leafColumn

	ordinals []int // one per requested field, in request order
	numRows  int64
	cursor   int64
}

// Open opens filename read-only and parses its footer schema. It does not
// read any row data yet.
func Open(filename string) (*Reader, error) {
	fr, err := local.NewLocalFileReader(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotOpenable, filename, err)
	}

	pr, err := reader.NewParquetReader(fr, nil, 4)
	if err != nil {
		fr.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, filename, err)
	}

	leaves := walkSchema(pr)

	return &Reader{
		pr:      pr,
		leaves:  leaves,
		numRows: pr.GetNumRows(),
	}, nil
}

// Close releases the file handle. Safe to call once; the caller (the
// orchestrator) deletes the local file only after Close returns.
func (r *Reader) Close() error {
	r.pr.ReadStop()
	return r.pr.PFile.Close()
}

// walkSchema flattens the file's schema tree into leaf columns, skipping
// the synthetic root message element and any intermediate group nodes.
func walkSchema(pr *reader.ParquetReader) []leafColumn {
	var leaves []leafColumn
	elements := pr.SchemaHandler.SchemaElements
	for _, se := range elements {
		if se.GetNumChildren() > 0 {
			continue // group node, not a leaf
		}
		if se.Type == nil {
			continue // the root message element itself
		}
		leaves = append(leaves, leafColumn{
			name:     se.GetName(),
			physical: physicalOf(se),
			logical:  logicalOf(se),
			scale:    int(se.GetScale()),
		})
	}
	return leaves
}

func physicalOf(se *parquet.SchemaElement) convert.Physical {
	switch se.GetType() {
	case parquet.Type_BOOLEAN:
		return convert.PhysicalBool
	case parquet.Type_INT32:
		return convert.PhysicalInt32
	case parquet.Type_BYTE_ARRAY, parquet.Type_FIXED_LEN_BYTE_ARRAY:
		return convert.PhysicalByteArray
	case parquet.Type_FLOAT:
		return convert.PhysicalFloat
	case parquet.Type_DOUBLE:
		return convert.PhysicalDouble
	default:
		return convert.Physical(se.GetType().String())
	}
}

func logicalOf(se *parquet.SchemaElement) convert.Logical {
	if se.ConvertedType == nil {
		return convert.LogicalNone
	}
	switch *se.ConvertedType {
	case parquet.ConvertedType_UTF8:
		return convert.LogicalUTF8
	case parquet.ConvertedType_DATE:
		return convert.LogicalDate
	case parquet.ConvertedType_INT_8:
		return convert.LogicalInt8
	case parquet.ConvertedType_INT_16:
		return convert.LogicalInt16
	case parquet.ConvertedType_INT_32:
		return convert.LogicalInt32
	case parquet.ConvertedType_ENUM:
		return convert.LogicalEnum
	case parquet.ConvertedType_JSON:
		return convert.LogicalJSON
	case parquet.ConvertedType_BSON:
		return convert.LogicalBSON
	case parquet.ConvertedType_DECIMAL:
		return convert.LogicalDecimal
	default:
		return convert.LogicalNone
	}
}

// ResolveFields maps requested field names to their leaf ordinal and
// (physical, logical) descriptor, preserving request order and allowing
// duplicate names to resolve to the same ordinal.
func (r *Reader) ResolveFields(fields []string) ([]convert.SourceDescriptor, error) {
	byName := make(map[string]int, len(r.leaves))
	for i, l := range r.leaves {
		if _, exists := byName[l.name]; !exists {
			byName[l.name] = i
		}
	}

	descs := make([]convert.SourceDescriptor, len(fields))
	ordinals := make([]int, len(fields))
	for i, f := range fields {
		idx, ok := byName[f]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, f)
		}
		leaf := r.leaves[idx]
		descs[i] = convert.SourceDescriptor{
			Name:     leaf.name,
			Physical: leaf.physical,
			Logical:  leaf.logical,
			Scale:    leaf.scale,
		}
		ordinals[i] = idx
	}
	r.ordinals = ordinals
	return descs, nil
}

// NumRows reports the file's total row count, as carried in its footer.
func (r *Reader) NumRows() int64 {
	return r.numRows
}

// LeafNames returns every leaf column's name in schema order, for callers
// (the schema debug subcommand) that want the full schema rather than a
// caller-supplied subset.
func (r *Reader) LeafNames() []string {
	names := make([]string, len(r.leaves))
	for i, l := range r.leaves {
		names[i] = l.name
	}
	return names
}

// Next reads and returns the next row restricted to the fields resolved by
// ResolveFields, in request order. It returns (nil, false, nil) once the
// file is exhausted.
func (r *Reader) Next() ([]any, bool, error) {
	if r.cursor >= r.numRows {
		return nil, false, nil
	}

	fullRow, err := r.pr.ReadByNumber(1)
	if err != nil {
		return nil, false, fmt.Errorf("parquetreader: reading row %d: %w", r.cursor, err)
	}
	if len(fullRow) == 0 {
		return nil, false, nil
	}
	r.cursor++

	rowMap, ok := fullRow[0].(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("parquetreader: row %d: unexpected row representation %T", r.cursor-1, fullRow[0])
	}

	out := make([]any, len(r.ordinals))
	for i, ord := range r.ordinals {
		out[i] = rowMap[r.leaves[ord].name]
	}
	return out, true, nil
}
