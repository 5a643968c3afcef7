// ============================================================================
// Schema Binding - Postgres Catalog Adapter
// ============================================================================
//
// Package: internal/schema
// File: catalog.go
// Purpose: Concrete ColumnCatalog/TypeResolver implementations backed by
//          pgx, grounded on the original source's db_col_to_type() catalog
//          query (pg_attribute joined to pg_class on the table OID) and on
//          pgx's own pgtype.Map for OID -> type-name resolution in place of
//          hand-rolled OID constants.
//
// ============================================================================

package schema

import (
	"context"

	"github.com/ChuLiYu/parquet-ingest/internal/convert"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// PgxCatalog queries column name -> type OID from pg_attribute/pg_class,
// mirroring the original source's query shape.
type PgxCatalog struct {
	Conn *pgx.Conn
}

func NewPgxCatalog(conn *pgx.Conn) *PgxCatalog {
	return &PgxCatalog{Conn: conn}
}

const columnsQuery = `
SELECT a.attname AS column_name, a.atttypid AS type_oid
FROM pg_attribute a
JOIN pg_class c ON a.attrelid = c.oid
WHERE c.relname = $1 AND a.attnum > 0 AND NOT a.attisdropped
`

func (c *PgxCatalog) Columns(ctx context.Context, tableName string) (map[string]uint32, error) {
	rows, err := c.Conn.Query(ctx, columnsQuery, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]uint32)
	for rows.Next() {
		var name string
		var oid uint32
		if err := rows.Scan(&name, &oid); err != nil {
			return nil, err
		}
		cols[name] = oid
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}

// PgxTypeResolver resolves OIDs to DestType via pgx's well-known type map,
// falling back to nothing for anything outside the truth table's vocabulary
// (§4.1) rather than guessing.
type PgxTypeResolver struct {
	Map *pgtype.Map
}

func NewPgxTypeResolver(m *pgtype.Map) *PgxTypeResolver {
	if m == nil {
		m = pgtype.NewMap()
	}
	return &PgxTypeResolver{Map: m}
}

var oidNameToDestType = map[string]convert.DestType{
	"bool":        convert.DestBool,
	"int2":        convert.DestSmallInt,
	"int4":        convert.DestInt,
	"int8":        convert.DestBigInt,
	"date":        convert.DestDate,
	"varchar":     convert.DestVarchar,
	"text":        convert.DestText,
	"bpchar":      convert.DestChar,
	"timestamp":   convert.DestTimestamp,
	"timestamptz": convert.DestTimestampTz,
	"inet":        convert.DestInet,
	"cidr":        convert.DestCidr,
	"bytea":       convert.DestBytea,
	"numeric":     convert.DestNumeric,
	"float4":      convert.DestFloat4,
	"float8":      convert.DestFloat8,
}

func (r *PgxTypeResolver) ResolveOID(oid uint32) (convert.DestType, bool) {
	t, ok := r.Map.TypeForOID(oid)
	if !ok {
		return "", false
	}
	dest, ok := oidNameToDestType[t.Name]
	return dest, ok
}
