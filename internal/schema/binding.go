// ============================================================================
// Schema Binding
// ============================================================================
//
// Package: internal/schema
// File: binding.go
// Purpose: Resolve requested source field names to destination column names
//          (via an optional alias map) and to each column's destination SQL
//          type, as reported by the destination's catalog.
//
// Alias resolution (source field f), in order:
//   1. No alias map supplied            -> destination column = f
//   2. Map has f -> concrete name       -> destination column = that name
//   3. Map has f -> unset (nil)         -> destination column = f
//   4. Map has no entry for f at all    -> destination column = f
//
// ============================================================================

package schema

import (
	"context"
	"fmt"

	"github.com/ChuLiYu/parquet-ingest/internal/convert"
)

// ColumnCatalog reports a destination table's columns and their type OIDs.
// Satisfied in production by PgxCatalog (catalog.go); unit tests use an
// in-memory fake so Bind is testable without a live Postgres.
type ColumnCatalog interface {
	Columns(ctx context.Context, tableName string) (map[string]uint32, error)
}

// TypeResolver maps a Postgres type OID to the DestType vocabulary the
// Converter Registry understands. Satisfied in production by
// PgxTypeResolver (catalog.go), which wraps pgx's pgtype.Map; unit tests use
// a small fixed table.
type TypeResolver interface {
	ResolveOID(oid uint32) (convert.DestType, bool)
}

// AliasMap mirrors the configuration shape in SPEC_FULL.md §10: keys are
// source field names, values are either a concrete destination column name
// or nil to mean "unset" (explicitly mapped to "use the same name").
type AliasMap map[string]*string

// resolveColumnName applies the alias resolution rule for one field.
func resolveColumnName(field string, aliases AliasMap) string {
	if aliases == nil {
		return field
	}
	alias, ok := aliases[field]
	if !ok {
		return field
	}
	if alias == nil {
		return field
	}
	return *alias
}

// Bind computes, for each requested source field in order, its destination
// column name and SQL type, validating every resolved column exists in the
// table's catalog.
func Bind(ctx context.Context, catalog ColumnCatalog, resolver TypeResolver, tableName string, requestedFields []string, aliases AliasMap) ([]string, []convert.DestType, error) {
	colOIDs, err := catalog.Columns(ctx, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("schema: querying catalog for table %q: %w", tableName, err)
	}
	if len(colOIDs) == 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrTableNotFound, tableName)
	}

	destCols := make([]string, len(requestedFields))
	destTypes := make([]convert.DestType, len(requestedFields))

	for i, field := range requestedFields {
		col := resolveColumnName(field, aliases)
		destCols[i] = col

		oid, ok := colOIDs[col]
		if !ok {
			return nil, nil, fmt.Errorf("%w: table %q has no column %q (requested via field %q)", ErrColumnNotFound, tableName, col, field)
		}

		destType, ok := resolver.ResolveOID(oid)
		if !ok {
			return nil, nil, fmt.Errorf("%w: column %q has OID %d", ErrUnknownOID, col, oid)
		}
		destTypes[i] = destType
	}

	return destCols, destTypes, nil
}
