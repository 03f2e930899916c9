// Package store defines the generic SQL execution capability that the
// schema catalog and the query executor are built on.
//
// All layers above this package talk only to the Store interface — they
// never import the postgres or mysql packages directly. A Store accepts
// arbitrary SQL text and returns a raw response payload; Resolve turns
// that payload into the one canonical tabular shape (RecordSet) so no
// downstream component re-derives shape checks.
package store

import (
	"context"
	"encoding/json"
	"sort"
)

// Dialect identifies the database engine behind a Store.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// Store is the single generic SQL-execution entry point.
//
// Exec submits arbitrary SQL text (with optional positional parameters)
// and returns the raw response payload. The payload shape is deliberately
// loose — drivers return a *RecordSet, but Resolve accepts every shape a
// generic execution backend may produce (record list, single record,
// JSON-encoded string, error object, nothing).
type Store interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Dialect reports which engine this store talks to.
	Dialect() Dialect

	// Exec runs sql and returns the raw response payload.
	Exec(ctx context.Context, sql string, args ...any) (any, error)
}

// Rows is an abstraction over a native database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// RecordSet is the canonical tabular shape: column names in result order
// plus rows as column→value mappings. Rows may have differing keys when
// the payload came from a heterogeneous backend response.
type RecordSet struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Empty reports whether the set holds no rows.
func (rs *RecordSet) Empty() bool {
	return rs == nil || len(rs.Rows) == 0
}

// ScanRows reads all rows from the result set into a RecordSet.
// []byte values are converted to string so rows are JSON-friendly
// (database/sql returns text columns as []byte).
//
// ScanRows always closes the Rows — callers do not need to call Close().
func ScanRows(rows Rows) (*RecordSet, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &RecordSet{Columns: columns, Rows: make([]map[string]any, 0)}

	for rows.Next() {
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := dest[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = dest[i]
			}
		}
		rs.Rows = append(rs.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rs, nil
}

// Shape tags the response shape a payload arrived in. It is diagnostic
// metadata only — never used for control flow past the Resolve boundary.
type Shape string

const (
	ShapeRecords Shape = "records" // ordered sequence of row mappings
	ShapeSingle  Shape = "single"  // one bare row mapping
	ShapeEncoded Shape = "encoded" // JSON text that decoded to one of the above
	ShapeError   Shape = "error"   // explicit error object
	ShapeEmpty   Shape = "empty"   // nothing, or nothing usable
)

// Resolve normalizes a raw store payload into a RecordSet.
//
// The tagged union of backend response shapes is resolved here, once:
//   - nil / empty            → empty set ("no results" is not an error)
//   - *RecordSet             → as-is
//   - []map[string]any       → record list
//   - map with "error" key   → error message extracted, empty set
//   - bare map               → one-row set
//   - string                 → decoded as JSON and resolved again;
//     undecodable text resolves to the empty set
//
// The returned message is non-empty only for ShapeError.
func Resolve(payload any) (*RecordSet, Shape, string) {
	switch v := payload.(type) {
	case nil:
		return &RecordSet{Rows: []map[string]any{}}, ShapeEmpty, ""

	case *RecordSet:
		if v == nil || len(v.Rows) == 0 {
			return &RecordSet{Columns: columnsOf(v), Rows: []map[string]any{}}, ShapeEmpty, ""
		}
		return v, ShapeRecords, ""

	case []map[string]any:
		if len(v) == 0 {
			return &RecordSet{Rows: []map[string]any{}}, ShapeEmpty, ""
		}
		return &RecordSet{Columns: keysOf(v[0]), Rows: v}, ShapeRecords, ""

	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, el := range v {
			m, ok := el.(map[string]any)
			if !ok {
				return &RecordSet{Rows: []map[string]any{}}, ShapeEmpty, ""
			}
			rows = append(rows, m)
		}
		if len(rows) == 0 {
			return &RecordSet{Rows: []map[string]any{}}, ShapeEmpty, ""
		}
		return &RecordSet{Columns: keysOf(rows[0]), Rows: rows}, ShapeRecords, ""

	case map[string]any:
		if msg, ok := errorMessage(v); ok {
			return &RecordSet{Rows: []map[string]any{}}, ShapeError, msg
		}
		return &RecordSet{Columns: keysOf(v), Rows: []map[string]any{v}}, ShapeSingle, ""

	case string:
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return &RecordSet{Rows: []map[string]any{}}, ShapeEmpty, ""
		}
		rs, shape, msg := Resolve(decoded)
		if shape == ShapeError {
			return rs, shape, msg
		}
		return rs, ShapeEncoded, msg

	default:
		return &RecordSet{Rows: []map[string]any{}}, ShapeEmpty, ""
	}
}

// errorMessage extracts the message from an error-shaped object
// ({"error": "..."} or {"error": {"message": "..."}}).
func errorMessage(m map[string]any) (string, bool) {
	raw, ok := m["error"]
	if !ok || raw == nil {
		return "", false
	}
	switch e := raw.(type) {
	case string:
		return e, true
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return msg, true
		}
		return "unknown error", true
	default:
		return "unknown error", true
	}
}

// keysOf returns the keys of a row in a stable (sorted) order.
// Shapes that arrive without column metadata get deterministic ordering.
func keysOf(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func columnsOf(rs *RecordSet) []string {
	if rs == nil {
		return nil
	}
	return rs.Columns
}
