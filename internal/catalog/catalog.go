// Package catalog discovers tables, columns, primary keys, foreign keys,
// and row counts from the backing store and produces a SchemaDescription.
//
// The catalog is expressed purely in terms of the generic store execution
// capability plus a schema name. It fails soft: a per-table introspection
// error omits that table (or leaves the failing facet empty) and never
// aborts the whole build.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/querysight/querysight/internal/errs"
	"github.com/querysight/querysight/internal/logger"
	"github.com/querysight/querysight/internal/store"
)

// Catalog introspects a database schema through a store.Store.
type Catalog struct {
	store store.Store
	log   *logger.Logger
}

// New creates a Catalog over the given store.
func New(st store.Store, log *logger.Logger) *Catalog {
	if log == nil {
		log = logger.New(nil)
	}
	return &Catalog{store: st, log: log}
}

// Describe builds a fresh SchemaDescription for the named schema.
// Only table enumeration failures abort the build; everything below a
// table is best-effort.
func (c *Catalog) Describe(ctx context.Context, schemaName string) (*SchemaDescription, error) {
	tables, err := c.listTables(ctx, schemaName)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to enumerate tables", err)
	}

	desc := &SchemaDescription{
		Schema: schemaName,
		Tables: make(map[string]*TableInfo, len(tables)),
	}

	for _, table := range tables {
		info, err := c.describeTable(ctx, schemaName, table)
		if err != nil {
			c.log.With().Str("table", table).Err(err).Logger().
				Warn("table introspection failed; omitting table")
			continue
		}
		desc.Tables[table] = info

		for _, fk := range info.ForeignKeys {
			desc.Relationships = append(desc.Relationships, Relationship{
				FromTable:  table,
				FromColumn: fk.Column,
				ToTable:    fk.RefTable,
				ToColumn:   fk.RefColumn,
			})
		}
	}

	return desc, nil
}

// describeTable fetches all facets of one table. Column fetch failures are
// fatal for the table; a row-count failure only leaves RowCount nil.
func (c *Catalog) describeTable(ctx context.Context, schemaName, table string) (*TableInfo, error) {
	columns, err := c.fetchColumns(ctx, schemaName, table)
	if err != nil {
		return nil, err
	}

	pks, err := c.fetchPrimaryKeys(ctx, schemaName, table)
	if err != nil {
		return nil, err
	}

	fks, err := c.fetchForeignKeys(ctx, schemaName, table)
	if err != nil {
		return nil, err
	}

	info := &TableInfo{
		Columns:     columns,
		PrimaryKeys: dedup(pks),
		ForeignKeys: dedupFKs(fks),
	}

	// Count failures are swallowed: RowCount stays nil.
	if n, err := c.fetchRowCount(ctx, schemaName, table); err == nil {
		info.RowCount = &n
	} else {
		c.log.With().Str("table", table).Err(err).Logger().
			Debug("row count failed; leaving it absent")
	}

	return info, nil
}

func (c *Catalog) listTables(ctx context.Context, schemaName string) ([]string, error) {
	q := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ` + c.placeholder(1) + `
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := c.query(ctx, q, schemaName)
	if err != nil {
		return nil, err
	}

	var tables []string
	for _, row := range rows {
		if name := asString(row["table_name"]); name != "" {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

func (c *Catalog) fetchColumns(ctx context.Context, schemaName, table string) ([]ColumnInfo, error) {
	q := `
		SELECT column_name,
		       data_type,
		       character_maximum_length,
		       is_nullable,
		       column_default
		FROM information_schema.columns
		WHERE table_schema = ` + c.placeholder(1) + `
		  AND table_name   = ` + c.placeholder(2) + `
		ORDER BY ordinal_position`

	rows, err := c.query(ctx, q, schemaName, table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.ErrKindNotFound,
			fmt.Sprintf("table %s.%s has no columns", schemaName, table))
	}

	cols := make([]ColumnInfo, 0, len(rows))
	for _, row := range rows {
		col := ColumnInfo{
			Name:     asString(row["column_name"]),
			DataType: asString(row["data_type"]),
			Nullable: strings.EqualFold(asString(row["is_nullable"]), "YES"),
		}
		if n, ok := asInt64(row["character_maximum_length"]); ok {
			l := int(n)
			col.MaxLength = &l
		}
		if d := asString(row["column_default"]); d != "" {
			col.Default = &d
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func (c *Catalog) fetchPrimaryKeys(ctx context.Context, schemaName, table string) ([]string, error) {
	q := `
		SELECT DISTINCT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema    = ` + c.placeholder(1) + `
		  AND tc.table_name      = ` + c.placeholder(2)

	rows, err := c.query(ctx, q, schemaName, table)
	if err != nil {
		return nil, err
	}

	var pks []string
	for _, row := range rows {
		if name := asString(row["column_name"]); name != "" {
			pks = append(pks, name)
		}
	}
	return pks, nil
}

func (c *Catalog) fetchForeignKeys(ctx context.Context, schemaName, table string) ([]ForeignKeyRef, error) {
	var q string
	if c.store.Dialect() == store.DialectMySQL {
		q = `
		SELECT DISTINCT kcu.column_name            AS column_name,
		       kcu.referenced_table_name  AS foreign_table_name,
		       kcu.referenced_column_name AS foreign_column_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.referenced_table_name IS NOT NULL
		  AND kcu.table_schema = ` + c.placeholder(1) + `
		  AND kcu.table_name   = ` + c.placeholder(2)
	} else {
		q = `
		SELECT DISTINCT kcu.column_name  AS column_name,
		       ccu.table_name   AS foreign_table_name,
		       ccu.column_name  AS foreign_column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name
		 AND ccu.table_schema    = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema    = ` + c.placeholder(1) + `
		  AND tc.table_name      = ` + c.placeholder(2)
	}

	rows, err := c.query(ctx, q, schemaName, table)
	if err != nil {
		return nil, err
	}

	var fks []ForeignKeyRef
	for _, row := range rows {
		col := asString(row["column_name"])
		if col == "" {
			continue
		}
		fks = append(fks, ForeignKeyRef{
			Column:    col,
			RefTable:  asString(row["foreign_table_name"]),
			RefColumn: asString(row["foreign_column_name"]),
		})
	}
	return fks, nil
}

func (c *Catalog) fetchRowCount(ctx context.Context, schemaName, table string) (int64, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) AS count FROM %s.%s`,
		c.quoteIdent(schemaName), c.quoteIdent(table))

	rows, err := c.query(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, errs.New(errs.ErrKindNotFound, "count query returned nothing")
	}
	if n, ok := asInt64(rows[0]["count"]); ok {
		return n, nil
	}
	return 0, errs.New(errs.ErrKindQueryFailed, "count query returned a non-numeric value")
}

// query runs sql through the store capability and resolves the payload.
func (c *Catalog) query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	payload, err := c.store.Exec(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	rs, shape, msg := store.Resolve(payload)
	if shape == store.ShapeError {
		return nil, errs.New(errs.ErrKindQueryFailed, msg)
	}
	return rs.Rows, nil
}

// placeholder returns the parameter placeholder for the store's dialect.
func (c *Catalog) placeholder(idx int) string {
	if c.store.Dialect() == store.DialectMySQL {
		return "?"
	}
	return fmt.Sprintf("$%d", idx)
}

// quoteIdent quotes an identifier for the store's dialect.
func (c *Catalog) quoteIdent(name string) string {
	if c.store.Dialect() == store.DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// --- value coercion for generic row maps ---

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		return parsed, err == nil
	case []byte:
		parsed, err := strconv.ParseInt(string(n), 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func dedup(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := ss[:0]
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func dedupFKs(fks []ForeignKeyRef) []ForeignKeyRef {
	seen := make(map[ForeignKeyRef]bool, len(fks))
	out := fks[:0]
	for _, fk := range fks {
		if !seen[fk] {
			seen[fk] = true
			out = append(out, fk)
		}
	}
	return out
}
