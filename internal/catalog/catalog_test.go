package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querysight/querysight/internal/errs"
	"github.com/querysight/querysight/internal/store"
)

// fakeStore scripts responses for the introspection queries by SQL shape.
type fakeStore struct {
	dialect store.Dialect
	respond func(sql string, args ...any) (any, error)
	calls   []string
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close()                         {}
func (f *fakeStore) Dialect() store.Dialect {
	if f.dialect == "" {
		return store.DialectPostgres
	}
	return f.dialect
}

func (f *fakeStore) Exec(ctx context.Context, sql string, args ...any) (any, error) {
	f.calls = append(f.calls, sql)
	return f.respond(sql, args...)
}

func rows(rs ...map[string]any) []map[string]any { return rs }

// respondTwoTables scripts a catalog with orders(id, region) → customers(id).
func respondTwoTables(failCountFor string) func(sql string, args ...any) (any, error) {
	return func(sql string, args ...any) (any, error) {
		switch {
		case strings.Contains(sql, "information_schema.tables"):
			return rows(
				map[string]any{"table_name": "customers"},
				map[string]any{"table_name": "orders"},
			), nil

		case strings.Contains(sql, "information_schema.columns"):
			table := args[1].(string)
			if table == "orders" {
				return rows(
					map[string]any{"column_name": "id", "data_type": "integer", "is_nullable": "NO", "character_maximum_length": nil, "column_default": nil},
					map[string]any{"column_name": "region", "data_type": "text", "is_nullable": "YES", "character_maximum_length": int64(64), "column_default": nil},
				), nil
			}
			return rows(
				map[string]any{"column_name": "id", "data_type": "integer", "is_nullable": "NO", "character_maximum_length": nil, "column_default": nil},
			), nil

		case strings.Contains(sql, "PRIMARY KEY"):
			// Duplicate row exercises deduplication.
			return rows(
				map[string]any{"column_name": "id"},
				map[string]any{"column_name": "id"},
			), nil

		case strings.Contains(sql, "FOREIGN KEY"), strings.Contains(sql, "referenced_table_name"):
			if args[1].(string) == "orders" {
				return rows(
					map[string]any{"column_name": "customer_id", "foreign_table_name": "customers", "foreign_column_name": "id"},
				), nil
			}
			return rows(), nil

		case strings.Contains(sql, "COUNT(*)"):
			if failCountFor != "" && strings.Contains(sql, failCountFor) {
				return nil, errs.New(errs.ErrKindQueryFailed, "permission denied")
			}
			return rows(map[string]any{"count": int64(5)}), nil
		}
		return nil, errs.New(errs.ErrKindQueryFailed, "unexpected query: "+sql)
	}
}

func TestDescribe_RoundTrip(t *testing.T) {
	st := &fakeStore{respond: respondTwoTables("")}
	cat := New(st, nil)

	desc, err := cat.Describe(context.Background(), "public")
	require.NoError(t, err)

	assert.Equal(t, "public", desc.Schema)
	assert.Equal(t, []string{"customers", "orders"}, desc.TableNames())

	orders := desc.Tables["orders"]
	require.NotNil(t, orders)
	require.Len(t, orders.Columns, 2)
	assert.Equal(t, "id", orders.Columns[0].Name)
	assert.Equal(t, "region", orders.Columns[1].Name)
	assert.Equal(t, "integer", orders.Columns[0].DataType)
	assert.False(t, orders.Columns[0].Nullable)
	assert.True(t, orders.Columns[1].Nullable)
	require.NotNil(t, orders.Columns[1].MaxLength)
	assert.Equal(t, 64, *orders.Columns[1].MaxLength)

	assert.Equal(t, []string{"id"}, orders.PrimaryKeys)
	assert.Equal(t, []ForeignKeyRef{{Column: "customer_id", RefTable: "customers", RefColumn: "id"}}, orders.ForeignKeys)
	require.NotNil(t, orders.RowCount)
	assert.Equal(t, int64(5), *orders.RowCount)

	// Foreign keys flatten into schema-level relationships.
	assert.Equal(t, []Relationship{{
		FromTable: "orders", FromColumn: "customer_id",
		ToTable: "customers", ToColumn: "id",
	}}, desc.Relationships)
}

func TestDescribe_RowCountFailureIsNonFatal(t *testing.T) {
	st := &fakeStore{respond: respondTwoTables("orders")}
	cat := New(st, nil)

	desc, err := cat.Describe(context.Background(), "public")
	require.NoError(t, err)

	orders := desc.Tables["orders"]
	require.NotNil(t, orders)
	assert.Nil(t, orders.RowCount, "count failure leaves row count absent")
	assert.Len(t, orders.Columns, 2, "other facets stay populated")

	customers := desc.Tables["customers"]
	require.NotNil(t, customers)
	require.NotNil(t, customers.RowCount)
	assert.Equal(t, int64(5), *customers.RowCount)
}

func TestDescribe_TableFailureOmitsTable(t *testing.T) {
	base := respondTwoTables("")
	st := &fakeStore{respond: func(sql string, args ...any) (any, error) {
		if strings.Contains(sql, "information_schema.columns") && args[1].(string) == "customers" {
			return nil, errs.New(errs.ErrKindQueryFailed, "boom")
		}
		return base(sql, args...)
	}}
	cat := New(st, nil)

	desc, err := cat.Describe(context.Background(), "public")
	require.NoError(t, err)

	assert.False(t, desc.HasTable("customers"))
	assert.True(t, desc.HasTable("orders"))
}

func TestDescribe_EnumerationFailureAborts(t *testing.T) {
	st := &fakeStore{respond: func(sql string, args ...any) (any, error) {
		return nil, errs.New(errs.ErrKindConnectionFailed, "down")
	}}
	cat := New(st, nil)

	_, err := cat.Describe(context.Background(), "public")
	require.Error(t, err)
}

func TestDescribe_MySQLUsesQuestionPlaceholders(t *testing.T) {
	st := &fakeStore{dialect: store.DialectMySQL, respond: respondTwoTables("")}
	cat := New(st, nil)

	_, err := cat.Describe(context.Background(), "shop")
	require.NoError(t, err)

	for _, sql := range st.calls {
		assert.NotContains(t, sql, "$1")
	}
}
