package catalog

import "sort"

// ColumnInfo describes a single column in a table.
type ColumnInfo struct {
	Name      string  `json:"name"`
	DataType  string  `json:"type"` // declared type: integer, text, timestamp, …
	Nullable  bool    `json:"nullable"`
	MaxLength *int    `json:"max_length,omitempty"` // nil for non-char types
	Default   *string `json:"default,omitempty"`    // nil if no default
}

// ForeignKeyRef describes one outgoing foreign key of a table.
type ForeignKeyRef struct {
	Column    string `json:"column"`
	RefTable  string `json:"references_table"`
	RefColumn string `json:"references_column"`
}

// Relationship is a schema-level foreign key, flattened across all tables.
// Used for join-context hints, not enforced referential integrity.
type Relationship struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

// TableInfo describes a table: columns in ordinal order, primary key
// column names, outgoing foreign keys, and an optional row count.
// RowCount is nil when the count query failed — count failures are
// non-fatal and leave every other facet populated.
type TableInfo struct {
	Columns     []ColumnInfo    `json:"columns"`
	PrimaryKeys []string        `json:"primary_keys"`
	ForeignKeys []ForeignKeyRef `json:"foreign_keys"`
	RowCount    *int64          `json:"row_count,omitempty"`
}

// ColumnNames returns the column names in ordinal order.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// SchemaDescription is the full introspected schema: tables keyed by name
// plus the flattened relationship list. It is rebuilt wholesale on every
// catalog pass and never patched in place.
type SchemaDescription struct {
	Schema        string                `json:"schema"`
	Tables        map[string]*TableInfo `json:"tables"`
	Relationships []Relationship        `json:"relationships"`
}

// TableNames returns the table names in sorted order for deterministic
// prompt construction and display.
func (s *SchemaDescription) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTable reports whether the catalog knows the named table.
func (s *SchemaDescription) HasTable(name string) bool {
	_, ok := s.Tables[name]
	return ok
}

// Empty reports whether the catalog holds no tables at all.
func (s *SchemaDescription) Empty() bool {
	return s == nil || len(s.Tables) == 0
}
