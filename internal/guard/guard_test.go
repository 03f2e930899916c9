package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReadOnly(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{
			name: "plain select",
			sql:  "SELECT id, region FROM public.orders",
			want: true,
		},
		{
			name: "drop table",
			sql:  "DROP TABLE orders",
			want: false,
		},
		{
			name: "lowercase delete",
			sql:  "delete from orders where id = 1",
			want: false,
		},
		{
			name: "bare keyword",
			sql:  "DELETE",
			want: false,
		},
		{
			name: "keyword at end",
			sql:  "SELECT 1; COMMIT",
			want: false,
		},
		{
			name: "keyword as substring of identifier",
			sql:  "SELECT updated_at, created_at FROM public.orders",
			want: true,
		},
		{
			name: "uppercase identifier containing keyword",
			sql:  "SELECT UPDATED_AT FROM orders",
			want: true,
		},
		{
			name: "keyword bounded by punctuation is not a token",
			sql:  "SELECT deleted,active FROM flags",
			want: true,
		},
		{
			name: "insert in mid statement",
			sql:  "WITH x AS (SELECT 1) INSERT INTO orders SELECT * FROM x",
			want: false,
		},
		{
			name: "truncate",
			sql:  "TRUNCATE orders",
			want: false,
		},
		{
			name: "whitespace padding",
			sql:  "   UPDATE orders SET amount = 0   ",
			want: false,
		},
		{
			name: "empty string",
			sql:  "",
			want: true,
		},
		{
			name: "tabs and newlines as boundaries",
			sql:  "SELECT *\nFROM orders\nWHERE region =\t'DROP'",
			want: true,
		},
		{
			name: "newline bounded keyword",
			sql:  "SELECT 1\nDROP\nTABLE orders",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReadOnly(tt.sql))
		})
	}
}

func TestViolation(t *testing.T) {
	assert.Equal(t, "DROP", Violation("DROP TABLE orders"))
	assert.Equal(t, "DELETE", Violation("delete from orders"))
	assert.Equal(t, "", Violation("SELECT * FROM orders"))
}
