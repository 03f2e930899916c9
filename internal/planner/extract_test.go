package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			name: "bare object",
			text: `{"tables": ["sales"]}`,
			want: `{"tables": ["sales"]}`,
			ok:   true,
		},
		{
			name: "surrounded by prose",
			text: `Sure! Here is the result: {"tables": ["sales"]} Hope that helps.`,
			want: `{"tables": ["sales"]}`,
			ok:   true,
		},
		{
			name: "nested objects",
			text: `{"a": {"b": 1}, "c": 2} trailing`,
			want: `{"a": {"b": 1}, "c": 2}`,
			ok:   true,
		},
		{
			name: "braces inside strings do not close",
			text: `{"note": "a } inside", "x": 1}`,
			want: `{"note": "a } inside", "x": 1}`,
			ok:   true,
		},
		{
			name: "escaped quote inside string",
			text: `{"note": "say \"}\"", "x": 1}`,
			want: `{"note": "say \"}\"", "x": 1}`,
			ok:   true,
		},
		{
			name: "no object",
			text: "no structured data here",
			ok:   false,
		},
		{
			name: "unbalanced",
			text: `{"tables": ["sales"`,
			ok:   false,
		},
		{
			name: "empty input",
			text: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractObject(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain sql untouched", "SELECT 1", "SELECT 1"},
		{"sql fence", "```sql\nSELECT 1\n```", "SELECT 1"},
		{"json fence", "```json\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"anonymous fence", "```\nSELECT 1\n```", "SELECT 1"},
		{"surrounding whitespace", "  \nSELECT 1\n ", "SELECT 1"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.text))
		})
	}
}
