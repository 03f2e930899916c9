package chart

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// colKind classifies a column for axis selection.
type colKind int

const (
	kindCategorical colKind = iota
	kindNumeric
	kindTemporal
)

func (k colKind) String() string {
	switch k {
	case kindNumeric:
		return "numeric"
	case kindTemporal:
		return "temporal"
	default:
		return "categorical"
	}
}

// isoDatePattern matches values that look like ISO dates anywhere in the text.
var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

const (
	maxSampleRows      = 1000 // cap on profiled/plotted rows
	maxYearCardinality = 20   // below this, numeric "year" columns become categorical
	maxProfileValues   = 5    // sample values per column in the generation prompt
)

// frame is the preprocessed view of a tabular result: rows capped for
// performance, plus an inferred kind per column.
type frame struct {
	columns []string
	rows    []map[string]any
	kinds   map[string]colKind
}

// buildFrame preprocesses a result for plotting:
//   - sample is capped at maxSampleRows
//   - numeric columns named like years with few distinct values are
//     coerced to strings so they plot as categories, not a continuous axis
//   - string columns containing ISO-date-looking values are tagged temporal
func buildFrame(columns []string, rows []map[string]any) *frame {
	if len(rows) > maxSampleRows {
		rows = rows[:maxSampleRows]
	}

	// Copy rows so coercion never mutates the caller's result.
	copied := make([]map[string]any, len(rows))
	for i, row := range rows {
		cr := make(map[string]any, len(row))
		for k, v := range row {
			cr[k] = v
		}
		copied[i] = cr
	}

	f := &frame{columns: columns, rows: copied, kinds: make(map[string]colKind, len(columns))}

	for _, col := range columns {
		f.kinds[col] = inferKind(col, f.rows)
	}

	for _, col := range columns {
		if f.kinds[col] == kindNumeric && looksLikeYear(col) && distinctCount(col, f.rows) < maxYearCardinality {
			for _, row := range f.rows {
				if v, ok := row[col]; ok && v != nil {
					row[col] = formatValue(v)
				}
			}
			f.kinds[col] = kindCategorical
		}
	}

	return f
}

func looksLikeYear(column string) bool {
	return strings.Contains(strings.ToLower(column), "year")
}

func distinctCount(col string, rows []map[string]any) int {
	seen := make(map[string]bool)
	for _, row := range rows {
		seen[formatValue(row[col])] = true
	}
	return len(seen)
}

// inferKind classifies a column from its sampled values. Nil values are
// skipped; an all-nil column stays categorical.
func inferKind(col string, rows []map[string]any) colKind {
	sawValue := false
	allNumeric := true
	sawDate := false

	for _, row := range rows {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		sawValue = true
		if _, ok := asFloat(v); !ok {
			allNumeric = false
		}
		if s, ok := v.(string); ok && isoDatePattern.MatchString(s) {
			sawDate = true
		}
	}

	switch {
	case !sawValue:
		return kindCategorical
	case allNumeric:
		return kindNumeric
	case sawDate:
		return kindTemporal
	default:
		return kindCategorical
	}
}

// asFloat coerces the numeric types drivers and JSON decoding produce.
// Strings are not coerced: a numeric-looking text column stays categorical.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func formatValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// sortRows stably sorts rows by column col. Numeric pairs compare
// numerically, everything else compares as text. Best-effort: mixed-type
// columns get a stable if imperfect order, never a failure.
func sortRows(rows []map[string]any, col string, descending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][col], rows[j][col]
		av, aok := asFloat(a)
		bv, bok := asFloat(b)
		var less bool
		if aok && bok {
			less = av < bv
		} else {
			less = formatValue(a) < formatValue(b)
		}
		if descending {
			if aok && bok {
				return av > bv
			}
			return formatValue(a) > formatValue(b)
		}
		return less
	})
}
