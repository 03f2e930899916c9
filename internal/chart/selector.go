// Package chart profiles a tabular result, asks the generation capability
// for a chart configuration, validates and repairs it, and resolves the
// render-ready chart.
//
// Visualization is best-effort by contract: a generation or parsing fault
// degrades to a deterministic fallback, an unrecognized kind degrades to
// no chart, and nothing in this package ever surfaces an error to the
// caller.
package chart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/querysight/querysight/internal/genai"
	"github.com/querysight/querysight/internal/logger"
	"github.com/querysight/querysight/internal/planner"
	"github.com/querysight/querysight/internal/store"
)

const (
	maxBarRows    = 50 // top-N cap for dense vertical bar comparisons
	minTrendRows  = 3  // scatter trend needs more than 2 plotted rows
	defaultHole   = 0.3
	defaultMode   = "group"
	defaultOrient = "v"
)

// Selector chooses a chart for a tabular result.
type Selector struct {
	gen genai.Client
	log *logger.Logger
}

// New creates a Selector over the given generation client.
// A nil client skips generation entirely and always uses the fallback.
func New(gen genai.Client, log *logger.Logger) *Selector {
	if log == nil {
		log = logger.New(nil)
	}
	return &Selector{gen: gen, log: log}
}

// Choose resolves a chart for the result, or nil when there is nothing to
// plot (empty input, unrecognized kind, or an unrenderable configuration).
func (s *Selector) Choose(ctx context.Context, rs *store.RecordSet, question string) *Chart {
	if rs.Empty() {
		return nil
	}

	f := buildFrame(rs.Columns, rs.Rows)

	spec, ok := s.requestSpec(ctx, f, question)
	if !ok {
		spec = fallbackSpec(f)
	}
	s.repair(&spec, f, question)

	return render(spec, f)
}

// requestSpec asks the generation capability for a configuration and
// parses it defensively. ok=false on any fault — the caller falls back.
func (s *Selector) requestSpec(ctx context.Context, f *frame, question string) (Spec, bool) {
	if s.gen == nil {
		return Spec{}, false
	}

	var profile strings.Builder
	for _, col := range f.columns {
		samples := make([]string, 0, maxProfileValues)
		for _, row := range f.rows {
			if len(samples) == maxProfileValues {
				break
			}
			samples = append(samples, formatValue(row[col]))
		}
		fmt.Fprintf(&profile, "- %s (%s): Sample [%s]\n", col, f.kinds[col], strings.Join(samples, ", "))
	}

	prompt := fmt.Sprintf(`You are a data visualization expert.
Analyze the USER QUERY and the DATA SUMMARY and recommend the best chart.

Output ONLY a valid JSON object with these keys:
- "chart_type": one of ["bar", "line", "scatter", "pie", "histogram", "box", "table"]
- "x": column for the X axis
- "y": column for the Y axis (numeric)
- "color": column for color segmentation (critical when comparing groups)
- "barmode": "group", "stack" or "relative" (bar charts only)
- "title": a descriptive title
- "orientation": "v" or "h"

GUIDELINES:
1. For [year, category, value] shapes prefer line (trends) or grouped bar (comparison), with color=category.
2. Use "pie" only for simple totals; use "bar" to rank many items.
3. Map numeric year columns to color only as distinct categories.

USER QUERY: %q

DATA SUMMARY:
%s
JSON RESPONSE:`, question, profile.String())

	resp, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		s.log.With().Err(err).Logger().Warn("chart generation failed; using fallback")
		return Spec{}, false
	}

	fragment, ok := planner.ExtractObject(planner.StripFences(resp))
	if !ok {
		s.log.Warn("chart generation returned no parsable config; using fallback")
		return Spec{}, false
	}

	var spec Spec
	if err := json.Unmarshal([]byte(fragment), &spec); err != nil {
		s.log.With().Err(err).Logger().Warn("chart config did not parse; using fallback")
		return Spec{}, false
	}

	return spec, true
}

// fallbackSpec is the deterministic heuristic: with at least one numeric
// and one non-numeric column, a bar of first-numeric by first-non-numeric;
// otherwise a plain table.
func fallbackSpec(f *frame) Spec {
	var numeric, categorical string
	for _, col := range f.columns {
		if f.kinds[col] == kindNumeric {
			if numeric == "" {
				numeric = col
			}
		} else if categorical == "" {
			categorical = col
		}
	}

	if numeric != "" && categorical != "" {
		return Spec{
			Kind:  KindBar,
			X:     categorical,
			Y:     numeric,
			Title: fmt.Sprintf("Bar Chart of %s by %s", numeric, categorical),
		}
	}
	return Spec{Kind: KindTable, Title: "Data Table"}
}

// repair clears field selections that do not name a payload column and
// fills defaults. Absent fields are acceptable; wrong ones are not.
func (s *Selector) repair(spec *Spec, f *frame, question string) {
	known := make(map[string]bool, len(f.columns))
	for _, col := range f.columns {
		known[col] = true
	}

	if spec.X != "" && !known[spec.X] {
		spec.X = ""
	}
	if spec.Y != "" && !known[spec.Y] {
		spec.Y = ""
	}
	if spec.Color != "" && !known[spec.Color] {
		spec.Color = ""
	}
	if spec.BarMode == "" {
		spec.BarMode = defaultMode
	}
	if spec.Orientation == "" {
		spec.Orientation = defaultOrient
	}
	if spec.Title == "" {
		spec.Title = "Analysis: " + question
	}
}

// render applies the kind-specific rules and produces the render-ready
// chart. Unrecognized kinds yield nil — never a broken chart.
func render(spec Spec, f *frame) *Chart {
	if !spec.Kind.valid() {
		return nil
	}

	rows := f.rows
	c := &Chart{Spec: spec, Columns: f.columns}

	switch spec.Kind {
	case KindLine:
		// Best-effort sort along the x axis so the line reads left to right.
		if spec.X != "" {
			sortRows(rows, spec.X, false)
		}
		c.Markers = true

	case KindBar:
		// Dense categorical comparisons stay legible: top 50 by y.
		// A color split means grouped bars, where truncation would drop
		// whole groups, so it is skipped entirely.
		if spec.Y != "" && spec.Orientation == "v" && spec.Color == "" {
			sortRows(rows, spec.Y, true)
			if len(rows) > maxBarRows {
				rows = rows[:maxBarRows]
			}
		}

	case KindScatter:
		if len(rows) >= minTrendRows {
			c.Trend = fitTrend(rows, spec.X, spec.Y)
		}

	case KindPie:
		c.Hole = defaultHole

	case KindHistogram, KindBox, KindTable:
		// Color-split (when set) passes straight through.
	}

	c.Rows = rows
	return c
}

// fitTrend computes an ordinary least-squares line over the plotted
// points. Non-numeric axes or a degenerate x spread yield no trend.
func fitTrend(rows []map[string]any, xCol, yCol string) *TrendLine {
	var xs, ys []float64
	for _, row := range rows {
		x, xok := asFloat(row[xCol])
		y, yok := asFloat(row[yCol])
		if xok && yok {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < minTrendRows {
		return nil
	}

	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}

	slope := (n*sumXY - sumX*sumY) / denom
	return &TrendLine{
		Slope:     slope,
		Intercept: (sumY - slope*sumX) / n,
	}
}
