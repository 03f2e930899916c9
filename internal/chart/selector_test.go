package chart

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querysight/querysight/internal/errs"
	"github.com/querysight/querysight/internal/store"
)

// cannedGen returns one fixed response (or error) for every prompt.
type cannedGen struct {
	resp    string
	err     error
	prompts []string
}

func (g *cannedGen) Name() string { return "canned" }

func (g *cannedGen) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.resp, g.err
}

func regionRecords() *store.RecordSet {
	return &store.RecordSet{
		Columns: []string{"region", "total_sales"},
		Rows: []map[string]any{
			{"region": "west", "total_sales": 42.5},
			{"region": "east", "total_sales": 17.0},
			{"region": "north", "total_sales": 99.0},
		},
	}
}

func TestChoose_EmptyResultYieldsNoChart(t *testing.T) {
	s := New(nil, nil)
	assert.Nil(t, s.Choose(context.Background(), &store.RecordSet{}, "anything"))
}

func TestChoose_FallbackBar(t *testing.T) {
	// No generation client: the deterministic heuristic decides.
	s := New(nil, nil)

	c := s.Choose(context.Background(), regionRecords(), "show total sales by region")
	require.NotNil(t, c)

	assert.Equal(t, KindBar, c.Spec.Kind)
	assert.Equal(t, "region", c.Spec.X)
	assert.Equal(t, "total_sales", c.Spec.Y)
	assert.Equal(t, "Bar Chart of total_sales by region", c.Spec.Title)

	// Vertical bars without a color split render sorted by y, descending.
	require.Len(t, c.Rows, 3)
	assert.Equal(t, 99.0, c.Rows[0]["total_sales"])
	assert.Equal(t, 17.0, c.Rows[2]["total_sales"])
}

func TestChoose_GenerationFailureFallsBack(t *testing.T) {
	gen := &cannedGen{err: errs.New(errs.ErrKindGeneration, "unavailable")}
	s := New(gen, nil)

	c := s.Choose(context.Background(), regionRecords(), "show total sales by region")
	require.NotNil(t, c)
	assert.Equal(t, KindBar, c.Spec.Kind)
	assert.Len(t, gen.prompts, 1, "one attempt, no retries")
}

func TestChoose_UnparsableConfigFallsBack(t *testing.T) {
	gen := &cannedGen{resp: "a bar chart would look nice"}
	s := New(gen, nil)

	c := s.Choose(context.Background(), regionRecords(), "show total sales by region")
	require.NotNil(t, c)
	assert.Equal(t, KindBar, c.Spec.Kind)
}

func TestChoose_AllCategoricalFallsBackToTable(t *testing.T) {
	rs := &store.RecordSet{
		Columns: []string{"name", "city"},
		Rows: []map[string]any{
			{"name": "Ada", "city": "London"},
		},
	}
	s := New(nil, nil)

	c := s.Choose(context.Background(), rs, "list customers")
	require.NotNil(t, c)
	assert.Equal(t, KindTable, c.Spec.Kind)
	assert.Equal(t, "Data Table", c.Spec.Title)
}

func TestChoose_UnrecognizedKindYieldsNoChart(t *testing.T) {
	gen := &cannedGen{resp: `{"chart_type": "hologram", "x": "region", "y": "total_sales"}`}
	s := New(gen, nil)

	assert.Nil(t, s.Choose(context.Background(), regionRecords(), "show totals"))
}

func TestChoose_RepairClearsUnknownColumns(t *testing.T) {
	gen := &cannedGen{resp: `{"chart_type": "bar", "x": "region", "y": "revenue", "color": "segment", "title": "Totals"}`}
	s := New(gen, nil)

	c := s.Choose(context.Background(), regionRecords(), "show totals")
	require.NotNil(t, c)
	assert.Equal(t, "region", c.Spec.X)
	assert.Empty(t, c.Spec.Y, "a y column the payload lacks is cleared, not trusted")
	assert.Empty(t, c.Spec.Color)
	assert.Equal(t, "Totals", c.Spec.Title)
	assert.Equal(t, defaultMode, c.Spec.BarMode)
	assert.Equal(t, defaultOrient, c.Spec.Orientation)
}

func TestChoose_MissingTitleDerivedFromQuestion(t *testing.T) {
	gen := &cannedGen{resp: `{"chart_type": "bar", "x": "region", "y": "total_sales"}`}
	s := New(gen, nil)

	c := s.Choose(context.Background(), regionRecords(), "show total sales by region")
	require.NotNil(t, c)
	assert.Equal(t, "Analysis: show total sales by region", c.Spec.Title)
}

func TestRender_BarTruncatesToTopFifty(t *testing.T) {
	rows := make([]map[string]any, 120)
	cols := []string{"item", "n"}
	for i := range rows {
		rows[i] = map[string]any{"item": fmt.Sprintf("item-%03d", i), "n": float64(i)}
	}
	f := buildFrame(cols, rows)

	c := render(Spec{Kind: KindBar, X: "item", Y: "n", Orientation: "v"}, f)
	require.NotNil(t, c)
	require.Len(t, c.Rows, maxBarRows)
	assert.Equal(t, 119.0, c.Rows[0]["n"])
	assert.Equal(t, 70.0, c.Rows[maxBarRows-1]["n"])
}

func TestRender_ColorSplitSkipsTruncation(t *testing.T) {
	rows := make([]map[string]any, 120)
	cols := []string{"item", "grp", "n"}
	for i := range rows {
		rows[i] = map[string]any{"item": fmt.Sprintf("i%d", i), "grp": fmt.Sprintf("g%d", i%3), "n": float64(i)}
	}
	f := buildFrame(cols, rows)

	c := render(Spec{Kind: KindBar, X: "item", Y: "n", Color: "grp", Orientation: "v"}, f)
	require.NotNil(t, c)
	assert.Len(t, c.Rows, 120, "grouped bars keep every row")
	assert.Equal(t, 0.0, c.Rows[0]["n"], "and keep the original order")
}

func TestRender_LineSortsByXWithMarkers(t *testing.T) {
	rows := []map[string]any{
		{"month": "2024-03", "total": 3.0},
		{"month": "2024-01", "total": 1.0},
		{"month": "2024-02", "total": 2.0},
	}
	f := buildFrame([]string{"month", "total"}, rows)

	c := render(Spec{Kind: KindLine, X: "month", Y: "total"}, f)
	require.NotNil(t, c)
	assert.True(t, c.Markers)
	assert.Equal(t, "2024-01", c.Rows[0]["month"])
	assert.Equal(t, "2024-03", c.Rows[2]["month"])
}

func TestRender_PieGetsHole(t *testing.T) {
	f := buildFrame([]string{"region", "total_sales"}, regionRecords().Rows)
	c := render(Spec{Kind: KindPie, X: "region", Y: "total_sales"}, f)
	require.NotNil(t, c)
	assert.Equal(t, defaultHole, c.Hole)
}

func TestRender_ScatterTrend(t *testing.T) {
	rows := []map[string]any{
		{"x": 1.0, "y": 2.0},
		{"x": 2.0, "y": 4.0},
		{"x": 3.0, "y": 6.0},
		{"x": 4.0, "y": 8.0},
	}
	f := buildFrame([]string{"x", "y"}, rows)

	c := render(Spec{Kind: KindScatter, X: "x", Y: "y"}, f)
	require.NotNil(t, c)
	require.NotNil(t, c.Trend)
	assert.InDelta(t, 2.0, c.Trend.Slope, 1e-9)
	assert.InDelta(t, 0.0, c.Trend.Intercept, 1e-9)
}

func TestRender_ScatterTrendNeedsThreeRows(t *testing.T) {
	rows := []map[string]any{
		{"x": 1.0, "y": 2.0},
		{"x": 2.0, "y": 4.0},
	}
	f := buildFrame([]string{"x", "y"}, rows)

	c := render(Spec{Kind: KindScatter, X: "x", Y: "y"}, f)
	require.NotNil(t, c)
	assert.Nil(t, c.Trend)
}

func TestRender_DegenerateTrendOmitted(t *testing.T) {
	rows := []map[string]any{
		{"x": 5.0, "y": 1.0},
		{"x": 5.0, "y": 2.0},
		{"x": 5.0, "y": 3.0},
	}
	f := buildFrame([]string{"x", "y"}, rows)

	c := render(Spec{Kind: KindScatter, X: "x", Y: "y"}, f)
	require.NotNil(t, c)
	assert.Nil(t, c.Trend, "no x spread means no meaningful fit")
}
