package chart

// Kind is the closed set of chart kinds the selector can resolve.
type Kind string

const (
	KindBar       Kind = "bar"
	KindLine      Kind = "line"
	KindScatter   Kind = "scatter"
	KindPie       Kind = "pie"
	KindHistogram Kind = "histogram"
	KindBox       Kind = "box"
	KindTable     Kind = "table"
	KindNone      Kind = "none"
)

func (k Kind) valid() bool {
	switch k {
	case KindBar, KindLine, KindScatter, KindPie, KindHistogram, KindBox, KindTable:
		return true
	}
	return false
}

// Spec is the resolved chart configuration. Field names mirror the wire
// format the generation capability is asked to emit. X/Y/Color must name
// a column present in the tabular payload; anything else is treated as
// absent and cleared during validation.
type Spec struct {
	Kind        Kind   `json:"chart_type"`
	X           string `json:"x,omitempty"`
	Y           string `json:"y,omitempty"`
	Color       string `json:"color,omitempty"`
	BarMode     string `json:"barmode,omitempty"` // group, stack, relative
	Title       string `json:"title,omitempty"`
	Orientation string `json:"orientation,omitempty"` // v or h
}

// TrendLine is a least-squares fit overlaid on a scatter chart.
type TrendLine struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Chart is the render-ready output: the resolved spec plus the
// preprocessed, sorted, and truncated rows to plot. It is produced fresh
// per visualization request and never persisted by the core.
type Chart struct {
	Spec    Spec             `json:"spec"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`

	// Kind-specific rendering hints.
	Markers bool       `json:"markers,omitempty"` // line: show point markers
	Hole    float64    `json:"hole,omitempty"`    // pie: donut center fraction
	Trend   *TrendLine `json:"trend,omitempty"`   // scatter: best-fit overlay
}
