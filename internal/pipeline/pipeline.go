// Package pipeline runs the full request path: question → plan →
// guardrail → execution → chart selection, as one synchronous sequence
// per request.
//
// The pipeline holds no mutable state of its own. The schema description
// is an explicit input — caching it (and invalidating that cache) is the
// caller's responsibility. Nothing here retries: every failure is
// terminal for the request.
package pipeline

import (
	"context"

	"github.com/querysight/querysight/internal/catalog"
	"github.com/querysight/querysight/internal/chart"
	"github.com/querysight/querysight/internal/executor"
	"github.com/querysight/querysight/internal/genai"
	"github.com/querysight/querysight/internal/logger"
	"github.com/querysight/querysight/internal/planner"
	"github.com/querysight/querysight/internal/store"
)

// Analysis is the outcome of one request: the SQL that ran, the execution
// result, and the resolved chart (nil when nothing is plottable). The
// delivery layer owns display and persistence of these artifacts.
type Analysis struct {
	Question string           `json:"question,omitempty"`
	SQL      string           `json:"sql"`
	Result   *executor.Result `json:"result"`
	Chart    *chart.Chart     `json:"chart,omitempty"`
}

// Pipeline wires the planner, executor, and chart selector together.
type Pipeline struct {
	planner  *planner.Planner
	executor *executor.Executor
	selector *chart.Selector
	log      *logger.Logger
}

// New builds a Pipeline over the given store and generation client.
func New(st store.Store, gen genai.Client, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.New(nil)
	}
	return &Pipeline{
		planner:  planner.New(gen, st.Dialect(), log),
		executor: executor.New(st, log),
		selector: chart.New(gen, log),
		log:      log,
	}
}

// Ask answers a natural-language question against the given schema.
// Planning failures are returned as errors and halt before any store
// call; execution and visualization outcomes are folded into the
// Analysis (a failed query is an Analysis with an error-status result,
// an unplottable result is an Analysis without a chart).
func (p *Pipeline) Ask(ctx context.Context, question string, schema *catalog.SchemaDescription) (*Analysis, error) {
	plan, err := p.planner.Plan(ctx, question, schema)
	if err != nil {
		return nil, err
	}

	p.log.With().Str("sql", plan.SQL).Logger().Debug("planned query")

	res := p.executor.Execute(ctx, plan.SQL)

	a := &Analysis{
		Question: question,
		SQL:      res.Debug.Query,
		Result:   res,
	}
	if res.Status == executor.StatusSuccess {
		a.Chart = p.selector.Choose(ctx, res.Records, question)
	}
	return a, nil
}

// RunSQL executes user-edited SQL text directly, skipping planning but
// never the guardrail, and still resolves a chart for successful results.
// question is optional context for chart titling; it may be empty.
func (p *Pipeline) RunSQL(ctx context.Context, sql, question string) *Analysis {
	res := p.executor.Execute(ctx, sql)

	a := &Analysis{
		Question: question,
		SQL:      res.Debug.Query,
		Result:   res,
	}
	if res.Status == executor.StatusSuccess {
		a.Chart = p.selector.Choose(ctx, res.Records, question)
	}
	return a
}
