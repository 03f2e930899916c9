// Package executor runs validated SQL text against the store and
// normalizes the response into one canonical tabular result.
//
// The executor never propagates a store fault to its caller as an
// unhandled error: every outcome is folded into the Result status.
package executor

import (
	"context"
	"strings"

	"github.com/querysight/querysight/internal/guard"
	"github.com/querysight/querysight/internal/logger"
	"github.com/querysight/querysight/internal/store"
)

// Status tags the outcome of one execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusBlocked Status = "blocked"
	StatusError   Status = "error"
)

// Debug carries diagnostic metadata about one execution: the query as
// submitted and response-shape flags. Observability only — nothing
// downstream branches on it.
type Debug struct {
	Query     string      `json:"query"`
	Shape     store.Shape `json:"response_shape,omitempty"`
	HasData   bool        `json:"has_data"`
	Violation string      `json:"violation,omitempty"`
}

// Result is the canonical outcome of one execution.
// "No results" is a success with an empty Records set, not an error.
type Result struct {
	Status  Status           `json:"status"`
	Records *store.RecordSet `json:"records"`
	Error   string           `json:"error,omitempty"`
	Debug   Debug            `json:"debug"`
}

// Executor submits SQL to a store and normalizes what comes back.
type Executor struct {
	store store.Store
	log   *logger.Logger
}

// New creates an Executor over the given store.
func New(st store.Store, log *logger.Logger) *Executor {
	if log == nil {
		log = logger.New(nil)
	}
	return &Executor{store: st, log: log}
}

// Execute strips the trailing statement terminator, re-runs the guardrail,
// submits the text to the store, and normalizes the response payload.
//
// The guardrail check here is defense in depth: it runs even when the
// caller already validated the text, and must not be optimized away.
func (e *Executor) Execute(ctx context.Context, sql string) *Result {
	sql = strings.TrimSuffix(strings.TrimSpace(sql), ";")

	res := &Result{
		Records: &store.RecordSet{Rows: []map[string]any{}},
		Debug:   Debug{Query: sql},
	}

	if kw := guard.Violation(sql); kw != "" {
		e.log.With().Str("keyword", kw).Logger().Warn("guardrail blocked mutating statement")
		res.Status = StatusBlocked
		res.Error = "write commands (INSERT, UPDATE, DELETE, DROP, ...) are blocked"
		res.Debug.Violation = kw
		return res
	}

	payload, err := e.store.Exec(ctx, sql)
	if err != nil {
		// Transport faults become a status, never an unhandled error.
		res.Status = StatusError
		res.Error = err.Error()
		return res
	}

	rs, shape, msg := store.Resolve(payload)
	res.Debug.Shape = shape

	if shape == store.ShapeError {
		res.Status = StatusError
		res.Error = msg
		return res
	}

	res.Status = StatusSuccess
	res.Records = rs
	res.Debug.HasData = !rs.Empty()
	return res
}
