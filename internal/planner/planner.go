// Package planner turns a natural-language question into a single
// read-only SQL statement scoped to the live schema.
//
// Planning is a two-stage text-generation pipeline: grounding resolves
// the question to a subset of known tables, then generation produces SQL
// against only that subset. Nothing is retried — a failed or malformed
// generation result is terminal for the request, and a malformed SQL
// candidate is passed through to the guardrail and executor like any
// other, surfacing a clear error instead of being speculatively fixed.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/querysight/querysight/internal/catalog"
	"github.com/querysight/querysight/internal/errs"
	"github.com/querysight/querysight/internal/genai"
	"github.com/querysight/querysight/internal/logger"
	"github.com/querysight/querysight/internal/store"
)

// Plan is the outcome of a successful planning run: the resolved table
// subset (always a subset of the catalog's tables) and the generated SQL.
type Plan struct {
	Question string   `json:"question"`
	Tables   []string `json:"tables"`
	SQL      string   `json:"sql"`
}

// Planner grounds questions against a SchemaDescription and generates SQL.
type Planner struct {
	gen     genai.Client
	dialect store.Dialect
	log     *logger.Logger
}

// New creates a Planner generating SQL for the given dialect.
func New(gen genai.Client, dialect store.Dialect, log *logger.Logger) *Planner {
	if log == nil {
		log = logger.New(nil)
	}
	return &Planner{gen: gen, dialect: dialect, log: log}
}

// grounding is the structured fragment requested from the generator in
// stage one. Unknown fields are ignored; unknown tables are dropped.
type grounding struct {
	Tables  []string `json:"tables"`
	Columns []string `json:"columns_needed"`
}

// Plan resolves question against schema and returns the generated SQL.
// Failures are *errs.Error with ErrKindPlanning and a human-readable
// reason; the pipeline halts before execution on any of them.
func (p *Planner) Plan(ctx context.Context, question string, schema *catalog.SchemaDescription) (*Plan, error) {
	if schema.Empty() {
		return nil, errs.New(errs.ErrKindPlanning, "no tables found in schema")
	}

	tables, err := p.ground(ctx, question, schema)
	if err != nil {
		return nil, err
	}

	sql, err := p.generate(ctx, question, schema, tables)
	if err != nil {
		return nil, err
	}

	return &Plan{Question: question, Tables: tables, SQL: sql}, nil
}

// ground asks the generator which tables the question needs, parses the
// response defensively, and intersects it with the catalog. Names the
// catalog does not know are discarded silently — the generator is never
// trusted to invent tables.
func (p *Planner) ground(ctx context.Context, question string, schema *catalog.SchemaDescription) ([]string, error) {
	var summary strings.Builder
	for _, name := range schema.TableNames() {
		fmt.Fprintf(&summary, "- %s: columns = %s\n",
			name, strings.Join(schema.Tables[name].ColumnNames(), ", "))
	}

	prompt := fmt.Sprintf(`Identify the tables and columns from schema %q needed to answer: %q

Available tables:
%s
Return ONLY a JSON object: {"tables": [], "columns_needed": []}`,
		schema.Schema, question, summary.String())

	resp, err := p.gen.GenerateText(ctx, prompt)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindPlanning, "grounding call failed", err)
	}

	var tables []string
	if fragment, ok := ExtractObject(resp); ok {
		var g grounding
		if err := json.Unmarshal([]byte(fragment), &g); err == nil {
			for _, t := range g.Tables {
				if schema.HasTable(t) {
					tables = append(tables, t)
				}
			}
		}
	}

	if len(tables) == 0 {
		return nil, errs.New(errs.ErrKindPlanning, "no relevant tables identified")
	}

	p.log.With().Any("tables", tables).Logger().Debug("question grounded")
	return tables, nil
}

// generate asks the generator for a single read-only statement scoped to
// the resolved tables. Join hints cover only foreign keys whose target
// table is itself in the working set.
func (p *Planner) generate(ctx context.Context, question string, schema *catalog.SchemaDescription, tables []string) (string, error) {
	valid := make(map[string]bool, len(tables))
	for _, t := range tables {
		valid[t] = true
	}

	var sctx strings.Builder
	for _, t := range tables {
		info := schema.Tables[t]
		fmt.Fprintf(&sctx, "Table %s: %s\n", t, strings.Join(info.ColumnNames(), ", "))
		if len(info.PrimaryKeys) > 0 {
			fmt.Fprintf(&sctx, "PK: %s\n", strings.Join(info.PrimaryKeys, ", "))
		}
		for _, fk := range info.ForeignKeys {
			if valid[fk.RefTable] {
				fmt.Fprintf(&sctx, "FK: %s -> %s.%s\n", fk.Column, fk.RefTable, fk.RefColumn)
			}
		}
	}

	prompt := fmt.Sprintf(`Generate SQL for: %q
Schema: %s
Tables: %s
Context:
%s
Rules:
1. %s syntax.
2. Prefix tables with %s.
3. NO semicolons.
4. NO markdown.
5. Window functions must be in SELECT/subqueries.
6. Return ONLY SQL.`,
		question, schema.Schema, strings.Join(tables, ", "),
		sctx.String(), p.dialectName(), schema.Schema)

	resp, err := p.gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindPlanning, "generation call failed", err)
	}

	// The generator is told not to fence its output; strip anyway.
	return StripFences(resp), nil
}

func (p *Planner) dialectName() string {
	if p.dialect == store.DialectMySQL {
		return "MySQL"
	}
	return "PostgreSQL"
}
