package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/liammertens/conjunctive-queries/datalog/annotations"
	"github.com/liammertens/conjunctive-queries/datalog/executor"
	"github.com/liammertens/conjunctive-queries/datalog/hypergraph"
	"github.com/liammertens/conjunctive-queries/datalog/parser"
)

// ErrVerification is reported when the Yannakakis answer differs from the
// naive evaluation of the same query
var ErrVerification = errors.New("answer differs from naive evaluation")

// Options configures a Runner
type Options struct {
	// Handler receives evaluation and batch events. Nil disables tracing.
	Handler annotations.Handler

	// Verify re-evaluates every acyclic query naively and compares answers.
	Verify bool

	// NewRunID overrides run id generation, mainly for tests.
	NewRunID func() string
}

// Outcome is the result of one batch query. Err is set for queries that
// failed to parse or evaluate; the other queries of the batch still run.
type Outcome struct {
	ID      string
	Query   string
	Acyclic bool
	Result  *executor.Result
	Err     error
	Latency time.Duration
}

// Cyclic reports whether the query was rejected by the acyclicity test
func (o Outcome) Cyclic() bool {
	return errors.Is(o.Err, hypergraph.ErrCyclicQuery)
}

// Report collects the outcomes of a run in query order
type Report struct {
	RunID    string
	Outcomes []Outcome
}

// Failures counts outcomes with an error, cyclic rejections included
func (r *Report) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Runner parses and evaluates batch queries against one database
type Runner struct {
	lookup    parser.RelationLookup
	evaluator *executor.Evaluator
	options   Options
	collector *annotations.Collector
}

// NewRunner creates a runner. A nil evaluator selects a sequential one.
func NewRunner(lookup parser.RelationLookup, evaluator *executor.Evaluator, opts Options) *Runner {
	if evaluator == nil {
		evaluator = executor.NewEvaluator()
	}
	if opts.NewRunID == nil {
		opts.NewRunID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	return &Runner{
		lookup:    lookup,
		evaluator: evaluator,
		options:   opts,
		collector: annotations.NewCollector(opts.Handler),
	}
}

// Run evaluates queries in order under a fresh run id
func (r *Runner) Run(queries []QuerySpec) *Report {
	report := &Report{
		RunID:    r.options.NewRunID(),
		Outcomes: make([]Outcome, 0, len(queries)),
	}

	for _, spec := range queries {
		start := time.Now()
		outcome := r.runOne(spec)
		outcome.Latency = time.Since(start)

		data := map[string]interface{}{
			"run.id":   report.RunID,
			"query.id": spec.ID,
			"acyclic":  outcome.Acyclic,
		}
		if outcome.Err != nil {
			data["error"] = outcome.Err.Error()
		}
		r.collector.AddTiming(annotations.BatchQuery, start, data)

		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report
}

func (r *Runner) runOne(spec QuerySpec) Outcome {
	outcome := Outcome{ID: spec.ID, Query: spec.Query}

	q, err := parser.ParseQuery(spec.Query, r.lookup)
	if err != nil {
		outcome.Err = fmt.Errorf("query %s: %w", spec.ID, err)
		return outcome
	}

	res, err := r.evaluator.EvaluateWithContext(executor.NewContext(r.options.Handler), q)
	if err != nil {
		outcome.Err = fmt.Errorf("query %s: %w", spec.ID, err)
		return outcome
	}
	outcome.Acyclic = true
	outcome.Result = res

	if r.options.Verify {
		naive, err := executor.NaiveEvaluate(q)
		if err != nil {
			outcome.Err = fmt.Errorf("query %s: verify: %w", spec.ID, err)
		} else if !executor.SameAnswer(res, naive) {
			outcome.Err = fmt.Errorf("query %s: %w", spec.ID, ErrVerification)
		}
	}
	return outcome
}
