package executor

import (
	"time"

	"github.com/liammertens/conjunctive-queries/datalog/annotations"
	"github.com/liammertens/conjunctive-queries/datalog/hypergraph"
	"github.com/liammertens/conjunctive-queries/datalog/query"
)

// Context provides clean annotation points for query evaluation tracking.
type Context interface {
	// Query lifecycle
	QueryBegin(query string)
	QueryComplete(result *Result, err error)

	// Join tree construction
	TreeBuilt(tree *hypergraph.JoinTree)
	TreeRejected(err error)

	// Yannakakis passes; fn returns the number of tuples held by the
	// touched nodes when the pass ends
	ExecutePass(name string, nodeCount int, fn func() (int, error)) error

	// Leaf evaluation
	ScanAtom(atom *query.Atom, fn func() (*query.QueryResult, error)) (*query.QueryResult, error)

	// Relation operations
	JoinRelations(left, right *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult
	SemijoinRelations(left, right *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult
	IntersectRelations(rels []*query.QueryResult, fn func() *query.QueryResult) *query.QueryResult
	ProductRelations(left, right *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult
	ProjectRelation(rel *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult

	// Get underlying collector
	Collector() *annotations.Collector
}

// BaseContext provides a no-op implementation with zero overhead.
type BaseContext struct{}

// NewContext creates an appropriate context based on whether annotations are needed.
func NewContext(handler annotations.Handler) Context {
	if handler == nil {
		return &BaseContext{}
	}
	return &AnnotatedContext{
		collector: annotations.NewCollector(handler),
	}
}

// BaseContext implementations - all are simple pass-throughs

func (c *BaseContext) QueryBegin(query string) {}

func (c *BaseContext) QueryComplete(result *Result, err error) {}

func (c *BaseContext) TreeBuilt(tree *hypergraph.JoinTree) {}

func (c *BaseContext) TreeRejected(err error) {}

func (c *BaseContext) ExecutePass(name string, nodeCount int, fn func() (int, error)) error {
	_, err := fn()
	return err
}

func (c *BaseContext) ScanAtom(atom *query.Atom, fn func() (*query.QueryResult, error)) (*query.QueryResult, error) {
	return fn()
}

func (c *BaseContext) JoinRelations(left, right *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	return fn()
}

func (c *BaseContext) SemijoinRelations(left, right *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	return fn()
}

func (c *BaseContext) IntersectRelations(rels []*query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	return fn()
}

func (c *BaseContext) ProductRelations(left, right *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	return fn()
}

func (c *BaseContext) ProjectRelation(rel *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	return fn()
}

func (c *BaseContext) Collector() *annotations.Collector {
	return nil
}

// AnnotatedContext provides full annotation tracking
type AnnotatedContext struct {
	BaseContext
	collector  *annotations.Collector
	queryStart time.Time
}

func (c *AnnotatedContext) QueryBegin(query string) {
	c.queryStart = time.Now()
	c.collector.Add(annotations.Event{
		Name:  annotations.QueryInvoked,
		Start: c.queryStart,
		Data: map[string]interface{}{
			"query": query,
		},
	})
}

func (c *AnnotatedContext) QueryComplete(result *Result, err error) {
	data := map[string]interface{}{
		"tuples.count": 0,
		"success":      err == nil,
	}

	if result != nil {
		if result.IsBoolean() {
			data["boolean"] = result.Boolean
		} else {
			data["tuples.count"] = result.Relation.Size()
		}
	}

	if err != nil {
		data["error"] = err.Error()
	}

	c.collector.AddTiming(annotations.QueryComplete, c.queryStart, data)
}

func (c *AnnotatedContext) TreeBuilt(tree *hypergraph.JoinTree) {
	c.collector.AddTiming(annotations.TreeBuilt, c.queryStart, map[string]interface{}{
		"tree":       tree.String(),
		"node.count": tree.Len(),
		"root.count": len(tree.Roots()),
	})
}

func (c *AnnotatedContext) TreeRejected(err error) {
	c.collector.AddTiming(annotations.TreeCyclic, c.queryStart, map[string]interface{}{
		"error": err.Error(),
	})
}

func (c *AnnotatedContext) ExecutePass(name string, nodeCount int, fn func() (int, error)) error {
	start := time.Now()

	c.collector.Add(annotations.Event{
		Name:  annotations.PassBegin,
		Start: start,
		Data: map[string]interface{}{
			"pass":       name,
			"node.count": nodeCount,
		},
	})

	tuples, err := fn()

	completeData := map[string]interface{}{
		"pass":        name,
		"tuple.count": tuples,
		"success":     err == nil,
	}
	if err != nil {
		completeData["error"] = err.Error()
	}

	c.collector.AddTiming(annotations.PassComplete, start, completeData)
	return err
}

func (c *AnnotatedContext) ScanAtom(atom *query.Atom, fn func() (*query.QueryResult, error)) (*query.QueryResult, error) {
	start := time.Now()
	result, err := fn()

	data := map[string]interface{}{
		"atom":          atom.String(),
		"relation.size": 0,
		"result.size":   0,
		"success":       err == nil,
	}
	if atom.Relation != nil {
		data["relation.size"] = atom.Relation.Size()
	}
	if result != nil {
		data["result.size"] = result.Size()
		data["result.attrs"] = result.Columns()
	}
	if err != nil {
		data["error"] = err.Error()
	}

	c.collector.AddTiming(annotations.LeafScan, start, data)
	return result, err
}

func (c *AnnotatedContext) JoinRelations(left, right *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	return c.binary(annotations.JoinHash, left, right, fn)
}

func (c *AnnotatedContext) SemijoinRelations(left, right *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	return c.binary(annotations.JoinSemi, left, right, fn)
}

func (c *AnnotatedContext) ProductRelations(left, right *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	return c.binary(annotations.JoinProduct, left, right, fn)
}

// binary times a two-input operator and records both inputs and the output
func (c *AnnotatedContext) binary(name string, left, right *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	start := time.Now()
	result := fn()

	data := map[string]interface{}{
		"left.size":    left.Size(),
		"right.size":   right.Size(),
		"result.size":  result.Size(),
		"left.attrs":   left.Columns(),
		"right.attrs":  right.Columns(),
		"result.attrs": result.Columns(),
	}

	// Calculate amplification factor
	if left.Size()+right.Size() > 0 {
		data["amplification"] = float64(result.Size()) / float64(left.Size()+right.Size())
	}

	c.collector.AddTiming(name, start, data)
	return result
}

func (c *AnnotatedContext) IntersectRelations(rels []*query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	start := time.Now()
	result := fn()

	sizes := make([]int, len(rels))
	for i, rel := range rels {
		sizes[i] = rel.Size()
	}

	c.collector.AddTiming(annotations.JoinIntersect, start, map[string]interface{}{
		"input.count":  len(rels),
		"input.sizes":  sizes,
		"result.size":  result.Size(),
		"result.attrs": result.Columns(),
	})
	return result
}

func (c *AnnotatedContext) ProjectRelation(rel *query.QueryResult, fn func() *query.QueryResult) *query.QueryResult {
	start := time.Now()
	result := fn()

	c.collector.AddTiming(annotations.ResultProjection, start, map[string]interface{}{
		"input.size":   rel.Size(),
		"input.attrs":  rel.Columns(),
		"result.size":  result.Size(),
		"result.attrs": result.Columns(),
	})
	return result
}

func (c *AnnotatedContext) Collector() *annotations.Collector {
	return c.collector
}
