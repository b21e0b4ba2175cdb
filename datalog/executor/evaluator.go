package executor

import (
	"fmt"

	"github.com/liammertens/conjunctive-queries/datalog/hypergraph"
	"github.com/liammertens/conjunctive-queries/datalog/query"
)

// Pass names used in annotations and debug output
const (
	PassBottomUpSemijoin = "pass1/semijoin-up"
	PassTopDownSemijoin  = "pass2/semijoin-down"
	PassBottomUpJoin     = "pass3/join-up"
)

// Result is the answer to one query. Boolean queries only set Boolean;
// other queries set Relation and Boolean reports whether it is non-empty.
type Result struct {
	Query    *query.Query
	Tree     *hypergraph.JoinTree
	Boolean  bool
	Relation *query.QueryResult
}

// IsBoolean reports whether the answer is a plain truth value
func (r *Result) IsBoolean() bool { return r.Relation == nil }

// Evaluator runs acyclic conjunctive queries with the Yannakakis algorithm
type Evaluator struct {
	options ExecutorOptions
	pool    *WorkerPool
}

// NewEvaluator creates a sequential evaluator
func NewEvaluator() *Evaluator {
	return NewEvaluatorWithOptions(ExecutorOptions{})
}

// NewEvaluatorWithOptions creates an evaluator with custom options
func NewEvaluatorWithOptions(opts ExecutorOptions) *Evaluator {
	e := &Evaluator{options: opts}
	if opts.ParallelLeafScans {
		e.pool = NewWorkerPool(opts.MaxWorkers)
	}
	return e
}

// Evaluate runs q and returns its answer
func (e *Evaluator) Evaluate(q *query.Query) (*Result, error) {
	// Use a no-op context
	return e.EvaluateWithContext(NewContext(nil), q)
}

// EvaluateWithContext runs q with annotation support. A cyclic query fails
// with an error wrapping hypergraph.ErrCyclicQuery and no partial answer.
func (e *Evaluator) EvaluateWithContext(ctx Context, q *query.Query) (*Result, error) {
	ctx.QueryBegin(q.String())

	result, err := e.evaluate(ctx, q)
	ctx.QueryComplete(result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Evaluator) evaluate(ctx Context, q *query.Query) (*Result, error) {
	tree, err := hypergraph.GYO(q)
	if err != nil {
		ctx.TreeRejected(err)
		return nil, fmt.Errorf("evaluate %s: %w", q.Head, err)
	}
	ctx.TreeBuilt(tree)

	if e.options.EnableDebugLogging {
		fmt.Printf("[Evaluator] Join tree with %d nodes, %d roots:\n%s", tree.Len(), len(tree.Roots()), tree)
	}

	result := &Result{Query: q, Tree: tree}

	// Ground atoms bind nothing; each must match at least one row
	holds, err := e.groundAtomsHold(ctx, q)
	if err != nil {
		return nil, err
	}
	if !holds {
		if e.options.EnableDebugLogging {
			fmt.Printf("[Evaluator] Ground atom without match, answer is empty\n")
		}
		if !q.IsBoolean() {
			result.Relation = query.NewQueryResult(q.Head, nil)
		}
		return result, nil
	}

	if err := e.semijoinUp(ctx, tree); err != nil {
		return nil, err
	}

	if q.IsBoolean() {
		result.Boolean = true
		for _, root := range tree.Roots() {
			if root.Qs.IsEmpty() {
				result.Boolean = false
				break
			}
		}
		return result, nil
	}

	if err := e.semijoinDown(ctx, tree); err != nil {
		return nil, err
	}
	if err := e.joinUp(ctx, tree, q.Head); err != nil {
		return nil, err
	}

	result.Relation = e.combine(ctx, tree, q.Head)
	result.Boolean = !result.Relation.IsEmpty()
	return result, nil
}

func (e *Evaluator) groundAtomsHold(ctx Context, q *query.Query) (bool, error) {
	for _, atom := range q.Body {
		if !atom.IsGround() {
			continue
		}
		matches, err := ctx.ScanAtom(atom, func() (*query.QueryResult, error) {
			return EvaluateAtom(atom, query.HeadAtom{})
		})
		if err != nil {
			return false, fmt.Errorf("evaluate %s: %w", atom, err)
		}
		if matches.IsEmpty() {
			return false, nil
		}
	}
	return true, nil
}

// bottomUp visits the nodes of the forest level by level from the leaves.
// A node is visited once all of its children have been, so every node is
// visited exactly once.
func bottomUp(tree *hypergraph.JoinTree, visit func(level []*hypergraph.Node) error) error {
	pending := make(map[*hypergraph.Node]int, tree.Len())
	for _, n := range tree.Nodes() {
		pending[n] = len(n.Children)
	}

	level := tree.Leaves()
	for len(level) > 0 {
		if err := visit(level); err != nil {
			return err
		}

		var next []*hypergraph.Node
		for _, n := range level {
			parent := n.Parent()
			if parent == nil {
				continue
			}
			pending[parent]--
			if pending[parent] == 0 {
				next = append(next, parent)
			}
		}
		level = next
	}
	return nil
}

// semijoinUp is pass 1: every node scans its atoms and keeps the tuples
// that have a partner in each child.
func (e *Evaluator) semijoinUp(ctx Context, tree *hypergraph.JoinTree) error {
	return ctx.ExecutePass(PassBottomUpSemijoin, tree.Len(), func() (int, error) {
		err := bottomUp(tree, func(level []*hypergraph.Node) error {
			scans, err := e.scanLevel(ctx, level)
			if err != nil {
				return err
			}

			for i, n := range level {
				n.Qs = e.reduceByChildren(ctx, scans[i], n.Children)
				if e.options.EnableDebugLogging {
					fmt.Printf("[Evaluator] %s %s: %d scanned, %d after semijoins\n",
						PassBottomUpSemijoin, n.Key, scans[i].Size(), n.Qs.Size())
				}
			}
			return nil
		})
		return countTuples(tree), err
	})
}

func (e *Evaluator) reduceByChildren(ctx Context, qs *query.QueryResult, children []*hypergraph.Node) *query.QueryResult {
	if len(children) == 0 {
		return qs
	}

	reduced := make([]*query.QueryResult, 0, len(children))
	for _, child := range children {
		sj := ctx.SemijoinRelations(qs, child.Qs, func() *query.QueryResult {
			return Semijoin(qs, child.Qs)
		})
		if sj.IsEmpty() {
			return sj
		}
		reduced = append(reduced, sj)
	}

	return ctx.IntersectRelations(reduced, func() *query.QueryResult {
		return Intersect(reduced)
	})
}

// scanLevel evaluates the atoms of every node in level, concurrently when
// parallel leaf scans are enabled. Results are in level order.
func (e *Evaluator) scanLevel(ctx Context, level []*hypergraph.Node) ([]*query.QueryResult, error) {
	scan := func(n *hypergraph.Node) (*query.QueryResult, error) {
		var result *query.QueryResult
		var err error
		if len(n.Atoms) == 1 {
			result, err = ctx.ScanAtom(n.Atoms[0], func() (*query.QueryResult, error) {
				return EvaluateAtom(n.Atoms[0], n.Head())
			})
		} else {
			result, err = EvaluateNode(n.Atoms, n.Head())
		}
		if err != nil {
			return nil, fmt.Errorf("evaluate node %s: %w", n.Key, err)
		}
		return result, nil
	}

	if e.pool != nil && len(level) > 1 {
		if e.options.EnableDebugLogging {
			fmt.Printf("[Evaluator] Scanning %d nodes on %d workers\n", len(level), e.pool.GetWorkerCount())
		}
		return e.pool.ScanNodes(level, scan)
	}

	results := make([]*query.QueryResult, len(level))
	for i, n := range level {
		r, err := scan(n)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return results, nil
}

// semijoinDown is pass 2: from the roots down, every child keeps the tuples
// that have a partner in its parent.
func (e *Evaluator) semijoinDown(ctx Context, tree *hypergraph.JoinTree) error {
	return ctx.ExecutePass(PassTopDownSemijoin, tree.Len(), func() (int, error) {
		queue := append([]*hypergraph.Node(nil), tree.Roots()...)
		for len(queue) > 0 {
			parent := queue[0]
			queue = queue[1:]

			for _, child := range parent.Children {
				childQs := child.Qs
				child.Qs = ctx.SemijoinRelations(childQs, parent.Qs, func() *query.QueryResult {
					return Semijoin(childQs, parent.Qs)
				})
				queue = append(queue, child)
			}
		}
		return countTuples(tree), nil
	})
}

// joinUp is pass 3: every inner node joins in each child and re-projects
// onto the variables it has collected so far.
func (e *Evaluator) joinUp(ctx Context, tree *hypergraph.JoinTree, head query.HeadAtom) error {
	return ctx.ExecutePass(PassBottomUpJoin, tree.Len(), func() (int, error) {
		err := bottomUp(tree, func(level []*hypergraph.Node) error {
			for _, n := range level {
				acc := n.Qs
				for _, child := range n.Children {
					left, right := acc, child.Qs
					joined := ctx.JoinRelations(left, right, func() *query.QueryResult {
						return Join(left, right)
					})
					vars := unionVars(joined.VariableOrder(), head.Names())
					acc = ctx.ProjectRelation(joined, func() *query.QueryResult {
						return Projection(vars, joined)
					})
				}
				n.Qs = acc
			}
			return nil
		})
		return countTuples(tree), err
	})
}

// combine multiplies the roots' results in registry order and projects onto
// the query head.
func (e *Evaluator) combine(ctx Context, tree *hypergraph.JoinTree, head query.HeadAtom) *query.QueryResult {
	acc := UnitRelation()
	for _, root := range tree.Roots() {
		left, right := acc, root.Qs
		acc = ctx.ProductRelations(left, right, func() *query.QueryResult {
			return CartesianProduct(left, right)
		})
	}

	combined := acc
	result := ctx.ProjectRelation(combined, func() *query.QueryResult {
		return Projection(head.Names(), combined)
	})
	result.Head.Name = head.Name
	return result
}

// unionVars returns a followed by the names of b not in a, each once
func unionVars(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func countTuples(tree *hypergraph.JoinTree) int {
	total := 0
	for _, n := range tree.Nodes() {
		if n.Qs != nil {
			total += n.Qs.Size()
		}
	}
	return total
}
