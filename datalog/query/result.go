package query

import (
	"fmt"
	"sort"

	"github.com/liammertens/conjunctive-queries/datalog"
)

// QueryResult is a batch of tuples shaped by a head. It is the unit every
// relational operator consumes and produces.
//
// VarMap maps a variable to every column it occupies; a variable appears in
// more than one column after a join that did not re-project.
type QueryResult struct {
	Head      HeadAtom
	Tuples    []datalog.Tuple
	VarMap    map[string][]int
	Variables map[string]struct{}
}

// NewQueryResult creates a result and derives VarMap and Variables from head
func NewQueryResult(head HeadAtom, tuples []datalog.Tuple) *QueryResult {
	r := &QueryResult{
		Head:      head,
		Tuples:    tuples,
		VarMap:    make(map[string][]int, len(head.Variables)),
		Variables: make(map[string]struct{}, len(head.Variables)),
	}
	for i, v := range head.Variables {
		r.VarMap[v.Name] = append(r.VarMap[v.Name], i)
		r.Variables[v.Name] = struct{}{}
	}
	return r
}

// Size returns the number of tuples
func (r *QueryResult) Size() int { return len(r.Tuples) }

// IsEmpty returns true if the result has no tuples
func (r *QueryResult) IsEmpty() bool { return len(r.Tuples) == 0 }

// Columns returns the head variable names, one per column
func (r *QueryResult) Columns() []string { return r.Head.Names() }

// HasVariable reports whether the head mentions name
func (r *QueryResult) HasVariable(name string) bool {
	_, ok := r.Variables[name]
	return ok
}

// VariableOrder returns the distinct variables in first-column order
func (r *QueryResult) VariableOrder() []string {
	seen := make(map[string]bool, len(r.Variables))
	var order []string
	for _, v := range r.Head.Variables {
		if !seen[v.Name] {
			seen[v.Name] = true
			order = append(order, v.Name)
		}
	}
	return order
}

// Sorted returns a sorted copy of the tuples
// First column is primary sort key, second is secondary, etc.
func (r *QueryResult) Sorted() []datalog.Tuple {
	sorted := make([]datalog.Tuple, len(r.Tuples))
	copy(sorted, r.Tuples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return datalog.CompareTuples(sorted[i], sorted[j]) < 0
	})
	return sorted
}

// String returns a compact representation for annotations/logging
func (r *QueryResult) String() string {
	return fmt.Sprintf("Result(%v, %d Tuples)", r.Columns(), len(r.Tuples))
}
