package executor

import (
	"fmt"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/query"
)

// NaiveEvaluate answers q by enumerating every combination of matching atom
// rows and keeping the consistent ones. It accepts cyclic queries and is
// exponential in the number of atoms; it serves as a reference for the
// Yannakakis evaluator.
func NaiveEvaluate(q *query.Query) (*Result, error) {
	scans := make([]*query.QueryResult, len(q.Body))
	for i, atom := range q.Body {
		r, err := EvaluateAtom(atom, query.NewHeadAtom(atom.Predicate, atom.Variables()...))
		if err != nil {
			return nil, fmt.Errorf("naive evaluate %s: %w", atom, err)
		}
		scans[i] = r
	}

	bound := make(map[string]bool)
	for _, atom := range q.Body {
		for _, v := range atom.Variables() {
			bound[v] = true
		}
	}
	var names []string
	for _, v := range q.Head.Names() {
		if bound[v] {
			names = append(names, v)
		}
	}

	result := &Result{Query: q}
	set := NewTupleSet(0)
	var tuples []datalog.Tuple

	binding := make(map[string]datalog.Value)
	var enumerate func(i int) bool
	enumerate = func(i int) bool {
		if i == len(scans) {
			if q.IsBoolean() {
				result.Boolean = true
				return false
			}
			t := make(datalog.Tuple, len(names))
			for j, v := range names {
				t[j] = binding[v]
			}
			if set.Insert(t) {
				tuples = append(tuples, t)
			}
			return true
		}

		scan := scans[i]
		for _, t := range scan.Tuples {
			var added []string
			consistent := true
			for col, v := range scan.Head.Variables {
				if prev, ok := binding[v.Name]; ok {
					if !prev.Equal(t[col]) {
						consistent = false
						break
					}
					continue
				}
				binding[v.Name] = t[col]
				added = append(added, v.Name)
			}

			more := true
			if consistent {
				more = enumerate(i + 1)
			}
			for _, name := range added {
				delete(binding, name)
			}
			if !more {
				return false
			}
		}
		return true
	}
	enumerate(0)

	if !q.IsBoolean() {
		result.Relation = query.NewQueryResult(query.NewHeadAtom(q.Head.Name, names...), tuples)
		result.Boolean = len(tuples) > 0
	}
	return result, nil
}

// SameAnswer reports whether two results hold the same answer: the same
// truth value for boolean queries, otherwise the same set of tuples over the
// same columns in any column order.
func SameAnswer(a, b *Result) bool {
	if a.IsBoolean() || b.IsBoolean() {
		return a.IsBoolean() == b.IsBoolean() && a.Boolean == b.Boolean
	}

	ra, rb := a.Relation, b.Relation
	cols := ra.Columns()
	if len(cols) != len(rb.Columns()) || ra.Size() != rb.Size() {
		return false
	}
	positions := make([]int, len(cols))
	for i, name := range cols {
		idx, ok := rb.VarMap[name]
		if !ok {
			return false
		}
		positions[i] = idx[0]
	}

	set := NewTupleSet(ra.Size())
	for _, t := range ra.Tuples {
		set.Insert(t)
	}
	for _, t := range rb.Tuples {
		aligned := make(datalog.Tuple, len(positions))
		for i, p := range positions {
			aligned[i] = t[p]
		}
		if !set.Contains(aligned) {
			return false
		}
	}
	return true
}
