package executor

import (
	"sort"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/query"
)

// Semijoin keeps the tuples of q1 that have at least one partner in q2 on
// their shared variables. The result has q1's head. Without shared
// variables every q1 tuple survives iff q2 is not empty.
func Semijoin(q1, q2 *query.QueryResult) *query.QueryResult {
	if q1.IsEmpty() || q2.IsEmpty() {
		return query.NewQueryResult(q1.Head, nil)
	}

	index := CreateIndex(q1, q2)
	switch {
	case index.Size() == 0:
		return query.NewQueryResult(q1.Head, nil)
	case len(index.SharedColumns()) == 0:
		return query.NewQueryResult(q1.Head, q1.Tuples)
	}

	out := make([]datalog.Tuple, 0, q1.Size())
	for _, t := range q1.Tuples {
		if len(index.Lookup(t)) > 0 {
			out = append(out, t)
		}
	}
	return query.NewQueryResult(q1.Head, out)
}

// Join is the natural join of q1 and q2. The smaller side is indexed, but
// output tuples are always q1's columns followed by q2's and the head is
// q1.Head ++ q2.Head.
func Join(q1, q2 *query.QueryResult) *query.QueryResult {
	head := q1.Head.Concat(q2.Head)
	if q1.IsEmpty() || q2.IsEmpty() {
		return query.NewQueryResult(head, nil)
	}

	var out []datalog.Tuple
	if q2.Size() <= q1.Size() {
		index := CreateIndex(q1, q2)
		for _, left := range q1.Tuples {
			for _, right := range index.Lookup(left) {
				out = append(out, left.Concat(right))
			}
		}
	} else {
		index := CreateIndex(q2, q1)
		for _, right := range q2.Tuples {
			for _, left := range index.Lookup(right) {
				out = append(out, left.Concat(right))
			}
		}
	}

	return query.NewQueryResult(head, out)
}

// Intersect returns the tuples present in every input, compared
// positionally. Inputs are intersected smallest first and the result takes
// the head of the first input. No inputs give an empty result.
func Intersect(inputs []*query.QueryResult) *query.QueryResult {
	switch len(inputs) {
	case 0:
		return query.NewQueryResult(query.HeadAtom{}, nil)
	case 1:
		return inputs[0]
	}

	head := inputs[0].Head
	ordered := append([]*query.QueryResult(nil), inputs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Size() < ordered[j].Size()
	})

	current := distinct(ordered[0].Tuples)
	for _, next := range ordered[1:] {
		if len(current) == 0 {
			break
		}
		set := NewTupleSet(next.Size())
		for _, t := range next.Tuples {
			set.Insert(t)
		}
		kept := current[:0:0]
		for _, t := range current {
			if set.Contains(t) {
				kept = append(kept, t)
			}
		}
		current = kept
	}

	return query.NewQueryResult(head, current)
}

// CartesianProduct pairs every tuple of q1 with every tuple of q2
func CartesianProduct(q1, q2 *query.QueryResult) *query.QueryResult {
	out := make([]datalog.Tuple, 0, q1.Size()*q2.Size())
	for _, left := range q1.Tuples {
		for _, right := range q2.Tuples {
			out = append(out, left.Concat(right))
		}
	}
	return query.NewQueryResult(q1.Head.Concat(q2.Head), out)
}

// Projection restricts q to vars, in that order, reading each variable from
// the first column it occupies. A variable listed twice yields two columns;
// variables q does not have are dropped from the output. Duplicate tuples
// are removed.
func Projection(vars []string, q *query.QueryResult) *query.QueryResult {
	var names []string
	var cols []int
	for _, v := range vars {
		if c, ok := q.VarMap[v]; ok {
			names = append(names, v)
			cols = append(cols, c[0])
		}
	}

	set := NewTupleSet(q.Size())
	out := make([]datalog.Tuple, 0, q.Size())
	for _, t := range q.Tuples {
		p := make(datalog.Tuple, len(cols))
		for i, c := range cols {
			p[i] = t[c]
		}
		if set.Insert(p) {
			out = append(out, p)
		}
	}

	return query.NewQueryResult(query.NewHeadAtom(q.Head.Name, names...), out)
}

// UnitRelation is the relation with no columns and a single empty tuple,
// the identity of CartesianProduct
func UnitRelation() *query.QueryResult {
	return query.NewQueryResult(query.HeadAtom{}, []datalog.Tuple{{}})
}

// distinct returns tuples without duplicates, keeping first occurrences
func distinct(tuples []datalog.Tuple) []datalog.Tuple {
	set := NewTupleSet(len(tuples))
	out := make([]datalog.Tuple, 0, len(tuples))
	for _, t := range tuples {
		if set.Insert(t) {
			out = append(out, t)
		}
	}
	return out
}
