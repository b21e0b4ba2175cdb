package executor

import (
	"sort"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/query"
	"github.com/liammertens/conjunctive-queries/datalog/storage"
)

// row builds a tuple from plain Go values
func row(vals ...interface{}) datalog.Tuple {
	t := make(datalog.Tuple, len(vals))
	for i, v := range vals {
		t[i] = datalog.FromInterface(v)
	}
	return t
}

// relation builds a base relation with columns c0..cN
func relation(name string, arity int, rows ...datalog.Tuple) *storage.MemoryRelation {
	cols := make([]string, arity)
	for i := range cols {
		cols[i] = string(rune('a' + i))
	}
	return storage.MustMemoryRelation(name, cols, rows)
}

// batch builds an intermediate result over the given variables
func batch(vars []string, rows ...datalog.Tuple) *query.QueryResult {
	return query.NewQueryResult(query.NewHeadAtom("", vars...), rows)
}

// atom builds an atom; string arguments that are lowercase identifiers
// become variables, everything else a constant
func atom(rel storage.Relation, args ...interface{}) *query.Atom {
	terms := make([]query.Term, len(args))
	for i, a := range args {
		if s, ok := a.(string); ok && isVarName(s) {
			terms[i] = query.Var(s)
			continue
		}
		if c, ok := a.(constant); ok {
			terms[i] = query.Const(datalog.String(string(c)))
			continue
		}
		terms[i] = query.Const(datalog.FromInterface(a))
	}
	return query.MustAtom(rel.Name(), rel, terms...)
}

// constant forces a string argument of atom to be a constant
type constant string

func isVarName(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// tupleStrings renders the tuples of r sorted, for set comparisons
func tupleStrings(r *query.QueryResult) []string {
	out := make([]string, len(r.Tuples))
	for i, t := range r.Tuples {
		out[i] = t.String()
	}
	sort.Strings(out)
	return out
}

// reorder permutes the columns of r into the given variable order
func reorder(r *query.QueryResult, vars []string) []string {
	p := Projection(vars, r)
	return tupleStrings(p)
}
