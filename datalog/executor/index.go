package executor

import (
	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/query"
)

// Index is a hash index over the build side of a join, addressed by keys
// laid out in the probe side's column order.
//
// A key has the probe's arity. Positions of variables shared with the build
// side carry the build tuple's value, every other position is Unbound.
type Index struct {
	keys *TupleKeyMap

	// probeCols[i] is the probe column of the i-th shared variable,
	// buildCols[i] every build column holding it
	probeCols []int
	buildCols [][]int
	arity     int
	size      int
}

// CreateIndex indexes build for lookups by probe tuples. Build tuples in
// which a shared variable occupies several columns with different values
// are left out.
func CreateIndex(probe, build *query.QueryResult) *Index {
	ix := &Index{
		keys:  NewTupleKeyMapWithCapacity(build.Size()),
		arity: probe.Head.Len(),
	}

	for _, v := range probe.VariableOrder() {
		cols, ok := build.VarMap[v]
		if !ok {
			continue
		}
		ix.probeCols = append(ix.probeCols, probe.VarMap[v][0])
		ix.buildCols = append(ix.buildCols, cols)
	}

	for _, t := range build.Tuples {
		key, ok := ix.buildKey(t)
		if !ok {
			continue
		}
		ix.keys.Add(key, t)
		ix.size++
	}

	return ix
}

func (ix *Index) buildKey(t datalog.Tuple) (TupleKey, bool) {
	key := make(datalog.Tuple, ix.arity)
	for i, cols := range ix.buildCols {
		v := t[cols[0]]
		for _, c := range cols[1:] {
			if !t[c].Equal(v) {
				return TupleKey{}, false
			}
		}
		key[ix.probeCols[i]] = v
	}
	return NewTupleKey(key), true
}

// ProbeKey returns the key of a probe tuple
func (ix *Index) ProbeKey(t datalog.Tuple) TupleKey {
	key := make(datalog.Tuple, ix.arity)
	for _, c := range ix.probeCols {
		key[c] = t[c]
	}
	return NewTupleKey(key)
}

// Lookup returns the build tuples matching probe tuple t
func (ix *Index) Lookup(t datalog.Tuple) []datalog.Tuple {
	matches, _ := ix.keys.Get(ix.ProbeKey(t))
	return matches
}

// SharedColumns returns the probe columns used in keys
func (ix *Index) SharedColumns() []int { return ix.probeCols }

// Size returns the number of indexed build tuples
func (ix *Index) Size() int { return ix.size }
