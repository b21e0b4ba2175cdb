package executor

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/annotations"
	"github.com/liammertens/conjunctive-queries/datalog/hypergraph"
	"github.com/liammertens/conjunctive-queries/datalog/query"
	"github.com/liammertens/conjunctive-queries/datalog/storage"
)

func TestEvaluateSingleAtom(t *testing.T) {
	r := relation("R", 2, row(1, 2), row(3, 4))
	q := query.NewQuery(query.NewHeadAtom("Answer", "x", "y"), atom(r, "x", "y"))

	res, err := NewEvaluator().Evaluate(q)
	require.NoError(t, err)
	require.False(t, res.IsBoolean())
	assert.Equal(t, []string{"x", "y"}, res.Relation.Columns())
	assert.Equal(t, []string{"(1, 2)", "(3, 4)"}, tupleStrings(res.Relation))
	assert.True(t, res.Boolean)
}

func TestEvaluateRepeatedHeadVariable(t *testing.T) {
	r := relation("R", 2, row(1, 2), row(3, 4))
	s := relation("S", 2, row(2, "a"), row(4, "b"))
	q := query.NewQuery(query.NewHeadAtom("Answer", "x", "x", "y"), atom(r, "x", "y"), atom(s, "y", "z"))

	res, err := NewEvaluator().Evaluate(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x", "y"}, res.Relation.Columns())
	assert.Equal(t, []string{"(1, 1, 2)", "(3, 3, 4)"}, tupleStrings(res.Relation))

	naive, err := NaiveEvaluate(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x", "y"}, naive.Relation.Columns())
	assert.True(t, SameAnswer(res, naive))
}

func TestEvaluateRejectsCyclicQuery(t *testing.T) {
	v := func(names ...string) []query.Term {
		terms := make([]query.Term, len(names))
		for i, n := range names {
			terms[i] = query.Var(n)
		}
		return terms
	}
	q := query.NewQuery(query.NewHeadAtom("Answer"),
		query.MustAtom("R", nil, v("x", "z")...),
		query.MustAtom("R", nil, v("x", "y", "n", "w", "r")...),
		query.MustAtom("R", nil, v("r", "w")...),
		query.MustAtom("R", nil, v("z", "v")...),
		query.MustAtom("R", nil, v("v", "n")...),
	)

	res, err := NewEvaluator().Evaluate(q)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, hypergraph.ErrCyclicQuery))
}

func TestEvaluateWestmalleBreweries(t *testing.T) {
	db := storage.NewDatabase(nil)
	defer db.Close()
	breweries, err := db.LoadCSV("../../testdata/beers/breweries.csv")
	require.NoError(t, err)
	locations, err := db.LoadCSV("../../testdata/beers/locations.csv")
	require.NoError(t, err)

	q := query.NewQuery(query.NewHeadAtom("Answer", "x", "y", "z"),
		atom(breweries, "v", "x", "a1", "a2", constant("Westmalle"), "u1", "u2", "u3", "u4", "u5", "u6"),
		atom(locations, "v", "u9", "y", "z", "u10"),
	)

	res, err := NewEvaluator().Evaluate(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, res.Relation.Columns())
	assert.Equal(t, []string{"(Brouwerij der Trappisten van Westmalle, 51.2974, 4.6909)"}, tupleStrings(res.Relation))
}

func TestEvaluateDisconnectedIsProduct(t *testing.T) {
	r := relation("R", 2, row(1, 2), row(3, 4))
	s := relation("S", 1, row("a"), row("b"), row("c"))
	q := query.NewQuery(query.NewHeadAtom("Answer", "x", "y", "u"), atom(r, "x", "y"), atom(s, "u"))

	res, err := NewEvaluator().Evaluate(q)
	require.NoError(t, err)
	assert.Len(t, res.Tree.Roots(), 2)

	left, err := EvaluateAtom(atom(r, "x", "y"), query.NewHeadAtom("", "x", "y"))
	require.NoError(t, err)
	right, err := EvaluateAtom(atom(s, "u"), query.NewHeadAtom("", "u"))
	require.NoError(t, err)

	assert.Equal(t, tupleStrings(CartesianProduct(left, right)), tupleStrings(res.Relation))
	assert.Equal(t, 6, res.Relation.Size())
}

func TestEvaluateBoolean(t *testing.T) {
	r := relation("R", 2, row(1, 2), row(3, 4))
	s := relation("S", 2, row(2, "a"), row(9, "b"))

	tests := []struct {
		name string
		body []*query.Atom
		want bool
	}{
		{"join has a match", []*query.Atom{atom(r, "x", "y"), atom(s, "y", "z")}, true},
		{"constant rules out the match", []*query.Atom{atom(r, "x", "y"), atom(s, "y", constant("b"))}, false},
		{"ground atom holds", []*query.Atom{atom(r, "x", "y"), atom(s, 9, constant("b"))}, true},
		{"ground atom fails", []*query.Atom{atom(r, "x", "y"), atom(s, 9, constant("a"))}, false},
		{"disconnected with one empty side", []*query.Atom{atom(r, "x", 4), atom(s, "u", constant("c"))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := query.NewQuery(query.NewHeadAtom("Answer"), tt.body...)
			res, err := NewEvaluator().Evaluate(q)
			require.NoError(t, err)
			assert.True(t, res.IsBoolean())
			assert.Equal(t, tt.want, res.Boolean)
		})
	}
}

func TestEvaluateGroundAtomFiltersNonBoolean(t *testing.T) {
	r := relation("R", 2, row(1, 2))
	s := relation("S", 1, row("a"))

	q := query.NewQuery(query.NewHeadAtom("Answer", "x"), atom(r, "x", "y"), atom(s, constant("zzz")))
	res, err := NewEvaluator().Evaluate(q)
	require.NoError(t, err)
	assert.True(t, res.Relation.IsEmpty())
	assert.Equal(t, []string{"x"}, res.Relation.Columns())
}

func TestEvaluateParallelLeafScansMatchesSequential(t *testing.T) {
	// {a,c} and {b,d} both hang below {a,b}, so they are scanned together
	p := relation("P", 2, row(1, 2), row(2, 3))
	a := relation("A", 2, row(1, "x"), row(2, "y"))
	b := relation("B", 2, row(2, "p"))
	q := query.NewQuery(query.NewHeadAtom("Answer", "a", "c", "d"), atom(p, "a", "b"), atom(a, "a", "c"), atom(b, "b", "d"))

	seq, err := NewEvaluator().Evaluate(q)
	require.NoError(t, err)
	require.Len(t, seq.Tree.Leaves(), 2)

	par, err := NewEvaluatorWithOptions(ExecutorOptions{ParallelLeafScans: true, MaxWorkers: 4}).Evaluate(q)
	require.NoError(t, err)

	assert.Equal(t, []string{"(1, x, p)"}, tupleStrings(seq.Relation))
	assert.Equal(t, tupleStrings(seq.Relation), tupleStrings(par.Relation))
}

func TestEvaluateWithContextEmitsEvents(t *testing.T) {
	r := relation("R", 2, row(1, 2), row(3, 4))
	s := relation("S", 2, row(2, "a"))
	q := query.NewQuery(query.NewHeadAtom("Answer", "x", "z"), atom(r, "x", "y"), atom(s, "y", "z"))

	var names []string
	ctx := NewContext(func(e annotations.Event) { names = append(names, e.Name) })

	res, err := NewEvaluator().EvaluateWithContext(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"(1, a)"}, tupleStrings(res.Relation))

	assert.Equal(t, annotations.QueryInvoked, names[0])
	assert.Equal(t, annotations.QueryComplete, names[len(names)-1])
	for _, want := range []string{
		annotations.TreeBuilt,
		annotations.PassBegin,
		annotations.PassComplete,
		annotations.LeafScan,
		annotations.JoinSemi,
		annotations.JoinHash,
		annotations.JoinProduct,
		annotations.ResultProjection,
	} {
		assert.Contains(t, names, want)
	}
	assert.Len(t, ctx.Collector().Events(), len(names))
}

func TestEvaluateEveryNodeWrittenOncePerPass(t *testing.T) {
	// GYO turns the shared x into a chain of four nodes
	h := relation("H", 1, row(1), row(2))
	a := relation("A", 2, row(1, "a"), row(2, "b"))
	b := relation("B", 2, row(1, "c"))
	c := relation("C", 2, row(1, "d"), row(2, "e"))
	q := query.NewQuery(query.NewHeadAtom("Answer", "x", "p", "q", "r"),
		atom(a, "x", "p"), atom(b, "x", "q"), atom(c, "x", "r"), atom(h, "x"))

	scans := 0
	ctx := NewContext(func(e annotations.Event) {
		if e.Name == annotations.LeafScan {
			scans++
		}
	})

	res, err := NewEvaluator().EvaluateWithContext(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 4, scans, "each node is scanned exactly once")
	assert.Equal(t, []string{"(1, a, c, d)"}, tupleStrings(res.Relation))
}

// randomQuery builds a small query over random relations. Values are drawn
// from a tiny domain so that joins hit often.
func randomQuery(rng *rand.Rand) *query.Query {
	vars := []string{"a", "b", "c", "d", "e"}
	atoms := 1 + rng.Intn(4)

	var body []*query.Atom
	used := map[string]bool{}
	for i := 0; i < atoms; i++ {
		arity := 1 + rng.Intn(3)
		rows := make([]datalog.Tuple, rng.Intn(8))
		for j := range rows {
			rows[j] = make(datalog.Tuple, arity)
			for k := range rows[j] {
				rows[j][k] = datalog.Int(int64(rng.Intn(3)))
			}
		}
		rel := relation(fmt.Sprintf("R%d", i), arity, rows...)

		terms := make([]query.Term, arity)
		for k := range terms {
			if rng.Intn(6) == 0 {
				terms[k] = query.Const(datalog.Int(int64(rng.Intn(3))))
				continue
			}
			v := vars[rng.Intn(len(vars))]
			used[v] = true
			terms[k] = query.Var(v)
		}
		body = append(body, query.MustAtom(rel.Name(), rel, terms...))
	}

	var head []string
	for _, v := range vars {
		if used[v] && rng.Intn(2) == 0 {
			head = append(head, v)
		}
	}
	return query.NewQuery(query.NewHeadAtom("Answer", head...), body...)
}

func TestEvaluateMatchesNaiveEvaluation(t *testing.T) {
	rng := rand.New(rand.NewSource(20240611))
	evaluator := NewEvaluator()

	acyclic := 0
	for i := 0; i < 500; i++ {
		q := randomQuery(rng)

		got, err := evaluator.Evaluate(q)
		if errors.Is(err, hypergraph.ErrCyclicQuery) {
			continue
		}
		require.NoError(t, err, q.String())
		acyclic++

		want, err := NaiveEvaluate(q)
		require.NoError(t, err, q.String())

		require.Equal(t, want.IsBoolean(), got.IsBoolean(), q.String())
		assert.Equal(t, want.Boolean, got.Boolean, q.String())
		if !q.IsBoolean() {
			assert.Equal(t, want.Relation.Columns(), got.Relation.Columns(), q.String())
			assert.Equal(t, tupleStrings(want.Relation), tupleStrings(got.Relation), q.String())
		}
	}
	assert.Greater(t, acyclic, 100)
}
