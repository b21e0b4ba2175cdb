package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/query"
)

func TestCreateIndex(t *testing.T) {
	probe := batch([]string{"x", "y"}, row(1, 2))
	build := batch([]string{"y", "z"},
		row(2, "a"),
		row(2, "b"),
		row(3, "c"),
	)

	ix := CreateIndex(probe, build)
	assert.Equal(t, 3, ix.Size())
	assert.Equal(t, []int{1}, ix.SharedColumns())

	// Key is laid out in probe order with Unbound at x
	key := ix.ProbeKey(row(1, 2))
	assert.True(t, key.Values()[0].IsUnbound())
	assert.True(t, key.Values()[1].Equal(datalog.Int(2)))

	assert.Len(t, ix.Lookup(row(99, 2)), 2)
	assert.Empty(t, ix.Lookup(row(1, 4)))
}

func TestCreateIndexSkipsInconsistentRepeatedVariable(t *testing.T) {
	probe := batch([]string{"x"}, row(1))
	build := batch([]string{"x", "x", "y"},
		row(1, 1, "keep"),
		row(1, 2, "drop"),
	)

	ix := CreateIndex(probe, build)
	assert.Equal(t, 1, ix.Size())
	matches := ix.Lookup(row(1))
	require.Len(t, matches, 1)
	assert.Equal(t, "keep", matches[0][2].String())
}

func TestSemijoin(t *testing.T) {
	q1 := batch([]string{"x", "y"}, row(1, 2), row(3, 4), row(5, 6))
	q2 := batch([]string{"y", "z"}, row(2, "a"), row(6, "b"), row(7, "c"))

	sj := Semijoin(q1, q2)
	assert.Equal(t, q1.Head, sj.Head)
	assert.Equal(t, []string{"(1, 2)", "(5, 6)"}, tupleStrings(sj))

	t.Run("subset of left", func(t *testing.T) {
		for _, s := range tupleStrings(sj) {
			assert.Contains(t, tupleStrings(q1), s)
		}
	})

	t.Run("self semijoin is identity", func(t *testing.T) {
		assert.Equal(t, tupleStrings(q1), tupleStrings(Semijoin(q1, q1)))
	})

	t.Run("no shared variables", func(t *testing.T) {
		other := batch([]string{"u"}, row(9))
		assert.Equal(t, 3, Semijoin(q1, other).Size())
		assert.Equal(t, 0, Semijoin(q1, batch([]string{"u"})).Size())
	})

	t.Run("inconsistent partners only", func(t *testing.T) {
		bad := batch([]string{"y", "y"}, row(2, 3), row(6, 7))
		sj := Semijoin(q1, bad)
		assert.Equal(t, q1.Head, sj.Head)
		assert.True(t, sj.IsEmpty())
	})
}

func TestJoin(t *testing.T) {
	q1 := batch([]string{"x", "y"}, row(1, 2), row(3, 4), row(5, 2))
	q2 := batch([]string{"y", "z"}, row(2, "a"), row(4, "b"))

	j := Join(q1, q2)
	assert.Equal(t, []string{"x", "y", "y", "z"}, j.Columns())
	assert.Equal(t, []string{"(1, 2, 2, a)", "(3, 4, 4, b)", "(5, 2, 2, a)"}, tupleStrings(j))

	t.Run("commutative up to column order", func(t *testing.T) {
		order := []string{"x", "y", "z"}
		assert.Equal(t, reorder(Join(q1, q2), order), reorder(Join(q2, q1), order))
	})

	t.Run("column order independent of indexed side", func(t *testing.T) {
		small := batch([]string{"y", "z"}, row(2, "a"))
		big := batch([]string{"x", "y"}, row(1, 2), row(7, 2), row(8, 3))
		j := Join(small, big)
		assert.Equal(t, []string{"y", "z", "x", "y"}, j.Columns())
		assert.Equal(t, []string{"(2, a, 1, 2)", "(2, a, 7, 2)"}, tupleStrings(j))
	})

	t.Run("empty side", func(t *testing.T) {
		assert.True(t, Join(q1, batch([]string{"y"})).IsEmpty())
	})
}

func TestIntersect(t *testing.T) {
	a := batch([]string{"x", "y"}, row(1, 2), row(3, 4), row(5, 6))
	b := batch([]string{"x", "y"}, row(3, 4), row(1, 2))
	c := batch([]string{"x", "y"}, row(1, 2))

	assert.True(t, Intersect(nil).IsEmpty())
	assert.Same(t, a, Intersect([]*query.QueryResult{a}))
	assert.Equal(t, []string{"(1, 2)", "(3, 4)"}, tupleStrings(Intersect([]*query.QueryResult{a, b})))
	assert.Equal(t, []string{"(1, 2)"}, tupleStrings(Intersect([]*query.QueryResult{a, b, c})))

	empty := batch([]string{"x", "y"})
	assert.True(t, Intersect([]*query.QueryResult{a, empty, b}).IsEmpty())

	// Head comes from the first input even though it is not the smallest
	named := batch([]string{"x", "y"}, row(1, 2), row(9, 9))
	named.Head.Name = "first"
	assert.Equal(t, "first", Intersect([]*query.QueryResult{named, c}).Head.Name)
}

func TestCartesianProduct(t *testing.T) {
	q1 := batch([]string{"x"}, row(1), row(2))
	q2 := batch([]string{"y"}, row("a"), row("b"), row("c"))

	p := CartesianProduct(q1, q2)
	assert.Equal(t, 6, p.Size())
	assert.Equal(t, []string{"x", "y"}, p.Columns())

	unit := CartesianProduct(UnitRelation(), q1)
	assert.Equal(t, tupleStrings(q1), tupleStrings(unit))
}

func TestProjection(t *testing.T) {
	q := batch([]string{"x", "y", "y", "z"},
		row(1, 2, 2, "a"),
		row(1, 2, 2, "b"),
		row(3, 4, 4, "a"),
	)

	p := Projection([]string{"y", "x"}, q)
	assert.Equal(t, []string{"y", "x"}, p.Columns())
	assert.Equal(t, []string{"(2, 1)", "(4, 3)"}, tupleStrings(p))

	t.Run("absent variables are dropped", func(t *testing.T) {
		p := Projection([]string{"w", "z"}, q)
		assert.Equal(t, []string{"z"}, p.Columns())
		assert.Equal(t, 2, p.Size())
	})

	t.Run("idempotent", func(t *testing.T) {
		vars := []string{"z", "x"}
		once := Projection(vars, q)
		twice := Projection(vars, once)
		assert.Equal(t, once.Columns(), twice.Columns())
		assert.Equal(t, tupleStrings(once), tupleStrings(twice))
	})

	t.Run("repeated variables keep a column each", func(t *testing.T) {
		p := Projection([]string{"x", "x", "z"}, q)
		assert.Equal(t, []string{"x", "x", "z"}, p.Columns())
		assert.Equal(t, []int{0, 1}, p.VarMap["x"])
		assert.Equal(t, []string{"(1, 1, a)", "(1, 1, b)", "(3, 3, a)"}, tupleStrings(p))
	})

	t.Run("no variables", func(t *testing.T) {
		p := Projection(nil, q)
		assert.Empty(t, p.Columns())
		assert.Equal(t, 1, p.Size())
		assert.True(t, Projection(nil, batch([]string{"x"})).IsEmpty())
	})
}
