package hypergraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/query"
)

func atom(pred string, vars ...string) *query.Atom {
	terms := make([]query.Term, len(vars))
	for i, v := range vars {
		terms[i] = query.Var(v)
	}
	return query.MustAtom(pred, nil, terms...)
}

func body(atoms ...*query.Atom) *query.Query {
	return query.NewQuery(query.NewHeadAtom("Answer"), atoms...)
}

func TestSetKeyIsCanonical(t *testing.T) {
	assert.Equal(t, "{a,b,c}", SetKey([]string{"c", "a", "b"}))
	assert.Equal(t, "{a,b}", SetKey([]string{"b", "a", "b"}))
	assert.Equal(t, "{}", SetKey(nil))
}

func TestNewMergesIdenticalVariableSets(t *testing.T) {
	r := atom("R", "x", "y")
	s := atom("S", "y", "x")
	u := atom("U", "y", "z")

	h := New(body(r, s, u))
	require.Equal(t, 2, h.Len())

	e := h.Edge("{x,y}")
	require.NotNil(t, e)
	assert.Equal(t, []string{"x", "y"}, e.Vertices)
	assert.Equal(t, []*query.Atom{r, s}, e.Atoms)
	assert.NotNil(t, h.Edge("{y,z}"))
}

func TestNewDropsGroundAtoms(t *testing.T) {
	ground := query.MustAtom("G", nil, query.Const(datalog.String("a")))
	h := New(body(ground, atom("R", "x")))
	assert.Equal(t, 1, h.Len())
}

func TestRemoveEdge(t *testing.T) {
	h := New(body(atom("R", "x", "y"), atom("S", "y", "z")))
	assert.True(t, h.RemoveEdge("{x,y}"))
	assert.False(t, h.RemoveEdge("{x,y}"))
	assert.Equal(t, 1, h.Len())
	assert.Nil(t, h.Edge("{x,y}"))
}

func TestIsEar(t *testing.T) {
	h := New(body(atom("R", "x", "y"), atom("S", "y", "z"), atom("T", "z", "w")))
	xy, yz, zw := h.Edge("{x,y}"), h.Edge("{y,z}"), h.Edge("{w,z}")

	ok, witness := IsEar(xy, h.others(xy))
	assert.True(t, ok)
	assert.Same(t, yz, witness)

	ok, _ = IsEar(yz, h.others(yz))
	assert.False(t, ok, "y and z are covered by different edges")

	ok, witness = IsEar(zw, nil)
	assert.True(t, ok)
	assert.Nil(t, witness, "all vertices exclusive")
}

func TestIsEarDropsInvalidWitness(t *testing.T) {
	// W1 is picked first for a, then fails on b; the scan resumes at a
	// with W1 removed and settles on W2.
	h := New(body(atom("E", "a", "b", "c"), atom("W1", "a"), atom("W2", "a", "b", "c", "d")))
	e := h.Edge("{a,b,c}")

	ok, witness := IsEar(e, h.others(e))
	require.True(t, ok)
	assert.Same(t, h.Edge("{a,b,c,d}"), witness)
}

func TestGYOChain(t *testing.T) {
	tree, err := GYO(body(atom("R", "x", "y"), atom("S", "y", "z"), atom("T", "z", "w")))
	require.NoError(t, err)

	require.Len(t, tree.Roots(), 1)
	root := tree.Roots()[0]
	assert.Equal(t, "{w,z}", root.Key)
	assert.Nil(t, root.Parent())

	mid := tree.Node("{y,z}")
	require.NotNil(t, mid)
	assert.Same(t, root, mid.Parent())
	assert.Same(t, mid, tree.Node("{x,y}").Parent())

	leaves := tree.Leaves()
	require.Len(t, leaves, 1)
	assert.Equal(t, "{x,y}", leaves[0].Key)
	assert.Equal(t, 3, tree.Len())
}

func TestGYOSingleEdge(t *testing.T) {
	tree, err := GYO(body(atom("R", "x", "y")))
	require.NoError(t, err)

	require.Len(t, tree.Roots(), 1)
	root := tree.Roots()[0]
	assert.True(t, tree.IsRoot(root))
	assert.True(t, root.IsLeaf())
	assert.Equal(t, []*Node{root}, tree.Leaves())
}

func TestGYOStar(t *testing.T) {
	tree, err := GYO(body(atom("A", "x", "a"), atom("B", "x", "b"), atom("C", "x", "c"), atom("H", "x")))
	require.NoError(t, err)

	// Every node is reachable from exactly one root.
	seen := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		seen++
		for _, c := range n.Children {
			assert.Same(t, n, c.Parent())
			walk(c)
		}
	}
	for _, r := range tree.Roots() {
		walk(r)
	}
	assert.Equal(t, tree.Len(), seen)
	assert.Len(t, tree.Roots(), 1)
}

func TestGYODisconnected(t *testing.T) {
	tree, err := GYO(body(atom("R", "x", "y"), atom("S", "u", "v")))
	require.NoError(t, err)

	roots := tree.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "{x,y}", roots[0].Key)
	assert.Equal(t, "{u,v}", roots[1].Key)
}

func TestGYOCyclic(t *testing.T) {
	tests := []struct {
		name string
		q    *query.Query
	}{
		{"triangle", body(atom("R", "x", "y"), atom("S", "y", "z"), atom("T", "z", "x"))},
		{"five atoms", body(
			atom("R", "x", "z"),
			atom("R", "x", "y", "n", "w", "r"),
			atom("R", "r", "w"),
			atom("R", "z", "v"),
			atom("R", "v", "n"),
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := GYO(tt.q)
			assert.Nil(t, tree)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCyclicQuery))
		})
	}
}

func TestGYOEmptyBody(t *testing.T) {
	tree, err := GYO(body())
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, tree.Roots())
}
