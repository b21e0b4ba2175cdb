package query

import (
	"errors"
	"testing"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAtomChecksArity(t *testing.T) {
	rel := storage.MustMemoryRelation("R", []string{"a", "b"}, []datalog.Tuple{
		{datalog.Int(1), datalog.Int(2)},
	})

	_, err := NewAtom("R", rel, []Term{Var("x")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArityMismatch))

	var arityErr *ArityMismatchError
	require.True(t, errors.As(err, &arityErr))
	assert.Equal(t, 2, arityErr.Expected)
	assert.Equal(t, 1, arityErr.Got)

	atom, err := NewAtom("R", rel, []Term{Var("x"), Var("y")})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, atom.Variables())
}

func TestAtomVariables(t *testing.T) {
	atom := MustAtom("Beers", nil,
		Var("x"), Const(datalog.String("American IPA")), Var("y"), Var("x"), Const(datalog.Int(4)))

	assert.Equal(t, []string{"x", "y"}, atom.Variables())
	assert.True(t, atom.HasVariable("y"))
	assert.False(t, atom.HasVariable("z"))
	assert.False(t, atom.IsGround())
	assert.Equal(t, `Beers(x, "American IPA", y, x, 4)`, atom.String())

	ground := MustAtom("S", nil, Const(datalog.String("a")))
	assert.True(t, ground.IsGround())
	assert.Empty(t, ground.Variables())
}

func TestQueryString(t *testing.T) {
	q := NewQuery(NewHeadAtom("Answer", "x", "y"),
		MustAtom("R", nil, Var("x"), Var("z")),
		MustAtom("S", nil, Var("z"), Var("y")))

	assert.Equal(t, "Answer(x, y) :- R(x, z), S(z, y).", q.String())
	assert.False(t, q.IsBoolean())

	boolean := NewQuery(NewHeadAtom("Answer"), MustAtom("R", nil, Var("x")))
	assert.True(t, boolean.IsBoolean())
}

func TestQueryResultVarMap(t *testing.T) {
	head := NewHeadAtom("", "x", "y").Concat(NewHeadAtom("", "y", "z"))
	r := NewQueryResult(head, []datalog.Tuple{
		{datalog.Int(2), datalog.Int(1), datalog.Int(1), datalog.Int(3)},
		{datalog.Int(1), datalog.Int(1), datalog.Int(1), datalog.Int(3)},
	})

	assert.Equal(t, []int{0}, r.VarMap["x"])
	assert.Equal(t, []int{1, 2}, r.VarMap["y"])
	assert.Equal(t, []string{"x", "y", "z"}, r.VariableOrder())
	assert.True(t, r.HasVariable("z"))
	assert.Equal(t, 2, r.Size())

	sorted := r.Sorted()
	assert.True(t, sorted[0][0].Equal(datalog.Int(1)))
	assert.True(t, r.Tuples[0][0].Equal(datalog.Int(2)), "Sorted must not reorder the result")
}
