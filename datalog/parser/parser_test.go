package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/query"
	"github.com/liammertens/conjunctive-queries/datalog/storage"
)

func beerDatabase(t *testing.T) *storage.Database {
	t.Helper()
	db := storage.NewDatabase(nil)
	for _, rel := range []storage.Relation{
		storage.MustMemoryRelation("Beers", []string{"id", "brewery_id", "name", "abv", "style"}, nil),
		storage.MustMemoryRelation("Breweries", []string{"id", "name", "city"}, nil),
		storage.MustMemoryRelation("Locations", []string{"id", "brewery_id", "lat", "lon"}, nil),
	} {
		require.NoError(t, db.Register(rel))
	}
	return db
}

func TestParseQuery(t *testing.T) {
	db := beerDatabase(t)

	q, err := ParseQuery(
		"Answer(x, y, z) :- Breweries(w, x, 'Westmalle'), Locations(u, w, y, z).", db)
	require.NoError(t, err)

	assert.Equal(t, "Answer", q.Head.Name)
	assert.Equal(t, []string{"x", "y", "z"}, q.Head.Names())
	require.Len(t, q.Body, 2)

	breweries := q.Body[0]
	assert.Equal(t, "Breweries", breweries.Predicate)
	assert.Equal(t, []string{"w", "x"}, breweries.Variables())
	assert.Equal(t, query.Const(datalog.String("Westmalle")), breweries.Terms[2])
	require.NotNil(t, breweries.Relation)
	assert.Equal(t, 3, breweries.Relation.Arity())

	assert.Equal(t, []string{"u", "w", "y", "z"}, q.Body[1].Variables())
	assert.False(t, q.IsBoolean())
}

func TestParseQueryConstants(t *testing.T) {
	q, err := ParseQuery(`Answer() :- Beers(u, v, "Duvel", 8.5, 'Belgian Strong Ale').`, nil)
	require.NoError(t, err)
	assert.True(t, q.IsBoolean())

	terms := q.Body[0].Terms
	assert.Equal(t, query.Const(datalog.String("Duvel")), terms[2])
	assert.Equal(t, query.Const(datalog.Number(8.5)), terms[3])
	assert.Nil(t, q.Body[0].Relation)
}

func TestParseQueryEmptyBody(t *testing.T) {
	q, err := ParseQuery("Answer() :- .", nil)
	require.NoError(t, err)
	assert.Empty(t, q.Body)
}

func TestParseQueryRepeatedVariables(t *testing.T) {
	q, err := ParseQuery("A(x) :- R(x, x, y).", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, q.Body[0].Variables())
	assert.Len(t, q.Body[0].Terms, 3)
}

func TestParseQueryMultiline(t *testing.T) {
	input := `% beers brewed in Westmalle
Answer(n) :-
    Beers(b, w, n, abv, s),
    Breweries(w, bn, 'Westmalle').`

	q, err := ParseQuery(input, nil)
	require.NoError(t, err)
	assert.Len(t, q.Body, 2)
	assert.Equal(t, "Answer(n) :- Beers(b, w, n, abv, s), Breweries(w, bn, \"Westmalle\").", q.String())
}

func TestParseQuerySyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		col   int
		msg   string
	}{
		{"missing implies", "A(x) R(x).", 1, 6, "expected ':-'"},
		{"missing dot", "A(x) :- R(x)", 1, 13, "expected '.'"},
		{"constant in head", "A(x, 'c') :- R(x).", 1, 6, "may only contain variables"},
		{"lowercase relation", "A(x) :- r(x).", 1, 9, "uppercase"},
		{"uppercase variable", "A(x) :- R(X).", 1, 11, "lowercase"},
		{"trailing input", "A(x) :- R(x). B", 1, 15, "after end of query"},
		{"missing comma", "A(x) :- R(x y).", 1, 13, "expected ',' or ')'"},
		{"dangling comma", "A(x) :- R(x),.", 1, 14, "expected identifier"},
		{"empty input", "", 1, 1, "end of input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuery(tt.input, nil)
			require.Error(t, err)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.col, perr.Col)
			assert.Contains(t, perr.Msg, tt.msg)
		})
	}
}

func TestParseQueryUnknownRelation(t *testing.T) {
	_, err := ParseQuery("A(x) :- Pubs(x).", beerDatabase(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnknownRelation)
	assert.Contains(t, err.Error(), "1:9")
}

func TestParseQueryArityMismatch(t *testing.T) {
	_, err := ParseQuery("A(x) :- Breweries(x, y).", beerDatabase(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, query.ErrArityMismatch)

	var arity *query.ArityMismatchError
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, 3, arity.Expected)
	assert.Equal(t, 2, arity.Got)
}
