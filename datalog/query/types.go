package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/storage"
)

// ErrArityMismatch is matched by errors.Is for every *ArityMismatchError
var ErrArityMismatch = errors.New("arity mismatch")

// ArityMismatchError reports an atom whose term count differs from its
// relation's column count.
type ArityMismatchError struct {
	Relation string
	Expected int
	Got      int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("arity mismatch: relation %s has %d columns, atom has %d terms", e.Relation, e.Expected, e.Got)
}

func (e *ArityMismatchError) Is(target error) bool { return target == ErrArityMismatch }

// Term is an element of an atom: a Variable or a Constant
type Term interface {
	IsVariable() bool
	String() string
}

// Variable represents a query variable (e.g., x, brewid)
type Variable struct {
	Name string
}

func (v Variable) IsVariable() bool { return true }
func (v Variable) String() string   { return v.Name }

// Constant represents a concrete value in an atom
type Constant struct {
	Value datalog.Value
}

func (c Constant) IsVariable() bool { return false }
func (c Constant) String() string   { return c.Value.Literal() }

// Var is shorthand for Variable{Name: name}
func Var(name string) Term { return Variable{Name: name} }

// Const is shorthand for Constant{Value: v}
func Const(v datalog.Value) Term { return Constant{Value: v} }

// Atom is a relation reference applied to an ordered term list, e.g.
// Breweries(v, x, 'Westmalle').
type Atom struct {
	Predicate string
	Relation  storage.Relation // nil when the atom was built without a database
	Terms     []Term

	variables []string
}

// NewAtom creates an atom, checking the term count against the relation's
// arity when a relation is given.
func NewAtom(predicate string, rel storage.Relation, terms []Term) (*Atom, error) {
	if rel != nil && rel.Arity() != len(terms) {
		return nil, &ArityMismatchError{Relation: predicate, Expected: rel.Arity(), Got: len(terms)}
	}

	a := &Atom{Predicate: predicate, Relation: rel, Terms: terms}
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		if v, ok := t.(Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			a.variables = append(a.variables, v.Name)
		}
	}
	return a, nil
}

// MustAtom is NewAtom that panics on error; intended for fixtures
func MustAtom(predicate string, rel storage.Relation, terms ...Term) *Atom {
	a, err := NewAtom(predicate, rel, terms)
	if err != nil {
		panic(err)
	}
	return a
}

// Variables returns the distinct variable names in first-occurrence order
func (a *Atom) Variables() []string {
	return a.variables
}

// HasVariable reports whether name occurs in the atom
func (a *Atom) HasVariable(name string) bool {
	for _, v := range a.variables {
		if v == name {
			return true
		}
	}
	return false
}

// IsGround reports whether the atom has no variables
func (a *Atom) IsGround() bool {
	return len(a.variables) == 0
}

// String returns the atom in query syntax
func (a *Atom) String() string {
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		parts[i] = t.String()
	}
	return a.Predicate + "(" + strings.Join(parts, ", ") + ")"
}

// HeadAtom is the head of a query. It only holds variables.
type HeadAtom struct {
	Name      string
	Variables []Variable
}

// NewHeadAtom creates a head from variable names
func NewHeadAtom(name string, vars ...string) HeadAtom {
	h := HeadAtom{Name: name, Variables: make([]Variable, len(vars))}
	for i, v := range vars {
		h.Variables[i] = Variable{Name: v}
	}
	return h
}

// Names returns the variable names in order
func (h HeadAtom) Names() []string {
	names := make([]string, len(h.Variables))
	for i, v := range h.Variables {
		names[i] = v.Name
	}
	return names
}

// Len returns the number of head variables
func (h HeadAtom) Len() int { return len(h.Variables) }

// Concat returns a head with h's variables followed by other's
func (h HeadAtom) Concat(other HeadAtom) HeadAtom {
	vars := make([]Variable, 0, len(h.Variables)+len(other.Variables))
	vars = append(vars, h.Variables...)
	vars = append(vars, other.Variables...)
	return HeadAtom{Name: h.Name, Variables: vars}
}

// String returns the head in query syntax
func (h HeadAtom) String() string {
	name := h.Name
	if name == "" {
		name = "Answer"
	}
	return name + "(" + strings.Join(h.Names(), ", ") + ")"
}

// Query is a conjunctive query: a head and a conjunction of body atoms
type Query struct {
	Head HeadAtom
	Body []*Atom
}

// NewQuery creates a query
func NewQuery(head HeadAtom, body ...*Atom) *Query {
	return &Query{Head: head, Body: body}
}

// IsBoolean reports whether the query has an empty head
func (q *Query) IsBoolean() bool {
	return len(q.Head.Variables) == 0
}

// String returns the query in the parser's syntax
func (q *Query) String() string {
	parts := make([]string, len(q.Body))
	for i, a := range q.Body {
		parts[i] = a.String()
	}
	return q.Head.String() + " :- " + strings.Join(parts, ", ") + "."
}
