package executor

import (
	"fmt"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/query"
	"github.com/liammertens/conjunctive-queries/datalog/storage"
)

// atomScan is the compiled form of an atom: for every column either a
// constant to match or the first column holding the same variable.
type atomScan struct {
	atom      *query.Atom
	constants map[int]datalog.Value
	firstCol  map[string]int
	// repeats[i] = first column of the variable at column i, when i is a
	// later occurrence
	repeats map[int]int
}

func compileAtom(atom *query.Atom) *atomScan {
	s := &atomScan{
		atom:      atom,
		constants: make(map[int]datalog.Value),
		firstCol:  make(map[string]int),
		repeats:   make(map[int]int),
	}
	for i, term := range atom.Terms {
		switch t := term.(type) {
		case query.Constant:
			s.constants[i] = t.Value
		case query.Variable:
			if first, ok := s.firstCol[t.Name]; ok {
				s.repeats[i] = first
			} else {
				s.firstCol[t.Name] = i
			}
		}
	}
	return s
}

// accepts reports whether row satisfies the atom's constants and repeated
// variables
func (s *atomScan) accepts(row datalog.Tuple) bool {
	for col, c := range s.constants {
		if !row[col].Equal(c) {
			return false
		}
	}
	for col, first := range s.repeats {
		if !row[col].Equal(row[first]) {
			return false
		}
	}
	return true
}

// EvaluateAtom scans the atom's relation once and returns the accepted rows
// projected onto head. Rows whose constants or repeated variables do not
// match are skipped. Head variables the atom does not bind are dropped from
// the result schema.
func EvaluateAtom(atom *query.Atom, head query.HeadAtom) (*query.QueryResult, error) {
	rel := atom.Relation
	if rel == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownRelation, atom.Predicate)
	}
	if rel.Arity() != len(atom.Terms) {
		return nil, &query.ArityMismatchError{Relation: atom.Predicate, Expected: rel.Arity(), Got: len(atom.Terms)}
	}

	scan := compileAtom(atom)

	var names []string
	var cols []int
	for _, v := range head.Variables {
		if c, ok := scan.firstCol[v.Name]; ok {
			names = append(names, v.Name)
			cols = append(cols, c)
		}
	}

	it, err := rel.Iterator()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", atom.Predicate, err)
	}
	defer it.Close()

	seen := NewTupleSet(rel.Size())
	out := make([]datalog.Tuple, 0, rel.Size())
	for it.Next() {
		row, err := it.Tuple()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", atom.Predicate, err)
		}
		if len(row) != len(atom.Terms) {
			return nil, fmt.Errorf("scan %s: row has %d columns, expected %d", atom.Predicate, len(row), len(atom.Terms))
		}
		if !scan.accepts(row) {
			continue
		}

		t := make(datalog.Tuple, len(cols))
		for i, c := range cols {
			t[i] = row[c]
		}
		if seen.Insert(t) {
			out = append(out, t)
		}
	}

	return query.NewQueryResult(query.NewHeadAtom(head.Name, names...), out), nil
}

// EvaluateNode evaluates the atoms of one join tree node. Several atoms
// only occur when they share one variable set; each is evaluated on its own
// and the results are joined and projected back onto head.
func EvaluateNode(atoms []*query.Atom, head query.HeadAtom) (*query.QueryResult, error) {
	if len(atoms) == 0 {
		return nil, fmt.Errorf("evaluate node %s: no atoms", head)
	}

	result, err := EvaluateAtom(atoms[0], head)
	if err != nil {
		return nil, err
	}
	for _, atom := range atoms[1:] {
		next, err := EvaluateAtom(atom, head)
		if err != nil {
			return nil, err
		}
		result = Projection(head.Names(), Join(result, next))
	}
	return result, nil
}
