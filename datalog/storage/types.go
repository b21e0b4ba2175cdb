package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/liammertens/conjunctive-queries/datalog"
)

// ErrUnknownRelation is returned when a relation name cannot be resolved
var ErrUnknownRelation = errors.New("unknown relation")

// ColumnType is the type of a relation column
type ColumnType uint8

const (
	ColumnString ColumnType = iota
	ColumnNumber
)

// String returns the type name
func (t ColumnType) String() string {
	if t == ColumnNumber {
		return "number"
	}
	return "string"
}

// Column is one named, typed attribute of a relation schema
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered column list of a relation
type Schema []Column

// Names returns the column names in order
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// String returns a representation like (id:number, name:string)
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = fmt.Sprintf("%s:%s", c.Name, c.Type)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Relation is a named, read-only base relation. Implementations must allow
// concurrent iterators.
type Relation interface {
	// Name returns the relation name as used in queries (e.g. Breweries)
	Name() string

	// Schema returns the ordered columns
	Schema() Schema

	// Arity returns the column count
	Arity() int

	// Size returns the number of rows
	Size() int

	// Iterator returns a fresh iterator over the rows in load order
	Iterator() (Iterator, error)
}

// Iterator provides sequential access to rows
type Iterator interface {
	Next() bool
	Tuple() (datalog.Tuple, error)
	Close() error
}

// sliceIterator iterates rows already held in memory
type sliceIterator struct {
	rows []datalog.Tuple
	pos  int
}

func newSliceIterator(rows []datalog.Tuple) *sliceIterator {
	return &sliceIterator{rows: rows, pos: -1}
}

func (it *sliceIterator) Next() bool {
	if it.pos+1 >= len(it.rows) {
		it.pos = len(it.rows)
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Tuple() (datalog.Tuple, error) {
	if it.pos < 0 || it.pos >= len(it.rows) {
		return nil, fmt.Errorf("iterator not positioned on a row")
	}
	return it.rows[it.pos], nil
}

func (it *sliceIterator) Close() error { return nil }
