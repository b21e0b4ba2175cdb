package storage

import (
	"fmt"

	"github.com/liammertens/conjunctive-queries/datalog"
)

// MemoryRelation is a Relation over rows held in a slice. It is mostly used
// by tests and for relations built in code.
type MemoryRelation struct {
	name   string
	schema Schema
	rows   []datalog.Tuple
}

// NewMemoryRelation creates a relation, validating that every row matches the
// schema's arity.
func NewMemoryRelation(name string, schema Schema, rows []datalog.Tuple) (*MemoryRelation, error) {
	if err := checkRows(name, schema, rows); err != nil {
		return nil, err
	}
	return &MemoryRelation{name: name, schema: schema, rows: rows}, nil
}

// MustMemoryRelation is NewMemoryRelation for fixtures; it panics on error
func MustMemoryRelation(name string, columns []string, rows []datalog.Tuple) *MemoryRelation {
	rel, err := NewMemoryRelation(name, InferSchema(columns, rows), rows)
	if err != nil {
		panic(err)
	}
	return rel
}

func (r *MemoryRelation) Name() string   { return r.name }
func (r *MemoryRelation) Schema() Schema { return r.schema }
func (r *MemoryRelation) Arity() int     { return len(r.schema) }
func (r *MemoryRelation) Size() int      { return len(r.rows) }

// Iterator returns an iterator over the rows
func (r *MemoryRelation) Iterator() (Iterator, error) {
	return newSliceIterator(r.rows), nil
}

// String returns a compact representation like Breweries(id:number, ...)[3 rows]
func (r *MemoryRelation) String() string {
	return fmt.Sprintf("%s%s[%d rows]", r.name, r.schema, len(r.rows))
}

// StoredRelation is a Relation whose rows live in a Store
type StoredRelation struct {
	name   string
	schema Schema
	store  Store
	size   int
}

func (r *StoredRelation) Name() string   { return r.name }
func (r *StoredRelation) Schema() Schema { return r.schema }
func (r *StoredRelation) Arity() int     { return len(r.schema) }
func (r *StoredRelation) Size() int      { return r.size }

// Iterator scans the relation from its store
func (r *StoredRelation) Iterator() (Iterator, error) {
	return r.store.Scan(r.name)
}

// String returns a compact representation like Breweries(id:number, ...)[3 rows]
func (r *StoredRelation) String() string {
	return fmt.Sprintf("%s%s[%d rows]", r.name, r.schema, r.size)
}

// InferSchema builds a schema from column names, typing a column as number
// when every row holds a number in it.
func InferSchema(columns []string, rows []datalog.Tuple) Schema {
	schema := make(Schema, len(columns))
	for i, name := range columns {
		typ := ColumnNumber
		for _, row := range rows {
			if i < len(row) && row[i].Kind() != datalog.KindNumber {
				typ = ColumnString
				break
			}
		}
		if len(rows) == 0 {
			typ = ColumnString
		}
		schema[i] = Column{Name: name, Type: typ}
	}
	return schema
}

func checkRows(name string, schema Schema, rows []datalog.Tuple) error {
	for i, row := range rows {
		if len(row) != len(schema) {
			return fmt.Errorf("relation %s: row %d has %d values, schema has %d columns", name, i, len(row), len(schema))
		}
	}
	return nil
}
