package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/liammertens/conjunctive-queries/datalog"
)

// Database maps relation names to relations. It is populated at load time and
// only read during query evaluation.
type Database struct {
	store Store

	mu        sync.RWMutex
	relations map[string]Relation
}

// NewDatabase creates a database on top of store. A nil store selects a
// MemoryStore.
func NewDatabase(store Store) *Database {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Database{
		store:     store,
		relations: make(map[string]Relation),
	}
}

// OpenDatabase creates a database backed by the named store kind
func OpenDatabase(kind StoreKind) (*Database, error) {
	store, err := OpenStore(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return NewDatabase(store), nil
}

// AddRelation writes rows to the store and registers the relation
func (d *Database) AddRelation(name string, schema Schema, rows []datalog.Tuple) (Relation, error) {
	if name == "" {
		return nil, fmt.Errorf("relation name must not be empty")
	}
	if err := checkRows(name, schema, rows); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.relations[name]; exists {
		return nil, fmt.Errorf("relation %s already exists", name)
	}

	if err := d.store.Put(name, rows); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", name, err)
	}

	rel := &StoredRelation{
		name:   name,
		schema: schema,
		store:  d.store,
		size:   len(rows),
	}
	d.relations[name] = rel
	return rel, nil
}

// Register adds an already constructed relation (e.g. a MemoryRelation)
func (d *Database) Register(rel Relation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.relations[rel.Name()]; exists {
		return fmt.Errorf("relation %s already exists", rel.Name())
	}
	d.relations[rel.Name()] = rel
	return nil
}

// Relation resolves a relation by name
func (d *Database) Relation(name string) (Relation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rel, ok := d.relations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelation, name)
	}
	return rel, nil
}

// Names returns the registered relation names in sorted order
func (d *Database) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.relations))
	for name := range d.relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes the underlying store
func (d *Database) Close() error {
	return d.store.Close()
}
