package storage

import (
	"fmt"
	"sync"

	"github.com/liammertens/conjunctive-queries/datalog"
)

// Store is the interface for row storage behind a Database.
// All stores keep their data in memory; rows are returned in insertion order.
type Store interface {
	// Put appends rows to a relation, creating it if needed
	Put(relation string, rows []datalog.Tuple) error

	// Scan returns an iterator over every row of a relation. Scanning a
	// relation that was never written yields no rows.
	Scan(relation string) (Iterator, error)

	// Count returns the number of rows of a relation
	Count(relation string) (int, error)

	// Lifecycle
	Close() error
}

// StoreKind names a Store implementation
type StoreKind string

const (
	MemoryStoreKind StoreKind = "memory"
	BadgerStoreKind StoreKind = "badger"
	SQLiteStoreKind StoreKind = "sqlite"
)

// StoreKinds lists the accepted store names
var StoreKinds = []StoreKind{MemoryStoreKind, BadgerStoreKind, SQLiteStoreKind}

// OpenStore creates a store by name. The empty name selects the memory store.
func OpenStore(kind StoreKind) (Store, error) {
	switch kind {
	case "", MemoryStoreKind:
		return NewMemoryStore(), nil
	case BadgerStoreKind:
		return NewBadgerStore()
	case SQLiteStoreKind:
		return NewSQLiteStore()
	default:
		return nil, fmt.Errorf("unknown store %q: must be one of %v", kind, StoreKinds)
	}
}

// MemoryStore keeps rows in Go slices
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string][]datalog.Tuple
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string][]datalog.Tuple)}
}

// Put appends rows to a relation
func (s *MemoryStore) Put(relation string, rows []datalog.Tuple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.rows[relation] = append(s.rows[relation], row.Clone())
	}
	return nil
}

// Scan returns an iterator over a snapshot of the relation's rows
func (s *MemoryStore) Scan(relation string) (Iterator, error) {
	s.mu.RLock()
	rows := s.rows[relation]
	s.mu.RUnlock()
	return newSliceIterator(rows), nil
}

// Count returns the number of rows of a relation
func (s *MemoryStore) Count(relation string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[relation]), nil
}

// Close releases the rows
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.rows = make(map[string][]datalog.Tuple)
	s.mu.Unlock()
	return nil
}
