package executor

import (
	"github.com/liammertens/conjunctive-queries/datalog"
)

// TupleKey represents a hashable key for a tuple or subset of tuple values.
// The hash is taken over the canonical composite-key encoding, so two keys
// hash alike exactly when their values are equal.
type TupleKey struct {
	hash uint64
	// And keep references to the values for equality checking
	values datalog.Tuple
}

// NewTupleKey creates a key from an entire tuple
func NewTupleKey(tuple datalog.Tuple) TupleKey {
	// Don't copy - just reference the original tuple
	// The tuple is already immutable in our usage
	var scratch [64]byte
	return TupleKey{
		hash:   hashBytes(datalog.AppendKey(scratch[:0], tuple)),
		values: tuple,
	}
}

// Values returns the key's values
func (k TupleKey) Values() datalog.Tuple { return k.values }

// hashBytes hashes a byte slice (FNV-1a)
func hashBytes(b []byte) uint64 {
	const prime = 1099511628211
	hash := uint64(14695981039346656037)

	for _, c := range b {
		hash ^= uint64(c)
		hash *= prime
	}

	return hash
}

// Equal checks if two keys are equal
func (k TupleKey) Equal(other TupleKey) bool {
	// Quick hash check first
	if k.hash != other.hash {
		return false
	}
	return datalog.TuplesEqual(k.values, other.values)
}

// TupleKeyMap wraps a simple Go map for better performance
// We use the hash directly as the key and handle collisions
type TupleKeyMap struct {
	m    map[uint64][]mapEntry
	size int
}

type mapEntry struct {
	key    TupleKey // Full key for collision checking
	tuples []datalog.Tuple
}

// NewTupleKeyMapWithCapacity creates a new TupleKeyMap pre-sized to hold expectedSize entries
func NewTupleKeyMapWithCapacity(expectedSize int) *TupleKeyMap {
	return &TupleKeyMap{
		m: make(map[uint64][]mapEntry, expectedSize),
	}
}

// Add appends tuple to the list stored under key
func (m *TupleKeyMap) Add(key TupleKey, tuple datalog.Tuple) {
	entries := m.m[key.hash]

	for i := range entries {
		if entries[i].key.Equal(key) {
			entries[i].tuples = append(entries[i].tuples, tuple)
			return
		}
	}

	m.m[key.hash] = append(entries, mapEntry{
		key:    key,
		tuples: []datalog.Tuple{tuple},
	})
	m.size++
}

// Get retrieves the tuples stored under key
func (m *TupleKeyMap) Get(key TupleKey) ([]datalog.Tuple, bool) {
	entries, ok := m.m[key.hash]
	if !ok {
		return nil, false
	}

	for _, entry := range entries {
		if entry.key.Equal(key) {
			return entry.tuples, true
		}
	}

	return nil, false
}

// Exists checks if a key exists
func (m *TupleKeyMap) Exists(key TupleKey) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of distinct keys
func (m *TupleKeyMap) Len() int { return m.size }

// TupleSet is a set of whole tuples
type TupleSet struct {
	m *TupleKeyMap
}

// NewTupleSet creates an empty set sized for n tuples
func NewTupleSet(n int) *TupleSet {
	return &TupleSet{m: NewTupleKeyMapWithCapacity(n)}
}

// Insert adds t and reports whether it was not present before
func (s *TupleSet) Insert(t datalog.Tuple) bool {
	key := NewTupleKey(t)
	if s.m.Exists(key) {
		return false
	}
	s.m.Add(key, t)
	return true
}

// Contains reports whether t is in the set
func (s *TupleSet) Contains(t datalog.Tuple) bool {
	return s.m.Exists(NewTupleKey(t))
}

// Len returns the number of tuples in the set
func (s *TupleSet) Len() int { return s.m.Len() }
