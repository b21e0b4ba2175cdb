package storage

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/liammertens/conjunctive-queries/datalog"
)

// BadgerStore implements Store using an in-memory BadgerDB instance.
//
// Key layout: relation name | 0x00 | uint64 big-endian row id.
// Value: datalog.EncodeTuple(row).
type BadgerStore struct {
	db *badger.DB

	mu     sync.Mutex
	nextID map[string]uint64
}

// NewBadgerStore creates a new BadgerDB-backed store held entirely in memory
func NewBadgerStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Disable BadgerDB logs

	opts.DetectConflicts = false // Rows are append-only and scanned read-only
	opts.NumCompactors = 2
	opts.ValueThreshold = 1 << 10 // 1KB - store small values in LSM tree

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &BadgerStore{
		db:     db,
		nextID: make(map[string]uint64),
	}, nil
}

// relationPrefix returns the key prefix shared by every row of a relation
func relationPrefix(relation string) []byte {
	prefix := make([]byte, 0, len(relation)+1)
	prefix = append(prefix, relation...)
	return append(prefix, 0)
}

func rowKey(relation string, id uint64) []byte {
	return binary.BigEndian.AppendUint64(relationPrefix(relation), id)
}

// Put appends rows to a relation. Row ids are only consumed once the
// write batch has been flushed, so a failed Put leaves no gap.
func (s *BadgerStore) Put(relation string, rows []datalog.Tuple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.nextID[relation]

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i, row := range rows {
		if err := wb.Set(rowKey(relation, first+uint64(i)), datalog.EncodeTuple(row)); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i, relation, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to flush rows of %s: %w", relation, err)
	}
	s.nextID[relation] = first + uint64(len(rows))
	return nil
}

// Scan returns an iterator over a relation in row id order
func (s *BadgerStore) Scan(relation string) (Iterator, error) {
	txn := s.db.NewTransaction(false)

	prefix := relationPrefix(relation)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchSize = 1000
	opts.PrefetchValues = true

	return &BadgerIterator{
		txn:    txn,
		it:     txn.NewIterator(opts),
		prefix: prefix,
	}, nil
}

// Count counts the keys of a relation without fetching values
func (s *BadgerStore) Count(relation string) (int, error) {
	txn := s.db.NewTransaction(false)
	defer txn.Discard()

	prefix := relationPrefix(relation)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false // KEY ONLY

	it := txn.NewIterator(opts)
	defer it.Close()

	count := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		count++
	}
	return count, nil
}

// Close closes the store
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// BadgerIterator implements Iterator for BadgerDB
type BadgerIterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	prefix  []byte
	started bool
	closed  bool
}

// Next advances the iterator
func (i *BadgerIterator) Next() bool {
	if i.closed {
		return false
	}
	if !i.started {
		// First call - seek to start
		i.it.Seek(i.prefix)
		i.started = true
	} else {
		i.it.Next()
	}
	return i.it.ValidForPrefix(i.prefix)
}

// Tuple decodes the row at the current position
func (i *BadgerIterator) Tuple() (datalog.Tuple, error) {
	var row datalog.Tuple
	err := i.it.Item().Value(func(val []byte) error {
		var err error
		row, err = datalog.DecodeTuple(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode row %x: %w", i.it.Item().Key(), err)
	}
	return row, nil
}

// Close releases the iterator and its read transaction
func (i *BadgerIterator) Close() error {
	if !i.closed {
		i.closed = true
		i.it.Close()
		i.txn.Discard()
	}
	return nil
}
