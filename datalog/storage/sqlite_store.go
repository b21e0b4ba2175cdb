package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/liammertens/conjunctive-queries/datalog"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store on an in-memory SQLite database, one table per
// relation with untyped columns c0..cN.
type SQLiteStore struct {
	db *sql.DB

	mu    sync.Mutex
	arity map[string]int
}

// NewSQLiteStore opens a private in-memory SQLite database
func NewSQLiteStore() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{
		db:    db,
		arity: make(map[string]int),
	}, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func columnList(arity int) string {
	cols := make([]string, arity)
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i)
	}
	return strings.Join(cols, ", ")
}

// Put appends rows to a relation, creating its table on first use
func (s *SQLiteStore) Put(relation string, rows []datalog.Tuple) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	arity, ok := s.arity[relation]
	if !ok {
		arity = len(rows[0])
		if arity == 0 {
			return fmt.Errorf("relation %s: rows must have at least one column", relation)
		}
		ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(relation), columnList(arity))
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create table for %s: %w", relation, err)
		}
		s.arity[relation] = arity
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin insert into %s: %w", relation, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", arity), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(relation), columnList(arity), placeholders))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert into %s: %w", relation, err)
	}
	defer stmt.Close()

	args := make([]interface{}, arity)
	for i, row := range rows {
		if len(row) != arity {
			tx.Rollback()
			return fmt.Errorf("relation %s: row %d has %d values, expected %d", relation, i, len(row), arity)
		}
		for j, v := range row {
			args[j] = v.Interface()
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert row %d into %s: %w", i, relation, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows of %s: %w", relation, err)
	}
	return nil
}

// Scan reads the relation in rowid order. Rows are read eagerly so the single
// connection is released before the caller iterates.
func (s *SQLiteStore) Scan(relation string) (Iterator, error) {
	s.mu.Lock()
	arity, ok := s.arity[relation]
	s.mu.Unlock()
	if !ok {
		return newSliceIterator(nil), nil
	}

	rows, err := s.db.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid",
		columnList(arity), quoteIdent(relation)))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", relation, err)
	}
	defer rows.Close()

	var result []datalog.Tuple
	cells := make([]interface{}, arity)
	ptrs := make([]interface{}, arity)
	for i := range cells {
		ptrs[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to read row of %s: %w", relation, err)
		}
		row := make(datalog.Tuple, arity)
		for i, cell := range cells {
			row[i] = datalog.FromInterface(cell)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", relation, err)
	}

	return newSliceIterator(result), nil
}

// Count returns the number of rows of a relation
func (s *SQLiteStore) Count(relation string) (int, error) {
	s.mu.Lock()
	_, ok := s.arity[relation]
	s.mu.Unlock()
	if !ok {
		return 0, nil
	}

	var count int
	err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(relation))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", relation, err)
	}
	return count, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
