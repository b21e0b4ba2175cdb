package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/liammertens/conjunctive-queries/datalog"
)

// ReadCSV reads a relation from CSV. The first record names the columns;
// every cell of the following records is cast with datalog.ParseValue.
func ReadCSV(r io.Reader) ([]string, []datalog.Tuple, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []datalog.Tuple
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read record: %w", err)
		}

		row := make(datalog.Tuple, len(record))
		for i, cell := range record {
			row[i] = datalog.ParseValue(cell)
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}

// RelationName derives a relation name from a CSV path: the base name without
// extension, with its first letter upper-cased (data/beers.csv -> Beers).
func RelationName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	r, size := utf8.DecodeRuneInString(base)
	if r == utf8.RuneError {
		return base
	}
	return string(unicode.ToUpper(r)) + base[size:]
}

// LoadCSV reads a CSV file and registers it under the derived relation name
func (d *Database) LoadCSV(path string) (Relation, error) {
	return d.LoadCSVAs(RelationName(path), path)
}

// LoadCSVAs reads a CSV file and registers it under name
func (d *Database) LoadCSVAs(name, path string) (Relation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	columns, rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return d.AddRelation(name, InferSchema(columns, rows), rows)
}

// LoadDir loads every *.csv file of a directory, in lexical order
func (d *Database) LoadDir(dir string) ([]Relation, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	rels := make([]Relation, 0, len(paths))
	for _, path := range paths {
		rel, err := d.LoadCSV(path)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, nil
}
