// Package batch runs a list of conjunctive queries described in a YAML file
// and writes one CSV row per query.
package batch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/liammertens/conjunctive-queries/datalog/storage"
)

// DefaultAttributes are the answer columns written when a batch file names none
var DefaultAttributes = []string{"x", "y", "z", "w"}

// File is a batch file.
//
//	data: ../data
//	store: badger
//	output: results.csv
//	relations:
//	  - name: Pubs
//	    path: extra/pubs.csv
//	queries:
//	  - id: westmalle
//	    query: "Answer(x) :- Breweries(v, x, 'Westmalle')."
type File struct {
	// Data is a directory whose *.csv files are all loaded.
	Data string `yaml:"data,omitempty"`

	// Store selects the relation backend (memory, badger or sqlite).
	Store string `yaml:"store,omitempty"`

	// Relations lists additional CSV files with explicit names.
	Relations []RelationFile `yaml:"relations,omitempty"`

	// Output is the CSV result path. Empty means standard output.
	Output string `yaml:"output,omitempty"`

	// Attributes names the head variables that get an attr_<v>_answer column.
	Attributes []string `yaml:"attributes,omitempty"`

	// Queries are evaluated in order.
	Queries []QuerySpec `yaml:"queries"`
}

// RelationFile binds a relation name to a CSV file
type RelationFile struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// QuerySpec is one query of a batch
type QuerySpec struct {
	ID    string `yaml:"id"`
	Query string `yaml:"query"`
}

// Load reads and validates a batch file. Relative paths in the file are
// resolved against the file's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	f.resolve(filepath.Dir(path))
	return f, nil
}

// Parse decodes and validates a batch file without resolving paths
func Parse(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid batch file: %w", err)
	}
	if len(f.Attributes) == 0 {
		f.Attributes = DefaultAttributes
	}
	return &f, nil
}

func (f *File) validate() error {
	if len(f.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	valid := false
	for _, k := range storage.StoreKinds {
		if f.Store == "" || storage.StoreKind(f.Store) == k {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown store %q: must be one of %v", f.Store, storage.StoreKinds)
	}

	for i, r := range f.Relations {
		if r.Name == "" {
			return fmt.Errorf("relations[%d]: name is required", i)
		}
		if r.Path == "" {
			return fmt.Errorf("relations[%d]: path is required", i)
		}
	}

	seen := make(map[string]bool, len(f.Queries))
	for i, q := range f.Queries {
		if q.ID == "" {
			return fmt.Errorf("queries[%d]: id is required", i)
		}
		if q.Query == "" {
			return fmt.Errorf("queries[%d]: query is required", i)
		}
		if seen[q.ID] {
			return fmt.Errorf("queries[%d]: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

func (f *File) resolve(base string) {
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	f.Data = join(f.Data)
	f.Output = join(f.Output)
	for i := range f.Relations {
		f.Relations[i].Path = join(f.Relations[i].Path)
	}
}

// OpenDatabase creates the configured store and loads the data directory
// and the named relations into it
func (f *File) OpenDatabase() (*storage.Database, error) {
	db, err := storage.OpenDatabase(storage.StoreKind(f.Store))
	if err != nil {
		return nil, err
	}

	if f.Data != "" {
		if _, err := db.LoadDir(f.Data); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load %s: %w", f.Data, err)
		}
	}
	for _, r := range f.Relations {
		if _, err := db.LoadCSVAs(r.Name, r.Path); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
