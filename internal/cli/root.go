// Package cli implements the cq command line: single queries, batch files
// and join tree inspection over CSV relations.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liammertens/conjunctive-queries/datalog/annotations"
	"github.com/liammertens/conjunctive-queries/datalog/executor"
	"github.com/liammertens/conjunctive-queries/datalog/storage"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // A query failed (cyclic, parse error, verification mismatch)
	ExitCommandError = 2 // Command error (unreadable data, bad flags)
)

// ExitError carries the process exit code of a failed command
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Store     string
	Data      []string // directories of CSV files
	Relations []string // NAME=PATH or PATH
	Parallel  bool
	Workers   int
	Verify    bool
	Debug     bool
}

// NewRootCommand creates the root command for the cq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cq",
		Short: "Acyclic conjunctive query evaluator",
		Long: `cq evaluates conjunctive queries over CSV relations.

Queries are proven acyclic with GYO ear reduction and evaluated with the
Yannakakis algorithm. Cyclic queries are rejected.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // main prints the error once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidStore(opts.Store) {
				return WrapExitError(ExitCommandError, "invalid flag",
					fmt.Errorf("unknown store %q: must be one of %v", opts.Store, storage.StoreKinds))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "trace evaluation on stderr")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", string(storage.MemoryStoreKind), "relation store (memory|badger|sqlite)")
	cmd.PersistentFlags().StringSliceVarP(&opts.Data, "data", "d", nil, "directory of CSV relations (repeatable)")
	cmd.PersistentFlags().StringArrayVarP(&opts.Relations, "relation", "r", nil, "CSV relation as NAME=PATH or PATH (repeatable)")
	cmd.PersistentFlags().BoolVar(&opts.Parallel, "parallel", false, "scan leaves of one tree level concurrently")
	cmd.PersistentFlags().IntVar(&opts.Workers, "workers", 0, "worker count for --parallel (0 = NumCPU)")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "print evaluator debug output")
	cmd.PersistentFlags().BoolVar(&opts.Verify, "verify", false, "check every answer against naive evaluation")

	// Add subcommands
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewTreeCommand(opts))

	return cmd
}

func isValidStore(store string) bool {
	for _, k := range storage.StoreKinds {
		if storage.StoreKind(store) == k {
			return true
		}
	}
	return false
}

// openDatabase creates the selected store and loads every --data directory
// and --relation file into it
func openDatabase(opts *RootOptions) (*storage.Database, error) {
	db, err := storage.OpenDatabase(storage.StoreKind(opts.Store))
	if err != nil {
		return nil, err
	}

	for _, dir := range opts.Data {
		if _, err := db.LoadDir(dir); err != nil {
			db.Close()
			return nil, err
		}
	}
	for _, spec := range opts.Relations {
		if err := loadRelationSpec(db, spec); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// loadRelationSpec loads NAME=PATH under NAME and a bare PATH under the
// name derived from the file
func loadRelationSpec(db *storage.Database, spec string) error {
	var err error
	if name, path, ok := strings.Cut(spec, "="); ok {
		_, err = db.LoadCSVAs(name, path)
	} else {
		_, err = db.LoadCSV(spec)
	}
	return err
}

func newEvaluator(opts *RootOptions) *executor.Evaluator {
	return executor.NewEvaluatorWithOptions(executor.ExecutorOptions{
		ParallelLeafScans:  opts.Parallel,
		MaxWorkers:         opts.Workers,
		EnableDebugLogging: opts.Debug,
	})
}

// traceHandler returns an annotation handler printing to w, or nil when
// tracing is off
func traceHandler(opts *RootOptions, w io.Writer) annotations.Handler {
	if !opts.Verbose {
		return nil
	}
	formatter := annotations.NewOutputFormatter(w)
	return annotations.Handler(formatter.Handle)
}
