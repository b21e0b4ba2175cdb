package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/liammertens/conjunctive-queries/datalog/batch"
)

// BatchOptions holds flags of the batch command.
type BatchOptions struct {
	Output string
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Evaluate every query of a batch file",
		Long: `Evaluate the queries of a YAML batch file and write one CSV row per query:

  query_id, is_acyclic, bool_answer, attr_<v>_answer...

A failing query (cyclic, unparsable, unknown relation) is reported and the
remaining queries still run. The command exits with status 1 when any query
failed. --store, --data and --relation add to the batch file's settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "CSV output path (overrides the batch file, - for stdout)")

	return cmd
}

func runBatch(rootOpts *RootOptions, opts *BatchOptions, path string, cmd *cobra.Command) error {
	f, err := batch.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load batch file", err)
	}
	if cmd.Flags().Changed("store") {
		f.Store = rootOpts.Store
	}

	db, err := f.OpenDatabase()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load relations", err)
	}
	defer db.Close()

	for _, dir := range rootOpts.Data {
		if _, err := db.LoadDir(dir); err != nil {
			return WrapExitError(ExitCommandError, "failed to load relations", err)
		}
	}
	for _, spec := range rootOpts.Relations {
		if err := loadRelationSpec(db, spec); err != nil {
			return WrapExitError(ExitCommandError, "failed to load relations", err)
		}
	}

	runner := batch.NewRunner(db, newEvaluator(rootOpts), batch.Options{
		Handler: traceHandler(rootOpts, cmd.ErrOrStderr()),
		Verify:  rootOpts.Verify,
	})
	report := runner.Run(f.Queries)

	output := f.Output
	if opts.Output != "" {
		output = opts.Output
	}
	var w io.Writer = cmd.OutOrStdout()
	if output != "" && output != "-" {
		file, err := os.Create(output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output", err)
		}
		defer file.Close()
		w = file
	}

	if err := batch.NewWriter(w, f.Attributes).WriteReport(report); err != nil {
		return WrapExitError(ExitCommandError, "failed to write results", err)
	}

	errOut := cmd.ErrOrStderr()
	for _, o := range report.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", o.ID, o.Err)
		}
	}
	if n := report.Failures(); n > 0 {
		return &ExitError{
			Code:    ExitFailure,
			Message: fmt.Sprintf("run %s: %d of %d queries failed", report.RunID, n, len(report.Outcomes)),
		}
	}
	return nil
}
