package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/liammertens/conjunctive-queries/datalog/executor"
	"github.com/liammertens/conjunctive-queries/datalog/parser"
	"github.com/liammertens/conjunctive-queries/datalog/storage"
)

// QueryOptions holds flags of the query command.
type QueryOptions struct {
	File        string
	Interactive bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [query]",
		Short: "Evaluate a single query",
		Long: `Evaluate a conjunctive query and print the answer as a markdown table.

The query is taken from the argument, from --file, or read from stdin with
--interactive (one query per '.'-terminated statement).`,
		Example: `  cq query -d testdata/beers "Answer(x) :- Breweries(v, x, a1, a2, 'Westmalle', u1, u2, u3, u4, u5, u6)."`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(rootOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load relations", err)
			}
			defer db.Close()

			if opts.Interactive {
				return runInteractive(rootOpts, db, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			}

			text, err := queryText(opts, args)
			if err != nil {
				return WrapExitError(ExitCommandError, "no query", err)
			}
			return runSingleQuery(rootOpts, db, text, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the query from a file")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "read queries from stdin")

	return cmd
}

func queryText(opts *QueryOptions, args []string) (string, error) {
	switch {
	case len(args) == 1 && opts.File != "":
		return "", fmt.Errorf("give the query as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case opts.File != "":
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("expected a query argument, --file or --interactive")
	}
}

// evaluate parses and runs one query, verifying the answer when asked
func evaluate(rootOpts *RootOptions, db *storage.Database, text string, errOut io.Writer) (*executor.Result, error) {
	q, err := parser.ParseQuery(text, db)
	if err != nil {
		return nil, err
	}

	ctx := executor.NewContext(traceHandler(rootOpts, errOut))
	result, err := newEvaluator(rootOpts).EvaluateWithContext(ctx, q)
	if err != nil {
		return nil, err
	}

	if rootOpts.Verify {
		naive, err := executor.NaiveEvaluate(q)
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		if !executor.SameAnswer(result, naive) {
			return nil, fmt.Errorf("verify: answer differs from naive evaluation")
		}
	}
	return result, nil
}

// runSingleQuery executes a single query and prints its answer with timing
func runSingleQuery(rootOpts *RootOptions, db *storage.Database, text string, out, errOut io.Writer) error {
	start := time.Now()
	result, err := evaluate(rootOpts, db, text, errOut)
	elapsed := time.Since(start)
	if err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}

	fmt.Fprintf(out, "Query:\n%s\n\n", result.Query.String())
	fmt.Fprintln(out, withTiming(executor.NewTableFormatter().FormatResult(result), elapsed))
	return nil
}

// withTiming appends the elapsed time to the row count line of a table
func withTiming(table string, elapsed time.Duration) string {
	lines := strings.Split(table, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "_") && strings.HasSuffix(lines[i], "rows_") {
			rowLine := strings.TrimSuffix(lines[i], "_")
			lines[i] = rowLine + fmt.Sprintf(" (%.3fms)_", float64(elapsed.Microseconds())/1000.0)
			break
		}
	}
	return strings.Join(lines, "\n")
}

// runInteractive reads '.'-terminated queries from in until EOF or .exit
func runInteractive(rootOpts *RootOptions, db *storage.Database, in io.Reader, out, errOut io.Writer) error {
	fmt.Fprintln(out, "=== cq interactive mode ===")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  .help       - Show help")
	fmt.Fprintln(out, "  .relations  - List loaded relations")
	fmt.Fprintln(out, "  .exit       - Exit")
	fmt.Fprintln(out, "  Head(..) :- Atom(..), ... .  - Run a query")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	formatter := executor.NewTableFormatter()
	var pending strings.Builder

	for {
		if pending.Len() == 0 {
			fmt.Fprint(out, "> ")
		} else {
			fmt.Fprint(out, "  ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		if pending.Len() == 0 {
			switch line {
			case "":
				continue
			case ".exit":
				return nil
			case ".help":
				fmt.Fprintln(out, "Enter a conjunctive query terminated by '.'")
				continue
			case ".relations":
				for _, name := range db.Names() {
					rel, _ := db.Relation(name)
					fmt.Fprintf(out, "%s(%s) %d rows\n", name, strings.Join(rel.Schema().Names(), ", "), rel.Size())
				}
				continue
			}
		}

		pending.WriteString(line)
		pending.WriteString("\n")
		if !strings.HasSuffix(line, ".") {
			continue
		}

		text := pending.String()
		pending.Reset()

		result, err := evaluate(rootOpts, db, text, errOut)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, formatter.FormatResult(result))
	}
	return scanner.Err()
}
