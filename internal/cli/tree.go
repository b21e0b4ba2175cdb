package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liammertens/conjunctive-queries/datalog/hypergraph"
	"github.com/liammertens/conjunctive-queries/datalog/parser"
)

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <query>",
		Short: "Print the join tree of a query",
		Long: `Run GYO ear reduction on a query and print the resulting join forest.

Relations are only resolved, and arities checked, when --data or
--relation is given. A cyclic query exits with status 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var lookup parser.RelationLookup
			if len(rootOpts.Data) > 0 || len(rootOpts.Relations) > 0 {
				db, err := openDatabase(rootOpts)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load relations", err)
				}
				defer db.Close()
				lookup = db
			}

			q, err := parser.ParseQuery(args[0], lookup)
			if err != nil {
				return WrapExitError(ExitFailure, "query failed", err)
			}

			out := cmd.OutOrStdout()
			tree, err := hypergraph.GYO(q)
			if errors.Is(err, hypergraph.ErrCyclicQuery) {
				fmt.Fprintln(out, "cyclic")
				return WrapExitError(ExitFailure, "query is not acyclic", err)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "query failed", err)
			}

			fmt.Fprintf(out, "acyclic, %d nodes, %d roots\n", tree.Len(), len(tree.Roots()))
			fmt.Fprint(out, tree.String())
			return nil
		},
	}
	return cmd
}
