package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph"
)

func newEvalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <snapshot> <id>",
		Short: "Evaluate a node of a saved graph",
		Long: `Restore a snapshot from the configured store and print the value of one
node. A missing or corrupt snapshot is an error here.`,
		Example: `  nodegraph eval work.ane 2
  nodegraph eval --store sqlite --store-path graphs.db work.ane 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("node id %q: %w", args[1], err)
			}

			ed, err := a.newEditor()
			if err != nil {
				return err
			}
			defer ed.Close()

			name := withExt(args[0])
			if err := ed.Restore(cmd.Context(), name); err != nil {
				return err
			}
			out, err := ed.Evaluate(cmd.Context(), nodegraph.NodeID(id))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, out)
			return nil
		},
	}
}
