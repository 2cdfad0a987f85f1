package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph"
)

func newTemplatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List node templates",
		Long:  `List the templates add_node accepts, with their input slots and output kind.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			catalog := nodegraph.DefaultCatalog()
			for _, name := range catalog.Names() {
				t, _ := catalog.Lookup(name)
				fmt.Fprintf(a.out, "%s -> %s\n", t.Name, t.Output)
				for i, in := range t.Inputs {
					fmt.Fprintf(a.out, "    %d %s (%s)\n", i, in.Label, in.Default.Kind())
				}
			}
			return nil
		},
	}
}
