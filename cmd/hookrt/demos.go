package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/hookrt/internal/errors"
	"github.com/vango-dev/hookrt/pkg/demos"
)

func demosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demos",
		Short: "List the bundled demos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tACTIONS\tDESCRIPTION")
			for _, d := range demos.Catalog() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, strings.Join(d.Actions, ","), d.Description)
			}
			return w.Flush()
		},
	}
}

// lookupDemo returns the named demo or a registered CLI error.
func lookupDemo(name string) (demos.Demo, error) {
	d, ok := demos.Lookup(name)
	if !ok {
		return demos.Demo{}, errors.New(errors.CodeUnknownDemo).
			WithDetail(fmt.Sprintf("No demo named %q.", name))
	}
	return d, nil
}
