package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRefsCmd() *cobra.Command {
	refs := &cobra.Command{
		Use:   "refs",
		Short: "Inspect references between compounds, methods and panels",
	}

	var strict bool
	audit := &cobra.Command{
		Use:   "audit",
		Short: "List compound references that no longer resolve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			compounds, err := c.repo.ListCompounds(c.ctx)
			if err != nil {
				return err
			}
			dangling, err := c.resolver.Audit(c.ctx, compounds)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(dangling) == 0 {
				fmt.Fprintf(out, "no dangling references in %d compounds\n", len(compounds))
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COMPOUND\tID\tKIND\tREFERENCE")
			for _, d := range dangling {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Compound, d.CompoundID, d.Kind, d.Ref)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if strict {
				return fmt.Errorf("%d dangling references", len(dangling))
			}
			return nil
		},
	}
	audit.Flags().BoolVar(&strict, "strict", false, "exit non-zero when dangling references exist")

	refs.AddCommand(audit)
	return refs
}
