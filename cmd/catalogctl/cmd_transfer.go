package main

import (
	"fmt"
	"os"

	"labcatalog/internal/service"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var kind, mode string
	cmd := &cobra.Command{
		Use:   "import [file.xlsx]",
		Short: "Import compounds, methods or panels from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			c, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := c.transfer.Import(c.ctx, kind, f, mode)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s): %d rows, %d written, %d deleted\n",
				report.Kind, report.Mode, report.Rows, report.Written, report.Deleted)
			for _, re := range report.Errors {
				fmt.Fprintf(out, "  row %d: %s\n", re.Row, re.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", service.KindCompounds, "compounds | methods | panels")
	cmd.Flags().StringVarP(&mode, "mode", "m", service.ImportMerge, "merge | replace")
	return cmd
}

func newExportCmd() *cobra.Command {
	var kind, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a collection to a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			data, filename, err := c.transfer.Export(c.ctx, kind)
			if err != nil {
				return err
			}
			if output == "" {
				output = filename
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", service.KindCompounds, "compounds | methods | panels | notes")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <type>-export.xlsx)")
	return cmd
}
