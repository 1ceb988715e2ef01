package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Rocket457/identificar-e-formatar-queries/internal/index"
)

func newListCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "list [index.db]",
		Short: "List the queries recorded in a catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := args[0]
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			count := 0
			err := index.StreamQueries(dbPath, func(r index.Row) error {
				count++
				fmt.Fprintf(tw, "%s\t%s\t%s:%d\n", r.Slot, r.Function, r.SourcePath, r.Line)
				if full {
					if err := tw.Flush(); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", r.Formatted)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d queries\n", count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print the formatted query under each entry")
	return cmd
}
