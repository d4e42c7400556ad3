package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newMasterCommand(opts *rootOptions) *cobra.Command {
	masterCmd := &cobra.Command{
		Use:   "master",
		Short: "Manage the master SKU price list",
	}
	masterCmd.AddCommand(newMasterLoadCommand(opts))
	masterCmd.AddCommand(newMasterShowCommand(opts))
	return masterCmd
}

func newMasterLoadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Replace the master price table with a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx, opts, true)
			if err != nil {
				return err
			}
			defer p.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening master list: %w", err)
			}
			defer f.Close()

			res, err := p.prices.Load(ctx, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d SKUs from master list (%d distinct)\n", res.Kept, res.Size)
			if n := res.Diagnostics.SkippedTotal(); n > 0 {
				fmt.Fprintf(out, "Skipped %d rows\n", n)
			}
			for _, s := range res.Sample {
				fmt.Fprintf(out, "  %s\n", s)
			}
			return nil
		},
	}
}

func newMasterShowCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted master price table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx, opts, true)
			if err != nil {
				return err
			}
			defer p.Close()

			tbl, err := p.prices.Current(ctx)
			if err != nil {
				return err
			}

			entries := tbl.Entries()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d SKUs\n", len(entries))
			for i, e := range entries {
				if limit > 0 && i >= limit {
					fmt.Fprintf(out, "... %d more\n", len(entries)-limit)
					break
				}
				fmt.Fprintf(out, "%s\t%s\n", e.SKU, e.UnitPrice.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many SKUs (0 = all)")
	return cmd
}
