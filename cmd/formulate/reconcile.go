package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"saponaria/internal/workspace"
)

func newReconcileCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "reconcile <snapshot.json>",
		Short: "Fill in weights and percents of a snapshot and report totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			w, err := workspace.DecodeSnapshot(data)
			if err != nil {
				return err
			}
			w.Recompute()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(w.Snapshot())
			}
			return printView(cmd.OutOrStdout(), w.View())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the reconciled snapshot as JSON")
	return cmd
}

func printView(out io.Writer, v workspace.View) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, set := range []workspace.SetView{v.Oils, v.Fragrances} {
		if len(set.Rows) == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\ttarget %s %s (%s)\n", set.Set, set.Target, v.Unit, set.TargetSource)
		for _, row := range set.Rows {
			fmt.Fprintf(tw, "  %s\t%s %s\t%s%%\n", rowName(row), row.Weight, v.Unit, row.Percent)
		}
		fmt.Fprintf(tw, "  total\t%s %s\t%s%%\n", set.TotalWeight, v.Unit, set.TotalPercent)
		for _, warning := range set.Warnings {
			fmt.Fprintf(tw, "  warning\t%s\n", warning.Message)
		}
	}
	if v.Capacity != "" {
		fmt.Fprintf(tw, "capacity\t%s\n", v.Capacity)
	}
	if len(v.Additives) > 0 {
		for _, additive := range v.Additives {
			fmt.Fprintf(tw, "additive\t%s\t%s%%\n", additive.Name, additive.Percent)
		}
	}
	return tw.Flush()
}

func rowName(row workspace.Row) string {
	if row.Name == "" {
		return "(unnamed)"
	}
	return row.Name
}
