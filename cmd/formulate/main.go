// Command formulate works with workspace snapshots and the ingredient
// catalog from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "formulate",
		Short:         "formulate reconciles soap recipes from your terminal",
		Long:          "formulate reconciles workspace snapshots, converts recipe documents into snapshots and loads ingredient catalogs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReconcileCmd(), newImportCmd(), newCatalogCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
