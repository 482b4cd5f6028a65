package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"saponaria/internal/importer"
	"saponaria/internal/units"
)

func newImportCmd() *cobra.Command {
	var (
		outPath string
		unit    string
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Convert a text or PDF recipe into a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read recipe: %w", err)
			}
			if len(data) > importer.MaxUploadSize {
				return fmt.Errorf("recipe %s is larger than %d bytes", filepath.Base(args[0]), importer.MaxUploadSize)
			}
			text, err := importer.TextFromUpload(data, importer.MimeTypeFromName(args[0]))
			if err != nil {
				return err
			}

			recipe := importer.ParseRecipe(text)
			if len(recipe.Lines) == 0 {
				return fmt.Errorf("no ingredient lines found in %s", filepath.Base(args[0]))
			}
			if unit != "" {
				parsed, ok := units.Parse(unit)
				if !ok {
					return fmt.Errorf("unknown unit %q", unit)
				}
				recipe.Unit = parsed
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				file, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create snapshot: %w", err)
				}
				defer file.Close()
				out = file
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(recipe.Snapshot()); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			for _, skipped := range recipe.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %s\n", skipped)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the snapshot to a file instead of stdout")
	cmd.Flags().StringVar(&unit, "unit", "", "Display unit for the snapshot (g, kg, oz, lb)")
	return cmd
}
