package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/filippefrulli/ranklens-sub000/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run's competitor results to XLSX or CSV",
	Long:  "Writes the aggregated competitor results to the file named by --out. The extension picks the format: .xlsx gets one sheet per query, .csv gets flat rows.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		exp := export.New(st)
		runID := args[0]

		switch {
		case strings.HasSuffix(exportOut, ".xlsx"):
			err = exp.WriteXLSX(ctx, runID, exportOut)
		case strings.HasSuffix(exportOut, ".csv"):
			var f *os.File
			f, err = os.Create(exportOut)
			if err != nil {
				return eris.Wrapf(err, "create %s", exportOut)
			}
			defer f.Close() //nolint:errcheck
			err = exp.WriteCSV(ctx, runID, f)
		default:
			return eris.Errorf("unsupported export format: %s (use .xlsx or .csv)", exportOut)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Exported run %s to %s\n", runID, exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "results.xlsx", "output file (.xlsx or .csv)")
	rootCmd.AddCommand(exportCmd)
}
