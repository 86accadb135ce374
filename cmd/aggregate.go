package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/filippefrulli/ranklens-sub000/internal/analysis"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <run-id>",
	Short: "Recompute competitor results for a finished run",
	Long:  "Rebuilds the aggregated competitor statistics from the run's stored attempts. Safe to repeat; results are fully replaced each time.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("aggregate"); err != nil {
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

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "resolve run")
		}
		business, err := st.GetBusiness(ctx, run.BusinessID)
		if err != nil {
			return eris.Wrap(err, "resolve business")
		}

		n, err := analysis.NewAggregator(st).Aggregate(ctx, run.ID, business.Name)
		if err != nil {
			return eris.Wrap(err, "aggregate")
		}

		fmt.Printf("Aggregated %d competitor rows for run %s.\n", n, run.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
}
