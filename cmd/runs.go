package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
	"github.com/filippefrulli/ranklens-sub000/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect analysis run history",
	Long:  "Commands for listing runs, viewing their progress, and reading aggregated competitor results.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analysis runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		business, _ := cmd.Flags().GetString("business")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			BusinessID: business,
			Status:     model.RunStatus(status),
			Limit:      limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

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
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs results --

var runsResultsCmd = &cobra.Command{
	Use:   "results <run-id>",
	Short: "Show aggregated competitor results for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		results, err := st.ListCompetitorResults(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs results")
		}
		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No results for this run. Has it completed and been aggregated?")
			return nil
		}

		formatCompetitorResults(os.Stdout, results)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (pending, running, completed, failed)")
	runsListCmd.Flags().String("business", "", "filter by business ID")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsResultsCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.AnalysisRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tBUSINESS\tSTATUS\tQUERIES\tCALLS\tCREATED")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d/%d\t%s\n",
			truncateID(r.ID),
			truncateID(r.BusinessID),
			r.Status,
			r.CompletedQueries, r.TotalQueries,
			r.CompletedLLMCalls, r.TotalLLMCalls,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatCompetitorResults writes one table per query, best weighted score
// first within each.
func formatCompetitorResults(out io.Writer, results []model.CompetitorResult) {
	byQuery := make(map[string][]model.CompetitorResult)
	var order []string
	for _, r := range results {
		if _, seen := byQuery[r.QueryID]; !seen {
			order = append(order, r.QueryID)
		}
		byQuery[r.QueryID] = append(byQuery[r.QueryID], r)
	}

	for _, queryID := range order {
		fmt.Fprintf(out, "Query %s\n", queryID)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "  NAME\tSCORE\tAVG\tBEST\tWORST\tSEEN\tPROVIDERS")
		for _, r := range byQuery[queryID] {
			name := r.Name
			if r.IsTarget {
				name += " *"
			}
			_, _ = fmt.Fprintf(w, "  %s\t%.2f\t%.2f\t%d\t%d\t%d/%d\t%s\n",
				name, r.WeightedScore, r.AverageRank, r.BestRank, r.WorstRank,
				r.Appearances, r.TotalAttempts, strings.Join(r.Providers, ","),
			)
		}
		_ = w.Flush()
		fmt.Fprintln(out)
	}
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
