package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
)

var queryBusinessID string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Manage the ranking queries asked for a business",
}

var queryAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a ranking query to a business",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if queryBusinessID == "" {
			return eris.New("--business is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		q, err := st.CreateQuery(ctx, queryBusinessID, args[0])
		if err != nil {
			return eris.Wrap(err, "query add")
		}

		fmt.Printf("Created query %s: %q\n", q.ID, q.Text)
		return nil
	},
}

var queryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a business's queries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if queryBusinessID == "" {
			return eris.New("--business is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		queries, err := st.ListQueries(ctx, queryBusinessID)
		if err != nil {
			return eris.Wrap(err, "query list")
		}
		if len(queries) == 0 {
			fmt.Fprintln(os.Stderr, "No queries found for this business.")
			return nil
		}

		formatQueryList(os.Stdout, queries)
		return nil
	},
}

var queryDisableCmd = &cobra.Command{
	Use:   "disable <query-id>",
	Short: "Exclude a query from future runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setQueryActive(cmd, args[0], false)
	},
}

var queryEnableCmd = &cobra.Command{
	Use:   "enable <query-id>",
	Short: "Include a query in future runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setQueryActive(cmd, args[0], true)
	},
}

func setQueryActive(cmd *cobra.Command, queryID string, active bool) error {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	if err := st.SetQueryActive(ctx, queryID, active); err != nil {
		return eris.Wrap(err, "query toggle")
	}
	fmt.Printf("Query %s active=%t\n", queryID, active)
	return nil
}

func init() {
	queryCmd.PersistentFlags().StringVar(&queryBusinessID, "business", "", "business ID")

	queryCmd.AddCommand(queryAddCmd)
	queryCmd.AddCommand(queryListCmd)
	queryCmd.AddCommand(queryDisableCmd)
	queryCmd.AddCommand(queryEnableCmd)
	rootCmd.AddCommand(queryCmd)
}

func formatQueryList(out io.Writer, queries []model.Query) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tACTIVE\tTEXT")
	for _, q := range queries {
		_, _ = fmt.Fprintf(w, "%s\t%t\t%s\n", q.ID, q.Active, q.Text)
	}
	_ = w.Flush()
}
