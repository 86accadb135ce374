package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
)

var businessCmd = &cobra.Command{
	Use:   "business",
	Short: "Manage tracked businesses",
}

var businessAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a business to track",
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

		b, err := st.CreateBusiness(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "business add")
		}

		fmt.Printf("Created business %s (%s)\n", b.Name, b.ID)
		return nil
	},
}

var businessListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked businesses",
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

		businesses, err := st.ListBusinesses(ctx)
		if err != nil {
			return eris.Wrap(err, "business list")
		}
		if len(businesses) == 0 {
			fmt.Fprintln(os.Stderr, "No businesses found. Use `ranklens business add` first.")
			return nil
		}

		formatBusinessList(os.Stdout, businesses)
		return nil
	},
}

func init() {
	businessCmd.AddCommand(businessAddCmd)
	businessCmd.AddCommand(businessListCmd)
	rootCmd.AddCommand(businessCmd)
}

func formatBusinessList(out io.Writer, businesses []model.Business) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCREATED")
	for _, b := range businesses {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Name, b.CreatedAt.Format(time.DateOnly))
	}
	_ = w.Flush()
}
