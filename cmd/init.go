package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema and seed the provider roster",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("init"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := seedProviders(ctx, st)
		if err != nil {
			return err
		}

		zap.L().Info("store initialized",
			zap.String("driver", cfg.Store.Driver),
			zap.Int("providers", n),
		)
		fmt.Printf("Initialized %s store with %d providers.\n", cfg.Store.Driver, n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
