package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/filippefrulli/ranklens-sub000/internal/schedule"
)

var scheduleCron string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run recurring analyses on a cron cadence",
	Long:  "Starts a long-lived process that sweeps every tracked business on each cron tick, skipping businesses that still have a run in flight.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("schedule"); err != nil {
			return err
		}

		env, err := initAnalysis(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		spec := scheduleCron
		if spec == "" {
			spec = cfg.Schedule.Cron
		}

		s := schedule.New(env.Store, env.Orchestrator, spec)
		if err := s.Start(ctx); err != nil {
			return err
		}
		defer s.Stop()

		<-ctx.Done()
		zap.L().Info("shutting down scheduler")
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron spec (default from config)")
	rootCmd.AddCommand(scheduleCmd)
}
