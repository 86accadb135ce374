package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runBusinessID string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full analysis for one business",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		env, err := initAnalysis(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		handle, err := env.Orchestrator.Start(ctx, runBusinessID)
		if err != nil {
			return eris.Wrap(err, "start run")
		}
		fmt.Printf("Run %s started.\n", handle.RunID)
		zap.L().Info("waiting for run", zap.String("run_id", handle.RunID))

		// Start detaches the run from ctx, so an interrupt has to be
		// forwarded explicitly or Wait would block through Ctrl-C.
		go func() {
			<-ctx.Done()
			handle.Cancel()
		}()

		if err := handle.Wait(); err != nil {
			return eris.Wrap(err, "run")
		}

		run, err := env.Store.GetRun(ctx, handle.RunID)
		if err != nil {
			return eris.Wrap(err, "load finished run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	runCmd.Flags().StringVar(&runBusinessID, "business", "", "business ID (required)")
	_ = runCmd.MarkFlagRequired("business")
	rootCmd.AddCommand(runCmd)
}
