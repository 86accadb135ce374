package main

import (
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run analyses for every tracked business",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		env, err := initAnalysis(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		businesses, err := env.Store.ListBusinesses(ctx)
		if err != nil {
			return eris.Wrap(err, "list businesses")
		}
		if len(businesses) == 0 {
			zap.L().Info("no businesses to analyze")
			return nil
		}

		concurrency := cfg.Batch.MaxConcurrentBusinesses
		zap.L().Info("processing batch",
			zap.Int("businesses", len(businesses)),
			zap.Int("concurrency", concurrency),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		var succeeded, failed atomic.Int64

		for _, b := range businesses {
			g.Go(func() error {
				log := zap.L().With(zap.String("business_id", b.ID), zap.String("business", b.Name))

				handle, err := env.Orchestrator.Start(gctx, b.ID)
				if err != nil {
					failed.Add(1)
					log.Error("start run failed", zap.Error(err))
					return nil // don't abort batch on individual failure
				}
				if err := handle.Wait(); err != nil {
					failed.Add(1)
					log.Error("run failed", zap.String("run_id", handle.RunID), zap.Error(err))
					return nil
				}

				succeeded.Add(1)
				log.Info("run complete", zap.String("run_id", handle.RunID))
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch processing")
		}

		zap.L().Info("batch complete",
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
