package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func reprocessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess",
		Short: "Run one scheduler tick over documents still in ai_processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.wire(ctx, prometheus.NewRegistry()); err != nil {
				return err
			}

			res, err := a.scheduler.Tick(ctx)
			if err != nil {
				return fmt.Errorf("reprocess tick: %w", err)
			}
			a.logger.Info("reprocess finished",
				zap.String("event", "reprocess.done"),
				zap.Int("scanned", res.Scanned),
				zap.Int("succeeded", res.Succeeded),
				zap.Int("failed", res.Failed),
				zap.Int("skipped", res.Skipped),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d succeeded=%d failed=%d skipped=%d\n",
				res.Scanned, res.Succeeded, res.Failed, res.Skipped)
			return nil
		},
	}
}
