package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"alpha_premarket/internal/market/alpaca"
	"alpha_premarket/internal/watch"

	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor held positions for intraday stop triggers",
	Long: `Polls prices during market hours and sends a Telegram alert when a held
position breaches a stop rule. Alerts are informational; act on them through
your broker and record the trade with 'premarket confirm' the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.CheckMarketCredentials(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching positions every %s (Ctrl-C to stop)\n", watchInterval)
		m := watch.NewMonitor(alpaca.NewProvider(), repo, policy, watchInterval)
		if err := m.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Minute, "poll interval")
}
