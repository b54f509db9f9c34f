package main

import (
	"fmt"
	"os"

	"alpha_premarket/internal/config"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	initCash      string
	initWatchlist []string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directory, portfolio file and policy file",
	RunE: func(cmd *cobra.Command, args []string) error {
		pf, err := repo.LoadPortfolio()
		if err != nil {
			return fmt.Errorf("creating portfolio: %w", err)
		}

		if initCash != "" {
			cash, err := decimal.NewFromString(initCash)
			if err != nil || cash.IsNegative() {
				return fmt.Errorf("invalid cash amount %q", initCash)
			}
			if len(pf.Positions) > 0 || len(pf.Transactions) > 0 {
				return fmt.Errorf("portfolio already has activity, refusing to reset cash")
			}
			pf.Cash = cash
			if err := repo.SavePortfolio(pf); err != nil {
				return fmt.Errorf("saving portfolio: %w", err)
			}
		}

		if len(initWatchlist) > 0 {
			wl, err := repo.LoadWatchlist()
			if err != nil {
				return fmt.Errorf("loading watchlist: %w", err)
			}
			added := wl.Add(initWatchlist...)
			if err := repo.SaveWatchlist(wl); err != nil {
				return fmt.Errorf("saving watchlist: %w", err)
			}
			fmt.Printf("Watchlist: %d added, %d total\n", added, len(wl.Symbols))
		}

		if _, err := os.Stat(cfg.PolicyFile); os.IsNotExist(err) {
			if err := config.SavePolicy(cfg.PolicyFile, policy); err != nil {
				return fmt.Errorf("writing %s: %w", cfg.PolicyFile, err)
			}
			fmt.Printf("Wrote default strategy parameters to %s\n", cfg.PolicyFile)
		}

		fmt.Printf("Initialized %s\n", cfg.DataDir)
		fmt.Printf("  Cash:      $%s\n", pf.Cash.StringFixed(2))
		fmt.Printf("  Positions: %d\n", len(pf.Positions))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initCash, "cash", "", "starting cash for a fresh portfolio")
	initCmd.Flags().StringSliceVar(&initWatchlist, "watchlist", nil, "symbols to always scan (comma separated)")
}
