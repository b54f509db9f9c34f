package main

import (
	"fmt"
	"log"
	"sort"
	"time"

	"alpha_premarket/internal/config"
	"alpha_premarket/internal/market"
	"alpha_premarket/internal/market/alpaca"
	"alpha_premarket/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	snapshotYear  int
	snapshotForce bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Freeze the portfolio's start-of-year value for yearly P&L",
	Long: `Values every held position at its first close of the year and saves the
baseline that yearly P&L in the morning report is measured against.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.CheckMarketCredentials(); err != nil {
			return err
		}

		year := snapshotYear
		if year == 0 {
			year = time.Now().In(config.NYLoc).Year()
		}

		if existing, err := repo.LoadSnapshot(year); err != nil {
			return err
		} else if existing != nil && !snapshotForce {
			return fmt.Errorf("snapshot for %d already exists (use --force to rebuild)", year)
		}

		pf, err := repo.LoadPortfolio()
		if err != nil {
			return fmt.Errorf("loading portfolio: %w", err)
		}

		symbols := make([]string, 0, len(pf.Positions))
		for sym := range pf.Positions {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)

		provider := alpaca.NewProvider()
		fmt.Printf("Fetching start-of-%d prices for %d symbols...\n", year, len(symbols))
		prices := make(map[string]decimal.Decimal, len(symbols))
		for _, sym := range symbols {
			price, ok := yearOpenClose(provider, sym, year)
			if !ok {
				log.Printf("WARN: %s has no price for %d yet, using cost basis", sym, year)
				continue
			}
			prices[sym] = price
		}

		snap := storage.BuildYearSnapshot(pf, prices, year)
		if err := repo.SaveSnapshot(snap); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}

		fmt.Printf("\nSnapshot %d:\n", year)
		fmt.Printf("  Date:        %s\n", snap.Date)
		fmt.Printf("  Total value: $%s\n", snap.TotalValue.StringFixed(2))
		fmt.Printf("  Positions:   %d\n", len(snap.Positions))
		return nil
	},
}

func init() {
	snapshotCmd.Flags().IntVar(&snapshotYear, "year", 0, "snapshot year (default current)")
	snapshotCmd.Flags().BoolVar(&snapshotForce, "force", false, "rebuild an existing snapshot")
}

// yearOpenClose returns the first daily close of the given year. The bar
// request spans back to late December of the prior year, so the first bar
// dated in the target year is the first session.
func yearOpenClose(provider market.MarketProvider, symbol string, year int) (decimal.Decimal, bool) {
	elapsed := int(time.Since(time.Date(year, 1, 1, 0, 0, 0, 0, config.NYLoc)).Hours() / 24)
	tradingDays := elapsed*5/7 + 5

	bars, err := provider.GetBars(symbol, tradingDays)
	if err != nil {
		log.Printf("WARN: fetching bars for %s: %v", symbol, err)
		return decimal.Zero, false
	}
	for _, b := range bars {
		if b.Time.In(config.NYLoc).Year() == year {
			return b.Close, true
		}
	}
	return decimal.Zero, false
}
