package main

import (
	"fmt"

	"alpha_premarket/internal/config"
	"alpha_premarket/internal/engine"
	"alpha_premarket/internal/logger"
	"alpha_premarket/internal/storage"

	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	policy config.Policy
	repo   *storage.Repository
)

var rootCmd = &cobra.Command{
	Use:   "premarket",
	Short: "Daily pre-market decision engine for a long-only stock portfolio",
	Long: `premarket generates a morning action list (HOLD / EXIT / ADD / ROTATE)
from momentum signals and stop rules, then applies the actions you confirm
after placing the trades yourself. It never talks to a broker's order API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		logger.Setup("logs", cfg.LogLevel, cfg.MaxLogSizeMB, cfg.MaxLogBackups)

		var err error
		policy, err = config.LoadPolicy(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("loading policy: %w", err)
		}

		repo, err = storage.NewRepository(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("opening data dir: %w", err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("premarket %s\n", engine.Version)
		fmt.Println("Use 'premarket run' before the open, 'premarket confirm' after trading.")
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(snapshotCmd)
}
