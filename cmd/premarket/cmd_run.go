package main

import (
	"fmt"
	"log"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"alpha_premarket/internal/ai"
	"alpha_premarket/internal/config"
	"alpha_premarket/internal/engine"
	"alpha_premarket/internal/market"
	"alpha_premarket/internal/market/alpaca"
	"alpha_premarket/internal/models"
	"alpha_premarket/internal/notify"
	"alpha_premarket/internal/report"
	"alpha_premarket/internal/storage"
	"alpha_premarket/internal/universe"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	runNotify    bool
	runSentiment bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate today's action suggestions",
	Long: `Scans held positions plus the top S&P 500 names, evaluates stop rules
and momentum ranks, and writes the day's action file. Nothing is traded;
run 'premarket confirm' after you have placed the orders yourself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.CheckMarketCredentials(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		asOf := time.Now().In(config.NYLoc)
		log.Printf("Premarket run %s starting (%s)", engine.Version, asOf.Format(models.DateLayout))

		pf, err := repo.LoadPortfolio()
		if err != nil {
			return fmt.Errorf("loading portfolio: %w", err)
		}
		wl, err := repo.LoadWatchlist()
		if err != nil {
			return fmt.Errorf("loading watchlist: %w", err)
		}

		held := make([]string, 0, len(pf.Positions))
		for sym := range pf.Positions {
			held = append(held, sym)
		}
		sort.Strings(held)

		constituents, err := universe.NewWikipediaFetcher().SP500()
		if err != nil {
			// Held names and the watchlist still get scanned, so a
			// Wikipedia outage degrades the run instead of killing it.
			log.Printf("WARN: S&P 500 fetch failed, scanning holdings and watchlist only: %v", err)
		}
		symbols := universe.Build(constituents, cfg.UniverseSize, wl, held)
		log.Printf("Universe: %d symbols (%d held)", len(symbols), len(held))

		fetcher := market.NewSignalFetcher(alpaca.NewProvider(), cfg, policy)
		in, err := fetcher.Fetch(ctx, symbols)
		if err != nil {
			return fmt.Errorf("fetching signals: %w", err)
		}

		gen := engine.NewGenerator(policy)
		actions, err := gen.Generate(pf, in, asOf)
		if err != nil {
			return fmt.Errorf("generating actions: %w", err)
		}

		run := models.ActionRun{
			RunID:       uuid.NewString(),
			Date:        asOf.Format(models.DateLayout),
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Version:     engine.Version,
			Snapshot:    gen.Snapshot(pf, in),
			Actions:     actions,
		}

		var sentiment map[string]ai.Sentiment
		if runSentiment {
			sentiment = annotateSentiment(&run)
		}

		if err := repo.SaveRun(run); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}

		// Raise stored highs from today's prices. This is state upkeep,
		// not trading; the single confirmed-trade mutation path stays in
		// the confirm command.
		if engine.ObserveHighs(&pf, in.Prices) {
			if err := repo.SavePortfolio(pf); err != nil {
				return fmt.Errorf("saving portfolio: %w", err)
			}
		}

		snap, err := repo.LoadSnapshot(asOf.Year())
		if err != nil {
			log.Printf("WARN: loading year snapshot: %v", err)
		}

		text := report.Render(&run, report.Options{
			MaxPositions: policy.MaxPositions,
			YearlyPnL:    storage.CalcYearlyPnL(run.Snapshot.TotalValue, snap),
			Sentiment:    sentiment,
		})
		fmt.Print(text)

		if runNotify {
			notify.Notify(text)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNotify, "notify", false, "send the report to Telegram")
	runCmd.Flags().BoolVar(&runSentiment, "sentiment", false, "score add candidates' news with Gemini")
}

// annotateSentiment attaches a news score to each add candidate and returns
// the full verdicts for the report. Scores are advisory; they never change
// which actions were generated.
func annotateSentiment(run *models.ActionRun) map[string]ai.Sentiment {
	client := ai.NewClient()
	if !client.Enabled() {
		return nil
	}

	headlines := make(map[string][]string)
	for _, a := range run.Actions {
		if a.Kind == models.ActionAdd {
			headlines[a.Add.Symbol] = ai.FetchHeadlines(a.Add.Symbol, 5)
		}
	}
	if len(headlines) == 0 {
		return nil
	}

	verdicts := client.AnalyzeSentiment(headlines)
	for i := range run.Actions {
		a := &run.Actions[i]
		if a.Kind != models.ActionAdd {
			continue
		}
		if v, ok := verdicts[a.Add.Symbol]; ok {
			score := v.Score
			a.Add.Sentiment = &score
		}
	}
	return verdicts
}
