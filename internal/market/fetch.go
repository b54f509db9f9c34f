package market

import (
	"context"
	"log"
	"sync"

	"alpha_premarket/internal/config"
	"alpha_premarket/internal/engine"
	"alpha_premarket/internal/models"
	"alpha_premarket/internal/momentum"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// SignalFetcher fans out over the candidate universe with a bounded worker
// pool and collects the per-symbol signals the decision engine consumes. A
// symbol whose fetch fails is simply absent from the result maps; the engine
// treats absence as "signal unavailable", never as a reason to abort the run.
type SignalFetcher struct {
	provider  MarketProvider
	policy    config.Policy
	benchmark string
	workers   int
	limiter   *rate.Limiter
}

// NewSignalFetcher builds a fetcher from process config and strategy policy.
func NewSignalFetcher(provider MarketProvider, cfg *config.Config, pol config.Policy) *SignalFetcher {
	workers := cfg.FetchWorkers
	if workers < 1 {
		workers = 1
	}
	perSec := cfg.FetchPerSec
	if perSec <= 0 {
		perSec = 5
	}
	return &SignalFetcher{
		provider:  provider,
		policy:    pol,
		benchmark: cfg.Benchmark,
		workers:   workers,
		limiter:   rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

// historyDays covers the 200-day MA, the momentum lookback and the 1Y alpha
// window, with slack for holidays.
const historyDays = 270

type symbolData struct {
	price decimal.Decimal
	bars  []models.Bar
}

// Fetch gathers prices and daily history for every symbol and assembles the
// engine inputs. The symbols slice order is preserved into the momentum
// ranking, making tie-breaks deterministic.
func (f *SignalFetcher) Fetch(ctx context.Context, symbols []string) (engine.Inputs, error) {
	in := engine.Inputs{
		Prices:  map[string]decimal.Decimal{},
		MA200:   map[string]decimal.Decimal{},
		Alpha1Y: map[string]float64{},
	}

	jobs := make(chan string)
	results := make(map[string]symbolData, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				data, ok := f.fetchOne(ctx, symbol)
				if !ok {
					continue
				}
				mu.Lock()
				results[symbol] = data
				mu.Unlock()
			}
		}()
	}

	// Benchmark history rides along with the pool.
	all := append([]string{f.benchmark}, symbols...)
	for _, symbol := range all {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return in, ctx.Err()
		case jobs <- symbol:
		}
	}
	close(jobs)
	wg.Wait()

	// A cancellation mid-pool leaves partial results; surface it instead
	// of generating actions from a half-fetched universe.
	if err := ctx.Err(); err != nil {
		return in, err
	}

	benchCloses := momentum.Closes(results[f.benchmark].bars)

	history := make(map[string][]models.Bar, len(results))
	for _, symbol := range symbols {
		data, ok := results[symbol]
		if !ok {
			continue
		}
		if data.price.IsPositive() {
			in.Prices[symbol] = data.price
		}
		history[symbol] = data.bars

		closes := momentum.Closes(data.bars)
		if ma, ok := momentum.SMA(closes, 200); ok {
			in.MA200[symbol] = decimal.NewFromFloat(ma)
		}
		if alpha, ok := momentum.Alpha1Y(closes, benchCloses); ok {
			in.Alpha1Y[symbol] = alpha
		}
	}

	in.Ranks = momentum.Rank(symbols, history, f.policy.MomentumPeriod, f.policy.RSIPeriod)
	return in, nil
}

// fetchOne pulls the latest trade and daily history for a symbol. Failures
// are logged and swallowed: a missing symbol must never sink the run.
func (f *SignalFetcher) fetchOne(ctx context.Context, symbol string) (symbolData, bool) {
	var data symbolData

	if err := f.limiter.Wait(ctx); err != nil {
		return data, false
	}
	price, err := f.provider.GetPrice(symbol)
	if err != nil {
		log.Printf("WARN: price fetch failed for %s: %v", symbol, err)
	} else {
		data.price = price
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return data, false
	}
	bars, err := f.provider.GetBars(symbol, historyDays)
	if err != nil {
		log.Printf("WARN: history fetch failed for %s: %v", symbol, err)
	} else {
		data.bars = bars
	}

	// Fall back to the last close when the latest trade is unavailable
	// (pre-market runs against feeds without extended-hours trades).
	if data.price.IsZero() && len(data.bars) > 0 {
		data.price = data.bars[len(data.bars)-1].Close
	}

	return data, data.price.IsPositive() || len(data.bars) > 0
}
