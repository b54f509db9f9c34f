// Package watch polls held positions during market hours and alerts when a
// stop rule trips intraday, ahead of the next morning's full run. It only
// observes and notifies; selling still goes through the confirm flow.
package watch

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"alpha_premarket/internal/config"
	"alpha_premarket/internal/engine"
	"alpha_premarket/internal/market"
	"alpha_premarket/internal/notify"
	"alpha_premarket/internal/storage"

	"github.com/shopspring/decimal"
)

// alertCooldown suppresses repeat alerts for the same symbol so a price
// hovering at the stop does not spam the chat every poll.
const alertCooldown = 30 * time.Minute

type Monitor struct {
	provider market.MarketProvider
	repo     *storage.Repository
	rules    []engine.ExitRule
	interval time.Duration

	lastAlerts map[string]time.Time
	wasOpen    bool
}

func NewMonitor(provider market.MarketProvider, repo *storage.Repository, pol config.Policy, interval time.Duration) *Monitor {
	return &Monitor{
		provider:   provider,
		repo:       repo,
		rules:      engine.ExitRules(pol),
		interval:   interval,
		lastAlerts: make(map[string]time.Time),
	}
}

// Run polls until the context is cancelled. The first poll happens
// immediately so a restart mid-session re-checks every position.
func (m *Monitor) Run(ctx context.Context) error {
	m.poll()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Watch loop stopping")
			return ctx.Err()
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *Monitor) poll() {
	clock, err := m.provider.GetClock()
	if err != nil {
		log.Printf("ERROR: fetching market clock: %v", err)
		return
	}

	if !clock.IsOpen {
		if m.wasOpen {
			log.Println("Market closed, pausing position checks")
		}
		m.wasOpen = false
		return
	}
	if !m.wasOpen {
		log.Printf("Market open, checking positions every %s", m.interval)
	}
	m.wasOpen = true

	// Reload each poll so confirmed trades from a parallel confirm
	// session are picked up.
	pf, err := m.repo.LoadPortfolio()
	if err != nil {
		log.Printf("ERROR: loading portfolio: %v", err)
		return
	}

	symbols := make([]string, 0, len(pf.Positions))
	for sym := range pf.Positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	prices := make(map[string]decimal.Decimal, len(symbols))
	var triggered []string
	for _, sym := range symbols {
		pos := pf.Positions[sym]

		price, err := m.provider.GetPrice(sym)
		if err != nil {
			log.Printf("ERROR: fetching price for %s: %v", sym, err)
			continue
		}
		prices[sym] = price

		// Intraday checks run without daily bars, so the MA200 rule
		// stays silent here and is left to the morning run.
		sig := engine.EvaluateExit(m.rules, pos, price, engine.Refs{})
		if sig == nil {
			continue
		}

		if last, ok := m.lastAlerts[sym]; ok && time.Since(last) < alertCooldown {
			continue
		}
		m.lastAlerts[sym] = time.Now()
		log.Printf("[%s] stop triggered intraday: %s", sym, sig.Reason)
		triggered = append(triggered, fmt.Sprintf("%s @ $%s: %s", sym, price.StringFixed(2), sig.Reason))
	}

	if engine.ObserveHighs(&pf, prices) {
		if err := m.repo.SavePortfolio(pf); err != nil {
			log.Printf("ERROR: saving portfolio highs: %v", err)
		}
	}

	if len(triggered) > 0 {
		notify.Notify(fmt.Sprintf("*INTRADAY STOP ALERT*\n%s\nReview before next premarket run.",
			strings.Join(triggered, "\n")))
	}
}
