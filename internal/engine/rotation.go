package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"alpha_premarket/internal/models"

	"github.com/shopspring/decimal"
)

type matchedRotation struct {
	detail models.RotateDetail
	reason string
}

type rotatable struct {
	symbol      string
	pos         models.Position
	momentum    float64
	holdingDays int
}

// matchRotations greedily pairs the weakest eligible holdings against the
// strongest candidates the sizer could not fund. Not a global optimum: ties
// resolve purely by the sort order below (holdings by momentum ascending with
// equal momentum keeping sorted-symbol order, candidates in rank order), which
// makes the matching deterministic for identical inputs.
func (g *Generator) matchRotations(pf models.Portfolio, in Inputs, actions []models.Action,
	momentumBySym map[string]models.MomentumRank, asOf time.Time) []matchedRotation {

	// Candidates: ADD proposals starved of cash, already strongest-first.
	var starved []*models.AddDetail
	exitSymbols := map[string]bool{}
	for i := range actions {
		switch actions[i].Kind {
		case models.ActionAdd:
			if actions[i].Add.SuggestedShares == 0 {
				starved = append(starved, actions[i].Add)
			}
		case models.ActionExit:
			exitSymbols[actions[i].Exit.Symbol] = true
		}
	}
	if len(starved) == 0 {
		return nil
	}

	// Sell side: non-core, non-favorite, not already exiting, momentum known,
	// and past the churn cooldown.
	symbols := make([]string, 0, len(pf.Positions))
	for symbol := range pf.Positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var holdings []rotatable
	for _, symbol := range symbols {
		pos := pf.Positions[symbol]
		if pos.Core || pos.Favorite || exitSymbols[symbol] {
			continue
		}
		m, ok := momentumBySym[symbol]
		if !ok {
			continue
		}
		days := pos.HoldingDays(asOf)
		if days < g.policy.MinHoldingDays {
			continue
		}
		holdings = append(holdings, rotatable{symbol: symbol, pos: pos, momentum: m.Momentum, holdingDays: days})
	}
	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].momentum < holdings[j].momentum
	})

	safety := decimal.NewFromFloat(g.policy.CashSafetyFactor)
	used := map[string]bool{}
	var matches []matchedRotation

	for _, cand := range starved {
		for _, h := range holdings {
			if used[h.symbol] {
				continue
			}
			diff := cand.Momentum - h.momentum
			if diff <= g.policy.RotateMomentumDiff {
				continue
			}

			sellPrice := in.Prices[h.symbol]
			var buyShares int64
			if cand.CurrentPrice.IsPositive() {
				buyShares = h.pos.MarketValue(sellPrice).Mul(safety).Div(cand.CurrentPrice).IntPart()
			}
			if buyShares == 0 {
				// This holding is too small to fund the buy; try the next one.
				continue
			}

			detail := models.RotateDetail{
				SellSymbol:      h.symbol,
				SellShares:      h.pos.Shares,
				SellPrice:       sellPrice,
				SellMomentum:    h.momentum,
				SellHoldingDays: h.holdingDays,
				BuySymbol:       cand.Symbol,
				BuyShares:       buyShares,
				BuyPrice:        cand.CurrentPrice,
				BuyMomentum:     cand.Momentum,
				MomentumDiff:    round1(diff),
			}
			if pnl, ok := h.pos.PnLPct(sellPrice); ok {
				detail.SellPnLPct = &pnl
			}

			matches = append(matches, matchedRotation{
				detail: detail,
				reason: fmt.Sprintf("rotate weak to strong: momentum gap %+.0f%% (held %d days)", diff, h.holdingDays),
			})
			used[h.symbol] = true
			break
		}
	}
	return matches
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
