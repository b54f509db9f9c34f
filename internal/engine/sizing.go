package engine

import (
	"fmt"

	"alpha_premarket/internal/models"

	"github.com/shopspring/decimal"
)

type sizedAdd struct {
	detail models.AddDetail
	reason string
}

// sizeCandidates splits projected cash evenly across the strongest candidates,
// capped at the policy's per-run slot count, and floors each allocation to
// whole shares. Candidates whose allocation rounds to zero (or whose price is
// unknown) are still emitted: the rotation matcher feeds on them.
func (g *Generator) sizeCandidates(candidates []models.MomentumRank, slots int, projectedCash decimal.Decimal, in Inputs) []sizedAdd {
	numToAdd := g.policy.MaxNewPositions
	if slots < numToAdd {
		numToAdd = slots
	}
	if len(candidates) < numToAdd {
		numToAdd = len(candidates)
	}
	if numToAdd <= 0 {
		return nil
	}

	perSlot := decimal.Zero
	if projectedCash.IsPositive() {
		perSlot = projectedCash.Div(decimal.NewFromInt(int64(numToAdd)))
	}

	adds := make([]sizedAdd, 0, numToAdd)
	for _, m := range candidates[:numToAdd] {
		price := in.Prices[m.Symbol]

		var shares int64
		if price.IsPositive() && perSlot.IsPositive() {
			shares = perSlot.Div(price).IntPart()
		}

		reason := fmt.Sprintf("momentum rank #%d (%+.1f%%)", m.Rank, m.Momentum)
		if shares == 0 {
			reason += " (insufficient cash)"
		}
		if m.RSI != nil {
			switch rsi := *m.RSI; {
			case rsi >= g.policy.RSIExtreme:
				reason += fmt.Sprintf(", RSI %.0f extreme overbought", rsi)
			case rsi >= g.policy.RSIOverbought:
				reason += fmt.Sprintf(", RSI %.0f overbought", rsi)
			}
		}

		detail := models.AddDetail{
			Symbol:          m.Symbol,
			SuggestedShares: shares,
			CurrentPrice:    price,
			Momentum:        m.Momentum,
			MomentumRank:    m.Rank,
			RSI:             m.RSI,
		}
		if a, ok := in.Alpha1Y[m.Symbol]; ok {
			av := a
			detail.Alpha1Y = &av
			if a < g.policy.AlphaWarnPct {
				reason += fmt.Sprintf(", lagging the benchmark %.0f%% over 1Y", a)
			}
		}

		adds = append(adds, sizedAdd{detail: detail, reason: reason})
	}
	return adds
}
