// Package engine is the pre-market decision core: it classifies holdings into
// HOLD or EXIT, sizes new momentum candidates against projected cash, proposes
// rotations when cash is short, and applies the human-confirmed subset back to
// the portfolio. It performs no I/O; callers hand it an already-materialized
// snapshot of prices and signals.
package engine

import (
	"fmt"
	"sort"
	"time"

	"alpha_premarket/internal/config"
	"alpha_premarket/internal/models"

	"github.com/shopspring/decimal"
)

// Version identifies the decision logic in persisted action files.
const Version = "0.7.0"

// Inputs is the externally-fetched signal snapshot for one run. Absent map
// entries mean "signal unavailable" and are never an error.
type Inputs struct {
	Prices  map[string]decimal.Decimal
	MA200   map[string]decimal.Decimal
	Ranks   []models.MomentumRank
	Alpha1Y map[string]float64
}

// Generator produces the action list for one run. It holds no state between
// runs; determinism comes from iterating holdings in sorted-symbol order.
type Generator struct {
	policy config.Policy
	rules  []ExitRule
}

// NewGenerator compiles the policy into an exit-rule chain.
func NewGenerator(pol config.Policy) *Generator {
	return &Generator{policy: pol, rules: ExitRules(pol)}
}

// Generate runs the full pipeline: exit evaluation, HOLD/EXIT classification,
// candidate selection, sizing, rotation. asOf anchors holding-day math so two
// runs over identical inputs emit identical actions.
//
// A position that fails validation aborts the run: it signals corruption of
// the authoritative store and nothing derived from it may be trusted.
func (g *Generator) Generate(pf models.Portfolio, in Inputs, asOf time.Time) ([]models.Action, error) {
	symbols := make([]string, 0, len(pf.Positions))
	for symbol := range pf.Positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		if err := pf.Positions[symbol].Validate(symbol); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
	}

	momentumBySym := make(map[string]models.MomentumRank, len(in.Ranks))
	for _, m := range in.Ranks {
		momentumBySym[m.Symbol] = m
	}

	var actions []models.Action
	nextID := 0
	newAction := func(kind models.ActionKind, status models.ActionStatus, source, reason string) models.Action {
		nextID++
		return models.Action{ID: nextID, Kind: kind, Status: status, Source: source, Reason: reason}
	}

	// Holdings first: exit proceeds fund the sizing below.
	exitSymbols := map[string]bool{}
	exitProceeds := decimal.Zero
	for _, symbol := range symbols {
		pos := pf.Positions[symbol]
		price := in.Prices[symbol]
		detail := g.holdingDetail(symbol, pos, price, momentumBySym, in.Alpha1Y)

		if pos.Core {
			a := newAction(models.ActionHold, models.StatusAuto, "core_hold", "core holding")
			a.Hold = detail
			actions = append(actions, a)
			continue
		}

		if sig := EvaluateExit(g.rules, pos, price, g.refsFor(symbol, in)); sig != nil {
			a := newAction(models.ActionExit, models.StatusPending, sig.Source, sig.Reason)
			a.Exit = detail
			actions = append(actions, a)
			exitSymbols[symbol] = true
			exitProceeds = exitProceeds.Add(pos.MarketValue(price))
			continue
		}

		a := newAction(models.ActionHold, models.StatusAuto, "momentum", holdReason(detail.Momentum))
		a.Hold = detail
		actions = append(actions, a)
	}

	// New candidates, sized against cash plus discounted exit proceeds.
	safety := decimal.NewFromFloat(g.policy.CashSafetyFactor)
	projectedCash := pf.Cash.Add(exitProceeds.Mul(safety))

	slots := g.policy.MaxPositions - pf.IndividualCount()
	if slots < 0 {
		slots = 0
	}
	slots += len(exitSymbols)

	var candidates []models.MomentumRank
	if slots > 0 {
		for _, m := range in.Ranks {
			if m.Momentum <= 0 {
				continue
			}
			if _, held := pf.Positions[m.Symbol]; held {
				continue
			}
			candidates = append(candidates, m)
		}
	}

	adds := g.sizeCandidates(candidates, slots, projectedCash, in)
	for i := range adds {
		a := newAction(models.ActionAdd, models.StatusPending, "momentum", adds[i].reason)
		a.Add = &adds[i].detail
		actions = append(actions, a)
	}

	// Rotation last: it only activates for candidates the sizer could not fund.
	for _, rot := range g.matchRotations(pf, in, actions, momentumBySym, asOf) {
		a := newAction(models.ActionRotate, models.StatusPending, "rotate", rot.reason)
		a.Rotate = &rot.detail
		actions = append(actions, a)
	}

	return actions, nil
}

// Snapshot summarizes the portfolio with the run's prices, for the report
// header and the persisted run file.
func (g *Generator) Snapshot(pf models.Portfolio, in Inputs) models.RunSnapshot {
	return models.RunSnapshot{
		TotalValue:      pf.TotalValue(in.Prices).Round(2),
		Cash:            pf.Cash,
		PositionCount:   len(pf.Positions),
		IndividualCount: pf.IndividualCount(),
	}
}

func (g *Generator) refsFor(symbol string, in Inputs) Refs {
	var refs Refs
	if ma, ok := in.MA200[symbol]; ok {
		refs.MA200 = &ma
	}
	return refs
}

func (g *Generator) holdingDetail(symbol string, pos models.Position, price decimal.Decimal,
	momentumBySym map[string]models.MomentumRank, alpha map[string]float64) *models.HoldingDetail {

	detail := &models.HoldingDetail{
		Symbol:         symbol,
		Shares:         pos.Shares,
		CurrentPrice:   price,
		AvgPrice:       pos.AvgPrice,
		HighSinceEntry: pos.HighSinceEntry,
	}
	if pnl, ok := pos.PnLPct(price); ok {
		detail.PnLPct = &pnl
	}
	if m, ok := momentumBySym[symbol]; ok {
		mom := m.Momentum
		detail.Momentum = &mom
		detail.MomentumRank = m.Rank
	}
	if a, ok := alpha[symbol]; ok {
		av := a
		detail.Alpha1Y = &av
	}
	return detail
}

// holdReason buckets a holding by its momentum so the report reads at a glance.
func holdReason(momentum *float64) string {
	if momentum == nil {
		return "holding"
	}
	switch m := *momentum; {
	case m > 10:
		return fmt.Sprintf("holding, strong momentum (%+.1f%%)", m)
	case m > 0:
		return fmt.Sprintf("holding, positive momentum (%+.1f%%)", m)
	default:
		return fmt.Sprintf("holding, weak momentum (%+.1f%%)", m)
	}
}
