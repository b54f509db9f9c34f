package engine

import (
	"fmt"

	"alpha_premarket/internal/config"
	"alpha_premarket/internal/models"

	"github.com/shopspring/decimal"
)

// ExitSignal is the outcome of a triggered exit rule.
type ExitSignal struct {
	Source string // Rule identifier: fixed_stop, trailing_stop, ma200_stop, extreme_stop
	Reason string // Human-readable justification, complete on its own
}

// Refs carries the optional per-symbol reference signals rules may consult.
// A nil field means the signal is unavailable and the rule must stay silent.
type Refs struct {
	MA200 *decimal.Decimal
}

// ExitRule evaluates one exit condition for a single position. Check returns
// nil when the rule does not trigger or lacks the data to decide.
type ExitRule struct {
	Source string
	Check  func(pos models.Position, price decimal.Decimal, refs Refs) *ExitSignal
}

// ExitRules builds the priority-ordered rule list for a policy. Evaluation is
// first non-nil wins, so the order here IS the priority order:
//
//  1. primary stop (fixed from cost basis, or trailing from the high)
//  2. 200-day moving average break
//  3. extreme stop, a backstop that only fires when stale data let rule 1 slip
func ExitRules(pol config.Policy) []ExitRule {
	primary := fixedStopRule(pol.FixedStopPct)
	if pol.StopPolicy == config.StopTrailing {
		primary = trailingStopRule(pol.TrailingStopPct)
	}
	return []ExitRule{
		primary,
		ma200StopRule(),
		extremeStopRule(pol.HardStopPct),
	}
}

// EvaluateExit runs the rules in order and returns the first signal, or nil
// when the position should be held. Core positions never exit.
func EvaluateExit(rules []ExitRule, pos models.Position, price decimal.Decimal, refs Refs) *ExitSignal {
	if pos.Core {
		return nil
	}
	for _, rule := range rules {
		if sig := rule.Check(pos, price, refs); sig != nil {
			return sig
		}
	}
	return nil
}

func fixedStopRule(thresholdPct float64) ExitRule {
	return ExitRule{
		Source: "fixed_stop",
		Check: func(pos models.Position, price decimal.Decimal, _ Refs) *ExitSignal {
			pnl, ok := pos.PnLPct(price)
			if !ok || pnl > thresholdPct {
				return nil
			}
			stopPrice := pos.AvgPrice.Mul(decimal.NewFromFloat(1 + thresholdPct/100))
			return &ExitSignal{
				Source: "fixed_stop",
				Reason: fmt.Sprintf("fixed stop triggered (cost $%s, stop $%s, now %+.1f%%)",
					pos.AvgPrice.StringFixed(2), stopPrice.StringFixed(2), pnl),
			}
		},
	}
}

func trailingStopRule(thresholdPct float64) ExitRule {
	return ExitRule{
		Source: "trailing_stop",
		Check: func(pos models.Position, price decimal.Decimal, _ Refs) *ExitSignal {
			if price.IsZero() || !pos.HighSinceEntry.IsPositive() {
				return nil
			}
			decline, _ := price.Sub(pos.HighSinceEntry).Div(pos.HighSinceEntry).
				Mul(decimal.NewFromInt(100)).Round(2).Float64()
			if decline > thresholdPct {
				return nil
			}
			return &ExitSignal{
				Source: "trailing_stop",
				Reason: fmt.Sprintf("trailing stop triggered (high $%s, now $%s, %+.1f%% off the high)",
					pos.HighSinceEntry.StringFixed(2), price.StringFixed(2), decline),
			}
		},
	}
}

func ma200StopRule() ExitRule {
	return ExitRule{
		Source: "ma200_stop",
		Check: func(_ models.Position, price decimal.Decimal, refs Refs) *ExitSignal {
			if price.IsZero() || refs.MA200 == nil || !refs.MA200.IsPositive() {
				return nil
			}
			if price.GreaterThanOrEqual(*refs.MA200) {
				return nil
			}
			below, _ := price.Sub(*refs.MA200).Div(*refs.MA200).
				Mul(decimal.NewFromInt(100)).Round(2).Float64()
			return &ExitSignal{
				Source: "ma200_stop",
				Reason: fmt.Sprintf("closed below the 200-day MA ($%s, %.1f%% below)",
					refs.MA200.StringFixed(2), below),
			}
		},
	}
}

// extremeStopRule should be unreachable when the primary stop fires at a less
// negative threshold. It exists for runs where stale or missing data let the
// primary rule skip.
func extremeStopRule(thresholdPct float64) ExitRule {
	return ExitRule{
		Source: "extreme_stop",
		Check: func(pos models.Position, price decimal.Decimal, _ Refs) *ExitSignal {
			pnl, ok := pos.PnLPct(price)
			if !ok || pnl > thresholdPct {
				return nil
			}
			return &ExitSignal{
				Source: "extreme_stop",
				Reason: fmt.Sprintf("extreme stop triggered (%+.1f%% from cost)", pnl),
			}
		},
	}
}
