package models

import "github.com/shopspring/decimal"

// ActionKind discriminates the four proposal variants.
type ActionKind string

const (
	ActionHold   ActionKind = "HOLD"
	ActionExit   ActionKind = "EXIT"
	ActionAdd    ActionKind = "ADD"
	ActionRotate ActionKind = "ROTATE"
)

// ActionStatus tracks the confirmation lifecycle of a proposal.
type ActionStatus string

const (
	StatusPending   ActionStatus = "pending"
	StatusConfirmed ActionStatus = "confirmed"
	StatusSkipped   ActionStatus = "skipped"
	StatusAuto      ActionStatus = "auto" // No human confirmation required
)

// Action is one proposed (or confirmed) instruction. Exactly one of the
// variant payloads is non-nil, matching Kind. The ID is unique within a run
// and stable across the read-modify-write confirmation cycle.
type Action struct {
	ID          int          `json:"id"`
	Kind        ActionKind   `json:"action"`
	Status      ActionStatus `json:"status"`
	Source      string       `json:"source,omitempty"` // Which rule produced it (fixed_stop, ma200_stop, ...)
	Reason      string       `json:"reason"`
	ConfirmDate string       `json:"confirm_date,omitempty"`

	// Human overrides recorded at confirmation time. When set they replace
	// the suggested share count / current price during apply.
	ActualShares *int64           `json:"actual_shares,omitempty"`
	ActualPrice  *decimal.Decimal `json:"actual_price,omitempty"`

	Hold   *HoldingDetail `json:"hold,omitempty"`
	Exit   *HoldingDetail `json:"exit,omitempty"`
	Add    *AddDetail     `json:"add,omitempty"`
	Rotate *RotateDetail  `json:"rotate,omitempty"`
}

// HoldingDetail carries the per-position context shared by HOLD and EXIT.
type HoldingDetail struct {
	Symbol         string          `json:"symbol"`
	Shares         int64           `json:"shares"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	AvgPrice       decimal.Decimal `json:"avg_price"`
	HighSinceEntry decimal.Decimal `json:"high_since_entry,omitempty"`
	PnLPct         *float64        `json:"pnl_pct,omitempty"`
	Momentum       *float64        `json:"momentum,omitempty"`
	MomentumRank   int             `json:"momentum_rank,omitempty"`
	Alpha1Y        *float64        `json:"alpha_1y,omitempty"`
}

// AddDetail describes a new-entry candidate sized against projected cash.
type AddDetail struct {
	Symbol          string          `json:"symbol"`
	SuggestedShares int64           `json:"suggested_shares"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	Momentum        float64         `json:"momentum"`
	MomentumRank    int             `json:"momentum_rank"`
	RSI             *float64        `json:"rsi,omitempty"`
	Alpha1Y         *float64        `json:"alpha_1y,omitempty"`
	Sentiment       *float64        `json:"sentiment,omitempty"`
}

// RotateDetail pairs a weak holding against a stronger unfunded candidate.
type RotateDetail struct {
	SellSymbol      string          `json:"sell_symbol"`
	SellShares      int64           `json:"sell_shares"`
	SellPrice       decimal.Decimal `json:"sell_price"`
	SellMomentum    float64         `json:"sell_momentum"`
	SellPnLPct      *float64        `json:"sell_pnl_pct,omitempty"`
	SellHoldingDays int             `json:"sell_holding_days"`
	BuySymbol       string          `json:"buy_symbol"`
	BuyShares       int64           `json:"buy_shares"`
	BuyPrice        decimal.Decimal `json:"buy_price"`
	BuyMomentum     float64         `json:"buy_momentum"`
	MomentumDiff    float64         `json:"momentum_diff"`
}

// Symbol returns the action's primary symbol (the sell leg for rotations).
func (a Action) Symbol() string {
	switch a.Kind {
	case ActionHold:
		return a.Hold.Symbol
	case ActionExit:
		return a.Exit.Symbol
	case ActionAdd:
		return a.Add.Symbol
	case ActionRotate:
		return a.Rotate.SellSymbol
	}
	return ""
}

// RunSnapshot summarizes the portfolio at generation time, for the report
// header and the actions file.
type RunSnapshot struct {
	TotalValue      decimal.Decimal `json:"total_value"`
	Cash            decimal.Decimal `json:"cash"`
	PositionCount   int             `json:"position_count"`
	IndividualCount int             `json:"individual_count"`
}

// ActionRun is the persisted output of one pre-market run.
type ActionRun struct {
	RunID       string      `json:"run_id"`
	Date        string      `json:"date"`
	GeneratedAt string      `json:"generated_at"`
	Version     string      `json:"version"`
	Snapshot    RunSnapshot `json:"portfolio_snapshot"`
	Actions     []Action    `json:"actions"`
}

// Pending returns the actions still awaiting a human decision.
func (r ActionRun) Pending() []Action {
	var out []Action
	for _, a := range r.Actions {
		if a.Status == StatusPending {
			out = append(out, a)
		}
	}
	return out
}
