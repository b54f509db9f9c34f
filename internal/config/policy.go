package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StopPolicy selects the primary exit rule. Fixed (loss from cost basis)
// outperformed trailing in backtests, but both remain available.
type StopPolicy string

const (
	StopFixed    StopPolicy = "fixed"
	StopTrailing StopPolicy = "trailing"
)

// Policy holds the strategy parameters. They ship with working defaults and
// can be overridden per deployment from a small YAML file.
type Policy struct {
	StopPolicy      StopPolicy `yaml:"stop_policy"`
	FixedStopPct    float64    `yaml:"fixed_stop_pct"`    // Primary stop vs cost basis, e.g. -15
	TrailingStopPct float64    `yaml:"trailing_stop_pct"` // Decline from high since entry, e.g. -15
	HardStopPct     float64    `yaml:"hard_stop_pct"`     // Defensive backstop, e.g. -35

	MomentumPeriod int     `yaml:"momentum_period"` // Lookback in trading days
	RSIPeriod      int     `yaml:"rsi_period"`
	RSIOverbought  float64 `yaml:"rsi_overbought"`
	RSIExtreme     float64 `yaml:"rsi_extreme"`

	MaxPositions     int     `yaml:"max_positions"`      // Non-core position limit
	MaxNewPositions  int     `yaml:"max_new_positions"`  // ADD slots per run
	CashSafetyFactor float64 `yaml:"cash_safety_factor"` // Haircut on projected exit proceeds

	RotateMomentumDiff float64 `yaml:"rotate_momentum_diff"` // Minimum gap in percentage points
	MinHoldingDays     int     `yaml:"min_holding_days"`     // Churn cooldown before rotation

	AlphaWarnPct float64 `yaml:"alpha_warn_pct"` // 1Y underperformance warning threshold
}

// DefaultPolicy returns the backtest-validated parameter set.
func DefaultPolicy() Policy {
	return Policy{
		StopPolicy:         StopFixed,
		FixedStopPct:       -15,
		TrailingStopPct:    -15,
		HardStopPct:        -35,
		MomentumPeriod:     21,
		RSIPeriod:          14,
		RSIOverbought:      75,
		RSIExtreme:         80,
		MaxPositions:       30,
		MaxNewPositions:    5,
		CashSafetyFactor:   0.85,
		RotateMomentumDiff: 20,
		MinHoldingDays:     60,
		AlphaWarnPct:       -20,
	}
}

// LoadPolicy reads overrides from path on top of the defaults. A missing file
// is not an error; a malformed one is.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, p.validate()
}

// SavePolicy writes the policy as YAML, used by init to seed an editable
// starting point.
func SavePolicy(path string, p Policy) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (p Policy) validate() error {
	if p.StopPolicy != StopFixed && p.StopPolicy != StopTrailing {
		return fmt.Errorf("stop_policy must be %q or %q, got %q", StopFixed, StopTrailing, p.StopPolicy)
	}
	if p.FixedStopPct >= 0 || p.HardStopPct >= 0 {
		return fmt.Errorf("stop thresholds must be negative (fixed %v, hard %v)", p.FixedStopPct, p.HardStopPct)
	}
	if p.HardStopPct > p.FixedStopPct {
		return fmt.Errorf("hard stop (%v) must be at or below the fixed stop (%v)", p.HardStopPct, p.FixedStopPct)
	}
	if p.CashSafetyFactor <= 0 || p.CashSafetyFactor > 1 {
		return fmt.Errorf("cash_safety_factor must be in (0, 1], got %v", p.CashSafetyFactor)
	}
	if p.MomentumPeriod < 2 {
		return fmt.Errorf("momentum_period must be at least 2, got %d", p.MomentumPeriod)
	}
	if p.MaxNewPositions < 1 {
		return fmt.Errorf("max_new_positions must be at least 1, got %d", p.MaxNewPositions)
	}
	return nil
}
