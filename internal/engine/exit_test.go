package engine

import (
	"testing"

	"alpha_premarket/internal/config"
	"alpha_premarket/internal/models"

	"github.com/shopspring/decimal"
)

func testPosition(avg, high float64) models.Position {
	return models.Position{
		Shares:         10,
		AvgPrice:       decimal.NewFromFloat(avg),
		CostBasis:      decimal.NewFromFloat(avg * 10),
		FirstEntry:     "2026-01-05",
		HighSinceEntry: decimal.NewFromFloat(high),
	}
}

func checkSignal(t *testing.T, sig *ExitSignal, wantSource string) {
	t.Helper()
	if wantSource == "" {
		if sig != nil {
			t.Fatalf("expected no signal, got %s (%s)", sig.Source, sig.Reason)
		}
		return
	}
	if sig == nil {
		t.Fatalf("expected %s signal, got none", wantSource)
	}
	if sig.Source != wantSource {
		t.Errorf("expected source %s, got %s (%s)", wantSource, sig.Source, sig.Reason)
	}
}

func TestFixedStopTriggers(t *testing.T) {
	rules := ExitRules(config.DefaultPolicy())

	// -20% from a $100 cost basis breaches the -15% stop.
	pos := testPosition(100, 100)
	sig := EvaluateExit(rules, pos, decimal.NewFromFloat(80), Refs{})
	checkSignal(t, sig, "fixed_stop")

	// -10% does not.
	sig = EvaluateExit(rules, pos, decimal.NewFromFloat(90), Refs{})
	checkSignal(t, sig, "")
}

func TestFixedStopOutranksMA200(t *testing.T) {
	rules := ExitRules(config.DefaultPolicy())

	// Price breaches the stop AND sits below the MA; the primary stop
	// must win because evaluation is first hit wins.
	pos := testPosition(100, 100)
	ma := decimal.NewFromFloat(90)
	sig := EvaluateExit(rules, pos, decimal.NewFromFloat(80), Refs{MA200: &ma})
	checkSignal(t, sig, "fixed_stop")
}

func TestMA200Stop(t *testing.T) {
	rules := ExitRules(config.DefaultPolicy())

	// -5% from cost, but below the 200-day MA.
	pos := testPosition(100, 110)
	ma := decimal.NewFromFloat(100)
	sig := EvaluateExit(rules, pos, decimal.NewFromFloat(95), Refs{MA200: &ma})
	checkSignal(t, sig, "ma200_stop")

	// At the MA exactly: no break.
	atMA := decimal.NewFromFloat(95)
	sig = EvaluateExit(rules, pos, decimal.NewFromFloat(95), Refs{MA200: &atMA})
	checkSignal(t, sig, "")
}

func TestExtremeStopBackstop(t *testing.T) {
	// Under the trailing policy with no recorded high, the primary rule
	// cannot decide; a -40% position must still hit the backstop.
	pol := config.DefaultPolicy()
	pol.StopPolicy = config.StopTrailing
	rules := ExitRules(pol)

	pos := testPosition(100, 0)
	pos.HighSinceEntry = decimal.Zero
	sig := EvaluateExit(rules, pos, decimal.NewFromFloat(60), Refs{})
	checkSignal(t, sig, "extreme_stop")
}

func TestTrailingStop(t *testing.T) {
	pol := config.DefaultPolicy()
	pol.StopPolicy = config.StopTrailing
	rules := ExitRules(pol)

	// 16% off the $120 high triggers even though cost basis is fine.
	pos := testPosition(100, 120)
	sig := EvaluateExit(rules, pos, decimal.NewFromFloat(100.8), Refs{})
	checkSignal(t, sig, "trailing_stop")

	// 10% off the high holds.
	sig = EvaluateExit(rules, pos, decimal.NewFromFloat(108), Refs{})
	checkSignal(t, sig, "")
}

func TestCorePositionsNeverExit(t *testing.T) {
	rules := ExitRules(config.DefaultPolicy())

	pos := testPosition(100, 100)
	pos.Core = true
	sig := EvaluateExit(rules, pos, decimal.NewFromFloat(30), Refs{})
	checkSignal(t, sig, "")
}

func TestMissingPriceStaysSilent(t *testing.T) {
	rules := ExitRules(config.DefaultPolicy())

	pos := testPosition(100, 100)
	sig := EvaluateExit(rules, pos, decimal.Zero, Refs{})
	checkSignal(t, sig, "")
}
