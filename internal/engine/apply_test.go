package engine

import (
	"errors"
	"testing"

	"alpha_premarket/internal/models"

	"github.com/shopspring/decimal"
)

func confirmedAdd(id int, symbol string, shares int64, price float64) models.Action {
	return models.Action{
		ID: id, Kind: models.ActionAdd, Status: models.StatusConfirmed,
		ConfirmDate: "2026-08-28",
		Add: &models.AddDetail{
			Symbol: symbol, SuggestedShares: shares,
			CurrentPrice: decimal.NewFromFloat(price),
		},
	}
}

func confirmedExit(id int, symbol string, shares int64, price float64) models.Action {
	return models.Action{
		ID: id, Kind: models.ActionExit, Status: models.StatusConfirmed,
		ConfirmDate: "2026-08-28",
		Exit: &models.HoldingDetail{
			Symbol: symbol, Shares: shares,
			CurrentPrice: decimal.NewFromFloat(price),
		},
	}
}

func TestApplyAddOpensPosition(t *testing.T) {
	pf := models.NewPortfolio()
	pf.Cash = decimal.NewFromInt(1000)

	err := Apply(&pf, []models.Action{confirmedAdd(1, "NEW", 5, 100)}, testAsOf)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if !pf.Cash.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected cash 500, got %s", pf.Cash)
	}
	pos, ok := pf.Positions["NEW"]
	if !ok {
		t.Fatal("position NEW not created")
	}
	if pos.Shares != 5 || !pos.AvgPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected position %+v", pos)
	}
	if pos.FirstEntry != "2026-08-28" {
		t.Errorf("first entry should be the confirm date, got %s", pos.FirstEntry)
	}
	if !pos.HighSinceEntry.Equal(decimal.NewFromInt(100)) {
		t.Errorf("high since entry should start at the fill price, got %s", pos.HighSinceEntry)
	}
	if len(pf.Transactions) != 1 || pf.Transactions[0].Action != "ADD" {
		t.Errorf("expected one ADD transaction, got %+v", pf.Transactions)
	}
}

func TestApplyAddMergesWithWeightedAverage(t *testing.T) {
	pf := models.NewPortfolio()
	pf.Cash = decimal.NewFromInt(2000)
	pf.Positions["OLD"] = models.Position{
		Shares: 10, AvgPrice: decimal.NewFromInt(100),
		CostBasis: decimal.NewFromInt(1000), FirstEntry: "2026-01-05",
		HighSinceEntry: decimal.NewFromInt(110),
	}

	err := Apply(&pf, []models.Action{confirmedAdd(1, "OLD", 10, 120)}, testAsOf)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	pos := pf.Positions["OLD"]
	if pos.Shares != 20 {
		t.Errorf("expected 20 shares, got %d", pos.Shares)
	}
	if !pos.AvgPrice.Equal(decimal.NewFromInt(110)) {
		t.Errorf("expected weighted avg 110, got %s", pos.AvgPrice)
	}
	if !pos.CostBasis.Equal(decimal.NewFromInt(2200)) {
		t.Errorf("expected cost basis 2200, got %s", pos.CostBasis)
	}
	if pos.FirstEntry != "2026-01-05" {
		t.Errorf("first entry must not change on a top-up, got %s", pos.FirstEntry)
	}
	if !pos.HighSinceEntry.Equal(decimal.NewFromInt(120)) {
		t.Errorf("high should rise to the fill price, got %s", pos.HighSinceEntry)
	}
}

func TestApplyExitFullAndPartial(t *testing.T) {
	pf := models.NewPortfolio()
	pf.Positions["AAA"] = models.Position{
		Shares: 10, AvgPrice: decimal.NewFromInt(50),
		CostBasis: decimal.NewFromInt(500), FirstEntry: "2026-01-05",
	}

	// Partial exit keeps the position with a recomputed cost basis.
	err := Apply(&pf, []models.Action{confirmedExit(1, "AAA", 4, 60)}, testAsOf)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	pos := pf.Positions["AAA"]
	if pos.Shares != 6 || !pos.CostBasis.Equal(decimal.NewFromInt(300)) {
		t.Errorf("unexpected position after partial exit: %+v", pos)
	}
	if !pf.Cash.Equal(decimal.NewFromInt(240)) {
		t.Errorf("expected cash 240, got %s", pf.Cash)
	}

	// Full exit deletes it.
	err = Apply(&pf, []models.Action{confirmedExit(2, "AAA", 6, 60)}, testAsOf)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, held := pf.Positions["AAA"]; held {
		t.Error("position should be deleted after a full exit")
	}
	if !pf.Cash.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected cash 600, got %s", pf.Cash)
	}
}

func TestApplyRejectsOverdraft(t *testing.T) {
	pf := models.NewPortfolio()
	pf.Cash = decimal.NewFromInt(100)

	err := Apply(&pf, []models.Action{confirmedAdd(1, "BIG", 5, 100)}, testAsOf)
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("expected ErrInsufficientCash, got %v", err)
	}
}

func TestApplyExitsFundLaterAdds(t *testing.T) {
	pf := models.NewPortfolio()
	pf.Cash = decimal.Zero
	pf.Positions["OUT"] = models.Position{
		Shares: 10, AvgPrice: decimal.NewFromInt(100),
		CostBasis: decimal.NewFromInt(1000), FirstEntry: "2026-01-05",
	}

	batch := []models.Action{
		confirmedExit(1, "OUT", 10, 90),
		confirmedAdd(2, "IN", 8, 100),
	}
	if err := Apply(&pf, batch, testAsOf); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	// 900 proceeds - 800 spent.
	if !pf.Cash.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected cash 100, got %s", pf.Cash)
	}
}

func TestApplyHonorsRecordedFills(t *testing.T) {
	pf := models.NewPortfolio()
	pf.Cash = decimal.NewFromInt(1000)

	a := confirmedAdd(1, "MOD", 5, 100)
	actualShares := int64(3)
	actualPrice := decimal.NewFromFloat(95.5)
	a.ActualShares = &actualShares
	a.ActualPrice = &actualPrice

	if err := Apply(&pf, []models.Action{a}, testAsOf); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	pos := pf.Positions["MOD"]
	if pos.Shares != 3 || !pos.AvgPrice.Equal(actualPrice) {
		t.Errorf("recorded fill not honored: %+v", pos)
	}
	want := decimal.NewFromInt(1000).Sub(actualPrice.Mul(decimal.NewFromInt(3)))
	if !pf.Cash.Equal(want) {
		t.Errorf("expected cash %s, got %s", want, pf.Cash)
	}
}

func TestApplyIgnoresSkippedAndPending(t *testing.T) {
	pf := models.NewPortfolio()
	pf.Cash = decimal.NewFromInt(1000)

	skipped := confirmedAdd(1, "SKIP", 5, 100)
	skipped.Status = models.StatusSkipped
	pending := confirmedAdd(2, "WAIT", 5, 100)
	pending.Status = models.StatusPending

	if err := Apply(&pf, []models.Action{skipped, pending}, testAsOf); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(pf.Positions) != 0 || !pf.Cash.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("non-confirmed actions must not mutate state: %+v cash %s", pf.Positions, pf.Cash)
	}
}

func TestApplyRotationIsSellThenBuy(t *testing.T) {
	pf := models.NewPortfolio()
	pf.Cash = decimal.Zero
	pf.Positions["STALE"] = models.Position{
		Shares: 10, AvgPrice: decimal.NewFromInt(100),
		CostBasis: decimal.NewFromInt(1000), FirstEntry: "2026-01-05",
	}

	rot := models.Action{
		ID: 1, Kind: models.ActionRotate, Status: models.StatusConfirmed,
		ConfirmDate: "2026-08-28",
		Rotate: &models.RotateDetail{
			SellSymbol: "STALE", SellShares: 10, SellPrice: decimal.NewFromInt(100),
			BuySymbol: "HOT", BuyShares: 17, BuyPrice: decimal.NewFromInt(50),
		},
	}

	if err := Apply(&pf, []models.Action{rot}, testAsOf); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, held := pf.Positions["STALE"]; held {
		t.Error("sell leg should close the old position")
	}
	pos, ok := pf.Positions["HOT"]
	if !ok || pos.Shares != 17 {
		t.Fatalf("buy leg not applied: %+v", pf.Positions)
	}
	// 1000 proceeds - 850 spent.
	if !pf.Cash.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected cash 150, got %s", pf.Cash)
	}
	if len(pf.Transactions) != 2 {
		t.Errorf("a rotation should log two transactions, got %d", len(pf.Transactions))
	}
}

func TestObserveHighsOnlyRaises(t *testing.T) {
	pf := models.NewPortfolio()
	pf.Positions["UP"] = models.Position{
		Shares: 1, AvgPrice: decimal.NewFromInt(100),
		HighSinceEntry: decimal.NewFromInt(110),
	}
	pf.Positions["DOWN"] = models.Position{
		Shares: 1, AvgPrice: decimal.NewFromInt(100),
		HighSinceEntry: decimal.NewFromInt(110),
	}

	changed := ObserveHighs(&pf, map[string]decimal.Decimal{
		"UP":   decimal.NewFromInt(120),
		"DOWN": decimal.NewFromInt(90),
	})
	if !changed {
		t.Fatal("expected a change report")
	}
	if !pf.Positions["UP"].HighSinceEntry.Equal(decimal.NewFromInt(120)) {
		t.Errorf("high should rise, got %s", pf.Positions["UP"].HighSinceEntry)
	}
	if !pf.Positions["DOWN"].HighSinceEntry.Equal(decimal.NewFromInt(110)) {
		t.Errorf("high must never fall, got %s", pf.Positions["DOWN"].HighSinceEntry)
	}

	if ObserveHighs(&pf, map[string]decimal.Decimal{"UP": decimal.NewFromInt(120)}) {
		t.Error("unchanged prices should not report a change")
	}
}
