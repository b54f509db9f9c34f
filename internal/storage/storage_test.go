package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"alpha_premarket/internal/models"

	"github.com/shopspring/decimal"
)

func TestLoadPortfolioCreatesTemplate(t *testing.T) {
	repo, err := NewRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}

	pf, err := repo.LoadPortfolio()
	if err != nil {
		t.Fatalf("LoadPortfolio failed: %v", err)
	}
	if pf.Version != models.SchemaVersion {
		t.Errorf("expected version %s, got %s", models.SchemaVersion, pf.Version)
	}
	if len(pf.Positions) != 0 || len(pf.Transactions) != 0 {
		t.Errorf("template should be empty, got %+v", pf)
	}

	// The template must have been written so the next run finds it.
	if _, err := os.Stat(filepath.Join(repo.dir, portfolioFile)); err != nil {
		t.Errorf("template file not written: %v", err)
	}
}

func TestPortfolioRoundTrip(t *testing.T) {
	repo, _ := NewRepository(t.TempDir())

	pf := models.NewPortfolio()
	pf.Cash = decimal.NewFromFloat(1234.56)
	pf.Positions["AAPL"] = models.Position{
		Shares: 10, AvgPrice: decimal.NewFromFloat(150.25),
		CostBasis: decimal.NewFromFloat(1502.50), FirstEntry: "2026-01-05",
		HighSinceEntry: decimal.NewFromFloat(160),
	}
	pf.Transactions = append(pf.Transactions, models.Transaction{
		Date: "2026-01-05", Symbol: "AAPL", Action: "ADD",
		Shares: 10, Price: decimal.NewFromFloat(150.25),
	})

	if err := repo.SavePortfolio(pf); err != nil {
		t.Fatalf("SavePortfolio failed: %v", err)
	}
	got, err := repo.LoadPortfolio()
	if err != nil {
		t.Fatalf("LoadPortfolio failed: %v", err)
	}

	pos := got.Positions["AAPL"]
	if pos.Shares != 10 || !pos.AvgPrice.Equal(decimal.NewFromFloat(150.25)) {
		t.Errorf("position did not survive the round trip: %+v", pos)
	}
	if !got.Cash.Equal(pf.Cash) {
		t.Errorf("cash mismatch: %s vs %s", got.Cash, pf.Cash)
	}
	if len(got.Transactions) != 1 {
		t.Errorf("transactions lost: %+v", got.Transactions)
	}
}

func TestMigrationBackfillsHighs(t *testing.T) {
	dir := t.TempDir()

	// A 1.0-era file: no version, no high_since_entry.
	legacy := `{
		"cash": "500.00",
		"positions": {
			"MSFT": {
				"shares": 4,
				"avg_price": "300",
				"cost_basis": "1200",
				"first_entry": "2025-11-03"
			}
		},
		"transactions": []
	}`
	if err := os.WriteFile(filepath.Join(dir, portfolioFile), []byte(legacy), 0644); err != nil {
		t.Fatalf("writing legacy file: %v", err)
	}

	repo, _ := NewRepository(dir)
	pf, err := repo.LoadPortfolio()
	if err != nil {
		t.Fatalf("LoadPortfolio failed: %v", err)
	}

	if pf.Version != "1.1" {
		t.Errorf("expected migrated version 1.1, got %s", pf.Version)
	}
	pos := pf.Positions["MSFT"]
	if !pos.HighSinceEntry.Equal(pos.AvgPrice) {
		t.Errorf("high_since_entry should backfill from avg price, got %s", pos.HighSinceEntry)
	}

	// The migration must have been persisted.
	again, err := repo.LoadPortfolio()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if again.Version != "1.1" {
		t.Errorf("migration not saved, reloaded version %s", again.Version)
	}
	if !again.Positions["MSFT"].HighSinceEntry.Equal(decimal.NewFromInt(300)) {
		t.Errorf("backfilled high not saved, got %s", again.Positions["MSFT"].HighSinceEntry)
	}
}

func TestRunRoundTripKeepsActionIDs(t *testing.T) {
	repo, _ := NewRepository(t.TempDir())

	run := models.ActionRun{
		RunID: "test-run", Date: "2026-08-28",
		GeneratedAt: "2026-08-28T12:00:00Z", Version: "0.7.0",
		Actions: []models.Action{
			{ID: 1, Kind: models.ActionExit, Status: models.StatusPending,
				Exit: &models.HoldingDetail{Symbol: "AAA", Shares: 3, CurrentPrice: decimal.NewFromInt(80)}},
			{ID: 2, Kind: models.ActionAdd, Status: models.StatusPending,
				Add: &models.AddDetail{Symbol: "BBB", SuggestedShares: 5, CurrentPrice: decimal.NewFromInt(40)}},
		},
	}
	if err := repo.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	date, _ := time.Parse(models.DateLayout, run.Date)
	got, err := repo.LoadRun(date)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if got.RunID != "test-run" || len(got.Actions) != 2 {
		t.Fatalf("run did not survive the round trip: %+v", got)
	}
	for i, a := range got.Actions {
		if a.ID != run.Actions[i].ID {
			t.Errorf("action ID changed across the round trip: %d vs %d", a.ID, run.Actions[i].ID)
		}
	}
	if len(got.Pending()) != 2 {
		t.Errorf("expected 2 pending actions, got %d", len(got.Pending()))
	}
}

func TestLoadRunMissing(t *testing.T) {
	repo, _ := NewRepository(t.TempDir())
	if _, err := repo.LoadRun(time.Now()); err == nil {
		t.Error("expected an error for a missing run file")
	}
}

func TestYearSnapshot(t *testing.T) {
	repo, _ := NewRepository(t.TempDir())

	// Missing snapshot is nil, not an error.
	snap, err := repo.LoadSnapshot(2026)
	if err != nil || snap != nil {
		t.Fatalf("missing snapshot should be (nil, nil), got (%+v, %v)", snap, err)
	}

	pf := models.NewPortfolio()
	pf.Cash = decimal.NewFromInt(1000)
	pf.Positions["AAA"] = models.Position{Shares: 10, AvgPrice: decimal.NewFromInt(90)}
	pf.Positions["NOPRICE"] = models.Position{Shares: 2, AvgPrice: decimal.NewFromInt(50)}

	built := BuildYearSnapshot(pf, map[string]decimal.Decimal{
		"AAA": decimal.NewFromInt(100),
	}, 2026)

	// 1000 cash + 10*100 + 2*50 (cost-basis fallback).
	if !built.TotalValue.Equal(decimal.NewFromInt(2100)) {
		t.Errorf("expected total 2100, got %s", built.TotalValue)
	}

	if err := repo.SaveSnapshot(built); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	loaded, err := repo.LoadSnapshot(2026)
	if err != nil || loaded == nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if !loaded.TotalValue.Equal(built.TotalValue) {
		t.Errorf("snapshot total changed across the round trip: %s", loaded.TotalValue)
	}

	pnl := CalcYearlyPnL(decimal.NewFromInt(2310), loaded)
	if pnl == nil {
		t.Fatal("expected a yearly P&L")
	}
	if !pnl.PnLAmount.Equal(decimal.NewFromInt(210)) || pnl.PnLPct != 10.0 {
		t.Errorf("expected +210 (+10%%), got %s (%v%%)", pnl.PnLAmount, pnl.PnLPct)
	}

	if CalcYearlyPnL(decimal.NewFromInt(100), nil) != nil {
		t.Error("no baseline should yield nil")
	}
}

func TestWatchlistRoundTrip(t *testing.T) {
	repo, _ := NewRepository(t.TempDir())

	wl, err := repo.LoadWatchlist()
	if err != nil {
		t.Fatalf("LoadWatchlist failed: %v", err)
	}
	if len(wl.Symbols) != 0 {
		t.Errorf("expected empty watchlist, got %v", wl.Symbols)
	}

	wl.Add("nvda", "brk.b")
	if err := repo.SaveWatchlist(wl); err != nil {
		t.Fatalf("SaveWatchlist failed: %v", err)
	}
	got, _ := repo.LoadWatchlist()
	if len(got.Symbols) != 2 || got.Symbols[0] != "NVDA" || got.Symbols[1] != "BRK-B" {
		t.Errorf("unexpected watchlist %v", got.Symbols)
	}
}
